package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/entrypoint"
)

// CreateUserCommand registers an account from the command line.
type CreateUserCommand struct {
	Config   *config.Config
	Username string
	Email    string
	Password string
	Role     string

	Out io.Writer
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{Config: cfg, Out: os.Stdout}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "", "Login name (3-64 characters)")
	fs.StringVar(&cmd.Email, "email", "", "Email address")
	fs.StringVar(&cmd.Password, "password", "", "Initial password (falls back to CATALOG_PASSWORD)")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleMember), "Role: admin, librarian or member")
	fs.StringVar(&cmd.Config.Database.Path, "db", cmd.Config.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username NAME -email EMAIL [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account. Librarians may maintain the catalog and mark\n")
		fmt.Fprintf(os.Stderr, "copies returned; admins additionally manage users and background tasks.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username ada -email ada@example.com -role librarian\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		cmd.Password = os.Getenv("CATALOG_PASSWORD")
	}
	if cmd.Username == "" || cmd.Email == "" {
		return errors.New("-username and -email are required")
	}
	if cmd.Password == "" {
		return errors.New("-password or CATALOG_PASSWORD is required")
	}
	return nil
}

// Run executes the command
func (cmd *CreateUserCommand) Run() error {
	db, err := entrypoint.OpenDatabase(cmd.Config, logger.Warn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	svc := auth.NewService(db.DB, cmd.Config.Auth)
	user, err := svc.CreateUser(context.Background(), auth.NewUser{
		Username: cmd.Username,
		Email:    cmd.Email,
		Password: cmd.Password,
		Role:     entities.UserRole(cmd.Role),
	})
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", cmd.Username, err)
	}

	fmt.Fprintf(cmd.Out, "Created %s %q (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
