package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/catalog"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	catalogdb "github.com/mrlokans/catalog/internal/database/catalog"
	"github.com/mrlokans/catalog/internal/database/instances"
	"github.com/mrlokans/catalog/internal/database/users"
	"github.com/mrlokans/catalog/internal/entities"
	"github.com/mrlokans/catalog/internal/entrypoint"
	"github.com/mrlokans/catalog/internal/loans"
)

type seedAuthor struct {
	first, last string
	born, died  entities.Date
}

type seedBook struct {
	title, summary, isbn string
	author               int // index into seedAuthors
	genres               []string
	copies               []seedCopy
}

type seedCopy struct {
	imprint   string
	status    entities.LoanStatus
	languages []string
}

var seedGenres = []string{"Fiction", "Science Fiction", "Philosophy", "Adventure"}

var seedLanguages = []string{"English", "French"}

var seedAuthors = []seedAuthor{
	{"Mary", "Shelley", entities.NewDate(1797, time.August, 30), entities.NewDate(1851, time.February, 1)},
	{"Jules", "Verne", entities.NewDate(1828, time.February, 8), entities.NewDate(1905, time.March, 24)},
	{"Marcus", "Aurelius", entities.NewDate(121, time.April, 26), entities.NewDate(180, time.March, 17)},
}

var seedBooks = []seedBook{
	{
		title:   "Frankenstein",
		summary: "A young scientist creates a sapient creature in an unorthodox experiment.",
		isbn:    "9780141439471",
		author:  0,
		genres:  []string{"Fiction", "Science Fiction"},
		copies: []seedCopy{
			{"Penguin Classics, 2003", entities.LoanStatusAvailable, []string{"English"}},
			{"Lackington, 1818", entities.LoanStatusMaintenance, []string{"English"}},
		},
	},
	{
		title:   "Twenty Thousand Leagues Under the Seas",
		summary: "Professor Aronnax joins Captain Nemo aboard the submarine Nautilus.",
		isbn:    "9780199539277",
		author:  1,
		genres:  []string{"Fiction", "Adventure", "Science Fiction"},
		copies: []seedCopy{
			{"Oxford World's Classics, 2009", entities.LoanStatusAvailable, []string{"English"}},
			{"Hetzel, 1871", entities.LoanStatusReserved, []string{"French"}},
		},
	},
	{
		title:   "Meditations",
		summary: "Private notes of a Roman emperor on Stoic philosophy.",
		isbn:    "9780140449334",
		author:  2,
		genres:  []string{"Philosophy"},
		copies: []seedCopy{
			{"Penguin Classics, 2006", entities.LoanStatusAvailable, []string{"English"}},
		},
	},
}

// SeedCommand fills an empty catalog with sample books.
type SeedCommand struct {
	Config   *config.Config
	Borrower string // username who receives one sample loan
	Force    bool

	Out io.Writer
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{Config: cfg, Out: os.Stdout}
}

// ParseFlags parses command line flags
func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.Config.Database.Path, "db", cmd.Config.Database.Path, "Path to the SQLite database file")
	fs.StringVar(&cmd.Borrower, "borrower", "", "Existing username to lend one sample copy to")
	fs.BoolVar(&cmd.Force, "force", false, "Seed even when the catalog already has books")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the catalog with public domain books, their authors and copies.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the command
func (cmd *SeedCommand) Run() error {
	db, err := entrypoint.OpenDatabase(cmd.Config, logger.Warn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return cmd.seed(context.Background(), db)
}

func (cmd *SeedCommand) seed(ctx context.Context, db *database.Database) error {
	actor := &auth.LocalUser
	userRepo := users.NewRepository(db.DB)
	instanceRepo := instances.NewRepository(db.DB)
	svc := catalog.NewService(catalogdb.NewRepository(db.DB), instanceRepo, userRepo, nil, catalog.Config{})

	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	if summary.Books > 0 && !cmd.Force {
		fmt.Fprintf(cmd.Out, "Catalog already has %d books, skipping (use -force to seed anyway)\n", summary.Books)
		return nil
	}

	var borrower *entities.User
	if cmd.Borrower != "" {
		if borrower, err = userRepo.GetUserByUsername(ctx, cmd.Borrower); err != nil {
			return fmt.Errorf("borrower %q: %w", cmd.Borrower, err)
		}
	}

	genres := make(map[string]uint, len(seedGenres))
	for _, name := range seedGenres {
		genre, err := svc.CreateGenre(ctx, actor, name)
		if err != nil {
			return err
		}
		genres[name] = genre.ID
	}

	languages := make(map[string]uint, len(seedLanguages))
	for _, name := range seedLanguages {
		language, err := svc.CreateLanguage(ctx, actor, name)
		if err != nil {
			return err
		}
		languages[name] = language.ID
	}

	authorIDs := make([]uint, len(seedAuthors))
	for i, a := range seedAuthors {
		born, died := a.born, a.died
		author, err := svc.CreateAuthor(ctx, actor, catalog.AuthorInput{
			FirstName:   a.first,
			LastName:    a.last,
			DateOfBirth: &born,
			DateOfDeath: &died,
		})
		if err != nil {
			return err
		}
		authorIDs[i] = author.ID
	}

	var lendable *entities.BookInstance
	var books, copies int
	for _, b := range seedBooks {
		in := catalog.BookInput{
			Title:    b.title,
			AuthorID: &authorIDs[b.author],
			Summary:  b.summary,
			ISBN:     b.isbn,
		}
		for _, name := range b.genres {
			in.GenreIDs = append(in.GenreIDs, genres[name])
		}
		book, err := svc.CreateBook(ctx, actor, in)
		if err != nil {
			return err
		}
		books++

		for _, c := range b.copies {
			copyIn := catalog.InstanceInput{BookID: book.ID, Imprint: c.imprint, Status: c.status}
			for _, name := range c.languages {
				copyIn.LanguageIDs = append(copyIn.LanguageIDs, languages[name])
			}
			inst, err := svc.CreateInstance(ctx, actor, copyIn)
			if err != nil {
				return err
			}
			copies++
			if lendable == nil && c.status == entities.LoanStatusAvailable {
				lendable = inst
			}
		}
	}

	fmt.Fprintf(cmd.Out, "Seeded %d books with %d copies\n", books, copies)

	if borrower == nil || lendable == nil {
		return nil
	}
	loanSvc := loans.NewService(instanceRepo, userRepo, nil, loans.Config{
		Window: loans.Window{
			MaxWeeks:            cmd.Config.Loans.MaxWeeks,
			DefaultRenewalWeeks: cmd.Config.Loans.DefaultRenewalWeeks,
		},
	})
	dueBack := loanSvc.DefaultRenewalDate()
	if _, err := loanSvc.ChangeStatus(ctx, actor, lendable.ID, loans.StatusChange{
		Status:     entities.LoanStatusOnLoan,
		BorrowerID: &borrower.ID,
		DueBack:    &dueBack,
	}); err != nil {
		return fmt.Errorf("failed to lend sample copy: %w", err)
	}
	fmt.Fprintf(cmd.Out, "Lent %q to %s until %s\n", lendable.Book.Title, borrower.Username, dueBack)
	return nil
}
