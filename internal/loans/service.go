// Package loans manages the loan lifecycle of individual book copies:
// renewing due dates, changing loan status and the queries over current loans.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/catalog/internal/access"
	"github.com/mrlokans/catalog/internal/entities"
)

// InstanceStore is the persistence the loan service needs.
type InstanceStore interface {
	Get(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error)
	UpdateColumns(ctx context.Context, inst *entities.BookInstance, columns ...string) error
	OverdueLoans(ctx context.Context, asOf entities.Date) ([]entities.BookInstance, error)
	LoansForBorrower(ctx context.Context, userID uint) ([]entities.BookInstance, error)
	AllLoans(ctx context.Context) ([]entities.BookInstance, error)
}

// UserStore checks that a borrower exists.
type UserStore interface {
	Exists(ctx context.Context, id uint) (bool, error)
}

// AuditLogger records successful loan mutations.
type AuditLogger interface {
	LogRenewal(userID uint, inst *entities.BookInstance, previous *entities.Date)
	LogStatusChange(userID uint, inst *entities.BookInstance, from entities.LoanStatus)
}

type Config struct {
	Window Window
	Now    func() time.Time // defaults to time.Now
}

type Service struct {
	instances InstanceStore
	users     UserStore
	audit     AuditLogger
	window    Window
	now       func() time.Time
}

// NewService creates a loan service. audit may be nil.
func NewService(instances InstanceStore, users UserStore, audit AuditLogger, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		instances: instances,
		users:     users,
		audit:     audit,
		window:    cfg.Window.orDefault(),
		now:       now,
	}
}

// StatusChange describes a requested status transition. BorrowerID and
// DueBack are required when Status is on loan.
type StatusChange struct {
	Status     entities.LoanStatus
	BorrowerID *uint
	DueBack    *entities.Date
}

// BorrowerLoans is a user's current loans in due date order.
type BorrowerLoans struct {
	Loans        []entities.BookInstance `json:"loans"`
	OverdueCount int                     `json:"overdue_count"`
}

// Today returns the current calendar day.
func (s *Service) Today() entities.Date {
	return today(s.now)
}

// Window returns the due date window in effect.
func (s *Service) Window() Window {
	return s.window
}

// DefaultRenewalDate is the date offered when a renewal is started.
func (s *Service) DefaultRenewalDate() entities.Date {
	return s.window.DefaultRenewal(s.Today())
}

// RenewLoan sets a new due date on a copy. Only the due date changes.
func (s *Service) RenewLoan(ctx context.Context, actor *entities.User, instanceID uuid.UUID, dueBack entities.Date) (*entities.BookInstance, error) {
	if err := access.Authorize(actor, access.MarkReturned).Err(); err != nil {
		return nil, err
	}

	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if dueBack.IsZero() {
		return nil, &ValidationError{
			Kind:   KindMissingRequiredField,
			Fields: []FieldError{{Field: FieldDueBack, Message: MsgMissingDueDate}},
		}
	}
	if verr := s.window.Validate(dueBack, s.Today()); verr != nil {
		return nil, verr
	}

	previous := inst.DueBack
	inst.DueBack = &dueBack
	if err := s.instances.UpdateColumns(ctx, inst, "due_back"); err != nil {
		return nil, s.translate(err, "failed to renew loan")
	}

	if s.audit != nil {
		s.audit.LogRenewal(actor.ID, inst, previous)
	}
	return inst, nil
}

// ChangeStatus moves a copy to a new loan status. Entering on loan records
// the borrower and due date. Leaving on loan keeps both as they were.
func (s *Service) ChangeStatus(ctx context.Context, actor *entities.User, instanceID uuid.UUID, change StatusChange) (*entities.BookInstance, error) {
	if err := access.Authorize(actor, access.MarkReturned).Err(); err != nil {
		return nil, err
	}

	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	if err := s.validateChange(ctx, change); err != nil {
		return nil, err
	}

	from := inst.Status
	inst.Status = change.Status
	columns := []string{"status"}
	if change.Status == entities.LoanStatusOnLoan {
		borrowerID := *change.BorrowerID
		dueBack := *change.DueBack
		inst.BorrowerID = &borrowerID
		inst.DueBack = &dueBack
		inst.Borrower = nil
		columns = append(columns, "borrower_id", "due_back")
	}

	if err := s.instances.UpdateColumns(ctx, inst, columns...); err != nil {
		return nil, s.translate(err, "failed to change status")
	}

	if s.audit != nil {
		s.audit.LogStatusChange(actor.ID, inst, from)
	}
	return inst, nil
}

func (s *Service) validateChange(ctx context.Context, change StatusChange) error {
	if !change.Status.Valid() {
		return &ValidationError{
			Kind:   KindInvalidStatus,
			Fields: []FieldError{{Field: FieldStatus, Message: MsgInvalidLoanStatus}},
		}
	}

	if change.Status == entities.LoanStatusOnLoan {
		var missing []FieldError
		if change.BorrowerID == nil {
			missing = append(missing, FieldError{Field: FieldBorrower, Message: MsgMissingBorrower})
		}
		if change.DueBack == nil || change.DueBack.IsZero() {
			missing = append(missing, FieldError{Field: FieldDueBack, Message: MsgMissingDueDate})
		}
		if len(missing) > 0 {
			return &ValidationError{Kind: KindMissingRequiredField, Fields: missing}
		}
	}

	if change.DueBack != nil && !change.DueBack.IsZero() {
		if verr := s.window.Validate(*change.DueBack, s.Today()); verr != nil {
			return verr
		}
	}

	if change.BorrowerID != nil {
		ok, err := s.users.Exists(ctx, *change.BorrowerID)
		if err != nil {
			return fmt.Errorf("failed to look up borrower: %w", err)
		}
		if !ok {
			return fmt.Errorf("borrower %d: %w", *change.BorrowerID, ErrNotFound)
		}
	}
	return nil
}

// OverdueLoans returns copies on loan whose due date is before asOf, oldest
// first.
func (s *Service) OverdueLoans(ctx context.Context, asOf entities.Date) ([]entities.BookInstance, error) {
	loans, err := s.instances.OverdueLoans(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	return loans, nil
}

// LoansForBorrower returns a user's current loans and how many are overdue.
func (s *Service) LoansForBorrower(ctx context.Context, userID uint) (BorrowerLoans, error) {
	loans, err := s.instances.LoansForBorrower(ctx, userID)
	if err != nil {
		return BorrowerLoans{}, fmt.Errorf("failed to list loans: %w", err)
	}

	result := BorrowerLoans{Loans: loans}
	day := s.Today()
	for _, l := range loans {
		if l.IsOverdue(day) {
			result.OverdueCount++
		}
	}
	return result, nil
}

// AllLoans returns every copy on loan. Restricted to staff who manage loans.
func (s *Service) AllLoans(ctx context.Context, actor *entities.User) ([]entities.BookInstance, error) {
	if err := access.Authorize(actor, access.MarkReturned).Err(); err != nil {
		return nil, err
	}
	loans, err := s.instances.AllLoans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	return loans, nil
}

func (s *Service) getInstance(ctx context.Context, id uuid.UUID) (*entities.BookInstance, error) {
	inst, err := s.instances.Get(ctx, id)
	if err != nil {
		return nil, s.translate(err, "failed to load book instance "+id.String())
	}
	return inst, nil
}

func (s *Service) translate(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
