package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event passed to LogAsync has been written.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogRenewal records a due date change on a copy.
func (s *Service) LogRenewal(userID uint, inst *entities.BookInstance, previous *entities.Date) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLoan,
		Action:      "loan_renew",
		Description: "Renewed " + describeInstance(inst) + " until " + dateString(inst.DueBack),
		EntityType:  "book_instance",
		EntityID:    inst.ID.String(),
		Metadata: encodeMetadata(map[string]any{
			"previous_due_back": dateString(previous),
			"due_back":          dateString(inst.DueBack),
		}),
		Status: entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogStatusChange records a loan status transition on a copy.
func (s *Service) LogStatusChange(userID uint, inst *entities.BookInstance, from entities.LoanStatus) {
	metadata := map[string]any{
		"from": string(from),
		"to":   string(inst.Status),
	}
	if inst.BorrowerID != nil {
		metadata["borrower_id"] = *inst.BorrowerID
	}
	if inst.DueBack != nil {
		metadata["due_back"] = inst.DueBack.String()
	}

	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLoan,
		Action:      "loan_status",
		Description: describeInstance(inst) + ": " + from.Label() + " -> " + inst.Status.Label(),
		EntityType:  "book_instance",
		EntityID:    inst.ID.String(),
		Metadata:    encodeMetadata(metadata),
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogCatalogChange records the creation or update of a catalog record.
// action is e.g. "author_create" or "book_update".
func (s *Service) LogCatalogChange(userID uint, action, entityType, entityID, entityName string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventCatalog,
		Action:      action,
		Description: entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogDelete records a deletion event.
func (s *Service) LogDelete(userID uint, entityType, entityID, entityName string) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventDelete,
		Action:      entityType + "_delete",
		Description: "Deleted " + entityType + ": " + entityName,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogOverdue records that a copy was found overdue by the background scan.
// It is written synchronously so the scan can report failures.
func (s *Service) LogOverdue(ctx context.Context, inst *entities.BookInstance, asOf entities.Date) error {
	var borrowerID uint
	if inst.BorrowerID != nil {
		borrowerID = *inst.BorrowerID
	}

	event := &entities.AuditEvent{
		UserID:      borrowerID,
		EventType:   entities.AuditEventOverdue,
		Action:      "loan_overdue",
		Description: describeInstance(inst) + " was due back " + dateString(inst.DueBack),
		EntityType:  "book_instance",
		EntityID:    inst.ID.String(),
		Metadata: encodeMetadata(map[string]any{
			"as_of":    asOf.String(),
			"due_back": dateString(inst.DueBack),
		}),
		Status: entities.AuditStatusSuccess,
	}

	return s.repo.LogEvent(ctx, event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(userID uint, action string, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: ipAddr,
		Status:    entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// Events retrieves paginated audit events.
func (s *Service) Events(ctx context.Context, filter audit.Filter) ([]entities.AuditEvent, int64, error) {
	return s.repo.Find(ctx, filter)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func describeInstance(inst *entities.BookInstance) string {
	if inst.Book != nil && inst.Book.Title != "" {
		return truncate(inst.Book.Title, 200) + " (" + inst.ID.String() + ")"
	}
	return inst.ID.String()
}

func dateString(d *entities.Date) string {
	if d == nil {
		return "none"
	}
	return d.String()
}

func encodeMetadata(metadata map[string]any) string {
	mdBytes, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(mdBytes)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
