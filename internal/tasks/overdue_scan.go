package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/catalog/internal/entities"
)

// OverdueFinder lists copies on loan whose due date is before asOf.
type OverdueFinder interface {
	OverdueLoans(ctx context.Context, asOf entities.Date) ([]entities.BookInstance, error)
}

// OverdueRecorder writes one audit event per overdue copy.
type OverdueRecorder interface {
	LogOverdue(ctx context.Context, inst *entities.BookInstance, asOf entities.Date) error
}

// OverdueScanTask records every loan that is overdue on AsOf. An empty AsOf
// means the day the task runs. The scan never modifies loan state.
type OverdueScanTask struct {
	AsOf string `json:"as_of,omitempty"`
}

func (t OverdueScanTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_scan",
		MaxAttempts: 2,
		Backoff:     10 * time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 7 * 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueScanProcessor builds the queue processor. now supplies the clock
// used when the task carries no date.
func OverdueScanProcessor(finder OverdueFinder, recorder OverdueRecorder, now func() time.Time) backlite.QueueProcessor[OverdueScanTask] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, task OverdueScanTask) error {
		if finder == nil || recorder == nil {
			return errors.New("overdue scan not configured")
		}

		asOf := entities.DateOf(now())
		if task.AsOf != "" {
			parsed, err := entities.ParseDate(task.AsOf)
			if err != nil {
				return fmt.Errorf("overdue scan: %w", err)
			}
			asOf = parsed
		}

		overdue, err := finder.OverdueLoans(ctx, asOf)
		if err != nil {
			return fmt.Errorf("overdue scan: %w", err)
		}

		var errs []error
		for i := range overdue {
			if err := recorder.LogOverdue(ctx, &overdue[i], asOf); err != nil {
				errs = append(errs, fmt.Errorf("record %s: %w", overdue[i].ID, err))
			}
		}
		log.Printf("[TASK] Overdue scan for %s: %d loans overdue, %d not recorded", asOf, len(overdue), len(errs))
		return errors.Join(errs...)
	}
}

func NewOverdueScanQueue(finder OverdueFinder, recorder OverdueRecorder, now func() time.Time) backlite.Queue {
	return backlite.NewQueue(OverdueScanProcessor(finder, recorder, now))
}
