package loans

import (
	"fmt"
	"time"

	"github.com/mrlokans/catalog/internal/entities"
)

// Window is the range of acceptable due dates relative to today.
type Window struct {
	MaxWeeks            int
	DefaultRenewalWeeks int
}

// DefaultWindow allows due dates up to four weeks ahead and suggests three.
var DefaultWindow = Window{MaxWeeks: 4, DefaultRenewalWeeks: 3}

// Validate checks today <= d <= today + MaxWeeks. Both ends are inclusive.
func (w Window) Validate(d, today entities.Date) *ValidationError {
	if d.Before(today) {
		return &ValidationError{
			Kind:   KindOutOfRangeDate,
			Bound:  BoundPast,
			Fields: []FieldError{{Field: FieldDueBack, Message: MsgDateInPast}},
		}
	}
	if d.After(w.Latest(today)) {
		return &ValidationError{
			Kind:   KindOutOfRangeDate,
			Bound:  BoundTooFar,
			Fields: []FieldError{{Field: FieldDueBack, Message: fmt.Sprintf("Invalid date - more than %d weeks ahead", w.MaxWeeks)}},
		}
	}
	return nil
}

// Latest is the furthest acceptable due date.
func (w Window) Latest(today entities.Date) entities.Date {
	return today.AddDays(7 * w.MaxWeeks)
}

// DefaultRenewal is the date offered when a renewal form is opened.
func (w Window) DefaultRenewal(today entities.Date) entities.Date {
	return today.AddDays(7 * w.DefaultRenewalWeeks)
}

func (w Window) orDefault() Window {
	if w.MaxWeeks <= 0 {
		w.MaxWeeks = DefaultWindow.MaxWeeks
	}
	if w.DefaultRenewalWeeks <= 0 {
		w.DefaultRenewalWeeks = DefaultWindow.DefaultRenewalWeeks
	}
	return w
}

func today(now func() time.Time) entities.Date {
	return entities.DateOf(now())
}
