package loans

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a copy or borrower does not exist.
	ErrNotFound = errors.New("not found")
)

type ValidationKind string

const (
	KindOutOfRangeDate       ValidationKind = "out_of_range_date"
	KindMissingRequiredField ValidationKind = "missing_required_field"
	KindInvalidStatus        ValidationKind = "invalid_status"
)

// DateBound names the edge of the loan window a rejected date fell outside.
type DateBound string

const (
	BoundPast   DateBound = "past"
	BoundTooFar DateBound = "too-far"
)

// Messages shown to librarians.
const (
	MsgDateInPast        = "Invalid date - date in past"
	MsgMissingBorrower   = "Missing required borrower."
	MsgMissingDueDate    = "Missing required due date."
	MsgInvalidLoanStatus = "Select a valid status."
)

// Field names used in validation errors.
const (
	FieldDueBack  = "due_back"
	FieldBorrower = "borrower"
	FieldStatus   = "status"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports why a loan mutation was rejected. Nothing has been
// written when it is returned.
type ValidationError struct {
	Kind   ValidationKind
	Bound  DateBound // set for KindOutOfRangeDate
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, " ")
}

// FieldNames lists the offending fields in report order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// IsValidationError reports whether err is (or wraps) a ValidationError and
// returns it.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
