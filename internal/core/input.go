package core

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Input field names, as reported in ValidationErrors.
const (
	FieldDescription = "description"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
)

// DateLayout is the calendar-day layout accepted alongside RFC 3339.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD day (UTC midnight).
// The empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, ErrInvalidDate
}

// ExpenseInput is an unvalidated expense as submitted by a form.
type ExpenseInput struct {
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

// ValidationErrors maps a field name to the reason it was rejected.
type ValidationErrors map[string]error

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f].Error()
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

// Messages flattens the errors to field -> message.
func (v ValidationErrors) Messages() map[string]string {
	out := make(map[string]string, len(v))
	for f, err := range v {
		out[f] = err.Error()
	}
	return out
}

// Validate checks every field and reports all failures at once.
func (in ExpenseInput) Validate() error {
	errs := ValidationErrors{}

	desc := strings.TrimSpace(in.Description)
	switch {
	case desc == "":
		errs[FieldDescription] = ErrEmptyDescription
	case utf8.RuneCountInString(desc) < MinDescriptionLength:
		errs[FieldDescription] = ErrShortDescription
	case utf8.RuneCountInString(desc) > MaxDescriptionLength:
		errs[FieldDescription] = ErrLongDescription
	}

	if _, err := ParseAmount(in.Amount); err != nil {
		errs[FieldAmount] = err
	}

	cat := Category(strings.TrimSpace(in.Category))
	switch {
	case cat == "":
		errs[FieldCategory] = ErrEmptyCategory
	case !cat.IsValid():
		errs[FieldCategory] = ErrUnknownCategory
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Expense validates the input and builds a record without an ID. A zero Date
// is replaced by now.
func (in ExpenseInput) Expense(now time.Time) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}
	amount, _ := ParseAmount(in.Amount)
	date := in.Date
	if date.IsZero() {
		date = now
	}
	return Expense{
		Description: strings.TrimSpace(in.Description),
		Amount:      amount,
		Category:    Category(strings.TrimSpace(in.Category)),
		Date:        date,
	}, nil
}

// FieldError returns the error recorded for field, if err is a ValidationErrors.
func FieldError(err error, field string) error {
	var v ValidationErrors
	if errors.As(err, &v) {
		return v[field]
	}
	return nil
}
