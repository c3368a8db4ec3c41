package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Food          Category = "food"
	Transport     Category = "transport"
	Entertainment Category = "entertainment"
	Utilities     Category = "utilities"
	Other         Category = "other"

	// AllCategories is the filter value that matches every category.
	AllCategories Category = "all"
)

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const (
	MinDescriptionLength = 3
	MaxDescriptionLength = 200
	MaxAmount            = 1_000_000
	MaxDecimalPlaces     = 2
)

type (
	Category string

	Theme string

	Expense struct {
		ID          int64     `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Category    Category  `json:"category"`
		Date        time.Time `json:"date"`
	}
)

// Categories lists the selectable categories in display order.
var Categories = []Category{Food, Transport, Entertainment, Utilities, Other}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum")
	ErrTooManyDecimals  = errors.New("too many decimal places")
	ErrEmptyAmount      = errors.New("empty amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrShortDescription = errors.New("description too short")
	ErrLongDescription  = errors.New("description too long")
	ErrEmptyCategory    = errors.New("empty category")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrZeroDate         = errors.New("date cannot be zero")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// IsValid reports whether c is one of Categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseTheme accepts only "light" and "dark".
func ParseTheme(s string) (Theme, bool) {
	switch Theme(strings.TrimSpace(s)) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	default:
		return "", false
	}
}

// Toggle returns the opposite theme. Anything that is not dark toggles to dark.
func (t Theme) Toggle() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

func (t Theme) String() string {
	return string(t)
}

// Validate checks a stored record. It is stricter than the store itself, which
// accepts whatever it is given.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	desc := strings.TrimSpace(e.Description)
	if desc == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) < MinDescriptionLength {
		return ErrShortDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrLongDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(string(e.Category)) == "" {
		return ErrEmptyCategory
	}
	if !e.Category.IsValid() {
		return ErrUnknownCategory
	}
	return nil
}

// Equal compares two records, treating dates as instants.
func (e Expense) Equal(o Expense) bool {
	return e.ID == o.ID &&
		e.Description == o.Description &&
		e.Amount == o.Amount &&
		e.Category == o.Category &&
		e.Date.Equal(o.Date)
}
