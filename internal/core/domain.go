package core

import (
	"errors"
	"fmt"
)

const (
	Entertainment Category = "Entertainment"
	Car           Category = "Car"
	Food          Category = "Food"
)

type (
	// Category is one of the known spend buckets. Any other value is kept
	// verbatim and treated as "other" by the colour lookup.
	Category string

	Expense struct {
		ID       int64
		Name     string
		Amount   float64
		Category Category
	}

	// Draft holds the add-form inputs that have not been committed yet.
	Draft struct {
		Name     string
		Amount   string // raw text, parsed only on add
		Category Category
	}
)

var (
	ErrEmptyName   = errors.New("empty name")
	ErrEmptyAmount = errors.New("empty amount")
)

// ValidationError is returned when an add is attempted with missing inputs.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// EmptyInputMessage is the alert shown when an add is rejected.
const EmptyInputMessage = "Нельзя добавить пустой список"

// Message returns the text presented to the user for e.
func (e *ValidationError) Message() string {
	return EmptyInputMessage
}

// Categories returns the selectable categories in form order.
func Categories() []Category {
	return []Category{Entertainment, Car, Food}
}

// ParseCategory maps user input onto a Category. Matching is exact: any
// other value, including a differently cased or padded name, is kept
// verbatim and coloured as "other".
func ParseCategory(s string) Category {
	for _, c := range Categories() {
		if s == string(c) {
			return c
		}
	}
	return Category(s)
}

// Known reports whether c is one of the fixed categories.
func (c Category) Known() bool {
	switch c {
	case Entertainment, Car, Food:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

// Color returns the CSS colour name used for the category's bar segment.
func (c Category) Color() string {
	switch c {
	case Entertainment:
		return "lightblue"
	case Car:
		return "lightgreen"
	case Food:
		return "lightcoral"
	default:
		return "gray"
	}
}

// Hex returns Color as an RGB hex string for renderers without CSS names.
func (c Category) Hex() string {
	switch c {
	case Entertainment:
		return "add8e6"
	case Car:
		return "90ee90"
	case Food:
		return "f08080"
	default:
		return "808080"
	}
}

// Validate checks the only constraint an add enforces: both text fields set.
func (d Draft) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name", Err: ErrEmptyName}
	}
	if d.Amount == "" {
		return &ValidationError{Field: "amount", Err: ErrEmptyAmount}
	}
	return nil
}

// Cleared returns the draft after a successful add: name and amount reset,
// category kept for quick repeated entries.
func (d Draft) Cleared() Draft {
	return Draft{Category: d.Category}
}

// NewDraft returns an empty draft preselecting category.
func NewDraft(category Category) Draft {
	if category == "" {
		category = Entertainment
	}
	return Draft{Category: category}
}
