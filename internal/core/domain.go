package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType partitions both transactions and categories into
	// income and expense. A transaction's type is independent of its
	// category's type; no cross consistency is enforced.
	TransactionType string

	// Session is the authenticated user context returned by the gateway.
	Session struct {
		Token     string
		UserID    string
		Email     string
		ExpiresAt time.Time
	}

	Money struct {
		Cents int64
	}

	// Category is a named, typed tag a transaction may optionally reference.
	Category struct {
		ID        string
		Name      string
		Type      TransactionType
		UserID    string
		CreatedAt time.Time
	}

	// Transaction is a single recorded monetary event. CategoryID is empty
	// for uncategorized entries; CategoryName is resolved at the gateway
	// boundary and falls back to UncategorizedLabel when absent.
	Transaction struct {
		ID           string
		Amount       Money
		Description  string
		Type         TransactionType
		CategoryID   string
		CategoryName string
		UserID       string
		Date         time.Time
		CreatedAt    time.Time
	}
)

// UncategorizedLabel is shown for transactions without a category.
const UncategorizedLabel = "Umum"

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid transaction type")
)

// IsValidation reports whether err belongs to the input-validation class.
// Validation errors block submission before any gateway call is made.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEmptyDescription) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidType)
}

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// DisplayCategory returns the category name or the fallback label.
func (t Transaction) DisplayCategory() string {
	if strings.TrimSpace(t.CategoryName) == "" {
		return UncategorizedLabel
	}
	return t.CategoryName
}
