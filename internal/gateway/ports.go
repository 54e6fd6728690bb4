// Package gateway defines the ports the application uses to reach the
// data access gateway: authentication plus table-style read/insert/delete
// on categories and transactions. Every table operation is owner-scoped;
// backends must never return rows belonging to another user.
package gateway

import (
	"context"
	"errors"

	"keuangan/internal/core"
)

var (
	// ErrNoSession is returned when no valid session exists for a token.
	ErrNoSession = errors.New("no active session")
	// ErrInvalidCredentials is returned on a failed sign-in.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrConflict is returned when a delete is blocked by dependent records.
	ErrConflict = errors.New("record is referenced by existing transactions")
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
)

type (
	// Authenticator is the gateway's authentication surface.
	Authenticator interface {
		// SignIn validates credentials and opens a new session.
		SignIn(ctx context.Context, email, password string) (core.Session, error)
		// Session resolves a token to its session, or ErrNoSession.
		Session(ctx context.Context, token string) (core.Session, error)
		// SignOut invalidates the session for the token.
		SignOut(ctx context.Context, token string) error
	}

	// CategoryTable exposes the categories table. List is ordered by name
	// ascending (bytewise), stable across calls with unchanged data.
	CategoryTable interface {
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) (core.Category, error)
		// DeleteCategory fails with ErrConflict while any transaction
		// still references the category.
		DeleteCategory(ctx context.Context, userID, id string) error
	}

	// TransactionTable exposes the transactions table. List returns rows
	// joined with the category name, ordered by creation time descending.
	TransactionTable interface {
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
	}

	// Gateway is the combined surface a backend provides.
	Gateway interface {
		Authenticator
		CategoryTable
		TransactionTable
	}
)
