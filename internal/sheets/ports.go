// Package sheets defines the outbound ports for the spreadsheet mirror.
package sheets

import (
	"context"

	"keuangan/internal/core"
)

type (
	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	TransactionDeleter interface {
		// DeleteByID removes the mirrored row carrying the transaction id.
		// Deleting an id that was never mirrored is not an error.
		DeleteByID(ctx context.Context, id string) error
	}

	// Mirror is the full adapter surface the sync worker drives.
	Mirror interface {
		TransactionWriter
		TransactionDeleter
	}
)
