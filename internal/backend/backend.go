// Package backend assembles the data gateway the server runs against.
package backend

import (
	"keuangan/internal/gateway"
)

// Type selects a gateway implementation.
type Type string

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == MemoryBackend || t == SQLiteBackend
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result bundles the assembled gateway with its cleanup.
type Result struct {
	Gateway gateway.Gateway
	Cleanup CleanupFunc
}
