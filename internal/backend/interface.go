package backend

import (
	"context"

	"bills/internal/amqp"
	"bills/internal/ports"
	"bills/internal/services"
)

// BackendType selects where bills are kept.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (t BackendType) IsValid() bool {
	return t == SQLiteBackend || t == MemoryBackend
}

func (t BackendType) String() string { return string(t) }

// CleanupFunc releases what the factory opened.
type CleanupFunc func() error

// BackendResult contains the wired service and the pieces behind it.
type BackendResult struct {
	Service *services.BillService
	Store   ports.Store
	// AMQP is nil when AMQP is disabled or the broker was unreachable.
	AMQP    *amqp.Client
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
