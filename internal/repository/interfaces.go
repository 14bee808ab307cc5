package repository

import (
	"context"

	"github.com/adlytics/experiment-service/internal/domain"
)

// RecordRepository defines the interface for the append-only record log.
// There is no update or delete path; aggregates are always recomputed from
// the rows List returns.
type RecordRepository interface {
	// InsertBatch appends a batch of records to the log
	InsertBatch(ctx context.Context, records []*domain.Record) (int, error)

	// List scans the full record log
	List(ctx context.Context) ([]*domain.Record, error)

	// InitSchema initializes the storage schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the storage connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}
