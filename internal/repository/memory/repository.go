package memory

import (
	"context"
	"sync"
	"time"

	"github.com/adlytics/experiment-service/internal/domain"
)

// Repository implements RecordRepository as a mutex-guarded in-memory
// append log. Used by tests and single-process deployments; rows are never
// updated or removed, matching the durable implementations.
type Repository struct {
	mu      sync.RWMutex
	records []*domain.Record
}

// NewRepository creates an empty in-memory record log
func NewRepository() *Repository {
	return &Repository{}
}

// InsertBatch appends a batch of records to the log
func (r *Repository) InsertBatch(ctx context.Context, records []*domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, record := range records {
		stored := *record
		if stored.ProcessedAt.IsZero() {
			stored.ProcessedAt = time.Now()
		}
		if stored.Version == 0 {
			stored.Version = uint64(time.Now().UnixNano())
		}
		r.records = append(r.records, &stored)
	}

	return len(records), nil
}

// List returns a snapshot of the full log in append order
func (r *Repository) List(ctx context.Context) ([]*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Record, len(r.records))
	copy(out, r.records)
	return out, nil
}

// InitSchema is a no-op for the in-memory log
func (r *Repository) InitSchema(ctx context.Context) error {
	return nil
}

// Ping always succeeds
func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *Repository) Close() error {
	return nil
}
