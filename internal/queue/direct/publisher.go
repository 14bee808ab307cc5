package direct

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/repository"
)

// Publisher implements RecordPublisher by appending straight to the
// repository, skipping the queue. Used in single-process deployments and
// tests, where the repository append itself is the atomic write.
type Publisher struct {
	repository repository.RecordRepository
	log        *zap.Logger
}

// NewPublisher creates a repository-backed publisher
func NewPublisher(repo repository.RecordRepository, log *zap.Logger) *Publisher {
	return &Publisher{
		repository: repo,
		log:        log,
	}
}

// PublishRecord appends one record synchronously
func (p *Publisher) PublishRecord(ctx context.Context, record *domain.Record) error {
	if _, err := p.repository.InsertBatch(ctx, []*domain.Record{record}); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}
