package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/adlytics/experiment-service/internal/domain"
)

// RecordPublisher defines the interface for handing exposure/event records
// to the write path. Callers treat publishing as best-effort telemetry.
type RecordPublisher interface {
	PublishRecord(ctx context.Context, record *domain.Record) error
}

// QueueConsumer defines the interface for consuming messages from a queue
type QueueConsumer interface {
	ReceiveMessages(ctx context.Context, input *sqs.ReceiveMessageInput) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *sqs.DeleteMessageInput) (*sqs.DeleteMessageOutput, error)
	QueueURL() string
}
