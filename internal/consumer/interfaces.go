package consumer

import (
	"github.com/adlytics/experiment-service/internal/domain"
)

// MessageParser defines the interface for parsing raw message bytes into records
type MessageParser interface {
	Parse(body []byte) (*domain.Record, error)
}
