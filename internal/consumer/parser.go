package consumer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adlytics/experiment-service/internal/domain"
)

// JSONRecordParser implements MessageParser for JSON-formatted record messages
type JSONRecordParser struct{}

// NewJSONRecordParser creates a new JSON record parser
func NewJSONRecordParser() *JSONRecordParser {
	return &JSONRecordParser{}
}

type recordMessage struct {
	RecordID  string `json:"record_id"`
	Kind      string `json:"kind"`
	VisitorID string `json:"visitor_id"`
	TestID    string `json:"test_id"`
	Variant   string `json:"variant"`
	EventName string `json:"event_name"`
	Timestamp int64  `json:"timestamp"`
}

// Parse parses a JSON message body into a Record. Rows with an unknown
// kind or no visitor id are rejected here so they never reach the log.
func (p *JSONRecordParser) Parse(body []byte) (*domain.Record, error) {
	var msg recordMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message body: %w", err)
	}

	kind := domain.RecordKind(msg.Kind)
	if kind != domain.KindExposure && kind != domain.KindEvent {
		return nil, fmt.Errorf("unknown record kind: %q", msg.Kind)
	}
	if msg.VisitorID == "" {
		return nil, fmt.Errorf("record is missing visitor_id")
	}
	if kind == domain.KindEvent && msg.EventName == "" {
		return nil, fmt.Errorf("event record is missing event_name")
	}

	timestamp := msg.Timestamp
	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	return &domain.Record{
		RecordID:    msg.RecordID,
		Kind:        kind,
		VisitorID:   msg.VisitorID,
		TestID:      msg.TestID,
		Variant:     msg.Variant,
		EventName:   msg.EventName,
		Timestamp:   timestamp,
		ProcessedAt: time.Now(),
		Version:     uint64(time.Now().UnixNano()),
	}, nil
}
