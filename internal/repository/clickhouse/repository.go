package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/domain"
)

// Repository implements RecordRepository for ClickHouse. The table is a
// plain MergeTree: rows are append-only by contract, so there is nothing
// to replace or deduplicate.
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema initializes the ClickHouse schema
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS ab_records (
		record_id String,
		kind LowCardinality(String),
		visitor_id String,
		test_id LowCardinality(String),
		variant LowCardinality(String),
		event_name LowCardinality(String),
		timestamp Int64,
		processed_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = MergeTree
	ORDER BY (test_id, kind, timestamp)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create ab_records table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch appends a batch of records to the log
func (r *Repository) InsertBatch(ctx context.Context, records []*domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO ab_records")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, record := range records {
		if record.Version == 0 {
			record.Version = uint64(time.Now().UnixNano())
		}
		if record.ProcessedAt.IsZero() {
			record.ProcessedAt = time.Now()
		}

		err := batch.Append(
			record.RecordID,
			string(record.Kind),
			record.VisitorID,
			record.TestID,
			record.Variant,
			record.EventName,
			record.Timestamp,
			record.ProcessedAt,
			record.Version,
		)

		if err != nil {
			return 0, fmt.Errorf("failed to append record to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// List scans the full record log in insertion-time order
func (r *Repository) List(ctx context.Context) ([]*domain.Record, error) {
	query := `
		SELECT record_id, kind, visitor_id, test_id, variant, event_name, timestamp, processed_at, version
		FROM ab_records
		ORDER BY processed_at ASC
	`

	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record log: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close record log rows", zap.Error(err))
		}
	}(rows)

	var records []*domain.Record
	for rows.Next() {
		var (
			record domain.Record
			kind   string
		)
		if err := rows.Scan(
			&record.RecordID,
			&kind,
			&record.VisitorID,
			&record.TestID,
			&record.Variant,
			&record.EventName,
			&record.Timestamp,
			&record.ProcessedAt,
			&record.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		record.Kind = domain.RecordKind(kind)
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	return records, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}
