package service

import (
	"context"

	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/dto"
)

// ExperimentServicer defines the interface for experiment tracking operations
type ExperimentServicer interface {
	// LogExposures appends one exposure record per in-scope experiment.
	// Best-effort: failures are logged and counted, never returned.
	LogExposures(ctx context.Context, visitorID string, variants map[string]domain.Variant, testIDs []string)

	// LogEvent validates and appends one event record, resolving the
	// variant from the request's assignment map when needed.
	LogEvent(ctx context.Context, visitorID string, variants map[string]domain.Variant, req *dto.TrackEventRequest) (*dto.TrackEventResponse, error)

	// ComputeResults recomputes per-experiment aggregates from the full
	// record log.
	ComputeResults(ctx context.Context) (*dto.ResultsResponse, error)
}
