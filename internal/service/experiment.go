package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/dto"
	"github.com/adlytics/experiment-service/internal/experiments"
	"github.com/adlytics/experiment-service/internal/metrics"
	"github.com/adlytics/experiment-service/internal/queue"
	"github.com/adlytics/experiment-service/internal/repository"
)

// ErrInvalidEvent is returned by LogEvent when the event name is missing or
// blank. The request is rejected before any record is written.
var ErrInvalidEvent = errors.New("event name must be a non-empty string")

// ExperimentService records exposures/events through the publisher and
// computes aggregates from the repository. The record log is the single
// source of truth: nothing here keeps running counters.
type ExperimentService struct {
	registry   *experiments.Registry
	publisher  queue.RecordPublisher
	repository repository.RecordRepository
	log        *zap.Logger
}

// NewExperimentService creates a new experiment service
func NewExperimentService(registry *experiments.Registry, publisher queue.RecordPublisher, repo repository.RecordRepository, log *zap.Logger) *ExperimentService {
	return &ExperimentService{
		registry:   registry,
		publisher:  publisher,
		repository: repo,
		log:        log,
	}
}

// LogExposures appends one exposure record per test id that has a resolved
// variant. Without a visitor id or variant map it is a no-op: exposure is
// telemetry and must never break the request that triggered it.
func (s *ExperimentService) LogExposures(ctx context.Context, visitorID string, variants map[string]domain.Variant, testIDs []string) {
	if visitorID == "" || len(variants) == 0 {
		return
	}

	for _, testID := range testIDs {
		variant, ok := variants[testID]
		if !ok {
			continue
		}

		record := &domain.Record{
			RecordID:  uuid.NewString(),
			Kind:      domain.KindExposure,
			VisitorID: visitorID,
			TestID:    testID,
			Variant:   string(variant),
			Timestamp: time.Now().Unix(),
		}

		s.publish(ctx, record)
	}
}

// LogEvent validates the request, resolves the variant attribution, and
// appends one event record. Publish failures are swallowed like exposures;
// only invalid input is an error.
func (s *ExperimentService) LogEvent(ctx context.Context, visitorID string, variants map[string]domain.Variant, req *dto.TrackEventRequest) (*dto.TrackEventResponse, error) {
	if strings.TrimSpace(req.Event) == "" {
		return nil, ErrInvalidEvent
	}

	var variant *string
	if v, ok := domain.ParseVariant(req.Variant); ok {
		value := string(v)
		variant = &value
	} else if req.TestID != "" {
		if v, ok := variants[req.TestID]; ok {
			value := string(v)
			variant = &value
		}
	}

	record := &domain.Record{
		RecordID:  uuid.NewString(),
		Kind:      domain.KindEvent,
		VisitorID: visitorID,
		TestID:    req.TestID,
		EventName: req.Event,
		Timestamp: time.Now().Unix(),
	}
	if variant != nil {
		record.Variant = *variant
	}

	s.publish(ctx, record)

	return &dto.TrackEventResponse{
		Event:   req.Event,
		TestID:  req.TestID,
		Variant: variant,
	}, nil
}

// publish hands a record to the write path, logging and counting failures
// instead of propagating them.
func (s *ExperimentService) publish(ctx context.Context, record *domain.Record) {
	if err := s.publisher.PublishRecord(ctx, record); err != nil {
		metrics.PublishFailuresTotal.WithLabelValues(string(record.Kind)).Inc()
		s.log.Warn("Failed to publish record",
			zap.String("kind", string(record.Kind)),
			zap.String("test_id", record.TestID),
			zap.String("visitor_id", record.VisitorID),
			zap.Error(err))
		return
	}

	metrics.RecordsPublishedTotal.WithLabelValues(string(record.Kind)).Inc()
}

// ComputeResults scans the full record log and aggregates it per
// experiment and per variant. Leading variant is a raw conversion-rate
// comparison with no significance test behind it.
func (s *ExperimentService) ComputeResults(ctx context.Context) (*dto.ResultsResponse, error) {
	records, err := s.repository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan record log: %w", err)
	}

	type counts struct {
		exposures map[domain.Variant]uint64
		events    map[domain.Variant]uint64
	}

	byTest := make(map[string]*counts, s.registry.Len())
	for _, def := range s.registry.All() {
		byTest[def.TestID] = &counts{
			exposures: make(map[domain.Variant]uint64, 2),
			events:    make(map[domain.Variant]uint64, 2),
		}
	}

	response := &dto.ResultsResponse{
		Experiments: make([]dto.ExperimentResult, 0, s.registry.Len()),
		GeneratedAt: time.Now().UTC(),
	}

	for _, record := range records {
		switch record.Kind {
		case domain.KindExposure:
			response.TotalExposures++
		case domain.KindEvent:
			response.TotalEvents++
		default:
			continue
		}

		c, ok := byTest[record.TestID]
		if !ok {
			continue
		}
		variant, ok := domain.ParseVariant(record.Variant)
		if !ok {
			continue
		}

		if record.Kind == domain.KindExposure {
			c.exposures[variant]++
		} else {
			c.events[variant]++
		}
	}

	for _, def := range s.registry.All() {
		c := byTest[def.TestID]

		results := make(map[domain.Variant]dto.VariantResult, 2)
		for _, variant := range []domain.Variant{domain.VariantA, domain.VariantB} {
			exposures := c.exposures[variant]
			events := c.events[variant]

			rate := 0.0
			if exposures > 0 {
				rate = float64(events) / float64(exposures)
			}

			results[variant] = dto.VariantResult{
				Exposures:      exposures,
				Events:         events,
				ConversionRate: rate,
			}
		}

		response.Experiments = append(response.Experiments, dto.ExperimentResult{
			TestID:         def.TestID,
			Description:    def.Description,
			TargetEvent:    def.TargetEvent,
			Variants:       def.Variants,
			Results:        results,
			LeadingVariant: leadingVariant(results),
		})
	}

	return response, nil
}

// leadingVariant picks the arm with the higher conversion rate for display.
// Empty when both rates are zero or tied.
func leadingVariant(results map[domain.Variant]dto.VariantResult) string {
	a := results[domain.VariantA].ConversionRate
	b := results[domain.VariantB].ConversionRate

	switch {
	case a == 0 && b == 0, a == b:
		return ""
	case a > b:
		return string(domain.VariantA)
	default:
		return string(domain.VariantB)
	}
}
