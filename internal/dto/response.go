package dto

import (
	"time"

	"github.com/adlytics/experiment-service/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"event is required"`
}

// VariantInfo pairs a resolved variant with its configured description
type VariantInfo struct {
	Variant     string `json:"variant" example:"A"`
	Description string `json:"description" example:"Classic dashboard layout"`
}

// DashboardViewResponse carries the visitor's assignments for every active
// experiment on the dashboard view
type DashboardViewResponse struct {
	VisitorID           string                 `json:"visitorId" example:"1f0e6f9c-68e7-4a36-bd8a-5bfa25077dd0"`
	Variants            map[string]string      `json:"variants"`
	VariantDescriptions map[string]VariantInfo `json:"variantDescriptions"`
}

// PricingViewResponse carries the visitor's assignment for the single
// pricing experiment
type PricingViewResponse struct {
	TestID      string `json:"testId" example:"pricing_cta"`
	Variant     string `json:"variant" example:"B"`
	Description string `json:"description" example:"Annual-first pricing table"`
}

// TrackEventResponse echoes how a tracked event was resolved. Variant is
// null when the event could not be attributed to either arm.
type TrackEventResponse struct {
	Event   string  `json:"event" example:"signup_completed"`
	TestID  string  `json:"testId,omitempty" example:"pricing_cta"`
	Variant *string `json:"variant" example:"A"`
}

// VariantResult holds the per-arm counters of one experiment
type VariantResult struct {
	Exposures      uint64  `json:"exposures" example:"100"`
	Events         uint64  `json:"events" example:"20"`
	ConversionRate float64 `json:"conversionRate" example:"0.2"`
}

// ExperimentResult holds the aggregate for one experiment. LeadingVariant
// is a raw conversion-rate comparison for display; it carries no
// statistical-significance claim.
type ExperimentResult struct {
	TestID         string                           `json:"testId" example:"pricing_cta"`
	Description    string                           `json:"description" example:"Pricing call-to-action copy"`
	TargetEvent    string                           `json:"targetEvent" example:"signup_completed"`
	Variants       map[domain.Variant]string        `json:"variants"`
	Results        map[domain.Variant]VariantResult `json:"results"`
	LeadingVariant string                           `json:"leadingVariant,omitempty" example:"A"`
}

// ResultsResponse is the full aggregation output, recomputed from the
// record log on every call
type ResultsResponse struct {
	Experiments    []ExperimentResult `json:"experiments"`
	TotalExposures uint64             `json:"totalExposures" example:"200"`
	TotalEvents    uint64             `json:"totalEvents" example:"30"`
	GeneratedAt    time.Time          `json:"generatedAt"`
}
