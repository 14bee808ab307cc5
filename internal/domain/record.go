package domain

import "time"

// RecordKind distinguishes the two row types in the append-only log.
type RecordKind string

const (
	KindExposure RecordKind = "exposure"
	KindEvent    RecordKind = "event"
)

// Variant is an A/B arm label. Every experiment has exactly two.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// ParseVariant returns the variant for s, or false if s is not a valid
// arm label. Anything that is not exactly "A" or "B" is invalid.
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case VariantA, VariantB:
		return Variant(s), true
	default:
		return "", false
	}
}

// Record is one row of the exposure/event log stored in ClickHouse.
// Exposures carry no EventName; events may carry an empty TestID/Variant
// when they are not attributed to an experiment. Rows are append-only and
// never mutated, so aggregates stay recomputable from the log alone.
type Record struct {
	RecordID    string     `ch:"record_id"`
	Kind        RecordKind `ch:"kind"`
	VisitorID   string     `ch:"visitor_id"`
	TestID      string     `ch:"test_id"`
	Variant     string     `ch:"variant"`
	EventName   string     `ch:"event_name"`
	Timestamp   int64      `ch:"timestamp"`
	ProcessedAt time.Time  `ch:"processed_at"`
	Version     uint64     `ch:"version"`
}
