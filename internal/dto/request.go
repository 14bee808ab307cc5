package dto

// TrackEventRequest represents an event-tracking request
type TrackEventRequest struct {
	Event   string `json:"event" binding:"required" example:"signup_completed"`
	TestID  string `json:"testId" example:"pricing_cta"`
	Variant string `json:"variant" binding:"omitempty,oneof=A B" example:"A"`
}
