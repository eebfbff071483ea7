package models

import "github.com/google/uuid"

// Weight factor keys. A weight configuration assigns each of these a value
// in [0,1]; the five values must sum to 1 (enforced on write).
const (
	WeightKeyDistance       = "distance"
	WeightKeyTime           = "time"
	WeightKeyEmergencyType  = "emergency_type"
	WeightKeyLLMDescription = "llm_description"
	WeightKeyTeamSize       = "team_size"
)

// WeightKeys lists the five scoring factor keys in canonical order.
var WeightKeys = []string{
	WeightKeyDistance,
	WeightKeyTime,
	WeightKeyEmergencyType,
	WeightKeyLLMDescription,
	WeightKeyTeamSize,
}

// Weight is one factor-key -> weight row of the scoring configuration.
type Weight struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// TypeWeight is a per-category base score, independently configurable.
type TypeWeight struct {
	ID        uuid.UUID `json:"id"`
	Type      SosType   `json:"type"`
	BaseScore float64   `json:"base_score"`
}

// StatusCounts are aggregate SOS counts by status, served through the
// stats cache for the conversational front end.
type StatusCounts struct {
	TotalRequests   int `json:"total_requests"`
	PendingCount    int `json:"pending_count"`
	InProgressCount int `json:"inprogress_count"`
	CompleteCount   int `json:"complete_count"`
}
