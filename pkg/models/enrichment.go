package models

import (
	"time"

	"github.com/google/uuid"
)

// SosAIFixed is the result of the asynchronous text-analysis step for one
// origin snapshot. At most one exists per origin; once written it is never
// mutated. Applying it to the request is a separate, explicit operation.
type SosAIFixed struct {
	ID           uuid.UUID `json:"id"`
	SosOriginID  uuid.UUID `json:"sos_origin_id"`
	ModelName    string    `json:"model_name"`
	LLMName      string    `json:"llm_name"`
	ModelText    string    `json:"model_fixed_text"`
	LLMText      string    `json:"llm_fixed_text"`
	LLMCategory  SosType   `json:"llm_category"`
	Confidence   float64   `json:"confidence"`
	LLMScore     float64   `json:"llm_score"`
	CreatedAt    time.Time `json:"created_at"`
}
