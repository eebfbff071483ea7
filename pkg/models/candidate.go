package models

// Candidate is an open SOS request annotated for ranking. DistanceMeters is
// nil when no origin point was available to measure from; the raw sub-scores
// default to 0 when the backing query did not compute them.
type Candidate struct {
	SosRequest
	DistanceMeters *float64 `json:"distance_meters"`
	DistanceScore  float64  `json:"distance_score"`
	TimeScore      float64  `json:"time_score"`
	BaseScore      float64  `json:"base_score"`
	LLMRawScore    float64  `json:"llm_score_raw"`
}

// RequestedSos is a pre-triage request joined with its origin snapshot and
// any enrichment result, for the admin review listing.
type RequestedSos struct {
	SosRequest
	Origin  *SosOrigin  `json:"origin"`
	AIFixed *SosAIFixed `json:"ai_fixed"`
}
