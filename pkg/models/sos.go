// Package models contains domain types for the AIDSENSE backend.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SosStatus is the lifecycle state of an SOS request.
type SosStatus string

const (
	// SosStatusRequested - just created, awaiting triage; not yet visible to teams.
	SosStatusRequested SosStatus = "REQUESTED"
	// SosStatusPending - triaged and visible to rescue teams.
	SosStatusPending SosStatus = "PENDING"
	// SosStatusInProgress - claimed by a team.
	SosStatusInProgress SosStatus = "IN_PROGRESS"
	// SosStatusComplete - terminal.
	SosStatusComplete SosStatus = "COMPLETE"
	// SosStatusCanceled - terminal. Stored literal is CANCELED (single L).
	SosStatusCanceled SosStatus = "CANCELED"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s SosStatus) IsTerminal() bool {
	return s == SosStatusComplete || s == SosStatusCanceled
}

// sosTransitions is the authoritative transition table for SOS requests.
// Anything not listed here is a guard failure, never a silent no-op.
var sosTransitions = map[SosStatus][]SosStatus{
	SosStatusRequested:  {SosStatusPending, SosStatusCanceled},
	SosStatusPending:    {SosStatusInProgress, SosStatusCanceled},
	SosStatusInProgress: {SosStatusPending, SosStatusComplete, SosStatusCanceled},
}

// CanTransition reports whether from -> to is a legal lifecycle transition.
func CanTransition(from, to SosStatus) bool {
	for _, next := range sosTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SosType categorizes an emergency.
// RESCUE and MEDICAL are legacy categories kept as scoring input only.
type SosType string

const (
	SosTypeHelp      SosType = "HELP"
	SosTypeEssential SosType = "ESSENTIAL"
	SosTypeTowing    SosType = "TOWING"
	SosTypeOther     SosType = "OTHER"
	SosTypeRescue    SosType = "RESCUE"
	SosTypeMedical   SosType = "MEDICAL"
)

// ValidSosType reports whether t is a known category.
func ValidSosType(t SosType) bool {
	switch t {
	case SosTypeHelp, SosTypeEssential, SosTypeTowing, SosTypeOther,
		SosTypeRescue, SosTypeMedical:
		return true
	}
	return false
}

// SosRequest is an emergency assistance case.
type SosRequest struct {
	ID          uuid.UUID  `json:"id"`
	UserID      *uuid.UUID `json:"userid"` // nil for anonymous submissions
	Type        SosType    `json:"type"`
	Description string     `json:"description"`
	Lat         *float64   `json:"lat"`
	Lon         *float64   `json:"lon"`
	AddressText string     `json:"address_text"`
	Phone       string     `json:"phone,omitempty"`
	Image       *string    `json:"image"`
	TeamID      *uuid.UUID `json:"team_id"`
	Status      SosStatus  `json:"status"`
	LLMScore    *float64   `json:"llm_score"` // filled by enrichment
	IsAIEdited  bool       `json:"is_ai_edited"`
	CreatedAt   time.Time  `json:"created_at"`
}

// HasPoint reports whether the request carries a geographic point.
func (r *SosRequest) HasPoint() bool {
	return r.Lat != nil && r.Lon != nil
}

// SosOrigin is the immutable snapshot of a request's original description
// and category taken at creation time. It is the stable input to enrichment:
// later edits to the request never touch it.
type SosOrigin struct {
	ID           uuid.UUID `json:"id"`
	SosRequestID uuid.UUID `json:"sos_request_id"`
	Description  string    `json:"description"`
	Type         SosType   `json:"type"`
	CreatedAt    time.Time `json:"created_at"`
}
