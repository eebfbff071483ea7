package models

import (
	"time"

	"github.com/google/uuid"
)

// TeamStatus is the approval state of a rescue team.
type TeamStatus string

const (
	TeamStatusPending  TeamStatus = "PENDING"
	TeamStatusApproved TeamStatus = "APPROVED"
	TeamStatusRejected TeamStatus = "REJECTED"
)

// TeamSize is the declared size category of a team.
type TeamSize string

const (
	TeamSizeSmall  TeamSize = "SMALL"
	TeamSizeMedium TeamSize = "MEDIUM"
	TeamSizeLarge  TeamSize = "LARGE"
)

// Team is a rescue group. Only an APPROVED team may claim SOS requests, and
// a leader owns at most one PENDING team at a time.
type Team struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	LeaderID       uuid.UUID  `json:"leader_id"`
	Province       string     `json:"province"`
	District       string     `json:"district"`
	Commune        string     `json:"commune"`
	SizeMember     TeamSize   `json:"size_member"`
	Organizational string     `json:"organizational,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	DocumentURL    *string    `json:"document_url"`
	Status         TeamStatus `json:"team_status"`
	CreatedAt      time.Time  `json:"created_at"`
}
