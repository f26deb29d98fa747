package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outreach statuses for an assignment.
const (
	OutreachStatusPending = "PENDING"
	OutreachStatusSent    = "SENT"
	OutreachStatusFailed  = "FAILED"
)

// Assignment records the lead→worker match. The distance is the one
// computed at match time; it is never re-derived from current coordinates.
type Assignment struct {
	ID             string    `json:"id"`
	LeadID         string    `json:"lead_id"`
	WorkerID       string    `json:"worker_id"`
	DistanceKM     float64   `json:"distance_km"`
	OutreachStatus string    `json:"outreach_status"`
	AssignedAt     time.Time `json:"assigned_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type AssignmentRepositoryInterface interface {
	// CreateAndAssign persists the assignment and moves the lead from
	// MATCHING to ASSIGNED in a single transaction. Both writes happen
	// or neither does.
	CreateAndAssign(ctx context.Context, a *Assignment) error
	FindByID(ctx context.Context, id string) (*Assignment, error)
	// FindCurrentByLeadID returns the most recent assignment for a lead.
	FindCurrentByLeadID(ctx context.Context, leadID string) (*Assignment, error)
	UpdateOutreachStatus(ctx context.Context, id, status string) error
	CountByOutreachStatus(ctx context.Context) (map[string]int, error)
}

func NewAssignment(leadID, workerID string, distanceKM float64) *Assignment {
	return &Assignment{
		ID:             uuid.New().String(),
		LeadID:         leadID,
		WorkerID:       workerID,
		DistanceKM:     distanceKM,
		OutreachStatus: OutreachStatusPending,
		AssignedAt:     time.Now(),
		UpdatedAt:      time.Now(),
	}
}
