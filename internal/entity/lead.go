package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lead statuses. CLOSED is terminal; every transition goes through the
// dispatch use case, which is the only writer of Status.
const (
	LeadStatusNew            = "NEW"
	LeadStatusMatching       = "MATCHING"
	LeadStatusAssigned       = "ASSIGNED"
	LeadStatusDispatchFailed = "DISPATCH_FAILED"
	LeadStatusClosed         = "CLOSED"
)

type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Service    string    `json:"service"` // skill token the lead requires
	City       string    `json:"city"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Phone      string    `json:"phone,omitempty"`
	Email      string    `json:"email,omitempty"`
	ExternalID string    `json:"external_id"` // raw record id at the source, dedup key
	Source     string    `json:"source"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type LeadRepositoryInterface interface {
	// Insert stores a NEW lead. Returns false without error when a lead
	// with the same external id already exists.
	Insert(ctx context.Context, lead *Lead) (bool, error)
	FindByID(ctx context.Context, id string) (*Lead, error)
	// TransitionStatus is an atomic compare-and-set on Status: the update
	// applies only if the current status is one of from. Returns whether
	// the transition happened.
	TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error)
	// FindDispatchable returns NEW and DISPATCH_FAILED leads for a service.
	FindDispatchable(ctx context.Context, service string, limit int) ([]Lead, error)
	List(ctx context.Context, limit int) ([]Lead, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	// ReleaseStale returns leads stuck in MATCHING longer than the window
	// back to NEW, so an abandoned dispatch can be retried.
	ReleaseStale(ctx context.Context, window time.Duration) (int, error)
}

func NewLead(name, service, city, externalID, source string, lat, lon float64) (*Lead, error) {
	lead := &Lead{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(name),
		Service:    strings.ToLower(strings.TrimSpace(service)),
		City:       strings.TrimSpace(city),
		Lat:        lat,
		Lon:        lon,
		ExternalID: externalID,
		Source:     source,
		Status:     LeadStatusNew,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	return lead, nil
}

func (l *Lead) Validate() error {
	if l.Name == "" {
		return errors.New("name is required")
	}
	if l.Service == "" {
		return errors.New("service is required")
	}
	if l.ExternalID == "" {
		return errors.New("external id is required")
	}
	return nil
}
