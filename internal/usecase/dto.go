package usecase

import (
	"github.com/fieldhq/lead-dispatch/internal/entity"
)

type MatchOutcome string

const (
	MatchOutcomeMatched          MatchOutcome = "MATCHED"
	MatchOutcomeNoEligibleWorker MatchOutcome = "NO_ELIGIBLE_WORKER"
	MatchOutcomeNoActiveWorker   MatchOutcome = "NO_ACTIVE_WORKER"
)

// MatchResult is the outcome of a pure match query. It never carries
// persistent side effects.
type MatchResult struct {
	Outcome    MatchOutcome   `json:"outcome"`
	Worker     *entity.Worker `json:"worker,omitempty"`
	DistanceKM float64        `json:"distance_km,omitempty"`
}

type DispatchStatus string

const (
	DispatchAssigned        DispatchStatus = "ASSIGNED"
	DispatchNoMatch         DispatchStatus = "NO_MATCH"
	DispatchAlreadyAssigned DispatchStatus = "ALREADY_ASSIGNED"
	DispatchLeadNotFound    DispatchStatus = "LEAD_NOT_FOUND"
)

type DispatchResult struct {
	LeadID     string             `json:"lead_id"`
	Status     DispatchStatus     `json:"status"`
	Assignment *entity.Assignment `json:"assignment,omitempty"`
	Worker     *entity.Worker     `json:"worker,omitempty"`
}

type CollectInput struct {
	City    string `json:"city"`
	Service string `json:"service"`
	Limit   int    `json:"limit"`
}

type CollectOutput struct {
	Added      int `json:"added"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

// RowError reports a single rejected import row. The import continues for
// the remaining rows.
type RowError struct {
	Line int    `json:"line"`
	Err  string `json:"error"`
}

type ImportOutput struct {
	Imported int        `json:"imported"`
	Rejected []RowError `json:"rejected,omitempty"`
}

type AddWorkerInput struct {
	Name   string  `json:"name"`
	Skills string  `json:"skills"` // comma-separated tokens
	Phone  string  `json:"phone"`
	Email  string  `json:"email"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

type StatsOutput struct {
	LeadsByStatus    map[string]int `json:"leads_by_status"`
	OutreachByStatus map[string]int `json:"outreach_by_status"`
	ActiveWorkers    int            `json:"active_workers"`
}
