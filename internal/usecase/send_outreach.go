package usecase

import (
	"context"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

// SendOutreachUseCase re-enqueues an existing assignment for delivery:
// first attempts for PENDING records, manual retries for FAILED ones.
type SendOutreachUseCase struct {
	Assignments entity.AssignmentRepositoryInterface
	Leads       entity.LeadRepositoryInterface
	Workers     entity.WorkerRepositoryInterface
	Outreach    OutreachEnqueuer
}

func NewSendOutreachUseCase(
	assignments entity.AssignmentRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	workers entity.WorkerRepositoryInterface,
	outreach OutreachEnqueuer,
) *SendOutreachUseCase {
	return &SendOutreachUseCase{
		Assignments: assignments,
		Leads:       leads,
		Workers:     workers,
		Outreach:    outreach,
	}
}

func (uc *SendOutreachUseCase) Execute(ctx context.Context, assignmentID string) error {
	assignment, err := uc.Assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return storageErr("find assignment", err)
	}
	if assignment == nil {
		return ErrAssignmentNotFound
	}
	if assignment.OutreachStatus == entity.OutreachStatusSent {
		return ErrOutreachAlreadySent
	}

	// Only the lead's current assignment may be (re)delivered. An older
	// assignment that was superseded by a re-dispatch must never go back to
	// PENDING: a lead carries at most one live outreach at a time.
	current, err := uc.Assignments.FindCurrentByLeadID(ctx, assignment.LeadID)
	if err != nil {
		return storageErr("find current assignment", err)
	}
	if current == nil || current.ID != assignment.ID {
		return ErrAssignmentSuperseded
	}

	lead, err := uc.Leads.FindByID(ctx, assignment.LeadID)
	if err != nil {
		return storageErr("find lead", err)
	}
	if lead == nil {
		return ErrLeadNotFound
	}
	if lead.Status != entity.LeadStatusAssigned {
		// The lead moved on (failed out for a re-match, or closed); the
		// path back to outreach is a fresh dispatch, not a re-send.
		return ErrLeadNotAssigned
	}

	worker, err := uc.Workers.FindByID(ctx, assignment.WorkerID)
	if err != nil {
		return storageErr("find worker", err)
	}
	if worker == nil {
		return &DomainError{Code: "WORKER_NOT_FOUND", Message: "assigned worker not found"}
	}

	// A FAILED record goes back to PENDING before re-delivery so the
	// consumer outcome overwrites a fresh state.
	if assignment.OutreachStatus == entity.OutreachStatusFailed {
		if err := uc.Assignments.UpdateOutreachStatus(ctx, assignment.ID, entity.OutreachStatusPending); err != nil {
			return storageErr("reset outreach status", err)
		}
	}

	return uc.Outreach.Enqueue(buildOutreachTask(lead, worker, assignment))
}
