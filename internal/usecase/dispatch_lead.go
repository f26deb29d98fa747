package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
)

// OutreachEnqueuer is the in-process bounded queue the dispatcher hands
// committed assignments to.
type OutreachEnqueuer interface {
	Enqueue(task queue.OutreachTask) error
}

// DispatchLeadUseCase owns the lead→worker assignment transaction and is the
// only writer of Lead.Status. The claim step is an atomic compare-and-set:
// of N concurrent dispatch calls on the same lead, exactly one wins.
type DispatchLeadUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Workers     entity.WorkerRepositoryInterface
	Assignments entity.AssignmentRepositoryInterface
	Matcher     *MatchLeadUseCase
	Outreach    OutreachEnqueuer
	Events      queue.DispatchEventPublisher // optional broker mirror
}

func NewDispatchLeadUseCase(
	leads entity.LeadRepositoryInterface,
	workers entity.WorkerRepositoryInterface,
	assignments entity.AssignmentRepositoryInterface,
	matcher *MatchLeadUseCase,
	outreach OutreachEnqueuer,
	events queue.DispatchEventPublisher,
) *DispatchLeadUseCase {
	return &DispatchLeadUseCase{
		Leads:       leads,
		Workers:     workers,
		Assignments: assignments,
		Matcher:     matcher,
		Outreach:    outreach,
		Events:      events,
	}
}

var claimableStatuses = []string{entity.LeadStatusNew, entity.LeadStatusDispatchFailed}

// DispatchOne runs the full claim → match → persist → enqueue protocol for a
// single lead. A QueueFull on the final enqueue is returned together with the
// ASSIGNED result: the assignment is already durable and stays PENDING, so
// the caller can re-enqueue it later through the outreach endpoint.
func (uc *DispatchLeadUseCase) DispatchOne(ctx context.Context, leadID string) (DispatchResult, error) {
	lead, err := uc.Leads.FindByID(ctx, leadID)
	if err != nil {
		return DispatchResult{LeadID: leadID}, storageErr("find lead", err)
	}
	if lead == nil {
		return DispatchResult{LeadID: leadID, Status: DispatchLeadNotFound}, nil
	}

	claimed, err := uc.Leads.TransitionStatus(ctx, leadID, claimableStatuses, entity.LeadStatusMatching)
	if err != nil {
		return DispatchResult{LeadID: leadID}, storageErr("claim lead", err)
	}
	if !claimed {
		// Lost the race (or the lead is past dispatch). No side effects.
		return DispatchResult{LeadID: leadID, Status: DispatchAlreadyAssigned}, nil
	}

	result, err := uc.Matcher.Execute(ctx, lead)
	if err != nil {
		// Leave the lead in MATCHING: re-invoking dispatch is always safe,
		// and the stale-claim sweeper returns abandoned claims to NEW.
		return DispatchResult{LeadID: leadID}, err
	}

	if result.Outcome != MatchOutcomeMatched {
		if _, terr := uc.Leads.TransitionStatus(ctx, leadID, []string{entity.LeadStatusMatching}, entity.LeadStatusDispatchFailed); terr != nil {
			return DispatchResult{LeadID: leadID}, storageErr("mark dispatch failed", terr)
		}
		return DispatchResult{LeadID: leadID, Status: DispatchNoMatch}, nil
	}

	assignment := entity.NewAssignment(lead.ID, result.Worker.ID, result.DistanceKM)

	// Assignment row and ASSIGNED transition commit together; a failure here
	// leaves the lead in MATCHING, never silently ASSIGNED.
	if err := uc.Assignments.CreateAndAssign(ctx, assignment); err != nil {
		return DispatchResult{LeadID: leadID}, storageErr("persist assignment", err)
	}

	uc.publishEvent(ctx, lead, assignment)

	dispatched := DispatchResult{
		LeadID:     leadID,
		Status:     DispatchAssigned,
		Assignment: assignment,
		Worker:     result.Worker,
	}

	task := buildOutreachTask(lead, result.Worker, assignment)
	if err := uc.Outreach.Enqueue(task); err != nil {
		return dispatched, fmt.Errorf("assignment %s committed but not enqueued: %w", assignment.ID, err)
	}

	return dispatched, nil
}

// MatchService batch-dispatches every NEW/DISPATCH_FAILED lead for a service.
// Backpressure from the outreach queue aborts the batch; results collected so
// far are returned with the error.
func (uc *DispatchLeadUseCase) MatchService(ctx context.Context, service string, limit int) ([]DispatchResult, error) {
	if limit <= 0 {
		limit = 50
	}

	leads, err := uc.Leads.FindDispatchable(ctx, service, limit)
	if err != nil {
		return nil, storageErr("find dispatchable leads", err)
	}

	results := make([]DispatchResult, 0, len(leads))

	for i := range leads {
		res, err := uc.DispatchOne(ctx, leads[i].ID)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// FailAssignedLead moves an ASSIGNED lead to DISPATCH_FAILED after outreach
// exhausted its retries, allowing a re-match.
func (uc *DispatchLeadUseCase) FailAssignedLead(ctx context.Context, leadID string) error {
	ok, err := uc.Leads.TransitionStatus(ctx, leadID, []string{entity.LeadStatusAssigned}, entity.LeadStatusDispatchFailed)
	if err != nil {
		return storageErr("fail assigned lead", err)
	}
	if !ok {
		return ErrAlreadyAssigned
	}
	return nil
}

// CloseAssignedLead terminates the lead lifecycle (outreach delivered, or
// operator close).
func (uc *DispatchLeadUseCase) CloseAssignedLead(ctx context.Context, leadID string) error {
	ok, err := uc.Leads.TransitionStatus(ctx, leadID, []string{entity.LeadStatusAssigned}, entity.LeadStatusClosed)
	if err != nil {
		return storageErr("close lead", err)
	}
	if !ok {
		return ErrAlreadyAssigned
	}
	return nil
}

func (uc *DispatchLeadUseCase) publishEvent(ctx context.Context, lead *entity.Lead, a *entity.Assignment) {
	if uc.Events == nil {
		return
	}

	event := queue.DispatchEvent{
		AssignmentID: a.ID,
		LeadID:       lead.ID,
		WorkerID:     a.WorkerID,
		Service:      lead.Service,
		City:         lead.City,
		DistanceKM:   a.DistanceKM,
		AssignedAt:   a.AssignedAt,
	}

	// Broker mirror is best effort: the assignment is already durable.
	if err := uc.Events.PublishDispatch(ctx, event); err != nil {
		log.Printf("[dispatch] assignment %s committed but broker publish failed: %v", a.ID, err)
	}
}

func buildOutreachTask(lead *entity.Lead, worker *entity.Worker, a *entity.Assignment) queue.OutreachTask {
	return queue.OutreachTask{
		AssignmentID: a.ID,
		LeadID:       lead.ID,
		WorkerID:     worker.ID,
		WorkerName:   worker.Name,
		WorkerPhone:  worker.Phone,
		WorkerEmail:  worker.Email,
		LeadName:     lead.Name,
		City:         lead.City,
		Service:      lead.Service,
		DistanceKM:   a.DistanceKM,
	}
}
