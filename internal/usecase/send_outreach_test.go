package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldhq/lead-dispatch/internal/entity"
)

func newOutreachFixture(t *testing.T, outreachStatus string) (*SendOutreachUseCase, *memAssignmentRepo, *fakeEnqueuer, *entity.Assignment) {
	t.Helper()

	lead := plumberLead()
	lead.Status = entity.LeadStatusAssigned
	leadRepo := newMemLeadRepo(lead)
	assignmentRepo := newMemAssignmentRepo(leadRepo)

	assignment := entity.NewAssignment(lead.ID, "w-1", 2.4)
	assignment.OutreachStatus = outreachStatus
	assignmentRepo.assignments[assignment.ID] = assignment

	workerRepo := &memWorkerRepo{}
	worker, err := entity.NewWorker("Asha", []string{"plumber"}, "+91 99999 11111", "", 19.07, 72.88)
	require.NoError(t, err)
	worker.ID = "w-1"
	require.NoError(t, workerRepo.Upsert(context.Background(), worker))

	enqueuer := &fakeEnqueuer{}
	uc := NewSendOutreachUseCase(assignmentRepo, leadRepo, workerRepo, enqueuer)
	return uc, assignmentRepo, enqueuer, assignment
}

func TestSendOutreachEnqueuesPendingAssignment(t *testing.T) {
	uc, _, enqueuer, assignment := newOutreachFixture(t, entity.OutreachStatusPending)

	err := uc.Execute(context.Background(), assignment.ID)

	require.NoError(t, err)
	require.Equal(t, 1, enqueuer.len())
	assert.Equal(t, assignment.ID, enqueuer.tasks[0].AssignmentID)
	assert.Equal(t, "+91 99999 11111", enqueuer.tasks[0].WorkerPhone)
}

func TestSendOutreachResetsFailedToPending(t *testing.T) {
	uc, assignmentRepo, enqueuer, assignment := newOutreachFixture(t, entity.OutreachStatusFailed)

	err := uc.Execute(context.Background(), assignment.ID)

	require.NoError(t, err)
	assert.Equal(t, 1, enqueuer.len())

	stored, _ := assignmentRepo.FindByID(context.Background(), assignment.ID)
	assert.Equal(t, entity.OutreachStatusPending, stored.OutreachStatus)
}

func TestSendOutreachRefusesAlreadySent(t *testing.T) {
	uc, _, enqueuer, assignment := newOutreachFixture(t, entity.OutreachStatusSent)

	err := uc.Execute(context.Background(), assignment.ID)

	assert.ErrorIs(t, err, ErrOutreachAlreadySent)
	assert.Equal(t, 0, enqueuer.len())
}

func TestSendOutreachRefusesSupersededAssignment(t *testing.T) {
	// A lead that failed outreach and was re-dispatched carries an old
	// FAILED assignment and a new PENDING one. Re-sending the old record
	// must be refused or the lead would have two live outreaches.
	uc, assignmentRepo, enqueuer, stale := newOutreachFixture(t, entity.OutreachStatusFailed)

	replacement := entity.NewAssignment(stale.LeadID, "w-2", 3.1)
	replacement.AssignedAt = stale.AssignedAt.Add(time.Minute)
	assignmentRepo.assignments[replacement.ID] = replacement

	err := uc.Execute(context.Background(), stale.ID)

	assert.ErrorIs(t, err, ErrAssignmentSuperseded)
	assert.Equal(t, 0, enqueuer.len())

	stored, _ := assignmentRepo.FindByID(context.Background(), stale.ID)
	assert.Equal(t, entity.OutreachStatusFailed, stored.OutreachStatus)
}

func TestSendOutreachRefusesWhenLeadNotAssigned(t *testing.T) {
	uc, assignmentRepo, enqueuer, assignment := newOutreachFixture(t, entity.OutreachStatusFailed)

	// Outreach exhaustion returned the lead to DISPATCH_FAILED; the way
	// forward is a fresh dispatch, not a re-send.
	_, err := uc.Leads.TransitionStatus(context.Background(), assignment.LeadID,
		[]string{entity.LeadStatusAssigned}, entity.LeadStatusDispatchFailed)
	require.NoError(t, err)

	err = uc.Execute(context.Background(), assignment.ID)

	assert.ErrorIs(t, err, ErrLeadNotAssigned)
	assert.Equal(t, 0, enqueuer.len())

	stored, _ := assignmentRepo.FindByID(context.Background(), assignment.ID)
	assert.Equal(t, entity.OutreachStatusFailed, stored.OutreachStatus)
}

func TestSendOutreachUnknownAssignment(t *testing.T) {
	uc, _, _, _ := newOutreachFixture(t, entity.OutreachStatusPending)

	err := uc.Execute(context.Background(), "no-such-assignment")

	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}
