package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
)

// memLeadRepo implements the lead repository with a mutex-guarded map, so the
// compare-and-set semantics hold under the race detector.
type memLeadRepo struct {
	mu    sync.Mutex
	leads map[string]*entity.Lead
}

func newMemLeadRepo(leads ...*entity.Lead) *memLeadRepo {
	r := &memLeadRepo{leads: make(map[string]*entity.Lead)}
	for _, l := range leads {
		copied := *l
		r.leads[l.ID] = &copied
	}
	return r
}

func (r *memLeadRepo) Insert(ctx context.Context, lead *entity.Lead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.leads {
		if existing.Source == lead.Source && existing.ExternalID == lead.ExternalID {
			return false, nil
		}
	}
	copied := *lead
	r.leads[lead.ID] = &copied
	return true, nil
}

func (r *memLeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, nil
	}
	copied := *lead
	return &copied, nil
}

func (r *memLeadRepo) TransitionStatus(ctx context.Context, id string, from []string, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if lead.Status == f {
			lead.Status = to
			lead.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

func (r *memLeadRepo) FindDispatchable(ctx context.Context, service string, limit int) ([]entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Lead
	for _, l := range r.leads {
		if l.Service != service {
			continue
		}
		if l.Status == entity.LeadStatusNew || l.Status == entity.LeadStatusDispatchFailed {
			out = append(out, *l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memLeadRepo) List(ctx context.Context, limit int) ([]entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Lead
	for _, l := range r.leads {
		out = append(out, *l)
	}
	return out, nil
}

func (r *memLeadRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, l := range r.leads {
		out[l.Status]++
	}
	return out, nil
}

func (r *memLeadRepo) ReleaseStale(ctx context.Context, window time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	released := 0
	cutoff := time.Now().Add(-window)
	for _, l := range r.leads {
		if l.Status == entity.LeadStatusMatching && l.UpdatedAt.Before(cutoff) {
			l.Status = entity.LeadStatusNew
			released++
		}
	}
	return released, nil
}

func (r *memLeadRepo) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leads[id].Status
}

// memAssignmentRepo mimics the transactional create-and-assign against the
// in-memory lead repo.
type memAssignmentRepo struct {
	mu          sync.Mutex
	leads       *memLeadRepo
	assignments map[string]*entity.Assignment
}

func newMemAssignmentRepo(leads *memLeadRepo) *memAssignmentRepo {
	return &memAssignmentRepo{leads: leads, assignments: make(map[string]*entity.Assignment)}
}

func (r *memAssignmentRepo) CreateAndAssign(ctx context.Context, a *entity.Assignment) error {
	ok, err := r.leads.TransitionStatus(ctx, a.LeadID, []string{entity.LeadStatusMatching}, entity.LeadStatusAssigned)
	if err != nil {
		return err
	}
	if !ok {
		return errNotMatching
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.assignments[a.ID] = &copied
	return nil
}

var errNotMatching = &DomainError{Code: "NOT_MATCHING", Message: "lead is not in MATCHING"}

func (r *memAssignmentRepo) FindByID(ctx context.Context, id string) (*entity.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (r *memAssignmentRepo) FindCurrentByLeadID(ctx context.Context, leadID string) (*entity.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var current *entity.Assignment
	for _, a := range r.assignments {
		if a.LeadID != leadID {
			continue
		}
		if current == nil || a.AssignedAt.After(current.AssignedAt) {
			current = a
		}
	}
	if current == nil {
		return nil, nil
	}
	copied := *current
	return &copied, nil
}

func (r *memAssignmentRepo) UpdateOutreachStatus(ctx context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.assignments[id]; ok {
		a.OutreachStatus = status
	}
	return nil
}

func (r *memAssignmentRepo) CountByOutreachStatus(ctx context.Context) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int)
	for _, a := range r.assignments {
		out[a.OutreachStatus]++
	}
	return out, nil
}

func (r *memAssignmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assignments)
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []queue.OutreachTask
	fail  error
}

func (f *fakeEnqueuer) Enqueue(task queue.OutreachTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeEnqueuer) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func newDispatchFixture(t *testing.T, lead *entity.Lead, candidates []entity.Worker) (*DispatchLeadUseCase, *memLeadRepo, *memAssignmentRepo, *fakeEnqueuer) {
	t.Helper()

	leadRepo := newMemLeadRepo(lead)
	assignmentRepo := newMemAssignmentRepo(leadRepo)
	enqueuer := &fakeEnqueuer{}

	workerRepo := new(MockWorkerRepository)
	workerRepo.On("FindCandidates", mock.Anything, lead.Service).Return(candidates, nil)
	workerRepo.On("CountBySkill", mock.Anything, lead.Service).Return(0, nil)

	uc := NewDispatchLeadUseCase(leadRepo, workerRepo, assignmentRepo, NewMatchLeadUseCase(workerRepo), enqueuer, nil)
	return uc, leadRepo, assignmentRepo, enqueuer
}

func TestDispatchOneAssignsNearestWorker(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	worker := entity.Worker{ID: "w-1", Name: "Asha", Skills: []string{"plumber"}, Lat: 19.07, Lon: 72.88, Active: true, Phone: "+91 99999 11111"}

	uc, leadRepo, assignmentRepo, enqueuer := newDispatchFixture(t, lead, []entity.Worker{worker})

	result, err := uc.DispatchOne(ctx, lead.ID)

	require.NoError(t, err)
	assert.Equal(t, DispatchAssigned, result.Status)
	assert.Equal(t, "w-1", result.Worker.ID)
	assert.Equal(t, entity.LeadStatusAssigned, leadRepo.status(lead.ID))
	assert.Equal(t, 1, assignmentRepo.count())
	assert.Equal(t, 1, enqueuer.len())
	assert.Equal(t, entity.OutreachStatusPending, result.Assignment.OutreachStatus)
}

func TestDispatchOneConcurrentExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	worker := entity.Worker{ID: "w-1", Name: "Asha", Skills: []string{"plumber"}, Lat: 19.07, Lon: 72.88, Active: true, Phone: "+91 99999 11111"}

	uc, _, assignmentRepo, enqueuer := newDispatchFixture(t, lead, []entity.Worker{worker})

	const callers = 16
	results := make(chan DispatchResult, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := uc.DispatchOne(ctx, lead.ID)
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	assigned, conflicted := 0, 0
	for res := range results {
		switch res.Status {
		case DispatchAssigned:
			assigned++
		case DispatchAlreadyAssigned:
			conflicted++
		}
	}

	assert.Equal(t, 1, assigned)
	assert.Equal(t, callers-1, conflicted)
	assert.Equal(t, 1, assignmentRepo.count())
	assert.Equal(t, 1, enqueuer.len())
}

func TestDispatchOneNoMatchMarksDispatchFailed(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()

	uc, leadRepo, assignmentRepo, _ := newDispatchFixture(t, lead, []entity.Worker{})

	result, err := uc.DispatchOne(ctx, lead.ID)

	require.NoError(t, err)
	assert.Equal(t, DispatchNoMatch, result.Status)
	assert.Equal(t, entity.LeadStatusDispatchFailed, leadRepo.status(lead.ID))
	assert.Equal(t, 0, assignmentRepo.count())
}

func TestDispatchOneLeadNotFound(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()

	uc, _, _, _ := newDispatchFixture(t, lead, []entity.Worker{})

	result, err := uc.DispatchOne(ctx, "no-such-lead")

	require.NoError(t, err)
	assert.Equal(t, DispatchLeadNotFound, result.Status)
}

func TestDispatchOneQueueFullKeepsAssignment(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	worker := entity.Worker{ID: "w-1", Name: "Asha", Skills: []string{"plumber"}, Lat: 19.07, Lon: 72.88, Active: true, Phone: "+91 99999 11111"}

	uc, leadRepo, assignmentRepo, enqueuer := newDispatchFixture(t, lead, []entity.Worker{worker})
	enqueuer.fail = queue.ErrQueueFull

	result, err := uc.DispatchOne(ctx, lead.ID)

	// The assignment is durable even though the enqueue was rejected.
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Equal(t, DispatchAssigned, result.Status)
	assert.Equal(t, entity.LeadStatusAssigned, leadRepo.status(lead.ID))
	assert.Equal(t, 1, assignmentRepo.count())

	stored, ferr := assignmentRepo.FindByID(ctx, result.Assignment.ID)
	require.NoError(t, ferr)
	assert.Equal(t, entity.OutreachStatusPending, stored.OutreachStatus)
}

func TestDispatchOneRetriesAfterDispatchFailed(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	lead.Status = entity.LeadStatusDispatchFailed
	worker := entity.Worker{ID: "w-1", Name: "Asha", Skills: []string{"plumber"}, Lat: 19.07, Lon: 72.88, Active: true, Phone: "+91 99999 11111"}

	uc, leadRepo, _, _ := newDispatchFixture(t, lead, []entity.Worker{worker})

	result, err := uc.DispatchOne(ctx, lead.ID)

	require.NoError(t, err)
	assert.Equal(t, DispatchAssigned, result.Status)
	assert.Equal(t, entity.LeadStatusAssigned, leadRepo.status(lead.ID))
}

func TestFailAssignedLeadTransition(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	lead.Status = entity.LeadStatusAssigned

	leadRepo := newMemLeadRepo(lead)
	uc := &DispatchLeadUseCase{Leads: leadRepo}

	require.NoError(t, uc.FailAssignedLead(ctx, lead.ID))
	assert.Equal(t, entity.LeadStatusDispatchFailed, leadRepo.status(lead.ID))

	// Not ASSIGNED anymore: the transition is refused.
	assert.ErrorIs(t, uc.FailAssignedLead(ctx, lead.ID), ErrAlreadyAssigned)
}

func TestCloseAssignedLeadTransition(t *testing.T) {
	ctx := context.Background()
	lead := plumberLead()
	lead.Status = entity.LeadStatusAssigned

	leadRepo := newMemLeadRepo(lead)
	uc := &DispatchLeadUseCase{Leads: leadRepo}

	require.NoError(t, uc.CloseAssignedLead(ctx, lead.ID))
	assert.Equal(t, entity.LeadStatusClosed, leadRepo.status(lead.ID))

	// CLOSED is terminal.
	assert.ErrorIs(t, uc.CloseAssignedLead(ctx, lead.ID), ErrAlreadyAssigned)
}
