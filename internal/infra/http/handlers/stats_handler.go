package handlers

import (
	"net/http"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

type StatsHandler struct {
	leadRepo       entity.LeadRepositoryInterface
	assignmentRepo entity.AssignmentRepositoryInterface
	workerRepo     entity.WorkerRepositoryInterface
}

func NewStatsHandler(
	leadRepo entity.LeadRepositoryInterface,
	assignmentRepo entity.AssignmentRepositoryInterface,
	workerRepo entity.WorkerRepositoryInterface,
) *StatsHandler {
	return &StatsHandler{
		leadRepo:       leadRepo,
		assignmentRepo: assignmentRepo,
		workerRepo:     workerRepo,
	}
}

func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := h.leadRepo.CountByStatus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	outreach, err := h.assignmentRepo.CountByOutreachStatus(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	active, err := h.workerRepo.CountActive(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, usecase.StatsOutput{
		LeadsByStatus:    leads,
		OutreachByStatus: outreach,
		ActiveWorkers:    active,
	})
}
