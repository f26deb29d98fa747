package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

type WorkerHandler struct {
	importUC   *usecase.ImportWorkersUseCase
	workerRepo entity.WorkerRepositoryInterface
}

func NewWorkerHandler(importUC *usecase.ImportWorkersUseCase, workerRepo entity.WorkerRepositoryInterface) *WorkerHandler {
	return &WorkerHandler{
		importUC:   importUC,
		workerRepo: workerRepo,
	}
}

// HandleImport ingests a CSV body (name,skills,phone,email,lat,lon).
// Bad rows are reported individually; good rows still land.
func (h *WorkerHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	out, err := h.importUC.Execute(r.Context(), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *WorkerHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var input usecase.AddWorkerInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	worker, err := h.importUC.AddWorker(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, worker)
}

func (h *WorkerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	workers, err := h.workerRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workers)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive deactivates or reactivates a worker. Workers are never
// hard-deleted.
func (h *WorkerHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	workerID := chi.URLParam(r, "workerID")

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	if err := h.workerRepo.SetActive(r.Context(), workerID, req.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "worker not found", Code: "WORKER_NOT_FOUND"})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": workerID, "active": req.Active})
}
