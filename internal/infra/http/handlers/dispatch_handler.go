package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldhq/lead-dispatch/internal/infra/http/middleware"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

type DispatchHandler struct {
	dispatchUC *usecase.DispatchLeadUseCase
	outreachUC *usecase.SendOutreachUseCase
}

func NewDispatchHandler(dispatchUC *usecase.DispatchLeadUseCase, outreachUC *usecase.SendOutreachUseCase) *DispatchHandler {
	return &DispatchHandler{
		dispatchUC: dispatchUC,
		outreachUC: outreachUC,
	}
}

// HandleDispatchOne claims and dispatches a single lead. The outcome is
// always reported in the body; QueueFull keeps the ASSIGNED result but
// signals 503 so the caller re-enqueues later.
func (h *DispatchHandler) HandleDispatchOne(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	result, err := h.dispatchUC.DispatchOne(r.Context(), leadID)
	middleware.RecordDispatch(string(result.Status))

	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	switch result.Status {
	case usecase.DispatchLeadNotFound:
		status = http.StatusNotFound
	case usecase.DispatchAlreadyAssigned:
		status = http.StatusConflict
	}

	writeJSON(w, status, result)
}

type matchServiceRequest struct {
	Service string `json:"service"`
	Limit   int    `json:"limit"`
}

type matchServiceResponse struct {
	Service string                   `json:"service"`
	Results []usecase.DispatchResult `json:"results"`
}

// HandleMatchService batch-dispatches the pending leads for one service.
func (h *DispatchHandler) HandleMatchService(w http.ResponseWriter, r *http.Request) {
	var req matchServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	if req.Service == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "service is required", Code: "VALIDATION"})
		return
	}

	results, err := h.dispatchUC.MatchService(r.Context(), req.Service, req.Limit)
	for _, res := range results {
		middleware.RecordDispatch(string(res.Status))
	}

	if err != nil {
		// Partial results still travel with the error status.
		writeJSON(w, http.StatusServiceUnavailable, matchServiceResponse{Service: req.Service, Results: results})
		return
	}

	writeJSON(w, http.StatusOK, matchServiceResponse{Service: req.Service, Results: results})
}

// HandleSendOutreach re-enqueues an assignment for delivery.
func (h *DispatchHandler) HandleSendOutreach(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignmentID")

	if err := h.outreachUC.Execute(r.Context(), assignmentID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"assignment_id": assignmentID, "status": "queued"})
}
