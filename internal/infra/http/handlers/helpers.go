package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldhq/lead-dispatch/internal/geo"
	"github.com/fieldhq/lead-dispatch/internal/infra/queue"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validation usecase.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Error(), Code: "VALIDATION"})
		return
	}

	var invalidCoord *geo.InvalidCoordinateError
	if errors.As(err, &invalidCoord) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalidCoord.Error(), Code: "INVALID_COORDINATE"})
		return
	}

	if errors.Is(err, queue.ErrQueueFull) {
		// Backpressure: the caller should retry later or shed load.
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "QUEUE_FULL"})
		return
	}

	var domain *usecase.DomainError
	if errors.As(err, &domain) {
		status := http.StatusConflict
		switch domain.Code {
		case "LEAD_NOT_FOUND", "ASSIGNMENT_NOT_FOUND", "WORKER_NOT_FOUND":
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: domain.Message, Code: domain.Code})
		return
	}

	var transport *queue.TransportError
	if errors.As(err, &transport) {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: transport.Error(), Code: "TRANSPORT"})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "STORAGE"})
}
