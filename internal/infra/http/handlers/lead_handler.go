package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldhq/lead-dispatch/internal/entity"
	"github.com/fieldhq/lead-dispatch/internal/infra/http/middleware"
	"github.com/fieldhq/lead-dispatch/internal/usecase"
)

type LeadHandler struct {
	collectUC   *usecase.CollectLeadsUseCase
	dispatchUC  *usecase.DispatchLeadUseCase
	leadRepo    entity.LeadRepositoryInterface
	rateLimiter *RateLimiter
}

func NewLeadHandler(collectUC *usecase.CollectLeadsUseCase, dispatchUC *usecase.DispatchLeadUseCase, leadRepo entity.LeadRepositoryInterface) *LeadHandler {
	return &LeadHandler{
		collectUC:   collectUC,
		dispatchUC:  dispatchUC,
		leadRepo:    leadRepo,
		rateLimiter: NewRateLimiter(10, time.Minute), // 10 req/min per IP
	}
}

// HandleCollect triggers a lead collection run against the geospatial source.
func (h *LeadHandler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.rateLimiter.Allow(getClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests, try again later"})
		return
	}

	var input usecase.CollectInput
	if err := decodeJSON(r, &input); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	out, err := h.collectUC.Execute(ctx, input)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.RecordLeadsCollected(out.Added)

	writeJSON(w, http.StatusOK, out)
}

func (h *LeadHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	leads, err := h.leadRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, leads)
}

// HandleClose terminates an ASSIGNED lead (operator close).
func (h *LeadHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "leadID")

	if err := h.dispatchUC.CloseAssignedLead(r.Context(), leadID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"lead_id": leadID, "status": entity.LeadStatusClosed})
}

// HandleExport streams all leads as CSV.
func (h *LeadHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadRepo.List(r.Context(), 10000)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leads_export.csv"`)

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{"id", "name", "service", "city", "lat", "lon", "phone", "email", "status", "source", "created_at"})

	for _, l := range leads {
		writer.Write([]string{
			l.ID,
			l.Name,
			l.Service,
			l.City,
			strconv.FormatFloat(l.Lat, 'f', 6, 64),
			strconv.FormatFloat(l.Lon, 'f', 6, 64),
			l.Phone,
			l.Email,
			l.Status,
			l.Source,
			l.CreatedAt.Format(time.RFC3339),
		})
	}
}
