package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/payment-plan/internal/report"
	"github.com/iwvelando/payment-plan/internal/store"
	"go.uber.org/zap"
)

// requestTimeout bounds store and report calls made on behalf of a request.
const requestTimeout = 10 * time.Second

type savedResponse struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ReadyAfter *time.Time `json:"readyAfter,omitempty"`
}

type invalidPlanResponse struct {
	Error   string           `json:"error"`
	Reason  string           `json:"reason"`
	Message string           `json:"message"`
	Result  validateResponse `json:"validation"`
}

func (h *handler) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSavePlan"
	if !h.requireStore(w, op) {
		return
	}

	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}
	if !h.validForPersistence(w, req, op) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := h.store.Save(ctx, *req.Config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to save plan: %v", err), op)
		return
	}
	if h.metrics != nil {
		h.metrics.IncrSaved()
	}

	h.logger.Info("saved plan",
		zap.String("op", op),
		zap.String("id", record.ID),
		zap.String("client", record.Plan.Client),
	)
	h.writeJSON(w, http.StatusCreated, h.savedResponseFor(record))
}

func (h *handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdatePlan"
	if !h.requireStore(w, op) {
		return
	}

	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}
	if !h.validForPersistence(w, req, op) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := h.store.Update(ctx, chi.URLParam(r, "id"), *req.Config)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, h.savedResponseFor(record))
}

func (h *handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetPlan"
	if !h.requireStore(w, op) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeletePlan"
	if !h.requireStore(w, op) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.store.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListPlans"
	if !h.requireStore(w, op) {
		return
	}

	params := r.URL.Query()
	pageSize := 0
	if raw := strings.TrimSpace(params.Get("pageSize")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid pageSize %q", raw), op)
			return
		}
		pageSize = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if term := strings.TrimSpace(params.Get("q")); term != "" {
		records, err := store.Search(ctx, h.store, term, pageSize)
		if err != nil {
			h.respondStoreError(w, err, op)
			return
		}
		h.writeJSON(w, http.StatusOK, store.Page{Records: records})
		return
	}

	q := store.Query{
		ClientPrefix:  params.Get("client"),
		ProjectPrefix: params.Get("project"),
		PageSize:      pageSize,
		Cursor:        params.Get("cursor"),
	}
	if raw := params.Get("sort"); raw != "" {
		sort, ok := store.ParseSortField(raw)
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported sort %q", raw), op)
			return
		}
		q.Sort = sort
	}
	if raw := params.Get("direction"); raw != "" {
		direction, ok := store.ParseDirection(raw)
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unsupported direction %q", raw), op)
			return
		}
		q.Direction = direction
	}

	page, err := h.store.List(ctx, q)
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}
	if page.Records == nil {
		page.Records = []store.Record{}
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"
	if !h.requireStore(w, op) {
		return
	}
	if h.reports == nil {
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, report.ErrNoService.Error(), op)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	record, err := h.store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondStoreError(w, err, op)
		return
	}

	pdf, err := h.reports.Download(ctx, record.ID)
	switch {
	case errors.Is(err, report.ErrNoService):
		h.respondErrorWithOp(w, http.StatusServiceUnavailable, err.Error(), op)
		return
	case errors.Is(err, report.ErrNotReady):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(h.reports.ReadyAfter(record.UpdatedAt))))
		h.respondErrorWithOp(w, http.StatusConflict, err.Error(), op)
		return
	case err != nil:
		h.respondErrorWithOp(w, http.StatusBadGateway, err.Error(), op)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.SuggestedFilename(record.Plan)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.Error("failed to write report", zap.String("op", op), zap.Error(err))
	}
}

// validForPersistence runs the validator ahead of a save. Invalid plans are
// answered with 422 and the failing reason.
func (h *handler) validForPersistence(w http.ResponseWriter, req planRequest, op string) bool {
	result := req.Config.Validate()
	if result.OK {
		return true
	}
	if h.metrics != nil {
		h.metrics.IncrValidationFailure(string(result.Reason))
	}
	h.logger.Warn("rejected invalid plan",
		zap.String("op", op),
		zap.String("reason", string(result.Reason)),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, invalidPlanResponse{
		Error:   result.Err().Error(),
		Reason:  string(result.Reason),
		Message: result.Reason.Message(),
		Result:  validateResponseFor(result),
	})
	return false
}

func (h *handler) savedResponseFor(record store.Record) savedResponse {
	resp := savedResponse{ID: record.ID, CreatedAt: record.CreatedAt, UpdatedAt: record.UpdatedAt}
	if h.reports != nil {
		h.reports.TriggerAsync(record.ID)
		readyAfter := h.reports.ReadyAfter(record.UpdatedAt)
		resp.ReadyAfter = &readyAfter
	}
	return resp
}

// retryAfterSeconds is never below one second.
func retryAfterSeconds(readyAfter time.Time) int {
	seconds := int(time.Until(readyAfter).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (h *handler) requireStore(w http.ResponseWriter, op string) bool {
	if h.store != nil {
		return true
	}
	h.respondErrorWithOp(w, http.StatusServiceUnavailable, "plan storage not configured", op)
	return false
}

func (h *handler) respondStoreError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
	case errors.Is(err, store.ErrInvalidCursor):
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
	default:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	}
}
