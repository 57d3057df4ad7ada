package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/payment-plan/internal/observability"
	"github.com/iwvelando/payment-plan/internal/plan"
	"github.com/iwvelando/payment-plan/internal/planner"
	"github.com/iwvelando/payment-plan/internal/report"
	"github.com/iwvelando/payment-plan/internal/schedule"
	"github.com/iwvelando/payment-plan/internal/solver"
	"github.com/iwvelando/payment-plan/internal/store"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/datetime"
	"github.com/iwvelando/payment-plan/pkg/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options wires the collaborators of the HTTP handler. Store, Reports and
// Metrics are optional; the stored-plan routes answer 503 without a store.
type Options struct {
	Logger        *zap.Logger
	MaxUploadSize int64
	Version       string
	Planner       *planner.Planner
	Store         store.Store
	Reports       *report.Client
	Metrics       *observability.Metrics
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	planner       *planner.Planner
	store         store.Store
	reports       *report.Client
	metrics       *observability.Metrics
}

// NewHandler constructs the HTTP handler that serves the plan editing API,
// the stored-plan API and the operational endpoints.
func NewHandler(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}
	if opts.Planner == nil {
		opts.Planner = planner.New(opts.Logger)
	}

	h := &handler{
		logger:        opts.Logger,
		maxUploadSize: opts.MaxUploadSize,
		version:       trimmedVersion,
		planner:       opts.Planner,
		store:         opts.Store,
		reports:       opts.Reports,
		metrics:       opts.Metrics,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(h.logger))
	r.Use(observability.MetricsMiddleware(h.metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)

	// Editing API, stateless: every request carries the configuration.
	r.Route("/api/plan", func(r chi.Router) {
		r.Post("/new", h.handleNew)
		r.Post("/edit", h.handleEdit)
		r.Post("/schedule", h.handleSchedule)
		r.Post("/extra", h.handleExtra)
		r.Post("/date", h.handleDate)
		r.Post("/desired", h.handleDesired)
		r.Post("/validate", h.handleValidate)
		r.Post("/export", h.handleExport)
	})

	// Stored plans
	r.Route("/api/plans", func(r chi.Router) {
		r.Post("/", h.handleSavePlan)
		r.Get("/", h.handleListPlans)
		r.Get("/{id}", h.handleGetPlan)
		r.Put("/{id}", h.handleUpdatePlan)
		r.Delete("/{id}", h.handleDeletePlan)
		r.Get("/{id}/report", h.handleReport)
	})

	r.Get("/api/version", h.handleVersion)
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.metrics.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

type planRequest struct {
	Config *plan.Configuration `json:"config"`
}

type editRequest struct {
	Config *plan.Configuration `json:"config"`
	Field  string              `json:"field"`
	Value  string              `json:"value"`
}

type installmentRequest struct {
	Config *plan.Configuration `json:"config"`
	ID     int                 `json:"id"`
	Value  string              `json:"value"`
	Date   string              `json:"date"`
}

type desiredRequest struct {
	DuringConstruction float64 `json:"duringConstruction"`
	InstallmentCount   int     `json:"installmentCount"`
	DesiredOrdinary    float64 `json:"desiredOrdinary"`
	ExtraCount         int     `json:"extraCount"`
}

type planResponse struct {
	Plan    plan.Configuration `json:"plan"`
	Changed bool               `json:"changed"`
	Totals  schedule.Totals    `json:"totals"`
}

// Solver outcomes reported by /api/plan/desired.
const (
	desiredSolved     = "solved"
	desiredNone       = "none"
	desiredInfeasible = "infeasible"
)

type desiredResponse struct {
	Status  string          `json:"status"`
	Result  *solver.Desired `json:"result,omitempty"`
	Message string          `json:"message,omitempty"`
}

type validateResponse struct {
	OK      bool              `json:"ok"`
	Reason  validation.Reason `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
}

func (h *handler) handleNew(w http.ResponseWriter, r *http.Request) {
	c := h.planner.New()
	h.writeJSON(w, http.StatusOK, planResponse{Plan: c, Changed: true, Totals: schedule.Sum(c.Payments)})
}

func (h *handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEdit"

	var req editRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}
	field, ok := plan.ParseField(req.Field)
	if !ok {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", req.Field), op)
		return
	}

	next, changed := h.planner.Reduce(*req.Config, plan.Edit{Field: field, Value: req.Value})
	if h.metrics != nil {
		h.metrics.IncrEdit(string(field))
	}
	h.writeJSON(w, http.StatusOK, planResponse{Plan: next, Changed: changed, Totals: schedule.Sum(next.Payments)})
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"

	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}

	next, changed := h.planner.Regenerate(*req.Config)
	h.writeJSON(w, http.StatusOK, planResponse{Plan: next, Changed: changed, Totals: schedule.Sum(next.Payments)})
}

func (h *handler) handleExtra(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExtra"

	var req installmentRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}

	next := h.planner.ApplyExtra(*req.Config, req.ID, req.Value)
	h.writeJSON(w, http.StatusOK, planResponse{
		Plan:    next,
		Changed: !plan.Equal(*req.Config, next),
		Totals:  schedule.Sum(next.Payments),
	})
}

func (h *handler) handleDate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDate"

	var req installmentRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}
	date, err := datetime.ParseDate(req.Date)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid date: %v", err), op)
		return
	}

	next := h.planner.ApplyDate(*req.Config, req.ID, date)
	h.writeJSON(w, http.StatusOK, planResponse{
		Plan:    next,
		Changed: !plan.Equal(*req.Config, next),
		Totals:  schedule.Sum(next.Payments),
	})
}

func (h *handler) handleDesired(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDesired"

	var req desiredRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	result, err := solver.SolveDesired(req.DuringConstruction, req.InstallmentCount, req.DesiredOrdinary, req.ExtraCount)
	switch {
	case errors.Is(err, solver.ErrNothingToSolve):
		h.writeJSON(w, http.StatusOK, desiredResponse{Status: desiredNone})
	case errors.Is(err, solver.ErrInfeasible):
		h.writeJSON(w, http.StatusOK, desiredResponse{Status: desiredInfeasible, Message: err.Error()})
	case err != nil:
		h.respondErrorWithOp(w, http.StatusInternalServerError, err.Error(), op)
	default:
		h.writeJSON(w, http.StatusOK, desiredResponse{Status: desiredSolved, Result: &result})
	}
}

func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidate"

	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}

	result := req.Config.Validate()
	if !result.OK && h.metrics != nil {
		h.metrics.IncrValidationFailure(string(result.Reason))
	}
	h.writeJSON(w, http.StatusOK, validateResponseFor(result))
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExport"

	var req planRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Config == nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing config", op)
		return
	}

	yamlBytes, err := yaml.Marshal(req.Config)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func validateResponseFor(result validation.Result) validateResponse {
	resp := validateResponse{OK: result.OK, Reason: result.Reason}
	if !result.OK {
		resp.Message = result.Reason.Message()
	}
	return resp
}

// decode reads a size-limited JSON body into dst. On failure it answers the
// request and returns false.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", h.maxUploadSize), op)
		case errors.Is(err, io.EOF):
			h.respondErrorWithOp(w, http.StatusBadRequest, "empty request body", op)
		default:
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		}
		return false
	}
	return true
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if h.logger != nil {
		h.logger.Error("plan request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
