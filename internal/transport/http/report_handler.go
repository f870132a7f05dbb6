package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "stockai/internal/errors"
	"stockai/internal/pipeline"
	"stockai/pkg/contracts/domain"
)

// ReportHandler serves the results of the latest analysis run. It is a
// read-only display boundary: decisions and trades are computed by the
// pipeline, never here.
type ReportHandler struct {
	mu       sync.RWMutex
	latest   *pipeline.RunResult
	logger   *slog.Logger
	validate *validator.Validate
}

// NewReportHandler creates a report handler.
func NewReportHandler(logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		logger:   logger.With(slog.String("component", "report_handler")),
		validate: validator.New(),
	}
}

// SetResult publishes a completed run to readers.
func (h *ReportHandler) SetResult(run *pipeline.RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = run
}

// result returns the latest published run, or nil.
func (h *ReportHandler) result() *pipeline.RunResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", h.GetHealth)
	r.Get("/decisions", h.GetDecisions)
	r.Get("/decisions/{company}", h.GetDecision)
	r.Get("/trades", h.GetTrades)

	return r
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status    string    `json:"status"`
	RunID     string    `json:"run_id,omitempty"`
	Companies int       `json:"companies"`
	Skipped   int       `json:"skipped"`
	Timestamp time.Time `json:"timestamp"`
}

// GetHealth reports service liveness and whether a run is available.
func (h *ReportHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "waiting", Timestamp: time.Now()}
	if run := h.result(); run != nil {
		resp.Status = "ok"
		resp.RunID = run.RunID
		resp.Companies = len(run.Companies)
		resp.Skipped = run.Skipped
	}
	render.JSON(w, r, resp)
}

// decisionsResponse is the decision listing payload.
type decisionsResponse struct {
	RunID     string                     `json:"run_id"`
	Decisions map[string]domain.Decision `json:"decisions"`
	Count     int                        `json:"count"`
}

// GetDecisions returns the latest decision per company.
func (h *ReportHandler) GetDecisions(w http.ResponseWriter, r *http.Request) {
	run := h.result()
	if run == nil {
		h.renderError(w, r, apierrors.ErrNoRunAvailable)
		return
	}

	render.JSON(w, r, decisionsResponse{
		RunID:     run.RunID,
		Decisions: run.Decisions,
		Count:     len(run.Decisions),
	})
}

// companyParam carries the validated path parameter of GetDecision.
type companyParam struct {
	Company string `validate:"required,min=1,max=120"`
}

// GetDecision returns one company's decision.
func (h *ReportHandler) GetDecision(w http.ResponseWriter, r *http.Request) {
	run := h.result()
	if run == nil {
		h.renderError(w, r, apierrors.ErrNoRunAvailable)
		return
	}

	param := companyParam{Company: chi.URLParam(r, "company")}
	if err := h.validate.Struct(param); err != nil {
		h.renderError(w, r, apierrors.ErrInvalidRequest)
		return
	}

	decision, ok := run.Decisions[param.Company]
	if !ok {
		h.renderError(w, r, apierrors.NotFoundError("company"))
		return
	}
	render.JSON(w, r, decision)
}

// tradesResponse is the trade listing payload.
type tradesResponse struct {
	RunID  string               `json:"run_id"`
	Trades []domain.TradeRecord `json:"trades"`
	Count  int                  `json:"count"`
}

// GetTrades returns the actionable trades of the latest run.
func (h *ReportHandler) GetTrades(w http.ResponseWriter, r *http.Request) {
	run := h.result()
	if run == nil {
		h.renderError(w, r, apierrors.ErrNoRunAvailable)
		return
	}

	trades := run.Trades
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	render.JSON(w, r, tradesResponse{
		RunID:  run.RunID,
		Trades: trades,
		Count:  len(trades),
	})
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if err := render.Render(w, r, apiErr); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render error response",
			slog.String("error", err.Error()))
	}
}
