package api

import (
	"time"

	"PulseTrace/internal/domain/models"
	drepo "PulseTrace/internal/domain/repository"
	apimetrics "PulseTrace/internal/service/metrics"
	"PulseTrace/internal/service/ratelimit"
	"PulseTrace/internal/usecase"
	xhttp "PulseTrace/pkg/http"
	xlogger "PulseTrace/pkg/logger"
	"PulseTrace/pkg/util"

	"github.com/labstack/echo/v4"
)

// ReportsEchoHandler exposes on-demand strip analysis and stored report
// retrieval over HTTP.
type ReportsEchoHandler struct {
	logger  *xlogger.Logger
	proc    *usecase.StripProcessor
	store   drepo.Storage
	limiter *ratelimit.Limiter
}

func NewReportsEchoHandler(logger *xlogger.Logger, proc *usecase.StripProcessor, store drepo.Storage) *ReportsEchoHandler {
	apimetrics.Register()
	return &ReportsEchoHandler{logger: logger, proc: proc, store: store, limiter: ratelimit.New()}
}

func (h *ReportsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/reports", h.Reports)
	g.GET("/health", h.Health)
}

// AnalyzeResponse carries either the report or the rejection for one
// submitted strip.
type AnalyzeResponse struct {
	Accepted bool           `json:"accepted"`
	Report   *models.Report `json:"report,omitempty"`
	BPM      float64        `json:"bpm,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

func (h *ReportsEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() {
		apimetrics.APILatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	if !h.limiter.Allow(c.RealIP(), 10, 2) {
		return xhttp.DataResponse(c, 429, "rate limit exceeded")
	}

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var window *models.Window
	if req.WindowStart != nil && req.WindowEnd != nil {
		window = &models.Window{Start: *req.WindowStart, End: *req.WindowEnd}
	}

	outcome, err := h.proc.ProcessWithWindow(c.Request().Context(), req.Strip(), window)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("analyze").Inc()
		h.logger.Error("analyze failed", xlogger.String("source", req.Source), xlogger.Error(err))
		return xhttp.BadRequestResponse(c, err.Error())
	}
	if !outcome.Accepted() {
		rej := outcome.Rejection
		apimetrics.APIRejections.WithLabelValues("analyze").Inc()
		h.logger.Warn("strip rejected",
			xlogger.String("source", rej.Source),
			xlogger.Float64("bpm", rej.BPM),
			xlogger.String("reason", rej.Reason),
		)
		return xhttp.SuccessResponse(c, AnalyzeResponse{Accepted: false, BPM: rej.BPM, Reason: rej.Reason})
	}
	return xhttp.SuccessResponse(c, AnalyzeResponse{Accepted: true, Report: outcome.Report})
}

func (h *ReportsEchoHandler) Reports(c echo.Context) error {
	start := time.Now()
	defer func() {
		apimetrics.APILatency.WithLabelValues("reports").Observe(time.Since(start).Seconds())
	}()

	req := &models.ReportsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now()
	from := util.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, now)

	reports, err := h.store.Query(c.Request().Context(), req.Source, from, to, req.Limit)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("reports").Inc()
		h.logger.Error("reports query failed", xlogger.String("source", req.Source), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, reports, int64(len(reports)))
}

func (h *ReportsEchoHandler) Health(c echo.Context) error {
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			return xhttp.DataResponse(c, 503, "storage unavailable")
		}
	}
	return xhttp.SuccessResponse(c, "ok")
}
