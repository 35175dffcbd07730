package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "vizpipe/internal/errors"
	"vizpipe/internal/exporter"
	appmiddleware "vizpipe/internal/middleware"
	"vizpipe/internal/services"
	"vizpipe/pkg/contracts/domain"
)

// Output formats accepted by the ?format= query parameter
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// PipelineHandler serves the series, choropleth and drill-down endpoints
type PipelineHandler struct {
	service      PipelineServiceInterface
	validator    *appmiddleware.Validator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
	maxTopN      int
}

// NewPipelineHandler creates a pipeline handler. maxTopN bounds the limit
// query parameter of GET /drilldown.
func NewPipelineHandler(service PipelineServiceInterface, maxTopN int, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *PipelineHandler {
	return &PipelineHandler{
		service:      service,
		validator:    appmiddleware.NewValidator(),
		logger:       logger.With(slog.String("component", "pipeline_handler")),
		errorHandler: errorHandler,
		maxTopN:      maxTopN,
	}
}

// Routes returns the pipeline routes
func (h *PipelineHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/series", h.GetSeries)
	r.Get("/choropleth", h.GetChoropleth)
	r.Get("/stats", h.GetStats)
	r.Get("/drilldown", h.GetDrillDown)
	r.With(appmiddleware.ContentTypeValidator("application/json")).Post("/drilldown", h.PostDrillDown)

	return r
}

// GetSeries handles GET /api/series?outer=2015&outer=2016[&format=csv]
func (h *PipelineHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	format, ok := h.format(w, r)
	if !ok {
		return
	}

	var req services.SeriesRequest
	for _, raw := range r.URL.Query()["outer"] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				req.Outer = append(req.Outer, domain.String(part))
			}
		}
	}

	resp, err := h.service.Series(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "series served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("groups", len(resp.Groups)))

	if format == FormatCSV {
		h.writeCSV(w, r, "series.csv", func(buf *bytes.Buffer) error {
			return exporter.WriteSeries(buf, resp.Groups, false)
		})
		return
	}
	render.JSON(w, r, resp)
}

// GetChoropleth handles GET /api/choropleth[?format=csv]
func (h *PipelineHandler) GetChoropleth(w http.ResponseWriter, r *http.Request) {
	format, ok := h.format(w, r)
	if !ok {
		return
	}

	result, err := h.service.Choropleth(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if format == FormatCSV {
		h.writeCSV(w, r, "choropleth.csv", func(buf *bytes.Buffer) error {
			return exporter.WriteChoropleth(buf, result.Targets, false)
		})
		return
	}

	skipped := make([]map[string]interface{}, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, map[string]interface{}{
			"row":   s.Index,
			"key":   s.Key,
			"raw":   s.Raw,
			"error": s.Error(),
		})
	}
	render.JSON(w, r, map[string]interface{}{
		"targets":        result.Targets,
		"thresholds":     result.Thresholds,
		"matched":        result.Matched,
		"unmatched":      result.Unmatched,
		"duplicate_keys": result.DuplicateKeys,
		"skipped":        skipped,
	})
}

// PostDrillDown handles POST /api/drilldown {"outer":2015,"inner":7,"limit":5}
func (h *PipelineHandler) PostDrillDown(w http.ResponseWriter, r *http.Request) {
	var req services.DrillDownRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.drillDown(w, r, req)
}

// GetDrillDown handles GET /api/drilldown?outer=2015&inner=7&limit=5
func (h *PipelineHandler) GetDrillDown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := appmiddleware.QueryInt(r, "limit", 0, h.maxTopN, 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req := services.DrillDownRequest{Limit: limit}
	if v := strings.TrimSpace(q.Get("outer")); v != "" {
		req.Outer = domain.String(v)
	}
	if v := strings.TrimSpace(q.Get("inner")); v != "" {
		req.Inner = domain.String(v)
	}
	h.drillDown(w, r, req)
}

func (h *PipelineHandler) drillDown(w http.ResponseWriter, r *http.Request, req services.DrillDownRequest) {
	resp, err := h.service.DrillDown(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// GetStats handles GET /api/stats
func (h *PipelineHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Stats())
}

func (h *PipelineHandler) format(w http.ResponseWriter, r *http.Request) (string, bool) {
	switch f := strings.ToLower(r.URL.Query().Get("format")); f {
	case "", FormatJSON:
		return FormatJSON, true
	case FormatCSV:
		return FormatCSV, true
	default:
		h.errorHandler.HandleError(w, r, apperrors.UnsupportedFormat(f, FormatJSON, FormatCSV))
		return "", false
	}
}

// writeCSV buffers the table so that encoding errors still produce a
// problem response instead of a truncated file
func (h *PipelineHandler) writeCSV(w http.ResponseWriter, r *http.Request, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
