package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.tracker == nil {
		checks["ledger"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if snap, err := s.tracker.Snapshot(ctx); err != nil {
		checks["ledger"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["ledger"] = map[string]interface{}{
			"status":  "ok",
			"entries": len(snap.Expenses),
		}
	}

	stats := s.charts.Cache().Stats()
	checks["chart_cache"] = map[string]interface{}{
		"status":  "ok",
		"entries": stats.Size,
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics exposes counters in a Prometheus-like text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.trace.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	chartStats := s.charts.Cache().Stats()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP http_server_errors_total Responses with a 5xx status\n")
	fmt.Fprintf(w, "# TYPE http_server_errors_total counter\n")
	fmt.Fprintf(w, "http_server_errors_total %d\n\n", traceMetrics.ServerErrors)

	fmt.Fprintf(w, "# HELP ledger_version Number of successful ledger mutations\n")
	fmt.Fprintf(w, "# TYPE ledger_version counter\n")
	fmt.Fprintf(w, "ledger_version %d\n\n", s.tracker.Version())

	fmt.Fprintf(w, "# HELP chart_cache_hits_total Chart render cache hits\n")
	fmt.Fprintf(w, "# TYPE chart_cache_hits_total counter\n")
	fmt.Fprintf(w, "chart_cache_hits_total %d\n\n", chartStats.Hits)

	fmt.Fprintf(w, "# HELP chart_cache_misses_total Chart render cache misses\n")
	fmt.Fprintf(w, "# TYPE chart_cache_misses_total counter\n")
	fmt.Fprintf(w, "chart_cache_misses_total %d\n\n", chartStats.Misses)

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by the rate limiter\n")
	fmt.Fprintf(w, "# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total %d\n\n", limitMetrics.Rejected)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", limitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.started).Seconds())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	snap, err := s.tracker.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load ledger", err, log.OpSnapshot)
		return
	}
	s.render(w, r, "index.html", newPageView(snap, s.currency))
}

// handleLedger renders the list, total and bar partial.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	snap, err := s.tracker.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load ledger", err, log.OpSnapshot)
		return
	}
	s.render(w, r, "ledger", newLedgerView(snap, s.currency))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}

	e, err := s.tracker.AddExpense(r.Context(), p.Draft())
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			msg := verr.Message()
			UnprocessableEntityError(msg).
				TriggerErrorNotification(msg).
				Write(w)
			return
		}
		s.serverError(w, r, "Failed to save expense", err, log.OpAdd)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).DebugContext(r.Context(), "Expense created via form",
		log.FieldExpenseID, e.ID,
		"json", p.IsJSON())
	s.writeLedger(w, r, NewHTMXResponse().TriggerFormReset())
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	if !p.Has("id") && r.URL.Query().Has("id") {
		p = queryParser(r)
	}

	id, err := p.ID()
	if err != nil {
		BadRequestError("Invalid expense id").Write(w)
		return
	}

	if _, err := s.tracker.DeleteExpense(r.Context(), id); err != nil {
		s.serverError(w, r, "Failed to delete expense", err, log.OpDelete)
		return
	}
	s.writeLedger(w, r, NewHTMXResponse())
}

// handleDraft stores in-progress form inputs so a reload shows them again.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p, resp := ParseBodyOrFail(r)
	if resp != nil {
		resp.Write(w)
		return
	}
	s.tracker.SetDraft(p.Draft())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	snap, err := s.tracker.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load ledger", err, log.OpSnapshot)
		return
	}

	png, err := s.charts.Distribution(snap.Version, snap.Segments)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentChart).ErrorContext(r.Context(), "Chart render failed",
			log.NewFields().WithOperation(log.OpRender).WithError(err).ToSlice()...)
		http.Error(w, "chart unavailable", http.StatusInternalServerError)
		return
	}
	if png == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", `"`+strconv.FormatUint(snap.Version, 10)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	snap, err := s.tracker.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load ledger", err, log.OpSnapshot)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, snap.Expenses, snap.Summary, s.currency); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentExport).ErrorContext(r.Context(), "Workbook export failed",
			log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeLedger answers a successful mutation with the refreshed ledger
// partial and the triggers the page listens for.
func (s *Server) writeLedger(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder) {
	snap, err := s.tracker.Snapshot(r.Context())
	if err != nil {
		s.serverError(w, r, "Failed to load ledger", err, log.OpSnapshot)
		return
	}
	var buf bytes.Buffer
	if s.templates != nil {
		if err := s.templates.ExecuteTemplate(&buf, "ledger", newLedgerView(snap, s.currency)); err != nil {
			s.serverError(w, r, "Template execution failed", err, log.OpRender)
			return
		}
	}
	b.TriggerLedgerChanged(snap.Version).
		BodyHTML(buf.String()).
		Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.serverError(w, r, "Template execution failed", err, log.OpRender)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(r.Context()).WithComponent(log.ComponentHTTP)).
		LogError(r.Context(), msg, err, op, log.NewFields().WithErrorType(log.ErrorTypeInternal))
	InternalServerError(msg).Write(w)
}

// queryParser lets DELETE requests carry the id in the query string.
func queryParser(r *http.Request) *RequestBodyParser {
	return &RequestBodyParser{formData: r.URL.Query(), parsed: true}
}
