package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"clubstats/internal/controller"
	"clubstats/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded, the controller is
// running and the data backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)
	fail := func(name, reason string) {
		checks[name] = "failed: " + reason
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", "templates not loaded")
	} else {
		checks["templates"] = "ok"
	}

	if s.dash.Running() {
		checks["controller"] = "ok"
	} else {
		fail("controller", "not running")
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			fail("backend", err.Error())
		} else {
			checks["backend"] = "ok"
		}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	traceMetrics := s.tracer.GetMetrics()
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)

	view := s.dash.View()
	computing := 0
	if s.dash.Status() == controller.Computing {
		computing = 1
	}
	metric("dashboard_view_version", "gauge", "Selection version of the published view", view.Version)
	metric("dashboard_computing", "gauge", "1 while a recompute is in flight", computing)
	metric("dashboard_discarded_total", "counter", "Superseded computations dropped before publish", s.dash.Discarded())

	if s.cacheStats != nil {
		stats := s.cacheStats()
		metric("aggregate_cache_hits_total", "counter", "Aggregate cache hits", stats.Hits)
		metric("aggregate_cache_misses_total", "counter", "Aggregate cache misses", stats.Misses)
		metric("aggregate_cache_entries", "gauge", "Current aggregate cache entries", stats.Size)
	}

	rl := s.limiter.GetMetrics()
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rl.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", s.detector.GetMetrics().SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.started).Seconds()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError(r, "page not found").Write(w)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET, HEAD").Write(w)
		return
	}
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path,
			"error_type", log.ErrorTypeConfiguration)
		InternalServerError(r, "templates not loaded").Write(w)
		return
	}

	view := s.currentView(r.Context())
	data := indexData{
		Title:     pageTitle,
		Options:   clubOptions(s.dash.State().Universe(), view.Selection),
		Dashboard: newDashboardData(view),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", "index.html")
		InternalServerError(r, "render failed").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.String()).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
