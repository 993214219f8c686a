package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.deps.Ready != nil {
		if err := s.deps.Ready.Ping(ctx); err != nil {
			checks["store"] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "in_memory"
	}

	if s.rateLimiter != nil {
		m := s.rateLimiter.GetMetrics()
		checks["rate_limiter"] = map[string]any{
			"active_clients": m.ClientCount,
			"total_hits":     m.TotalHits,
		}
	}

	sec := s.securityDetector.GetMetrics()
	tr := s.traceMiddleware.GetMetrics()
	checks["requests"] = map[string]any{
		"total":         tr.TotalRequests,
		"server_errors": tr.ServerErrors,
		"suspicious":    sec.SuspiciousRequests,
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
