package http

import (
	"net/http"
	"slices"
	"strconv"

	"fintrack/internal/analytics"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// report loads the owner's current report. When the analysis could not
// read the store it answers 503 and returns false.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (*services.Report, bool) {
	rep, err := s.deps.Analysis.Report(r.Context(), ownerID(r))
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Report unavailable",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, r, http.StatusServiceUnavailable, "report temporarily unavailable")
		return nil, false
	}
	return rep, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, rep.Summary)
	}
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, rep.Budgets)
	}
}

// handleSuggestions lists suggestions in rule order, or by priority and
// impact when ?sorted=true.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	out := rep.Suggestions
	if v := r.URL.Query().Get("sorted"); v != "" {
		sorted, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "sorted must be a boolean")
			return
		}
		if sorted {
			// Reports are shared through the cache; sort a copy.
			out = slices.Clone(out)
			analytics.SortSuggestions(out)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, rep.Analysis)
	}
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if rep, ok := s.report(w, r); ok {
		writeJSON(w, http.StatusOK, rep)
	}
}
