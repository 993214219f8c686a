package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
)

type budgetRequest struct {
	MonthlyLimit core.Money `json:"monthlyLimit"`
}

// categoryParam returns the decoded {category} path segment. Category names
// may carry spaces, accents or slashes, so clients percent-encode them.
// chi matches on RawPath only when the path has escapes that Path cannot
// represent; otherwise the segment is already decoded.
func categoryParam(r *http.Request) (string, error) {
	category := chi.URLParam(r, "category")
	if r.URL.RawPath == "" {
		return category, nil
	}
	return url.PathUnescape(category)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analytics.Categories())
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	limits, err := s.deps.Budgets.ListBudgetLimits(r.Context(), ownerID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limits)
}

func (s *Server) handlePutBudget(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category in path")
		return
	}
	var req budgetRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	l, err := s.deps.Budgets.SetBudgetLimit(r.Context(), ownerID(r), category, req.MonthlyLimit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	category, err := categoryParam(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid category in path")
		return
	}
	if err := s.deps.Budgets.DeleteBudgetLimit(r.Context(), ownerID(r), category); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
