package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
)

// goalRequest is the writable part of a goal. IsActive defaults to true.
type goalRequest struct {
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	TargetAmount  core.Money    `json:"targetAmount"`
	CurrentAmount core.Money    `json:"currentAmount"`
	TargetDate    time.Time     `json:"targetDate"`
	Category      string        `json:"category"`
	Priority      core.Priority `json:"priority"`
	IsActive      *bool         `json:"isActive"`
}

func (g goalRequest) goal() core.Goal {
	active := true
	if g.IsActive != nil {
		active = *g.IsActive
	}
	return core.Goal{
		Title:         g.Title,
		Description:   g.Description,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		TargetDate:    g.TargetDate,
		Category:      g.Category,
		Priority:      g.Priority,
		IsActive:      active,
	}
}

type progressRequest struct {
	Amount core.Money `json:"amount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.ListGoals(r.Context(), ownerID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.GetGoal(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	g, err := s.deps.Goals.AddGoal(r.Context(), ownerID(r), req.goal())
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/goals/"+g.ID)
	writeJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	g := req.goal()
	g.ID = chi.URLParam(r, "id")
	updated, err := s.deps.Goals.UpdateGoal(r.Context(), ownerID(r), g)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Goals.DeleteGoal(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Goals.GoalProgress(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAddGoalProgress adds a signed amount to the goal. The stored amount
// is clamped to [0, target].
func (s *Server) handleAddGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	g, err := s.deps.Goals.UpdateGoalProgress(r.Context(), ownerID(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}
