package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/store"
)

// Report is everything derived for one owner from a single snapshot.
type Report struct {
	OwnerID     string                `json:"ownerId"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Generation  uint64                `json:"generation"`
	Summary     core.ExpenseSummary   `json:"summary"`
	Budgets     []core.CategoryBudget `json:"budgets"`
	Goals       []core.GoalProgress   `json:"goals"`
	Suggestions []core.Suggestion     `json:"suggestions"`
	Analysis    analytics.Analysis    `json:"analysis"`

	// stale marks an invalidated cache slot; it is never served.
	stale bool
}

// Snapshot is the owner's records at one point in time.
type Snapshot struct {
	Transactions []core.Transaction
	Goals        []core.Goal
	Limits       []core.BudgetLimit
}

// Compute derives a report from a snapshot. It does no I/O.
func Compute(ownerID string, snap Snapshot, now time.Time, newID func() string) *Report {
	summary := analytics.Summarize(snap.Transactions, now)

	goals := make([]core.GoalProgress, 0, len(snap.Goals))
	for _, g := range snap.Goals {
		goals = append(goals, analytics.Progress(g, now))
	}

	suggestions := analytics.Suggest(analytics.SuggestionInput{
		Transactions: snap.Transactions,
		Goals:        snap.Goals,
		Summary:      summary,
		Limits:       snap.Limits,
		Now:          now,
		NewID:        newID,
	})

	return &Report{
		OwnerID:     ownerID,
		GeneratedAt: now,
		Summary:     summary,
		Budgets:     analytics.EvaluateBudgets(snap.Limits, summary),
		Goals:       goals,
		Suggestions: suggestions,
		Analysis:    analytics.Analyze(snap.Transactions, suggestions, now),
	}
}

// EmptyReport is what a missing owner or a failed fetch yields.
func EmptyReport(ownerID string, now time.Time) *Report {
	return Compute(ownerID, Snapshot{}, now, analytics.NewSuggestionID)
}

// AnalysisService fetches snapshots and publishes derived reports to a
// per-owner cache. Concurrent misses for the same owner share one fetch.
type AnalysisService struct {
	store   store.Store
	reports cache.Cache[*Report]
	metrics metrics.Collector
	now     func() time.Time
	newID   func() string

	group      singleflight.Group
	generation atomic.Uint64
}

func NewAnalysisService(s store.Store, reports cache.Cache[*Report], mc metrics.Collector) *AnalysisService {
	if mc == nil {
		mc = metrics.NoOpCollector{}
	}
	return &AnalysisService{
		store:   s,
		reports: reports,
		metrics: mc,
		now:     time.Now,
		newID:   analytics.NewSuggestionID,
	}
}

// Snapshot loads the owner's three collections concurrently.
func (s *AnalysisService) Snapshot(ctx context.Context, ownerID string) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.store.ListTransactions(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		goals, err := s.store.ListGoals(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("goals: %w", err)
		}
		snap.Goals = goals
		return nil
	})
	g.Go(func() error {
		limits, err := s.store.ListBudgetLimits(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("budget limits: %w", err)
		}
		snap.Limits = limits
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Report returns the owner's current report, computing it on a cache miss.
// A missing owner gets an empty report. When the store fails the caller
// receives an empty report together with the error.
func (s *AnalysisService) Report(ctx context.Context, ownerID string) (*Report, error) {
	if ownerID == "" {
		return EmptyReport("", s.now()), nil
	}

	cur, ok := s.reports.Get(ownerID)
	if ok && !cur.stale {
		s.metrics.RecordReportCache(true)
		return cur, nil
	}
	s.metrics.RecordReportCache(false)

	// Callers arriving after an invalidation must not join a fetch that
	// started before it, so the key carries the invalidation generation.
	key := ownerID
	if ok {
		key = fmt.Sprintf("%s@%d", ownerID, cur.Generation)
	}
	ch := s.group.DoChan(key, func() (any, error) {
		return s.Recompute(context.WithoutCancel(ctx), ownerID)
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.RecordCoalesced()
		}
		r, _ := res.Val.(*Report)
		if r == nil {
			r = EmptyReport(ownerID, s.now())
		}
		return r, res.Err
	case <-ctx.Done():
		return EmptyReport(ownerID, s.now()), ctx.Err()
	}
}

// Recompute fetches a fresh snapshot, derives the report and publishes it.
// Reports are published only if no newer generation is already cached, so
// a slow fetch can never overwrite a fresher result.
func (s *AnalysisService) Recompute(ctx context.Context, ownerID string) (*Report, error) {
	gen := s.generation.Add(1)
	start := time.Now()

	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, context.Canceled) {
			outcome = metrics.OutcomeSuperseded
		}
		s.metrics.RecordRecompute(outcome, time.Since(start))
		if outcome == metrics.OutcomeError {
			slog.ErrorContext(ctx, "Failed to fetch snapshot",
				log.FieldComponent, log.ComponentAnalytics,
				log.FieldOwnerID, ownerID,
				log.FieldGeneration, gen,
				log.FieldError, err)
		}
		return EmptyReport(ownerID, s.now()), fmt.Errorf("fetch snapshot: %w", err)
	}

	r := Compute(ownerID, snap, s.now(), s.newID)
	r.Generation = gen
	if !s.publish(r) {
		s.metrics.RecordRecompute(metrics.OutcomeSuperseded, time.Since(start))
		return r, nil
	}

	s.metrics.RecordRecompute(metrics.OutcomeOK, time.Since(start))
	for _, sg := range r.Suggestions {
		s.metrics.RecordSuggestion(string(sg.Type))
	}
	slog.DebugContext(ctx, "Report recomputed",
		log.FieldComponent, log.ComponentAnalytics,
		log.FieldOwnerID, ownerID,
		log.FieldGeneration, gen,
		log.FieldSuggestions, len(r.Suggestions),
		log.FieldDuration, time.Since(start).Milliseconds())
	return r, nil
}

// Invalidate marks the owner's cached report stale. Any recompute that
// started before this call can no longer publish.
func (s *AnalysisService) Invalidate(ownerID string) {
	if ownerID == "" {
		return
	}
	marker := &Report{OwnerID: ownerID, Generation: s.generation.Add(1), stale: true}
	s.publish(marker)
}

func (s *AnalysisService) publish(r *Report) bool {
	return s.reports.SetIf(r.OwnerID, r, func(cur *Report, exists bool) bool {
		return !exists || cur.Generation < r.Generation
	})
}
