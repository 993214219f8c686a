package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/metrics"
	memmetrics "fintrack/internal/metrics/memory"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

// gatedStore blocks ListTransactions until release is closed.
type gatedStore struct {
	*memory.Store
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Store:   memory.New(),
		entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedStore) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	g.calls.Add(1)
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.Store.ListTransactions(ctx, ownerID)
}

type failingStore struct {
	*memory.Store
}

func (failingStore) ListGoals(context.Context, string) ([]core.Goal, error) {
	return nil, errors.New("connection reset")
}

func newAnalysis(s store.Store, mc *memmetrics.Collector) *AnalysisService {
	a := NewAnalysisService(s, cache.NewLRUCache[*Report](16, time.Minute), mc)
	a.now = fixedNow
	a.newID = sequentialIDs("sg")
	return a
}

func seedExpense(t *testing.T, s store.Store, owner, id string, cents int64, category string) {
	t.Helper()
	tx := core.Transaction{ID: id, Amount: core.Cents(cents), Category: category, OccurredAt: testNow, Kind: core.KindExpense}
	if err := s.CreateTransaction(context.Background(), owner, tx); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func TestAnalysisService_ReportCachesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	mc := memmetrics.New()
	a := newAnalysis(s, mc)
	seedExpense(t, s, "alice", "t1", 4590, "Alimentação")

	first, err := a.Report(ctx, "alice")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if first.Summary.TotalExpenses != core.Cents(4590) {
		t.Fatalf("TotalExpenses = %v, want 45.90", first.Summary.TotalExpenses)
	}

	second, _ := a.Report(ctx, "alice")
	if second != first {
		t.Errorf("expected cached report to be served")
	}
	if mc.CacheHits != 1 || mc.CacheMisses != 1 {
		t.Errorf("cache hits/misses = %d/%d, want 1/1", mc.CacheHits, mc.CacheMisses)
	}

	seedExpense(t, s, "alice", "t2", 1000, "Transporte")
	a.Invalidate("alice")

	third, err := a.Report(ctx, "alice")
	if err != nil {
		t.Fatalf("Report() after invalidate error = %v", err)
	}
	if third.Summary.TotalExpenses != core.Cents(5590) {
		t.Errorf("TotalExpenses after write = %v, want 55.90", third.Summary.TotalExpenses)
	}
	if third.Generation <= first.Generation {
		t.Errorf("generation did not advance: %d -> %d", first.Generation, third.Generation)
	}
	if got := mc.Recompute(metrics.OutcomeOK); got != 2 {
		t.Errorf("ok recomputes = %d, want 2", got)
	}
}

func TestAnalysisService_MissingOwnerGetsEmptyReport(t *testing.T) {
	a := newAnalysis(memory.New(), memmetrics.New())

	r, err := a.Report(context.Background(), "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !r.Summary.Balance.IsZero() || len(r.Goals) != 0 || len(r.Budgets) != 0 {
		t.Errorf("expected empty report, got %+v", r)
	}
}

func TestAnalysisService_StoreFailureYieldsEmptyReport(t *testing.T) {
	mem := memory.New()
	seedExpense(t, mem, "alice", "t1", 4590, "Alimentação")
	mc := memmetrics.New()
	a := newAnalysis(failingStore{mem}, mc)

	r, err := a.Report(context.Background(), "alice")
	if err == nil {
		t.Fatal("expected an error from the failing store")
	}
	if r == nil || !r.Summary.TotalExpenses.IsZero() {
		t.Errorf("expected empty report alongside the error, got %+v", r)
	}
	if got := mc.Recompute(metrics.OutcomeError); got != 1 {
		t.Errorf("error recomputes = %d, want 1", got)
	}
	if _, ok := a.reports.Get("alice"); ok {
		t.Errorf("failed fetch must not publish a report")
	}
}

func TestAnalysisService_SlowRecomputeCannotOverwriteNewer(t *testing.T) {
	s := newGatedStore()
	mc := memmetrics.New()
	a := newAnalysis(s, mc)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = a.Recompute(context.Background(), "alice")
	}()

	<-s.entered
	a.Invalidate("alice")
	close(s.release)
	<-done

	if got := mc.Recompute(metrics.OutcomeSuperseded); got != 1 {
		t.Errorf("superseded recomputes = %d, want 1", got)
	}
	cur, ok := a.reports.Get("alice")
	if !ok || !cur.stale {
		t.Fatalf("expected the invalidation marker to survive, got %+v", cur)
	}
}

func TestAnalysisService_ConcurrentMissesShareOneFetch(t *testing.T) {
	s := newGatedStore()
	mc := memmetrics.New()
	a := newAnalysis(s, mc)

	const callers = 5
	var wg sync.WaitGroup
	reports := make([]*Report, callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := a.Report(context.Background(), "alice")
			if err != nil {
				t.Errorf("Report() error = %v", err)
			}
			reports[i] = r
		}(i)
	}

	<-s.entered
	time.Sleep(20 * time.Millisecond)
	close(s.release)
	wg.Wait()

	if got := s.calls.Load(); got != 1 {
		t.Errorf("store fetched %d times, want 1", got)
	}
	for i, r := range reports {
		if r != reports[0] {
			t.Errorf("caller %d got a different report", i)
		}
	}
}

func TestAnalysisService_ReportHonoursCallerCancellation(t *testing.T) {
	s := newGatedStore()
	a := newAnalysis(s, memmetrics.New())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := a.Report(ctx, "alice")
		errCh <- err
	}()

	<-s.entered
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The shared fetch is detached from the caller and still publishes.
	close(s.release)
	deadline := time.Now().Add(time.Second)
	for {
		if r, ok := a.reports.Get("alice"); ok && !r.stale {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("detached recompute never published")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCompute_IsDeterministic(t *testing.T) {
	snap := Snapshot{
		Transactions: []core.Transaction{
			{ID: "t1", Amount: core.Cents(60000), Category: "Moradia", OccurredAt: testNow, Kind: core.KindExpense},
			{ID: "t2", Amount: core.Cents(500000), Category: "Salário", OccurredAt: testNow, Kind: core.KindIncome},
		},
		Limits: []core.BudgetLimit{{ID: "l1", CategoryName: "Moradia", MonthlyLimit: core.Cents(50000)}},
	}

	a := Compute("alice", snap, testNow, sequentialIDs("sg"))
	b := Compute("alice", snap, testNow, sequentialIDs("sg"))

	if a.Summary.Balance != core.Cents(440000) {
		t.Errorf("Balance = %v, want 4400.00", a.Summary.Balance)
	}
	if len(a.Suggestions) != len(b.Suggestions) {
		t.Fatalf("suggestion counts differ: %d vs %d", len(a.Suggestions), len(b.Suggestions))
	}
	for i := range a.Suggestions {
		if a.Suggestions[i] != b.Suggestions[i] {
			t.Errorf("suggestion %d differs: %+v vs %+v", i, a.Suggestions[i], b.Suggestions[i])
		}
	}
}
