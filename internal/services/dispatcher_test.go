package services

import (
	"context"
	"sync"
	"testing"
	"time"

	memmetrics "fintrack/internal/metrics/memory"
)

type fakeRecomputer struct {
	mu          sync.Mutex
	calls       int
	invalidated int
	cancelled   int

	// block, when set, makes the first recompute wait for cancellation.
	block   bool
	started chan struct{}
}

func newFakeRecomputer() *fakeRecomputer {
	return &fakeRecomputer{started: make(chan struct{}, 16)}
}

func (f *fakeRecomputer) Recompute(ctx context.Context, ownerID string) (*Report, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	f.started <- struct{}{}

	if f.block && n == 1 {
		<-ctx.Done()
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		return nil, ctx.Err()
	}
	return &Report{OwnerID: ownerID, Generation: uint64(n)}, nil
}

func (f *fakeRecomputer) Invalidate(string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func (f *fakeRecomputer) snapshot() (calls, invalidated, cancelled int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.invalidated, f.cancelled
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func startDispatcher(t *testing.T, r Recomputer, cfg DispatcherConfig) (*Dispatcher, *memmetrics.Collector) {
	t.Helper()
	mc := memmetrics.New()
	d := NewDispatcher(r, mc, cfg)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = d.Stop(ctx)
	})
	return d, mc
}

func TestDispatcher_DebounceCoalescesBurst(t *testing.T) {
	r := newFakeRecomputer()
	var (
		mu      sync.Mutex
		reports []*Report
	)
	d, mc := startDispatcher(t, r, DispatcherConfig{
		Debounce: 100 * time.Millisecond,
		OnReport: func(_ context.Context, rep *Report) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, rep)
		},
	})

	for range 5 {
		d.Notify("alice")
	}

	waitFor(t, "one report", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) == 1
	})
	time.Sleep(150 * time.Millisecond)

	calls, invalidated, _ := r.snapshot()
	if calls != 1 {
		t.Errorf("recomputes = %d, want 1", calls)
	}
	if invalidated != 5 {
		t.Errorf("invalidations = %d, want 5", invalidated)
	}
	if got := mc.CoalescedCount(); got != 4 {
		t.Errorf("coalesced = %d, want 4", got)
	}
	if reports[0].OwnerID != "alice" {
		t.Errorf("report owner = %q", reports[0].OwnerID)
	}
}

func TestDispatcher_OwnersAreIndependent(t *testing.T) {
	r := newFakeRecomputer()
	d, _ := startDispatcher(t, r, DispatcherConfig{Debounce: 20 * time.Millisecond})

	d.Notify("alice")
	d.Notify("bob")
	d.Notify("")

	waitFor(t, "two recomputes", func() bool {
		calls, _, _ := r.snapshot()
		return calls == 2
	})
	if _, invalidated, _ := r.snapshot(); invalidated != 2 {
		t.Errorf("invalidations = %d, want 2 (empty owner ignored)", invalidated)
	}
}

func TestDispatcher_NewerRecomputeSupersedesInFlight(t *testing.T) {
	r := newFakeRecomputer()
	r.block = true

	var (
		mu      sync.Mutex
		reports []*Report
	)
	d, _ := startDispatcher(t, r, DispatcherConfig{
		OnReport: func(_ context.Context, rep *Report) {
			mu.Lock()
			defer mu.Unlock()
			reports = append(reports, rep)
		},
	})

	d.Notify("alice")
	<-r.started
	d.Notify("alice")
	<-r.started

	waitFor(t, "superseding report", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reports) == 1
	})
	waitFor(t, "first fetch cancellation", func() bool {
		_, _, cancelled := r.snapshot()
		return cancelled == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if reports[0].Generation != 2 {
		t.Errorf("delivered report is from call %d, want 2", reports[0].Generation)
	}
}

func TestDispatcher_NotifyWhileStoppedOnlyInvalidates(t *testing.T) {
	r := newFakeRecomputer()
	d := NewDispatcher(r, nil, DispatcherConfig{})

	if d.IsRunning() {
		t.Fatal("dispatcher should not run before Start")
	}
	d.Notify("alice")

	calls, invalidated, _ := r.snapshot()
	if calls != 0 || invalidated != 1 {
		t.Errorf("calls=%d invalidated=%d, want 0/1", calls, invalidated)
	}
}

func TestDispatcher_Lifecycle(t *testing.T) {
	d := NewDispatcher(newFakeRecomputer(), nil, DefaultDispatcherConfig())
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if !d.IsRunning() {
		t.Error("expected running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := d.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if d.IsRunning() {
		t.Error("expected stopped")
	}
	if err := d.Stop(stopCtx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
