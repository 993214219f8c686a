package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
)

// Recomputer is the part of AnalysisService the dispatcher drives.
type Recomputer interface {
	Recompute(ctx context.Context, ownerID string) (*Report, error)
	Invalidate(ownerID string)
}

// DispatcherConfig holds configuration for the recompute dispatcher
type DispatcherConfig struct {
	// Debounce is how long a burst of changes for one owner is collected
	// before a single recompute runs (default: 250ms). Zero recomputes at once.
	Debounce time.Duration

	// QueueSize bounds pending notifications (default: 1024).
	QueueSize int

	// OnReport, when set, receives each report whose recompute was not
	// cancelled by a newer one.
	OnReport func(ctx context.Context, r *Report)
}

// DefaultDispatcherConfig returns sensible defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Debounce:  250 * time.Millisecond,
		QueueSize: 1024,
	}
}

type recomputeResult struct {
	ownerID    string
	generation uint64
}

// ownerState and sequence are touched only by the dispatcher loop.
type ownerState struct {
	timer      *time.Timer
	cancel     context.CancelFunc
	generation uint64
}

// Dispatcher turns change notifications into per-owner recomputes.
//
// Notifications for an owner arriving within the debounce window coalesce
// into one recompute. A recompute triggered while another for the same owner
// is still fetching cancels the older fetch, whose result is then dropped.
type Dispatcher struct {
	recomputer Recomputer
	metrics    metrics.Collector
	config     DispatcherConfig

	notifications chan string
	fire          chan string
	finished      chan recomputeResult
	owners        map[string]*ownerState
	sequence      uint64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

func NewDispatcher(r Recomputer, mc metrics.Collector, config DispatcherConfig) *Dispatcher {
	if mc == nil {
		mc = metrics.NoOpCollector{}
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	if config.Debounce < 0 {
		config.Debounce = 0
	}
	return &Dispatcher{
		recomputer:    r,
		metrics:       mc,
		config:        config,
		notifications: make(chan string, config.QueueSize),
		fire:          make(chan string),
		finished:      make(chan recomputeResult),
		owners:        make(map[string]*ownerState),
	}
}

// Start begins the dispatch loop. Returns an error if already running.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return fmt.Errorf("dispatcher is already running")
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})

	go d.runLoop(ctx, d.stopCh, d.doneCh)

	slog.InfoContext(ctx, "Recompute dispatcher started",
		log.FieldComponent, log.ComponentDispatcher,
		"debounce", d.config.Debounce)
	return nil
}

// Stop cancels in-flight fetches and waits for the loop to exit.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
	case <-ctx.Done():
		slog.WarnContext(ctx, "Recompute dispatcher stop timed out", log.FieldComponent, log.ComponentDispatcher)
		return ctx.Err()
	}

	waited := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		slog.InfoContext(ctx, "Recompute dispatcher stopped gracefully", log.FieldComponent, log.ComponentDispatcher)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns whether the dispatcher loop is active
func (d *Dispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Notify records that ownerID's data changed. It never blocks: the cached
// report is invalidated at once so readers recompute on demand, and the
// background recompute is queued if there is room.
func (d *Dispatcher) Notify(ownerID string) {
	if ownerID == "" {
		return
	}
	d.recomputer.Invalidate(ownerID)

	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return
	}

	select {
	case d.notifications <- ownerID:
	default:
		slog.Warn("Recompute queue full, dropping notification",
			log.FieldComponent, log.ComponentDispatcher,
			log.FieldOwnerID, ownerID)
	}
}

// NotifyChange implements store.ChangeNotifier.
func (d *Dispatcher) NotifyChange(_ context.Context, ownerID string, _ core.Collection) error {
	d.Notify(ownerID)
	return nil
}

func (d *Dispatcher) runLoop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	defer d.cancelAll()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case ownerID := <-d.notifications:
			d.schedule(ctx, ownerID, doneCh)
		case ownerID := <-d.fire:
			d.state(ownerID).timer = nil
			d.start(ctx, ownerID, doneCh)
		case res := <-d.finished:
			d.complete(res)
		}
	}
}

func (d *Dispatcher) state(ownerID string) *ownerState {
	st, ok := d.owners[ownerID]
	if !ok {
		st = &ownerState{}
		d.owners[ownerID] = st
	}
	return st
}

// schedule opens a debounce window for the owner, or joins the open one.
func (d *Dispatcher) schedule(ctx context.Context, ownerID string, doneCh chan struct{}) {
	st := d.state(ownerID)
	if st.timer != nil {
		d.metrics.RecordCoalesced()
		return
	}
	if d.config.Debounce == 0 {
		d.start(ctx, ownerID, doneCh)
		return
	}
	st.timer = time.AfterFunc(d.config.Debounce, func() {
		select {
		case d.fire <- ownerID:
		case <-doneCh:
		}
	})
}

// start launches a recompute, superseding any fetch still in flight.
func (d *Dispatcher) start(ctx context.Context, ownerID string, doneCh chan struct{}) {
	st := d.state(ownerID)
	if st.cancel != nil {
		st.cancel()
		slog.DebugContext(ctx, "Superseding in-flight recompute",
			log.FieldComponent, log.ComponentDispatcher,
			log.FieldOwnerID, ownerID,
			log.FieldGeneration, st.generation)
	}
	d.sequence++
	st.generation = d.sequence
	gen := st.generation
	rctx, cancel := context.WithCancel(ctx)
	st.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		r, err := d.recomputer.Recompute(rctx, ownerID)
		switch {
		case rctx.Err() != nil:
		case err != nil:
			slog.WarnContext(rctx, "Recompute failed",
				log.FieldComponent, log.ComponentDispatcher,
				log.FieldOwnerID, ownerID,
				log.FieldError, err)
		case d.config.OnReport != nil && r != nil:
			d.config.OnReport(rctx, r)
		}
		select {
		case d.finished <- recomputeResult{ownerID: ownerID, generation: gen}:
		case <-doneCh:
		}
	}()
}

func (d *Dispatcher) complete(res recomputeResult) {
	st, ok := d.owners[res.ownerID]
	if !ok || st.generation != res.generation {
		return
	}
	st.cancel = nil
	if st.timer == nil {
		delete(d.owners, res.ownerID)
	}
}

func (d *Dispatcher) cancelAll() {
	for id, st := range d.owners {
		if st.timer != nil {
			st.timer.Stop()
		}
		if st.cancel != nil {
			st.cancel()
		}
		delete(d.owners, id)
	}
}
