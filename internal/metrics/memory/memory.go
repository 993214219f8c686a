// Package memory records metrics in memory for tests.
package memory

import (
	"sync"
	"time"

	"fintrack/internal/metrics"
)

type Collector struct {
	mu sync.Mutex

	Recomputes   map[string]int
	Suggestions  map[string]int
	Coalesced    int
	CacheHits    int
	CacheMisses  int
	CircuitState map[string]metrics.CircuitState
	Exports      int
	ExportErrors int
}

var _ metrics.Collector = (*Collector)(nil)

func New() *Collector {
	return &Collector{
		Recomputes:   make(map[string]int),
		Suggestions:  make(map[string]int),
		CircuitState: make(map[string]metrics.CircuitState),
	}
}

func (c *Collector) RecordRecompute(outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Recomputes[outcome]++
}

func (c *Collector) RecordSuggestion(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Suggestions[t]++
}

func (c *Collector) RecordCoalesced() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Coalesced++
}

func (c *Collector) RecordReportCache(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.CacheHits++
	} else {
		c.CacheMisses++
	}
}

func (c *Collector) RecordCircuitState(name string, state metrics.CircuitState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CircuitState[name] = state
}

func (c *Collector) RecordExport(success bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Exports++
	if !success {
		c.ExportErrors++
	}
}

// Recompute returns the count recorded for outcome.
func (c *Collector) Recompute(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Recomputes[outcome]
}

// CoalescedCount returns the number of coalesced notifications.
func (c *Collector) CoalescedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Coalesced
}

// Circuit returns the last state recorded for name.
func (c *Collector) Circuit(name string) metrics.CircuitState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CircuitState[name]
}
