// Package metrics defines what fintrack reports about its recompute pipeline.
package metrics

import "time"

// Recompute outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

// Collector receives pipeline measurements. Implementations must be safe
// for concurrent use.
type Collector interface {
	RecordRecompute(outcome string, duration time.Duration)
	RecordSuggestion(suggestionType string)
	RecordCoalesced()
	RecordReportCache(hit bool)
	RecordCircuitState(name string, state CircuitState)
	RecordExport(success bool, duration time.Duration)
}

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// NoOpCollector discards everything.
type NoOpCollector struct{}

func (NoOpCollector) RecordRecompute(string, time.Duration)   {}
func (NoOpCollector) RecordSuggestion(string)                 {}
func (NoOpCollector) RecordCoalesced()                        {}
func (NoOpCollector) RecordReportCache(bool)                  {}
func (NoOpCollector) RecordCircuitState(string, CircuitState) {}
func (NoOpCollector) RecordExport(bool, time.Duration)        {}
