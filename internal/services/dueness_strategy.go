// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction dueness
// checking. Each period (weekly, monthly, yearly) has its own strategy that
// encapsulates the logic for deciding whether a new occurrence is due.

package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker is the strategy interface for checking if a recurring
// transaction is due.
type DuenessChecker interface {
	// IsDue reports whether a new occurrence should be created, given the
	// latest occurrence, the current time and the template's original date.
	IsDue(lastOccurrence, now, anchor time.Time) bool
}

// WeeklyChecker implements DuenessChecker for weekly transactions.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since the last occurrence.
func (WeeklyChecker) IsDue(lastOccurrence, now, _ time.Time) bool {
	if lastOccurrence.IsZero() {
		return true
	}
	daysSince := now.Sub(lastOccurrence).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker implements DuenessChecker for monthly transactions.
type MonthlyChecker struct{}

// IsDue returns true if we're in a new month and have reached the anchor day.
func (MonthlyChecker) IsDue(lastOccurrence, now, anchor time.Time) bool {
	if lastOccurrence.IsZero() {
		return true
	}

	// Already created this month?
	if lastOccurrence.Year() == now.Year() && lastOccurrence.Month() == now.Month() {
		return false
	}

	return now.Day() >= dayInMonth(anchor.Day(), now)
}

// YearlyChecker implements DuenessChecker for yearly transactions.
type YearlyChecker struct{}

// IsDue returns true if we're in a new year and have reached the anchor month and day.
func (YearlyChecker) IsDue(lastOccurrence, now, anchor time.Time) bool {
	if lastOccurrence.IsZero() {
		return true
	}

	// Already created this year?
	if lastOccurrence.Year() == now.Year() {
		return false
	}

	if now.Month() < anchor.Month() {
		return false
	}
	if now.Month() == anchor.Month() {
		return now.Day() >= dayInMonth(anchor.Day(), now)
	}

	// We're past the anchor month
	return true
}

// dayInMonth clamps day to the length of now's month (e.g. 31 -> 29 in Feb 2024).
func dayInMonth(day int, now time.Time) int {
	last := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}

// duenessStrategies maps recurring periods to their corresponding checkers.
var duenessStrategies = map[core.RecurringPeriod]DuenessChecker{
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the appropriate dueness checker for a period.
// Returns an error if the period is not supported.
func GetDuenessChecker(period core.RecurringPeriod) (DuenessChecker, error) {
	checker, ok := duenessStrategies[period]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidPeriod, period)
	}
	return checker, nil
}
