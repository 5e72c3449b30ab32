package menu

import (
	"fmt"

	apperrors "sjsage522/makkaratutka/pkg/errors"
)

// DefaultWeekDays is the number of day filters a week search walks through
const DefaultWeekDays = 5

// WeekAggregator collects per-day results of a week search. It starts out
// collecting and becomes final after Finalize. It is not safe for concurrent
// use; days must be added one at a time.
type WeekAggregator struct {
	accumulated       []SausageResult
	daysProcessed     int
	totalDaysExpected int
	finalized         bool
}

// NewWeekAggregator creates an aggregator expecting totalDays day results
func NewWeekAggregator(totalDays int) *WeekAggregator {
	if totalDays <= 0 {
		totalDays = DefaultWeekDays
	}
	return &WeekAggregator{totalDaysExpected: totalDays}
}

// AddDayResults appends the results of one day
func (w *WeekAggregator) AddDayResults(results []SausageResult) error {
	if w.finalized {
		return apperrors.NewContract("aggregator", "day results added after finalize")
	}
	if w.daysProcessed >= w.totalDaysExpected {
		return apperrors.NewContract("aggregator",
			fmt.Sprintf("more than %d days added", w.totalDaysExpected))
	}
	w.accumulated = append(w.accumulated, results...)
	w.daysProcessed++
	return nil
}

// IsComplete reports whether every expected day has been added
func (w *WeekAggregator) IsComplete() bool {
	return w.daysProcessed >= w.totalDaysExpected
}

// DaysProcessed returns the number of days added so far
func (w *WeekAggregator) DaysProcessed() int {
	return w.daysProcessed
}

// Finalize returns all collected results sorted by distance and closes the
// aggregator. It may only be called once.
func (w *WeekAggregator) Finalize() ([]SausageResult, error) {
	if w.finalized {
		return nil, apperrors.NewContract("aggregator", "finalize called twice")
	}
	w.finalized = true

	sorted := make([]SausageResult, len(w.accumulated))
	copy(sorted, w.accumulated)
	SortByDistance(sorted)
	return sorted, nil
}
