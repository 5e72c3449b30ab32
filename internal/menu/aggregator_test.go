package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sjsage522/makkaratutka/pkg/errors"
)

func km(v float64) *float64 { return &v }

func TestWeekAggregatorLifecycle(t *testing.T) {
	agg := NewWeekAggregator(DefaultWeekDays)

	days := [][]SausageResult{
		{{Restaurant: "Maanantai A", DistanceKm: km(7)}},
		{{Restaurant: "Tiistai B"}, {Restaurant: "Tiistai C", DistanceKm: km(1.5)}},
		{},
		{{Restaurant: "Torstai D", DistanceKm: km(3)}},
		{{Restaurant: "Perjantai E"}},
	}

	for i, day := range days {
		assert.False(t, agg.IsComplete(), "day %d", i)
		require.NoError(t, agg.AddDayResults(day))
	}
	assert.True(t, agg.IsComplete())
	assert.Equal(t, 5, agg.DaysProcessed())

	results, err := agg.Finalize()
	require.NoError(t, err)

	var names []string
	for _, r := range results {
		names = append(names, r.Restaurant)
	}
	assert.Equal(t, []string{"Tiistai C", "Torstai D", "Maanantai A", "Tiistai B", "Perjantai E"}, names)

	_, err = agg.Finalize()
	assert.True(t, apperrors.IsContract(err), "second finalize must fail")

	err = agg.AddDayResults(nil)
	assert.True(t, apperrors.IsContract(err), "adding after finalize must fail")
}

func TestWeekAggregatorRejectsExtraDays(t *testing.T) {
	agg := NewWeekAggregator(2)
	require.NoError(t, agg.AddDayResults(nil))
	require.NoError(t, agg.AddDayResults(nil))

	err := agg.AddDayResults([]SausageResult{{Restaurant: "Extra"}})
	assert.True(t, apperrors.IsContract(err))
	assert.Equal(t, 2, agg.DaysProcessed())
}

func TestWeekAggregatorStableTies(t *testing.T) {
	agg := NewWeekAggregator(2)
	require.NoError(t, agg.AddDayResults([]SausageResult{
		{Restaurant: "First", DistanceKm: km(2)},
		{Restaurant: "Second", DistanceKm: km(2)},
	}))
	require.NoError(t, agg.AddDayResults([]SausageResult{
		{Restaurant: "Third", DistanceKm: km(2)},
	}))

	results, err := agg.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "First", results[0].Restaurant)
	assert.Equal(t, "Second", results[1].Restaurant)
	assert.Equal(t, "Third", results[2].Restaurant)
}

func TestNewWeekAggregatorDefaultsDays(t *testing.T) {
	agg := NewWeekAggregator(0)
	for range DefaultWeekDays {
		require.NoError(t, agg.AddDayResults(nil))
	}
	assert.True(t, agg.IsComplete())
}
