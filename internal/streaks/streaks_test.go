package streaks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculate(t *testing.T) {
	now := time.Date(2026, 3, 15, 18, 30, 0, 0, time.UTC)

	t.Run("no activity", func(t *testing.T) {
		s := Calculate(nil, now)
		assert.Equal(t, 0, s.Current)
		assert.Equal(t, 0, s.Longest)
	})

	t.Run("single session today", func(t *testing.T) {
		s := Calculate([]time.Time{day(2026, 3, 15)}, now)
		assert.Equal(t, 1, s.Current)
		assert.Equal(t, 1, s.Longest)
	})

	t.Run("streak anchored on yesterday stays alive", func(t *testing.T) {
		// No session yet today; the streak holds until midnight
		days := []time.Time{day(2026, 3, 14), day(2026, 3, 13), day(2026, 3, 12)}
		s := Calculate(days, now)
		assert.Equal(t, 3, s.Current)
		assert.Equal(t, 3, s.Longest)
	})

	t.Run("gap before yesterday breaks the current streak", func(t *testing.T) {
		days := []time.Time{day(2026, 3, 13), day(2026, 3, 12), day(2026, 3, 11)}
		s := Calculate(days, now)
		assert.Equal(t, 0, s.Current)
		assert.Equal(t, 3, s.Longest)
	})

	t.Run("today extends a run through yesterday", func(t *testing.T) {
		days := []time.Time{day(2026, 3, 15), day(2026, 3, 14), day(2026, 3, 13)}
		s := Calculate(days, now)
		assert.Equal(t, 3, s.Current)
		assert.Equal(t, 3, s.Longest)
	})

	t.Run("longest run in the past beats the current one", func(t *testing.T) {
		days := []time.Time{
			day(2026, 3, 15),
			day(2026, 3, 14),
			// gap
			day(2026, 3, 10),
			day(2026, 3, 9),
			day(2026, 3, 8),
			day(2026, 3, 7),
			day(2026, 3, 6),
		}
		s := Calculate(days, now)
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, 5, s.Longest)
	})

	t.Run("duplicate days count once", func(t *testing.T) {
		days := []time.Time{
			day(2026, 3, 15), day(2026, 3, 15), day(2026, 3, 15),
			day(2026, 3, 14),
		}
		s := Calculate(days, now)
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, 2, s.Longest)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		days := []time.Time{day(2026, 3, 13), day(2026, 3, 15), day(2026, 3, 14)}
		s := Calculate(days, now)
		assert.Equal(t, 3, s.Current)
		assert.Equal(t, 3, s.Longest)
	})

	t.Run("times within a day truncate to the same day", func(t *testing.T) {
		days := []time.Time{
			time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC),
			time.Date(2026, 3, 14, 0, 1, 0, 0, time.UTC),
		}
		s := Calculate(days, now)
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, 2, s.Longest)
	})

	t.Run("isolated days never chain", func(t *testing.T) {
		days := []time.Time{day(2026, 3, 10), day(2026, 3, 5), day(2026, 2, 20)}
		s := Calculate(days, now)
		assert.Equal(t, 0, s.Current)
		assert.Equal(t, 1, s.Longest)
	})
}
