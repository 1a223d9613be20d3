package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActiveSessionElapsed(t *testing.T) {
	start := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

	t.Run("running timer counts wall time", func(t *testing.T) {
		a := &ActiveSession{StartTime: start, Status: ActiveSessionRunning}
		assert.Equal(t, 1800, a.Elapsed(start.Add(30*time.Minute)))
	})

	t.Run("accumulated pauses are excluded", func(t *testing.T) {
		a := &ActiveSession{StartTime: start, Status: ActiveSessionRunning, PausedDuration: 600}
		assert.Equal(t, 1200, a.Elapsed(start.Add(30*time.Minute)))
	})

	t.Run("an open pause keeps accruing", func(t *testing.T) {
		pausedAt := start.Add(20 * time.Minute)
		a := &ActiveSession{
			StartTime:    start,
			Status:       ActiveSessionPaused,
			LastPausedAt: &pausedAt,
		}
		// 30 minutes on the clock, the last 10 paused
		assert.Equal(t, 1200, a.Elapsed(start.Add(30*time.Minute)))
	})

	t.Run("open pause stacks on earlier pauses", func(t *testing.T) {
		pausedAt := start.Add(20 * time.Minute)
		a := &ActiveSession{
			StartTime:      start,
			Status:         ActiveSessionPaused,
			PausedDuration: 300,
			LastPausedAt:   &pausedAt,
		}
		assert.Equal(t, 900, a.Elapsed(start.Add(30*time.Minute)))
	})

	t.Run("never negative", func(t *testing.T) {
		a := &ActiveSession{StartTime: start, Status: ActiveSessionRunning, PausedDuration: 9999}
		assert.Equal(t, 0, a.Elapsed(start.Add(time.Minute)))
	})
}
