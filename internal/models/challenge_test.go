package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChallengeIsActive(t *testing.T) {
	c := &Challenge{
		StartAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}

	assert.False(t, c.IsActive(c.StartAt.Add(-time.Second)))
	assert.True(t, c.IsActive(c.StartAt))
	assert.True(t, c.IsActive(c.StartAt.AddDate(0, 0, 15)))
	assert.False(t, c.IsActive(c.EndAt))
	assert.False(t, c.IsActive(c.EndAt.Add(time.Hour)))
}

func TestChallengeParticipantGoalReached(t *testing.T) {
	t.Run("total hours goal converts to seconds", func(t *testing.T) {
		p := &ChallengeParticipant{
			Challenge: Challenge{Type: ChallengeTotalHours, Goal: 10},
			Progress:  10 * 3600,
		}
		assert.True(t, p.GoalReached())

		p.Progress = 10*3600 - 1
		assert.False(t, p.GoalReached())
	})

	t.Run("session count goal compares directly", func(t *testing.T) {
		p := &ChallengeParticipant{
			Challenge: Challenge{Type: ChallengeSessionCount, Goal: 30},
			Progress:  30,
		}
		assert.True(t, p.GoalReached())

		p.Progress = 29
		assert.False(t, p.GoalReached())
	})

	t.Run("zero goal never completes", func(t *testing.T) {
		p := &ChallengeParticipant{
			Challenge: Challenge{Type: ChallengeSessionCount, Goal: 0},
			Progress:  100,
		}
		assert.False(t, p.GoalReached())
	})
}
