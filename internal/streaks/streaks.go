package streaks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/cache"
	"github.com/AmbiraDev/ambira-backend/internal/logger"
	"github.com/AmbiraDev/ambira-backend/internal/models"
	"gorm.io/gorm"
)

// cacheTTL keeps streak reads cheap; a new session invalidates early
const cacheTTL = 15 * time.Minute

// Streak summarizes a user's consecutive-day activity
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// Service computes day streaks from session history
type Service struct {
	db    *gorm.DB
	redis *cache.RedisClient
}

// NewService creates a streak service. redis may be nil.
func NewService(db *gorm.DB, redis *cache.RedisClient) *Service {
	return &Service{db: db, redis: redis}
}

// ForUser returns the user's current and longest streaks. A day counts when
// it has at least one finished session; the current streak survives until
// the end of today, so a gap only breaks it once yesterday had no session.
func (s *Service) ForUser(ctx context.Context, userID string, now time.Time) (*Streak, error) {
	if s.redis != nil {
		var cached Streak
		if err := s.redis.GetJSON(ctx, cache.StreakKey(userID), &cached); err == nil {
			return &cached, nil
		} else if !cache.IsNil(err) {
			logger.WarnWithFields("streak cache read failed", err)
		}
	}

	var days []time.Time
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).
		Select("DATE(created_at) AS day").
		Group("DATE(created_at)").
		Order("day DESC").
		Limit(730).
		Pluck("day", &days).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load session days: %w", err)
	}

	streak := Calculate(days, now)

	if s.redis != nil {
		if err := s.redis.SetJSON(ctx, cache.StreakKey(userID), streak, cacheTTL); err != nil {
			logger.WarnWithFields("streak cache write failed", err)
		}
	}

	return streak, nil
}

// Invalidate drops the cached streak, called when a session is logged
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cache.StreakKey(userID)); err != nil {
		logger.WarnWithFields("streak cache invalidation failed", err)
	}
}

// Calculate derives current and longest streaks from the set of days that
// had activity. Duplicate days and ordering do not matter; dates are
// compared at day granularity in their own location.
func Calculate(days []time.Time, now time.Time) *Streak {
	if len(days) == 0 {
		return &Streak{}
	}

	seen := make(map[string]bool, len(days))
	uniq := make([]time.Time, 0, len(days))
	for _, d := range days {
		day := truncateDay(d)
		key := day.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			uniq = append(uniq, day)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].After(uniq[j]) })

	// Longest: scan descending, counting runs of consecutive days
	longest, run := 1, 1
	for i := 1; i < len(uniq); i++ {
		if uniq[i-1].Sub(uniq[i]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	// Current: walk back from today (or yesterday, keeping today open)
	today := truncateDay(now)
	current := 0
	cursor := today
	if !seen[cursor.Format("2006-01-02")] {
		cursor = cursor.AddDate(0, 0, -1)
	}
	for seen[cursor.Format("2006-01-02")] {
		current++
		cursor = cursor.AddDate(0, 0, -1)
	}

	return &Streak{Current: current, Longest: longest}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
