package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/AmbiraDev/ambira-backend/internal/models"
	"gorm.io/gorm"
)

// Period names a reporting window for user stats
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// Valid reports whether p is a known period
func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return true
	}
	return false
}

// start returns the inclusive lower bound of the period ending at now
func (p Period) start(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

// ProjectBreakdown is time spent per project within the period
type ProjectBreakdown struct {
	ProjectID    string `json:"project_id"`
	ProjectName  string `json:"project_name"`
	TotalSeconds int64  `json:"total_seconds"`
	SessionCount int64  `json:"session_count"`
}

// DailyTotal is one day's logged time, for charting
type DailyTotal struct {
	Day          string `json:"day"`
	TotalSeconds int64  `json:"total_seconds"`
	SessionCount int64  `json:"session_count"`
}

// UserStats aggregates a user's session history over a period
type UserStats struct {
	Period           Period             `json:"period"`
	TotalSeconds     int64              `json:"total_seconds"`
	SessionCount     int64              `json:"session_count"`
	AverageSeconds   int64              `json:"average_seconds"`
	LongestSeconds   int64              `json:"longest_seconds"`
	ProjectBreakdown []ProjectBreakdown `json:"project_breakdown"`
	Daily            []DailyTotal       `json:"daily"`
}

// Service computes per-user productivity aggregates
type Service struct {
	db *gorm.DB
}

// NewService creates an analytics service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// StatsForUser builds the stats view for one user and period. now anchors
// the window so tests can pin time.
func (s *Service) StatsForUser(ctx context.Context, userID string, period Period, now time.Time) (*UserStats, error) {
	stats := &UserStats{Period: period}

	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Session{}).Where("user_id = ?", userID)
		if start := period.start(now); !start.IsZero() {
			q = q.Where("created_at >= ?", start)
		}
		return q
	}

	type totalsRow struct {
		TotalSeconds   int64
		SessionCount   int64
		LongestSeconds int64
	}
	var totals totalsRow
	err := base().
		Select("COALESCE(SUM(duration), 0) AS total_seconds, COUNT(*) AS session_count, COALESCE(MAX(duration), 0) AS longest_seconds").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate sessions: %w", err)
	}

	stats.TotalSeconds = totals.TotalSeconds
	stats.SessionCount = totals.SessionCount
	stats.LongestSeconds = totals.LongestSeconds
	if totals.SessionCount > 0 {
		stats.AverageSeconds = totals.TotalSeconds / totals.SessionCount
	}

	err = base().
		Joins("LEFT JOIN projects ON projects.id = sessions.project_id").
		Select("sessions.project_id, COALESCE(projects.name, '') AS project_name, COALESCE(SUM(sessions.duration), 0) AS total_seconds, COUNT(*) AS session_count").
		Group("sessions.project_id, projects.name").
		Order("total_seconds DESC").
		Scan(&stats.ProjectBreakdown).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate projects: %w", err)
	}

	err = base().
		Select("DATE(created_at)::text AS day, COALESCE(SUM(duration), 0) AS total_seconds, COUNT(*) AS session_count").
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&stats.Daily).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily totals: %w", err)
	}

	return stats, nil
}
