package models

import (
	"time"

	"gorm.io/gorm"
)

// ActiveSessionStatus is the running state of a live timer
type ActiveSessionStatus string

const (
	ActiveSessionRunning ActiveSessionStatus = "running"
	ActiveSessionPaused  ActiveSessionStatus = "paused"
)

// ActiveSession is a live timer. At most one exists per user; finishing it
// produces a Session with the computed duration.
type ActiveSession struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	ProjectID string  `gorm:"type:uuid" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	StartTime time.Time           `gorm:"not null" json:"start_time"`
	Status    ActiveSessionStatus `gorm:"type:varchar(16);not null;default:running" json:"status"`

	// Accumulated paused time in seconds, excluded from the final duration
	PausedDuration int `gorm:"default:0" json:"paused_duration"`

	// Set while paused; cleared on resume
	LastPausedAt *time.Time `json:"last_paused_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Elapsed returns the tracked seconds as of now, excluding paused time.
func (a *ActiveSession) Elapsed(now time.Time) int {
	paused := a.PausedDuration
	if a.Status == ActiveSessionPaused && a.LastPausedAt != nil {
		paused += int(now.Sub(*a.LastPausedAt).Seconds())
	}
	elapsed := int(now.Sub(a.StartTime).Seconds()) - paused
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (a *ActiveSession) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}
