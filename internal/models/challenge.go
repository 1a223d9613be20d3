package models

import (
	"time"

	"gorm.io/gorm"
)

// ChallengeType determines how participant progress is measured
type ChallengeType string

const (
	ChallengeTotalHours   ChallengeType = "total_hours"
	ChallengeSessionCount ChallengeType = "session_count"
	ChallengeStreakDays   ChallengeType = "streak_days"
)

// Challenge is a time-boxed gamification goal users can join
type Challenge struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	Type ChallengeType `gorm:"type:varchar(24);not null" json:"type"`

	// Goal in the unit of Type: hours, sessions, or days
	Goal int `gorm:"not null" json:"goal"`

	StartAt time.Time `gorm:"not null;index" json:"start_at"`
	EndAt   time.Time `gorm:"not null;index" json:"end_at"`

	CreatorID string `gorm:"index" json:"creator_id"`

	ParticipantCount int `gorm:"default:0" json:"participant_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsActive reports whether the challenge window contains now
func (c *Challenge) IsActive(now time.Time) bool {
	return !now.Before(c.StartAt) && now.Before(c.EndAt)
}

// ChallengeParticipant tracks a user's progress within a challenge
type ChallengeParticipant struct {
	ID          string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ChallengeID string    `gorm:"not null;index" json:"challenge_id"`
	Challenge   Challenge `gorm:"foreignKey:ChallengeID" json:"-"`
	UserID      string    `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	// Progress in the unit of the challenge type; seconds for total_hours
	Progress    int        `gorm:"default:0" json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalReached reports whether progress meets the challenge goal. Progress
// for total_hours challenges is tracked in seconds, so the goal converts.
func (p *ChallengeParticipant) GoalReached() bool {
	goal := p.Challenge.Goal
	if p.Challenge.Type == ChallengeTotalHours {
		goal = p.Challenge.Goal * 3600
	}
	return goal > 0 && p.Progress >= goal
}

// TableName ensures unique constraint: one entry per user per challenge
func (ChallengeParticipant) TableName() string {
	return "challenge_participants"
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (p *ChallengeParticipant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
