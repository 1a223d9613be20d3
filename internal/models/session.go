package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SessionVisibility controls who can see a logged session
type SessionVisibility string

const (
	VisibilityEveryone  SessionVisibility = "everyone"
	VisibilityFollowers SessionVisibility = "followers"
	VisibilityPrivate   SessionVisibility = "private"
)

// Valid reports whether the visibility value is one of the known settings
func (v SessionVisibility) Valid() bool {
	switch v {
	case VisibilityEveryone, VisibilityFollowers, VisibilityPrivate:
		return true
	}
	return false
}

// Session is a logged unit of tracked work or focus time, the app's primary
// content object. A session belongs to exactly one user and optionally to one
// or more groups.
type Session struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ProjectID string  `gorm:"type:uuid;index" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	// Tracked time in seconds
	Duration int `gorm:"not null" json:"duration"`

	Visibility SessionVisibility `gorm:"type:varchar(16);not null;default:everyone" json:"visibility"`

	// Engagement metrics (counter caches, never negative)
	SupportCount int `gorm:"default:0" json:"support_count"`
	CommentCount int `gorm:"default:0" json:"comment_count"`

	// Groups this session was shared to
	GroupIDs StringArray `gorm:"type:text[]" json:"group_ids"`

	// Uploaded image URLs
	Images StringArray `gorm:"type:text[]" json:"images"`

	// GORM fields
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// VisibleTo reports whether the viewer may see this session.
// isFollower must reflect whether viewerID follows the session owner.
func (s *Session) VisibleTo(viewerID string, isFollower bool) bool {
	if s.UserID == viewerID {
		return true
	}
	switch s.Visibility {
	case VisibilityEveryone:
		return true
	case VisibilityFollowers:
		return isFollower
	default:
		return false
	}
}

// FormattedDuration renders the duration as "2h 15m" / "45m" / "30s"
func (s *Session) FormattedDuration() string {
	d := time.Duration(s.Duration) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s.Duration)
	}
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	if s.Visibility == "" {
		s.Visibility = VisibilityEveryone
	}
	return nil
}
