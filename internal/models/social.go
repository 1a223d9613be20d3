package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is a directed edge: follower follows followee
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	FollowerID string `gorm:"not null;index" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one edge per user pair
func (Follow) TableName() string {
	return "follows"
}

// Support is a "like" on a session
type Support struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SessionID string  `gorm:"not null;index" json:"session_id"`
	Session   Session `gorm:"foreignKey:SessionID" json:"-"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one support per user per session
func (Support) TableName() string {
	return "supports"
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (s *Support) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = generateUUID()
	}
	return nil
}
