package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileVisibility controls who can see a user's profile and sessions list
type ProfileVisibility string

const (
	ProfileVisibilityEveryone ProfileVisibility = "everyone"
	ProfileVisibilityPrivate  ProfileVisibility = "private"
)

// User represents an Ambira account
type User struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Name     string `gorm:"not null" json:"name"`
	Bio      string `gorm:"type:text" json:"bio"`
	Location string `gorm:"type:text" json:"location"`

	// Native auth fields
	PasswordHash *string `gorm:"type:text" json:"-"`

	// OAuth provider IDs (nullable - users can have native accounts)
	GoogleID *string `gorm:"uniqueIndex" json:"-"`

	// Profile data
	ProfilePictureURL string            `json:"profile_picture_url"`
	ProfileVisibility ProfileVisibility `gorm:"type:varchar(16);default:everyone" json:"profile_visibility"`
	IsAdmin           bool              `gorm:"default:false" json:"-"`

	// Social stats (denormalized counter caches, source of truth is the follows table)
	FollowersCount int `gorm:"default:0" json:"followers_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	SessionCount   int `gorm:"default:0" json:"session_count"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PublicProfile strips fields that should not leak to other users
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":                  u.ID,
		"username":            u.Username,
		"name":                u.Name,
		"bio":                 u.Bio,
		"location":            u.Location,
		"profile_picture_url": u.ProfilePictureURL,
		"profile_visibility":  u.ProfileVisibility,
		"followers_count":     u.FollowersCount,
		"following_count":     u.FollowingCount,
		"session_count":       u.SessionCount,
		"created_at":          u.CreatedAt,
	}
}

// PasswordReset represents password reset tokens
type PasswordReset struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (p *PasswordReset) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}
