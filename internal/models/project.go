package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a user-defined activity category that sessions are logged
// against ("Deep Work", "Spanish", "Piano").
type Project struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Color       string `gorm:"type:varchar(16)" json:"color"`
	Icon        string `gorm:"type:varchar(32)" json:"icon"`

	IsArchived bool `gorm:"default:false" json:"is_archived"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ActivityPreference tracks per-user project usage for quick-pick ordering.
// The use count is bumped atomically on every session logged against the
// project; clients sort their activity pickers by it.
type ActivityPreference struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	ProjectID string  `gorm:"not null;index;type:uuid" json:"project_id"`
	Project   Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`

	UseCount   int        `gorm:"default:0" json:"use_count"`
	LastUsedAt *time.Time `json:"last_used_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName ensures unique constraint: one preference row per user/project
func (ActivityPreference) TableName() string {
	return "activity_preferences"
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (ap *ActivityPreference) BeforeCreate(tx *gorm.DB) error {
	if ap.ID == "" {
		ap.ID = generateUUID()
	}
	return nil
}
