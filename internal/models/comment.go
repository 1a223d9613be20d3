package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a Session
type Comment struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	SessionID string  `gorm:"not null;index" json:"session_id"`
	Session   Session `gorm:"foreignKey:SessionID" json:"-"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	// Threading - parent_id is null for top-level comments, one level deep
	ParentID *string    `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Parent   *Comment   `gorm:"foreignKey:ParentID" json:"-"`
	Replies  []*Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	// Engagement (counter caches, never negative)
	LikeCount  int `gorm:"default:0" json:"like_count"`
	ReplyCount int `gorm:"default:0" json:"reply_count"`

	// Edit tracking
	IsEdited bool       `gorm:"default:false" json:"is_edited"`
	EditedAt *time.Time `json:"edited_at,omitempty"`

	// Soft delete for "comment removed"
	IsDeleted bool `gorm:"default:false" json:"is_deleted"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentLike records a like on a comment
type CommentLike struct {
	ID        string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CommentID string  `gorm:"not null;index" json:"comment_id"`
	Comment   Comment `gorm:"foreignKey:CommentID" json:"-"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one like per user per comment
func (CommentLike) TableName() string {
	return "comment_likes"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}
