package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType identifies what triggered a notification
type NotificationType string

const (
	NotificationFollow            NotificationType = "follow"
	NotificationSupport           NotificationType = "support"
	NotificationComment           NotificationType = "comment"
	NotificationReply             NotificationType = "reply"
	NotificationGroupJoin         NotificationType = "group_join"
	NotificationChallengeComplete NotificationType = "challenge_complete"
)

// Notification is an in-app notification for a user
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	Type NotificationType `gorm:"type:varchar(32);not null" json:"type"`

	// User whose action triggered the notification
	ActorID string `gorm:"index" json:"actor_id"`
	Actor   User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	// Session, comment, group or challenge the notification points at
	TargetID string `gorm:"index" json:"target_id"`

	Message string `gorm:"type:text" json:"message"`
	Read    bool   `gorm:"default:false;index" json:"read"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
