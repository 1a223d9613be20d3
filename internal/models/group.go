package models

import (
	"time"

	"gorm.io/gorm"
)

// GroupPrivacy controls how users join a group
type GroupPrivacy string

const (
	GroupPrivacyPublic   GroupPrivacy = "public"
	GroupPrivacyApproval GroupPrivacy = "approval"
	GroupPrivacyInvite   GroupPrivacy = "invite"
)

// GroupRole is a member's role within a group
type GroupRole string

const (
	GroupRoleMember GroupRole = "member"
	GroupRoleAdmin  GroupRole = "admin"
)

// Group is a community users join to share sessions
type Group struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"type:varchar(64)" json:"category"`
	Type        string `gorm:"type:varchar(64)" json:"type"`

	PrivacySetting GroupPrivacy `gorm:"type:varchar(16);not null;default:public" json:"privacy_setting"`

	CreatorID string `gorm:"not null;index" json:"creator_id"`
	Creator   User   `gorm:"foreignKey:CreatorID" json:"-"`

	// Counter cache over group_members, never negative
	MemberCount int `gorm:"default:0" json:"member_count"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// GroupMember is the membership join table, including the admin role
type GroupMember struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	GroupID string `gorm:"not null;index" json:"group_id"`
	Group   Group  `gorm:"foreignKey:GroupID" json:"-"`
	UserID  string `gorm:"not null;index" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Role GroupRole `gorm:"type:varchar(16);not null;default:member" json:"role"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName ensures unique constraint: one membership per user per group
func (GroupMember) TableName() string {
	return "group_members"
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = generateUUID()
	}
	if g.PrivacySetting == "" {
		g.PrivacySetting = GroupPrivacyPublic
	}
	return nil
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = generateUUID()
	}
	return nil
}
