package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationMessage  NotificationType = "message"
	NotificationWelcome  NotificationType = "welcome"
	NotificationUpgrade  NotificationType = "upgrade"
	NotificationSystem   NotificationType = "system"
	NotificationMission  NotificationType = "mission"
	NotificationLevelUp  NotificationType = "level_up"
	NotificationXPGained NotificationType = "xp_gained"
)

// Notification is a per-user inbox entry that disappears after ExpiresAt.
type Notification struct {
	ID        string           `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string           `json:"user_id" gorm:"type:varchar(128);index:idx_notification_user_created,priority:1;not null"`
	Type      NotificationType `json:"type" gorm:"type:varchar(16);not null"`
	Title     string           `json:"title"`
	Message   string           `json:"message" gorm:"type:text"`
	ActionURL string           `json:"action_url,omitempty"`

	FromUserID       string `json:"from_user_id,omitempty"`
	FromUsername     string `json:"from_username,omitempty"`
	FromDisplayName  string `json:"from_display_name,omitempty"`
	FromProfileImage string `json:"from_profile_image,omitempty"`

	IsRead    bool      `json:"is_read" gorm:"not null;default:false"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_notification_user_created,priority:2"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

type TemplateType string

const (
	TemplateWelcome      TemplateType = "welcome"
	TemplatePromotion    TemplateType = "promotion"
	TemplateAnnouncement TemplateType = "announcement"
	TemplateCustom       TemplateType = "custom"
)

// NotificationTemplate is an admin-authored message sent in bulk. A nil TargetTier
// means every user.
type NotificationTemplate struct {
	ID         string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title      string       `json:"title" gorm:"not null"`
	Message    string       `json:"message" gorm:"type:text;not null"`
	Type       TemplateType `json:"type" gorm:"type:varchar(16);not null"`
	TargetTier *Tier        `json:"target_tier"`
	IsActive   bool         `json:"is_active" gorm:"not null"`
	CreatedBy  string       `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (t *NotificationTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// NotificationType maps template kinds onto inbox kinds.
func (t TemplateType) NotificationType() NotificationType {
	switch t {
	case TemplateWelcome:
		return NotificationWelcome
	case TemplatePromotion:
		return NotificationUpgrade
	default:
		return NotificationSystem
	}
}

// ValidTemplateType reports whether t is one of the known template kinds.
func ValidTemplateType(t TemplateType) bool {
	switch t {
	case TemplateWelcome, TemplatePromotion, TemplateAnnouncement, TemplateCustom:
		return true
	}
	return false
}
