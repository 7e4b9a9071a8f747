package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is a local snapshot of the public profile owned by the profile service.
// Populated by the profile sync worker; used to stamp author fields on comments.
type Profile struct {
	ID             string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null;type:varchar(128)" json:"external_user_id"`
	Username       string  `gorm:"index;not null" json:"username"`
	DisplayName    string  `json:"display_name"`
	ProfileImage   *string `json:"profile_image,omitempty"`
	Bio            *string `json:"bio,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
