package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Story is a creator highlight reel gated by tier like posts.
type Story struct {
	ID           string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string   `json:"name" gorm:"not null"`
	CoverImage   string   `json:"cover_image"`
	Images       []string `json:"images" gorm:"serializer:json;type:text"`
	RequiredTier Tier     `json:"required_tier" gorm:"not null"`
	Timestamps
}

func (s *Story) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
