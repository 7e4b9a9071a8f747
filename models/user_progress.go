package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserProgression is the per-user XP ledger balance. CurrentTier is always
// TierFromTotalXP(TotalXP); only the XP ledger writes to it.
type UserProgression struct {
	ID     string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID string `gorm:"uniqueIndex;not null;type:varchar(128)" json:"user_id"` // auth provider uid

	CurrentTier     Tier  `gorm:"not null;default:0;index" json:"current_tier"`
	CurrentPeriodXP int64 `gorm:"not null;default:0" json:"current_period_xp"` // XP since last tier-up, display only
	TotalXP         int64 `gorm:"not null;default:0" json:"total_xp"`

	LastTierUpAt *time.Time `json:"last_tier_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (p *UserProgression) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
