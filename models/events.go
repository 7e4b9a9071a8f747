package models

import "time"

type EventKind string

const (
	EventXPGained    EventKind = "xp_gained"
	EventTierChanged EventKind = "tier_changed"
	EventWelcome     EventKind = "welcome"
)

// ProgressionEvent is what the XP ledger hands to the notification sink.
type ProgressionEvent struct {
	Kind       EventKind `json:"kind"`
	UserID     string    `json:"user_id"`
	ContentID  string    `json:"content_id,omitempty"`
	Action     Action    `json:"action,omitempty"`
	XP         int64     `json:"xp"`
	TotalXP    int64     `json:"total_xp"`
	OldTier    Tier      `json:"old_tier"`
	NewTier    Tier      `json:"new_tier"`
	OccurredAt time.Time `json:"occurred_at"`
}
