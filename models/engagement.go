package models

import (
	"fmt"
	"strings"
	"time"

	"deluxe-isa/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Action is an engagement a viewer performs on a post.
type Action string

const (
	ActionLike    Action = "like"
	ActionComment Action = "comment"
	ActionRetweet Action = "retweet"
)

// ParseAction normalizes case; unknown actions are a policy violation.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionLike, ActionComment, ActionRetweet:
		return a, nil
	}
	return "", apperrors.NewInvalidActionError(s)
}

// IsToggle reports whether the action is an on/off engagement (like, retweet).
func (a Action) IsToggle() bool {
	return a == ActionLike || a == ActionRetweet
}

// Like marks that a user likes a post. Presence means "on".
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_like_user_post,priority:1" json:"user_id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:ux_like_user_post,priority:2;index" json:"post_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PostSnapshot is the copy of a post kept with a retweet.
type PostSnapshot struct {
	AuthorID          string   `json:"author_id"`
	AuthorUsername    string   `json:"author_username"`
	AuthorDisplayName string   `json:"author_display_name"`
	Content           string   `json:"content"`
	Images            []string `json:"images,omitempty"`
	Videos            []string `json:"videos,omitempty"`
	RequiredTier      Tier     `json:"required_tier"`
}

// Retweet marks that a user retweeted a post, with a snapshot of the original.
type Retweet struct {
	ID               string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID           string       `gorm:"type:varchar(128);not null;uniqueIndex:ux_retweet_user_post,priority:1" json:"user_id"`
	PostID           string       `gorm:"type:varchar(36);not null;uniqueIndex:ux_retweet_user_post,priority:2;index" json:"post_id"`
	OriginalAuthorID string       `gorm:"type:varchar(128);index" json:"original_author_id"`
	OriginalPost     PostSnapshot `gorm:"serializer:json;type:text" json:"original_post"`
	CreatedAt        time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

// AwardTracking records that (user, content, action) has been credited. Never deleted.
type AwardTracking struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_award_user_content_action,priority:1" json:"user_id"`
	ContentID string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_award_user_content_action,priority:2" json:"content_id"`
	Action    Action    `gorm:"type:varchar(16);not null;uniqueIndex:ux_award_user_content_action,priority:3" json:"action"`
	XPAmount  int64     `gorm:"not null" json:"xp_amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AwardTracking) TableName() string { return "xp_tracking" }

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (r *Retweet) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (a *AwardTracking) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Action == "" {
		return fmt.Errorf("award tracking without action")
	}
	return nil
}
