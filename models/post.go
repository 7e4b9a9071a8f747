package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a feed item. Counters are only changed with SQL expressions, never read-modify-write.
type Post struct {
	ID                 string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	AuthorID           string `json:"author_id" gorm:"type:varchar(128);index;not null"`
	AuthorUsername     string `json:"author_username"`
	AuthorDisplayName  string `json:"author_display_name"`
	AuthorProfileImage string `json:"author_profile_image"`

	Content string   `json:"content" gorm:"type:text"`
	Images  []string `json:"images" gorm:"serializer:json;type:text"`
	Videos  []string `json:"videos" gorm:"serializer:json;type:text"`

	RequiredTier Tier `json:"required_tier" gorm:"not null"`

	LikeCount    int64 `json:"likes" gorm:"not null;default:0"`
	CommentCount int64 `json:"comments" gorm:"not null;default:0"`
	RetweetCount int64 `json:"retweets" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Snapshot copies the fields a retweet keeps of the original post.
func (p *Post) Snapshot() PostSnapshot {
	return PostSnapshot{
		AuthorID:          p.AuthorID,
		AuthorUsername:    p.AuthorUsername,
		AuthorDisplayName: p.AuthorDisplayName,
		Content:           p.Content,
		Images:            append([]string(nil), p.Images...),
		Videos:            append([]string(nil), p.Videos...),
		RequiredTier:      p.RequiredTier,
	}
}

// CounterColumn maps an action to its counter column on posts.
func CounterColumn(a Action) (string, bool) {
	switch a {
	case ActionLike:
		return "like_count", true
	case ActionComment:
		return "comment_count", true
	case ActionRetweet:
		return "retweet_count", true
	}
	return "", false
}

// Comment is a reply on a post. Author fields are copied from the profile mirror.
type Comment struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PostID       string    `json:"post_id" gorm:"type:varchar(36);index;not null"`
	UserID       string    `json:"user_id" gorm:"type:varchar(128);index;not null"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	ProfileImage string    `json:"profile_image"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
