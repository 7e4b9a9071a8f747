// Package repository holds the gorm-backed stores the services build on. Each store is
// constructed on a *gorm.DB, which may be a transaction handle.
package repository

import (
	"errors"

	"deluxe-isa/apperrors"

	"gorm.io/gorm"
)

// Repositories bundles every store bound to the same handle.
type Repositories struct {
	Progression   ProgressionRepository
	Posts         PostRepository
	Engagements   EngagementRepository
	Awards        AwardRepository
	Comments      CommentRepository
	Notifications NotificationRepository
	Stories       StoryRepository
	Profiles      ProfileRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Progression:   NewProgressionRepository(db),
		Posts:         NewPostRepository(db),
		Engagements:   NewEngagementRepository(db),
		Awards:        NewAwardRepository(db),
		Comments:      NewCommentRepository(db),
		Notifications: NewNotificationRepository(db),
		Stories:       NewStoryRepository(db),
		Profiles:      NewProfileRepository(db),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func storeErr(op string, err error) error {
	return apperrors.Wrap(op, err)
}
