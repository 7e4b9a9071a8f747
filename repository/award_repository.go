package repository

import (
	"context"

	"deluxe-isa/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AwardRepository interface {
	// CreateIfAbsent inserts the tracking row unless (user, content, action) already exists.
	// created is true only for the caller whose insert won.
	CreateIfAbsent(ctx context.Context, userID, contentID string, action models.Action, xp int64) (created bool, err error)
	Exists(ctx context.Context, userID, contentID string, action models.Action) (bool, error)
}

type awardRepository struct {
	db *gorm.DB
}

func NewAwardRepository(db *gorm.DB) AwardRepository {
	return &awardRepository{db: db}
}

func (r *awardRepository) CreateIfAbsent(ctx context.Context, userID, contentID string, action models.Action, xp int64) (bool, error) {
	rec := models.AwardTracking{
		UserID:    userID,
		ContentID: contentID,
		Action:    action,
		XPAmount:  xp,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "content_id"}, {Name: "action"}},
			DoNothing: true,
		}).
		Create(&rec)
	if res.Error != nil {
		return false, storeErr("awards.create_if_absent", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *awardRepository) Exists(ctx context.Context, userID, contentID string, action models.Action) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&models.AwardTracking{}).
		Where("user_id = ? AND content_id = ? AND action = ?", userID, contentID, action).
		Count(&cnt).Error; err != nil {
		return false, storeErr("awards.exists", err)
	}
	return cnt > 0, nil
}
