package repository

import (
	"context"
	"time"

	"deluxe-isa/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	// Upsert inserts or refreshes profiles keyed by external user id.
	Upsert(ctx context.Context, profiles []models.Profile) error
	// Find returns nil without error when no mirror exists yet.
	Find(ctx context.Context, externalUserID string) (*models.Profile, error)
	LastUpdatedAt(ctx context.Context) (time.Time, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Upsert(ctx context.Context, profiles []models.Profile) error {
	if len(profiles) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "display_name", "profile_image", "bio", "updated_at"}),
	}).Create(&profiles).Error
	if err != nil {
		return storeErr("profiles.upsert", err)
	}
	return nil
}

func (r *profileRepository) Find(ctx context.Context, externalUserID string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&p).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("profiles.find", err)
	}
	return &p, nil
}

func (r *profileRepository) LastUpdatedAt(ctx context.Context) (time.Time, error) {
	var p models.Profile
	err := r.db.WithContext(ctx).Order("updated_at DESC").Limit(1).Find(&p).Error
	if err != nil {
		return time.Time{}, storeErr("profiles.last_updated_at", err)
	}
	return p.UpdatedAt, nil
}
