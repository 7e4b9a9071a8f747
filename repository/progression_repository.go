package repository

import (
	"context"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressionRepository interface {
	Get(ctx context.Context, userID string) (*models.UserProgression, error)
	// GetForUpdate loads the row with a row lock; only meaningful inside a transaction.
	GetForUpdate(ctx context.Context, userID string) (*models.UserProgression, error)
	CreateIfAbsent(ctx context.Context, userID string) (*models.UserProgression, bool, error)
	// ApplyXP adds xp to a row previously loaded with GetForUpdate and stores the derived tier.
	ApplyXP(ctx context.Context, current *models.UserProgression, xp int64) (*models.UserProgression, error)
	// ListUserIDs pages user ids in id order after the given cursor, optionally filtered by tier.
	ListUserIDs(ctx context.Context, tier *models.Tier, afterUserID string, limit int) ([]string, error)
}

type progressionRepository struct {
	db *gorm.DB
}

func NewProgressionRepository(db *gorm.DB) ProgressionRepository {
	return &progressionRepository{db: db}
}

func (r *progressionRepository) Get(ctx context.Context, userID string) (*models.UserProgression, error) {
	var prog models.UserProgression
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prog).Error
	if isNotFound(err) {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, storeErr("progression.get", err)
	}
	return &prog, nil
}

func (r *progressionRepository) GetForUpdate(ctx context.Context, userID string) (*models.UserProgression, error) {
	var prog models.UserProgression
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&prog).Error
	if isNotFound(err) {
		return nil, apperrors.NewUserNotFoundError(userID)
	}
	if err != nil {
		return nil, storeErr("progression.get_for_update", err)
	}
	return &prog, nil
}

func (r *progressionRepository) CreateIfAbsent(ctx context.Context, userID string) (*models.UserProgression, bool, error) {
	prog := models.UserProgression{
		UserID:      userID,
		CurrentTier: models.TierBronze,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(&prog)
	if res.Error != nil {
		return nil, false, storeErr("progression.create", res.Error)
	}
	if res.RowsAffected == 1 {
		return &prog, true, nil
	}
	existing, err := r.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *progressionRepository) ApplyXP(ctx context.Context, current *models.UserProgression, xp int64) (*models.UserProgression, error) {
	next := *current
	next.TotalXP = current.TotalXP + xp
	next.CurrentTier = models.TierFromTotalXP(next.TotalXP)

	updates := map[string]interface{}{
		"total_xp":     gorm.Expr("total_xp + ?", xp),
		"current_tier": next.CurrentTier,
	}
	if next.CurrentTier > current.CurrentTier {
		now := time.Now()
		next.CurrentPeriodXP = next.TotalXP - next.CurrentTier.Threshold()
		next.LastTierUpAt = &now
		updates["current_period_xp"] = next.CurrentPeriodXP
		updates["last_tier_up_at"] = now
	} else {
		next.CurrentPeriodXP = current.CurrentPeriodXP + xp
		updates["current_period_xp"] = gorm.Expr("current_period_xp + ?", xp)
	}

	res := r.db.WithContext(ctx).
		Model(&models.UserProgression{}).
		Where("user_id = ?", current.UserID).
		Updates(updates)
	if res.Error != nil {
		return nil, storeErr("progression.apply_xp", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NewUserNotFoundError(current.UserID)
	}
	return &next, nil
}

func (r *progressionRepository) ListUserIDs(ctx context.Context, tier *models.Tier, afterUserID string, limit int) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&models.UserProgression{}).
		Where("user_id > ?", afterUserID)
	if tier != nil {
		q = q.Where("current_tier = ?", *tier)
	}
	var ids []string
	if err := q.Order("user_id ASC").Limit(limit).Pluck("user_id", &ids).Error; err != nil {
		return nil, storeErr("progression.list_user_ids", err)
	}
	return ids, nil
}
