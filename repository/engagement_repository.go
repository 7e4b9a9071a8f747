package repository

import (
	"context"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EngagementRepository stores like and retweet records; kind selects the table.
type EngagementRepository interface {
	Exists(ctx context.Context, kind models.Action, userID, postID string) (bool, error)
	// Create inserts the record unless it already exists; created reports whether this call inserted it.
	Create(ctx context.Context, kind models.Action, userID string, post *models.Post, ownerID string) (created bool, err error)
	Delete(ctx context.Context, kind models.Action, userID, postID string) (deleted bool, err error)
	// ActivePostIDs returns the subset of postIDs the user has an active record for.
	ActivePostIDs(ctx context.Context, kind models.Action, userID string, postIDs []string) ([]string, error)
	DeleteForPost(ctx context.Context, postID string) error
	ListRetweets(ctx context.Context, userID string, offset, limit int) ([]models.Retweet, error)
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func modelFor(kind models.Action) (interface{}, error) {
	switch kind {
	case models.ActionLike:
		return &models.Like{}, nil
	case models.ActionRetweet:
		return &models.Retweet{}, nil
	}
	return nil, apperrors.NewInvalidActionError(string(kind))
}

func (r *engagementRepository) Exists(ctx context.Context, kind models.Action, userID, postID string) (bool, error) {
	m, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(m).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&cnt).Error; err != nil {
		return false, storeErr("engagements.exists", err)
	}
	return cnt > 0, nil
}

func (r *engagementRepository) Create(ctx context.Context, kind models.Action, userID string, post *models.Post, ownerID string) (bool, error) {
	var rec interface{}
	switch kind {
	case models.ActionLike:
		rec = &models.Like{UserID: userID, PostID: post.ID}
	case models.ActionRetweet:
		if ownerID == "" {
			ownerID = post.AuthorID
		}
		rec = &models.Retweet{
			UserID:           userID,
			PostID:           post.ID,
			OriginalAuthorID: ownerID,
			OriginalPost:     post.Snapshot(),
		}
	default:
		return false, apperrors.NewInvalidActionError(string(kind))
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, storeErr("engagements.create", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *engagementRepository) Delete(ctx context.Context, kind models.Action, userID, postID string) (bool, error) {
	m, err := modelFor(kind)
	if err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(m)
	if res.Error != nil {
		return false, storeErr("engagements.delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *engagementRepository) ActivePostIDs(ctx context.Context, kind models.Action, userID string, postIDs []string) ([]string, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	m, err := modelFor(kind)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(m).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, storeErr("engagements.active_post_ids", err)
	}
	return ids, nil
}

func (r *engagementRepository) DeleteForPost(ctx context.Context, postID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("post_id = ?", postID).Delete(&models.Like{}).Error; err != nil {
		return storeErr("engagements.delete_likes", err)
	}
	if err := db.Where("post_id = ?", postID).Delete(&models.Retweet{}).Error; err != nil {
		return storeErr("engagements.delete_retweets", err)
	}
	return nil
}

func (r *engagementRepository) ListRetweets(ctx context.Context, userID string, offset, limit int) ([]models.Retweet, error) {
	var res []models.Retweet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, storeErr("engagements.list_retweets", err)
	}
	return res, nil
}
