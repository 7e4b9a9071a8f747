package repository

import (
	"context"
	"fmt"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"

	"gorm.io/gorm"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Get(ctx context.Context, postID string) (*models.Post, error)
	RequiredTier(ctx context.Context, postID string) (models.Tier, error)
	// AdjustCounter adds delta to the counter for action, flooring the result at zero.
	AdjustCounter(ctx context.Context, postID string, action models.Action, delta int64) error
	ListPage(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	Delete(ctx context.Context, postID string) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return storeErr("posts.create", err)
	}
	return nil
}

func (r *postRepository) Get(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Where("id = ?", postID).First(&post).Error
	if isNotFound(err) {
		return nil, apperrors.NewContentNotFoundError(postID)
	}
	if err != nil {
		return nil, storeErr("posts.get", err)
	}
	return &post, nil
}

func (r *postRepository) RequiredTier(ctx context.Context, postID string) (models.Tier, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Select("id", "required_tier").Where("id = ?", postID).First(&post).Error
	if isNotFound(err) {
		return models.TierBronze, apperrors.NewContentNotFoundError(postID)
	}
	if err != nil {
		return models.TierBronze, storeErr("posts.required_tier", err)
	}
	return post.RequiredTier, nil
}

func (r *postRepository) AdjustCounter(ctx context.Context, postID string, action models.Action, delta int64) error {
	col, ok := models.CounterColumn(action)
	if !ok {
		return apperrors.NewInvalidActionError(string(action))
	}
	expr := gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", col), delta, delta)
	res := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(col, expr)
	if res.Error != nil {
		return storeErr("posts.adjust_counter", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewContentNotFoundError(postID)
	}
	return nil
}

func (r *postRepository) ListPage(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, storeErr("posts.count", err)
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, storeErr("posts.list", err)
	}
	return posts, total, nil
}

func (r *postRepository) Delete(ctx context.Context, postID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", postID).Delete(&models.Post{})
	if res.Error != nil {
		return storeErr("posts.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewContentNotFoundError(postID)
	}
	return nil
}
