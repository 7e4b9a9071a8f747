package repository

import (
	"context"

	"deluxe-isa/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	ListByPost(ctx context.Context, postID string, offset, limit int) ([]models.Comment, int64, error)
	DeleteForPost(ctx context.Context, postID string) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return storeErr("comments.create", err)
	}
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string, offset, limit int) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		return nil, 0, storeErr("comments.count", err)
	}
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&comments).Error; err != nil {
		return nil, 0, storeErr("comments.list", err)
	}
	return comments, total, nil
}

func (r *commentRepository) DeleteForPost(ctx context.Context, postID string) error {
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
		return storeErr("comments.delete_for_post", err)
	}
	return nil
}
