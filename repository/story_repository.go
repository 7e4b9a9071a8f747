package repository

import (
	"context"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"

	"gorm.io/gorm"
)

type StoryRepository interface {
	Create(ctx context.Context, s *models.Story) error
	Get(ctx context.Context, id string) (*models.Story, error)
	List(ctx context.Context) ([]models.Story, error)
	Save(ctx context.Context, s *models.Story) error
	Delete(ctx context.Context, id string) error
}

type storyRepository struct {
	db *gorm.DB
}

func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, s *models.Story) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return storeErr("stories.create", err)
	}
	return nil
}

func (r *storyRepository) Get(ctx context.Context, id string) (*models.Story, error) {
	var s models.Story
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if isNotFound(err) {
		return nil, apperrors.NewNotFoundError("story", id)
	}
	if err != nil {
		return nil, storeErr("stories.get", err)
	}
	return &s, nil
}

func (r *storyRepository) List(ctx context.Context) ([]models.Story, error) {
	var res []models.Story
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, storeErr("stories.list", err)
	}
	return res, nil
}

func (r *storyRepository) Save(ctx context.Context, s *models.Story) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return storeErr("stories.save", err)
	}
	return nil
}

func (r *storyRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Story{})
	if res.Error != nil {
		return storeErr("stories.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("story", id)
	}
	return nil
}
