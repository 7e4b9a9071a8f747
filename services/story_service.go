package services

import (
	"context"
	"strings"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"
	"deluxe-isa/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StoryInput creates or replaces a story. Nil fields are left unchanged on update.
type StoryInput struct {
	Name         *string      `json:"name"`
	CoverImage   *string      `json:"cover_image"`
	Images       []string     `json:"images"`
	RequiredTier *models.Tier `json:"required_tier"`
}

// StoryView is a story as a viewer sees it.
type StoryView struct {
	models.Story
	Locked bool `json:"locked"`
}

type StoryService struct {
	DB          *gorm.DB
	progression *ProgressionService
	log         *zap.Logger
}

func NewStoryService(db *gorm.DB, progression *ProgressionService, log *zap.Logger) *StoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &StoryService{DB: db, progression: progression, log: log}
}

func (s *StoryService) Create(ctx context.Context, in StoryInput) (*models.Story, error) {
	story := &models.Story{RequiredTier: models.TierDefaultContent}
	if err := applyStoryInput(story, in); err != nil {
		return nil, err
	}
	if story.Name == "" {
		return nil, apperrors.NewInvalidInputError("story name is required")
	}
	if err := repository.NewStoryRepository(s.DB).Create(ctx, story); err != nil {
		return nil, err
	}
	s.log.Info("story created", zap.String("story_id", story.ID))
	return story, nil
}

func (s *StoryService) Update(ctx context.Context, id string, in StoryInput) (*models.Story, error) {
	repo := repository.NewStoryRepository(s.DB)
	story, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyStoryInput(story, in); err != nil {
		return nil, err
	}
	if story.Name == "" {
		return nil, apperrors.NewInvalidInputError("story name is required")
	}
	if err := repo.Save(ctx, story); err != nil {
		return nil, err
	}
	return story, nil
}

func (s *StoryService) Delete(ctx context.Context, id string) error {
	return repository.NewStoryRepository(s.DB).Delete(ctx, id)
}

// ListForViewer returns every story, locking and emptying those above the viewer's tier.
func (s *StoryService) ListForViewer(ctx context.Context, viewerID string) ([]StoryView, error) {
	tier, err := s.progression.CurrentTier(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	stories, err := repository.NewStoryRepository(s.DB).List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]StoryView, len(stories))
	for i, st := range stories {
		views[i] = StoryView{Story: st}
		if !CanView(tier, st.RequiredTier) {
			views[i].Locked = true
			views[i].Images = nil
		}
	}
	return views, nil
}

func applyStoryInput(story *models.Story, in StoryInput) error {
	if in.Name != nil {
		story.Name = strings.TrimSpace(*in.Name)
	}
	if in.CoverImage != nil {
		story.CoverImage = *in.CoverImage
	}
	if in.Images != nil {
		story.Images = in.Images
	}
	if in.RequiredTier != nil {
		if !in.RequiredTier.Valid() {
			return apperrors.NewInvalidInputError("invalid required tier")
		}
		story.RequiredTier = *in.RequiredTier
	}
	return nil
}
