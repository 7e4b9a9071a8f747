package services

import (
	"context"
	"strings"

	"deluxe-isa/apperrors"
	"deluxe-isa/metrics"
	"deluxe-isa/models"
	"deluxe-isa/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreatePostInput is what an admin submits for a new post. RequiredTier defaults to Gold.
type CreatePostInput struct {
	AuthorID           string
	AuthorUsername     string
	AuthorDisplayName  string
	AuthorProfileImage string
	Content            string
	Images             []string
	Videos             []string
	RequiredTier       *models.Tier
}

// FeedItem is a post as a specific viewer sees it. Locked posts carry no content or media.
type FeedItem struct {
	models.Post
	Locked    bool `json:"locked"`
	Liked     bool `json:"liked"`
	Retweeted bool `json:"retweeted"`
}

type PostService struct {
	DB          *gorm.DB
	progression *ProgressionService
	engagement  *EngagementService
	log         *zap.Logger
}

func NewPostService(db *gorm.DB, progression *ProgressionService, engagement *EngagementService, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{DB: db, progression: progression, engagement: engagement, log: log}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Images) == 0 && len(in.Videos) == 0 {
		return nil, apperrors.NewInvalidInputError("post needs content or media")
	}
	if in.AuthorID == "" {
		return nil, apperrors.NewInvalidInputError("author id is required")
	}

	required := models.TierDefaultContent
	if in.RequiredTier != nil {
		if !in.RequiredTier.Valid() {
			return nil, apperrors.NewInvalidInputError("invalid required tier")
		}
		required = *in.RequiredTier
	}

	post := &models.Post{
		AuthorID:           in.AuthorID,
		AuthorUsername:     in.AuthorUsername,
		AuthorDisplayName:  in.AuthorDisplayName,
		AuthorProfileImage: in.AuthorProfileImage,
		Content:            content,
		Images:             in.Images,
		Videos:             in.Videos,
		RequiredTier:       required,
	}
	if err := repository.NewPostRepository(s.DB).Create(ctx, post); err != nil {
		return nil, err
	}
	s.log.Info("post created", zap.String("post_id", post.ID), zap.Stringer("required_tier", required))
	return post, nil
}

// GetPost returns a post the viewer is allowed to see.
func (s *PostService) GetPost(ctx context.Context, viewerID, postID string) (*FeedItem, error) {
	tier, err := s.progression.CurrentTier(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	post, err := repository.NewPostRepository(s.DB).Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !CanView(tier, post.RequiredTier) {
		metrics.AccessDenied.WithLabelValues("view").Inc()
		return nil, apperrors.NewUnauthorizedError("post requires " + post.RequiredTier.String())
	}

	proj, err := s.engagement.Projection(ctx, viewerID, []string{post.ID})
	if err != nil {
		return nil, err
	}
	return &FeedItem{Post: *post, Liked: proj.Liked[post.ID], Retweeted: proj.Retweeted[post.ID]}, nil
}

// Feed lists posts newest first. Every post is listed; the ones above the viewer's tier
// come back locked so clients can render a paywall teaser.
func (s *PostService) Feed(ctx context.Context, viewerID string, page, size int) (*Page[FeedItem], error) {
	tier, err := s.progression.CurrentTier(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	page, size, offset := normalizePage(page, size)

	posts, total, err := repository.NewPostRepository(s.DB).ListPage(ctx, offset, size)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	proj, err := s.engagement.Projection(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, len(posts))
	for i, p := range posts {
		item := FeedItem{
			Post:      p,
			Liked:     proj.Liked[p.ID],
			Retweeted: proj.Retweeted[p.ID],
		}
		if !CanView(tier, p.RequiredTier) {
			item.Locked = true
			item.Content = ""
			item.Images = nil
			item.Videos = nil
		}
		items[i] = item
	}
	return newPage(items, page, size, total), nil
}

// DeletePost removes a post with its likes, retweets and comments. XP tracking rows stay,
// so re-created content with the same id can never be credited twice.
func (s *PostService) DeletePost(ctx context.Context, postID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.New(tx)
		if err := repos.Engagements.DeleteForPost(ctx, postID); err != nil {
			return err
		}
		if err := repos.Comments.DeleteForPost(ctx, postID); err != nil {
			return err
		}
		return repos.Posts.Delete(ctx, postID)
	})
	if err != nil {
		return apperrors.Wrap("posts.delete", err)
	}
	s.log.Info("post deleted", zap.String("post_id", postID))
	return nil
}
