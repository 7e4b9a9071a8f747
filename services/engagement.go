package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"deluxe-isa/apperrors"
	"deluxe-isa/metrics"
	"deluxe-isa/models"
	"deluxe-isa/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultProjectionBatchSize = 200
	MaxCommentLength           = 2000
)

// ToggleResult is the state of an engagement after a toggle.
type ToggleResult struct {
	Active   bool        `json:"active"`
	XPGained int64       `json:"xp_gained"`
	Award    AwardResult `json:"award"`
}

// EngagementProjection says which of a page of posts the viewer liked or retweeted.
type EngagementProjection struct {
	Liked     map[string]bool `json:"liked"`
	Retweeted map[string]bool `json:"retweeted"`
}

type EngagementService struct {
	DB          *gorm.DB
	progression *ProgressionService
	log         *zap.Logger
	batchSize   int
}

func NewEngagementService(db *gorm.DB, progression *ProgressionService, log *zap.Logger, batchSize int) *EngagementService {
	if batchSize < 1 {
		batchSize = DefaultProjectionBatchSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EngagementService{DB: db, progression: progression, log: log, batchSize: batchSize}
}

// ToggleEngagement flips a like or retweet for (user, post). Turning it on bumps the
// post counter and credits XP once ever; turning it off lowers the counter and keeps the XP.
func (s *EngagementService) ToggleEngagement(ctx context.Context, userID, contentID string, kind models.Action, ownerID string) (ToggleResult, error) {
	if !kind.IsToggle() {
		return ToggleResult{}, apperrors.NewInvalidActionError(string(kind))
	}

	tier, err := s.progression.CurrentTier(ctx, userID)
	if err != nil {
		return ToggleResult{}, err
	}
	if err := AuthorizeAction(tier, kind); err != nil {
		metrics.AccessDenied.WithLabelValues(string(kind)).Inc()
		return ToggleResult{}, err
	}

	var (
		result ToggleResult
		events []models.ProgressionEvent
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.New(tx)

		post, err := repos.Posts.Get(ctx, contentID)
		if err != nil {
			return err
		}

		active, err := repos.Engagements.Exists(ctx, kind, userID, contentID)
		if err != nil {
			return err
		}

		if active {
			deleted, err := repos.Engagements.Delete(ctx, kind, userID, contentID)
			if err != nil {
				return err
			}
			if deleted {
				if err := repos.Posts.AdjustCounter(ctx, contentID, kind, -1); err != nil {
					return err
				}
			}
			result = ToggleResult{Active: false}
			return nil
		}

		created, err := repos.Engagements.Create(ctx, kind, userID, post, ownerID)
		if err != nil {
			return err
		}
		if !created {
			// A concurrent toggle from another session turned it on first.
			result = ToggleResult{Active: true}
			return nil
		}
		if err := repos.Posts.AdjustCounter(ctx, contentID, kind, 1); err != nil {
			return err
		}

		award, evs, err := s.progression.awardXPOnceTx(ctx, tx, userID, contentID, kind)
		if err != nil {
			return err
		}
		result = ToggleResult{Active: true, XPGained: award.XPGained, Award: award}
		events = evs
		return nil
	})
	if err != nil {
		return ToggleResult{}, apperrors.Wrap("engagement.toggle", err)
	}

	state := "off"
	if result.Active {
		state = "on"
		s.progression.afterAward(ctx, userID, contentID, kind, result.Award, events)
	}
	metrics.EngagementToggles.WithLabelValues(string(kind), state).Inc()
	s.log.Debug("engagement toggled",
		zap.String("user_id", userID),
		zap.String("content_id", contentID),
		zap.String("kind", string(kind)),
		zap.Bool("active", result.Active),
	)
	return result, nil
}

// PostComment adds a comment and credits comment XP. XP is keyed by (user, post, action),
// so only a user's first comment on a post earns XP. Kept deliberately, though upstream this
// was likely unintended.
func (s *EngagementService) PostComment(ctx context.Context, userID, contentID, text string) (*models.Comment, AwardResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, AwardResult{}, apperrors.NewInvalidInputError("comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, AwardResult{}, apperrors.NewInvalidInputError(fmt.Sprintf("comment longer than %d characters", MaxCommentLength))
	}

	tier, err := s.progression.CurrentTier(ctx, userID)
	if err != nil {
		return nil, AwardResult{}, err
	}
	if err := AuthorizeAction(tier, models.ActionComment); err != nil {
		metrics.AccessDenied.WithLabelValues(string(models.ActionComment)).Inc()
		return nil, AwardResult{}, err
	}

	var (
		comment *models.Comment
		award   AwardResult
		events  []models.ProgressionEvent
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := repository.New(tx)

		if _, err := repos.Posts.RequiredTier(ctx, contentID); err != nil {
			return err
		}

		comment = &models.Comment{PostID: contentID, UserID: userID, Content: text}
		profile, err := repos.Profiles.Find(ctx, userID)
		if err != nil {
			return err
		}
		if profile != nil {
			comment.Username = profile.Username
			comment.DisplayName = profile.DisplayName
			if profile.ProfileImage != nil {
				comment.ProfileImage = *profile.ProfileImage
			}
		}

		if err := repos.Comments.Create(ctx, comment); err != nil {
			return err
		}
		if err := repos.Posts.AdjustCounter(ctx, contentID, models.ActionComment, 1); err != nil {
			return err
		}

		award, events, err = s.progression.awardXPOnceTx(ctx, tx, userID, contentID, models.ActionComment)
		return err
	})
	if err != nil {
		return nil, AwardResult{}, apperrors.Wrap("engagement.post_comment", err)
	}

	s.progression.afterAward(ctx, userID, contentID, models.ActionComment, award, events)
	return comment, award, nil
}

// ListComments pages the comments of a post, oldest first.
func (s *EngagementService) ListComments(ctx context.Context, postID string, page, size int) (*Page[models.Comment], error) {
	page, size, offset := normalizePage(page, size)
	repos := repository.New(s.DB)

	if _, err := repos.Posts.RequiredTier(ctx, postID); err != nil {
		return nil, err
	}
	comments, total, err := repos.Comments.ListByPost(ctx, postID, offset, size)
	if err != nil {
		return nil, err
	}
	return newPage(comments, page, size, total), nil
}

// Projection computes which of postIDs the user liked and retweeted. IDs are queried in
// fixed-size batches so a page of any length costs len/batchSize round trips per kind.
func (s *EngagementService) Projection(ctx context.Context, userID string, postIDs []string) (*EngagementProjection, error) {
	proj := &EngagementProjection{
		Liked:     make(map[string]bool),
		Retweeted: make(map[string]bool),
	}
	ids := uniqueIDs(postIDs)
	if len(ids) == 0 {
		return proj, nil
	}

	engagements := repository.NewEngagementRepository(s.DB)
	for start := 0; start < len(ids); start += s.batchSize {
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		liked, err := engagements.ActivePostIDs(ctx, models.ActionLike, userID, batch)
		if err != nil {
			return nil, err
		}
		for _, id := range liked {
			proj.Liked[id] = true
		}

		retweeted, err := engagements.ActivePostIDs(ctx, models.ActionRetweet, userID, batch)
		if err != nil {
			return nil, err
		}
		for _, id := range retweeted {
			proj.Retweeted[id] = true
		}
	}
	return proj, nil
}

// ListRetweets returns the user's retweets with the post snapshots they carry.
func (s *EngagementService) ListRetweets(ctx context.Context, userID string, page, size int) ([]models.Retweet, error) {
	_, size, offset := normalizePage(page, size)
	return repository.NewEngagementRepository(s.DB).ListRetweets(ctx, userID, offset, size)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
