package services

import (
	"context"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/metrics"
	"deluxe-isa/models"
	"deluxe-isa/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// XPWeights is the XP credited per action.
type XPWeights struct {
	Like    int64
	Comment int64
	Retweet int64
}

var DefaultXPWeights = XPWeights{
	Like:    100,
	Comment: 200,
	Retweet: 150,
}

// XPForAction returns the XP an action is worth; unknown actions are worth nothing.
func XPForAction(action models.Action) int64 {
	switch action {
	case models.ActionLike:
		return DefaultXPWeights.Like
	case models.ActionComment:
		return DefaultXPWeights.Comment
	case models.ActionRetweet:
		return DefaultXPWeights.Retweet
	}
	return 0
}

// NotificationSink receives progression events. Delivery is best effort from the
// ledger's point of view: failures are logged, not returned to the caller.
type NotificationSink interface {
	Emit(ctx context.Context, userID string, event models.ProgressionEvent) error
}

// NopSink drops every event.
type NopSink struct{}

func (NopSink) Emit(context.Context, string, models.ProgressionEvent) error { return nil }

// AwardResult is the outcome of a single award attempt.
type AwardResult struct {
	Awarded     bool        `json:"awarded"`
	XPGained    int64       `json:"xp_gained"`
	NewTier     models.Tier `json:"new_tier"`
	TierChanged bool        `json:"tier_changed"`
}

// ProgressionView is a user's progression plus what is left to the next tier.
type ProgressionView struct {
	*models.UserProgression
	NextTier     *models.Tier `json:"next_tier"`
	XPToNextTier int64        `json:"xp_to_next_tier"`
}

type ProgressionService struct {
	DB   *gorm.DB
	sink NotificationSink
	log  *zap.Logger
}

func NewProgressionService(db *gorm.DB, sink NotificationSink, log *zap.Logger) *ProgressionService {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProgressionService{DB: db, sink: sink, log: log}
}

// EnsureUser creates the progression record for a new account (total XP 0, lowest tier).
// Calling it again for an existing user is a no-op; created reports which case happened.
func (s *ProgressionService) EnsureUser(ctx context.Context, userID string) (*models.UserProgression, bool, error) {
	if userID == "" {
		return nil, false, apperrors.NewInvalidInputError("user id is required")
	}
	prog, created, err := repository.NewProgressionRepository(s.DB).CreateIfAbsent(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("progression record created", zap.String("user_id", userID))
		s.emit(ctx, []models.ProgressionEvent{{
			Kind:       models.EventWelcome,
			UserID:     userID,
			NewTier:    prog.CurrentTier,
			OccurredAt: time.Now().UTC(),
		}})
	}
	return prog, created, nil
}

// GetProgression returns the user's record and distance to the next tier.
func (s *ProgressionService) GetProgression(ctx context.Context, userID string) (*ProgressionView, error) {
	prog, err := repository.NewProgressionRepository(s.DB).Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := &ProgressionView{
		UserProgression: prog,
		XPToNextTier:    models.XPToNextTier(prog.TotalXP),
	}
	if next, ok := prog.CurrentTier.Next(); ok {
		view.NextTier = &next
	}
	return view, nil
}

// CurrentTier loads the tier the policy checks run against.
func (s *ProgressionService) CurrentTier(ctx context.Context, userID string) (models.Tier, error) {
	prog, err := repository.NewProgressionRepository(s.DB).Get(ctx, userID)
	if err != nil {
		return models.TierBronze, err
	}
	return prog.CurrentTier, nil
}

// AwardXPOnce credits XPForAction(action) to the user the first time (user, content, action)
// is seen and never again. Safe to retry and safe under concurrent duplicates.
func (s *ProgressionService) AwardXPOnce(ctx context.Context, userID, contentID string, action models.Action) (AwardResult, error) {
	var (
		res    AwardResult
		events []models.ProgressionEvent
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, events, err = s.awardXPOnceTx(ctx, tx, userID, contentID, action)
		return err
	})
	if err != nil {
		return AwardResult{}, apperrors.Wrap("progression.award_xp_once", err)
	}
	s.afterAward(ctx, userID, contentID, action, res, events)
	return res, nil
}

// awardXPOnceTx runs the award inside tx. The user row is locked first, which serializes
// awards per user; the tracking insert is conditional, so only one caller ever credits.
func (s *ProgressionService) awardXPOnceTx(ctx context.Context, tx *gorm.DB, userID, contentID string, action models.Action) (AwardResult, []models.ProgressionEvent, error) {
	if _, err := models.ParseAction(string(action)); err != nil {
		return AwardResult{}, nil, err
	}
	repos := repository.New(tx)

	prog, err := repos.Progression.GetForUpdate(ctx, userID)
	if err != nil {
		return AwardResult{}, nil, err
	}

	xp := XPForAction(action)
	created, err := repos.Awards.CreateIfAbsent(ctx, userID, contentID, action, xp)
	if err != nil {
		return AwardResult{}, nil, err
	}
	if !created {
		return AwardResult{NewTier: prog.CurrentTier}, nil, nil
	}

	next, err := repos.Progression.ApplyXP(ctx, prog, xp)
	if err != nil {
		return AwardResult{}, nil, err
	}

	res := AwardResult{
		Awarded:     true,
		XPGained:    xp,
		NewTier:     next.CurrentTier,
		TierChanged: next.CurrentTier != prog.CurrentTier,
	}
	return res, progressionEvents(prog, next, contentID, action, xp), nil
}

// GrantXP credits xp without a tracking record (admin grants, promotions).
func (s *ProgressionService) GrantXP(ctx context.Context, userID string, xp int64, reason string) (AwardResult, error) {
	if xp <= 0 {
		return AwardResult{}, apperrors.NewInvalidInputError("xp must be positive")
	}

	var (
		res    AwardResult
		events []models.ProgressionEvent
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progression := repository.NewProgressionRepository(tx)
		prog, err := progression.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		next, err := progression.ApplyXP(ctx, prog, xp)
		if err != nil {
			return err
		}
		res = AwardResult{
			Awarded:     true,
			XPGained:    xp,
			NewTier:     next.CurrentTier,
			TierChanged: next.CurrentTier != prog.CurrentTier,
		}
		events = progressionEvents(prog, next, "", "", xp)
		return nil
	})
	if err != nil {
		return AwardResult{}, apperrors.Wrap("progression.grant_xp", err)
	}

	s.log.Info("xp granted",
		zap.String("user_id", userID),
		zap.Int64("xp", xp),
		zap.String("reason", reason),
		zap.Stringer("tier", res.NewTier),
	)
	if res.TierChanged {
		metrics.TierChanges.WithLabelValues(res.NewTier.String()).Inc()
	}
	s.emit(ctx, events)
	return res, nil
}

func progressionEvents(before, after *models.UserProgression, contentID string, action models.Action, xp int64) []models.ProgressionEvent {
	now := time.Now().UTC()
	events := []models.ProgressionEvent{{
		Kind:       models.EventXPGained,
		UserID:     after.UserID,
		ContentID:  contentID,
		Action:     action,
		XP:         xp,
		TotalXP:    after.TotalXP,
		OldTier:    before.CurrentTier,
		NewTier:    after.CurrentTier,
		OccurredAt: now,
	}}
	if after.CurrentTier != before.CurrentTier {
		events = append(events, models.ProgressionEvent{
			Kind:       models.EventTierChanged,
			UserID:     after.UserID,
			ContentID:  contentID,
			Action:     action,
			XP:         xp,
			TotalXP:    after.TotalXP,
			OldTier:    before.CurrentTier,
			NewTier:    after.CurrentTier,
			OccurredAt: now,
		})
	}
	return events
}

// afterAward records metrics and logs once the award transaction has committed.
func (s *ProgressionService) afterAward(ctx context.Context, userID, contentID string, action models.Action, res AwardResult, events []models.ProgressionEvent) {
	if !res.Awarded {
		metrics.AwardsSkipped.WithLabelValues(string(action)).Inc()
		return
	}
	metrics.XPAwarded.WithLabelValues(string(action)).Add(float64(res.XPGained))
	if res.TierChanged {
		metrics.TierChanges.WithLabelValues(res.NewTier.String()).Inc()
	}
	s.log.Info("xp awarded",
		zap.String("user_id", userID),
		zap.String("content_id", contentID),
		zap.String("action", string(action)),
		zap.Int64("xp", res.XPGained),
		zap.Stringer("tier", res.NewTier),
		zap.Bool("tier_changed", res.TierChanged),
	)
	s.emit(ctx, events)
}

func (s *ProgressionService) emit(ctx context.Context, events []models.ProgressionEvent) {
	for _, ev := range events {
		if err := s.sink.Emit(ctx, ev.UserID, ev); err != nil {
			metrics.NotificationEmitFailures.Inc()
			s.log.Warn("notification emit failed",
				zap.String("user_id", ev.UserID),
				zap.String("event", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}
