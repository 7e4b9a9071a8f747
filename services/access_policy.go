package services

import (
	"fmt"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"
)

// actionMinTier is the lowest tier allowed to perform each action.
var actionMinTier = map[models.Action]models.Tier{
	models.ActionLike:    models.TierBronze,
	models.ActionRetweet: models.TierPrata,
	models.ActionComment: models.TierGold,
}

// CanView reports whether a viewer at viewer may see content requiring required.
// Content labelled Gold, the default "free" label, is visible from Prata up.
func CanView(viewer, required models.Tier) bool {
	if required == models.TierGold {
		required = models.TierPrata
	}
	return viewer.Rank() >= required.Rank()
}

// CanPerformAction reports whether viewer may perform action. Unknown actions are never allowed.
func CanPerformAction(viewer models.Tier, action models.Action) bool {
	minTier, ok := actionMinTier[action]
	if !ok {
		return false
	}
	return viewer.Rank() >= minTier.Rank()
}

// AuthorizeAction is CanPerformAction with a typed reason for the refusal.
func AuthorizeAction(viewer models.Tier, action models.Action) error {
	minTier, ok := actionMinTier[action]
	if !ok {
		return apperrors.NewInvalidActionError(string(action))
	}
	if viewer.Rank() < minTier.Rank() {
		return apperrors.NewUnauthorizedError(fmt.Sprintf("%s requires %s, viewer is %s", action, minTier, viewer))
	}
	return nil
}

// MinimumTierFor returns the tier an action unlocks at.
func MinimumTierFor(action models.Action) (models.Tier, bool) {
	t, ok := actionMinTier[action]
	return t, ok
}
