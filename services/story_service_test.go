package services

import (
	"context"
	"errors"
	"testing"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"
	"deluxe-isa/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func strPtr(s string) *string { return &s }

func TestStoriesLockAboveViewerTier(t *testing.T) {
	f := newFixture(t)
	stories := NewStoryService(f.db, f.progression, zaptest.NewLogger(t))
	ctx := context.Background()
	testutil.SeedUser(t, f.db, "bronze", 0)

	bronze := models.TierBronze
	open, err := stories.Create(ctx, StoryInput{Name: strPtr("Praia"), Images: []string{"1.jpg"}, RequiredTier: &bronze})
	require.NoError(t, err)
	vip, err := stories.Create(ctx, StoryInput{Name: strPtr("VIP"), Images: []string{"2.jpg"}})
	require.NoError(t, err)
	assert.Equal(t, models.TierGold, vip.RequiredTier)

	views, err := stories.ListForViewer(ctx, "bronze")
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		switch v.ID {
		case open.ID:
			assert.False(t, v.Locked)
			assert.Equal(t, []string{"1.jpg"}, v.Images)
		case vip.ID:
			assert.True(t, v.Locked)
			assert.Empty(t, v.Images)
		}
	}
}

func TestStoryUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	stories := NewStoryService(f.db, f.progression, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := stories.Create(ctx, StoryInput{Name: strPtr("  ")})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	st, err := stories.Create(ctx, StoryInput{Name: strPtr("Old")})
	require.NoError(t, err)

	updated, err := stories.Update(ctx, st.ID, StoryInput{Name: strPtr("New"), CoverImage: strPtr("c.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "c.jpg", updated.CoverImage)

	bad := models.Tier(-1)
	_, err = stories.Update(ctx, st.ID, StoryInput{RequiredTier: &bad})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	require.NoError(t, stories.Delete(ctx, st.ID))
	_, err = stories.Update(ctx, st.ID, StoryInput{Name: strPtr("x")})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
