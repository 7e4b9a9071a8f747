package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"
	"deluxe-isa/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjustCounterFloorsAtZero(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	post := testutil.SeedPost(t, db, "isa", models.TierGold)
	repo := NewPostRepository(db)

	require.NoError(t, repo.AdjustCounter(ctx, post.ID, models.ActionLike, 1))
	require.NoError(t, repo.AdjustCounter(ctx, post.ID, models.ActionLike, -1))
	require.NoError(t, repo.AdjustCounter(ctx, post.ID, models.ActionLike, -1))

	got, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.LikeCount)

	err = repo.AdjustCounter(ctx, "missing", models.ActionLike, 1)
	assert.True(t, errors.Is(err, apperrors.ErrContentNotFound))

	err = repo.AdjustCounter(ctx, post.ID, models.Action("share"), 1)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAction))
}

func TestAwardCreateIfAbsent(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewAwardRepository(db)

	created, err := repo.CreateIfAbsent(ctx, "u1", "p1", models.ActionLike, 100)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfAbsent(ctx, "u1", "p1", models.ActionLike, 100)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = repo.CreateIfAbsent(ctx, "u1", "p1", models.ActionRetweet, 150)
	require.NoError(t, err)
	assert.True(t, created)

	exists, err := repo.Exists(ctx, "u1", "p1", models.ActionLike)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEngagementCreateIsConflictSafe(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	post := testutil.SeedPost(t, db, "isa", models.TierGold)
	repo := NewEngagementRepository(db)

	created, err := repo.Create(ctx, models.ActionRetweet, "u1", post, "")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, models.ActionRetweet, "u1", post, "")
	require.NoError(t, err)
	assert.False(t, created)

	rts, err := repo.ListRetweets(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, rts, 1)
	assert.Equal(t, "isa", rts[0].OriginalAuthorID)
	assert.Equal(t, "hello", rts[0].OriginalPost.Content)
	assert.Equal(t, []string{"https://cdn.example/a.jpg"}, rts[0].OriginalPost.Images)

	deleted, err := repo.Delete(ctx, models.ActionRetweet, "u1", post.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, models.ActionRetweet, "u1", post.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = repo.Create(ctx, models.ActionComment, "u1", post, "")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidAction))
}

func TestProgressionApplyXP(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewProgressionRepository(db)

	prog, created, err := repo.CreateIfAbsent(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.TierBronze, prog.CurrentTier)

	_, created, err = repo.CreateIfAbsent(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)

	cur, err := repo.GetForUpdate(ctx, "u1")
	require.NoError(t, err)
	next, err := repo.ApplyXP(ctx, cur, 450)
	require.NoError(t, err)
	assert.Equal(t, models.TierBronze, next.CurrentTier)
	assert.Equal(t, int64(450), next.CurrentPeriodXP)

	cur, err = repo.GetForUpdate(ctx, "u1")
	require.NoError(t, err)
	next, err = repo.ApplyXP(ctx, cur, 100)
	require.NoError(t, err)
	assert.Equal(t, models.TierPrata, next.CurrentTier)
	assert.Equal(t, int64(50), next.CurrentPeriodXP)
	require.NotNil(t, next.LastTierUpAt)

	stored, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(550), stored.TotalXP)
	assert.Equal(t, models.TierPrata, stored.CurrentTier)
	assert.Equal(t, int64(50), stored.CurrentPeriodXP)

	_, err = repo.Get(ctx, "ghost")
	assert.True(t, errors.Is(err, apperrors.ErrUserNotFound))
}

func TestProgressionListUserIDsByTier(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	testutil.SeedUser(t, db, "a", 0)
	testutil.SeedUser(t, db, "b", 1600)
	testutil.SeedUser(t, db, "c", 1700)
	repo := NewProgressionRepository(db)

	gold := models.TierGold
	ids, err := repo.ListUserIDs(ctx, &gold, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)

	ids, err = repo.ListUserIDs(ctx, nil, "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestNotificationExpiry(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)
	now := time.Now()

	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "new", ExpiresAt: now.Add(time.Hour)}))

	active, err := repo.ListActive(ctx, "u1", now, 50)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "new", active[0].Title)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	err = repo.MarkRead(ctx, "someone-else", active[0].ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	require.NoError(t, repo.MarkRead(ctx, "u1", active[0].ID))

	unread, err := repo.CountUnread(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestProfileUpsert(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	repo := NewProfileRepository(db)

	require.NoError(t, repo.Upsert(ctx, []models.Profile{{ExternalUserID: "u1", Username: "ana"}}))
	require.NoError(t, repo.Upsert(ctx, []models.Profile{{ExternalUserID: "u1", Username: "ana_b", DisplayName: "Ana"}}))

	p, err := repo.Find(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "ana_b", p.Username)
	assert.Equal(t, "Ana", p.DisplayName)

	missing, err := repo.Find(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
