package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"
	"deluxe-isa/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEmitBuildsInboxEntries(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.Emit(ctx, "u1", models.ProgressionEvent{
		Kind: models.EventXPGained, UserID: "u1", ContentID: "p1", XP: 100, TotalXP: 500,
	}))
	require.NoError(t, svc.Emit(ctx, "u1", models.ProgressionEvent{
		Kind: models.EventTierChanged, UserID: "u1", OldTier: models.TierBronze, NewTier: models.TierPrata,
	}))
	require.NoError(t, svc.Emit(ctx, "u1", models.ProgressionEvent{Kind: models.EventWelcome, UserID: "u1"}))

	inbox, err := svc.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 3)
	assert.Equal(t, int64(3), inbox.Unread)

	byType := map[models.NotificationType]models.Notification{}
	for _, n := range inbox.Notifications {
		byType[n.Type] = n
	}
	assert.Equal(t, "+100 XP", byType[models.NotificationXPGained].Title)
	assert.Equal(t, "/post/p1", byType[models.NotificationXPGained].ActionURL)
	assert.Contains(t, byType[models.NotificationLevelUp].Message, "PRATA")
	assert.Equal(t, Creator.UserID, byType[models.NotificationWelcome].FromUserID)

	err = svc.Emit(ctx, "u1", models.ProgressionEvent{Kind: "bogus"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestWelcomeUsesActiveTemplate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.CreateTemplate(ctx, &models.NotificationTemplate{
		Title: "Oi!", Message: "Bem-vinda", Type: models.TemplateWelcome, IsActive: true,
	}))
	require.NoError(t, svc.Emit(ctx, "u1", models.ProgressionEvent{Kind: models.EventWelcome, UserID: "u1"}))

	inbox, err := svc.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, "Oi!", inbox.Notifications[0].Title)
}

func TestInboxReadAndDelete(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	a := &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "a"}
	b := &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "b"}
	require.NoError(t, svc.Notify(ctx, a))
	require.NoError(t, svc.Notify(ctx, b))

	require.NoError(t, svc.MarkRead(ctx, "u1", a.ID))
	err := svc.MarkRead(ctx, "someone-else", b.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	inbox, err := svc.ListActive(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), inbox.Unread)

	n, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, svc.Delete(ctx, "u1", a.ID))
	inbox, err = svc.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, b.ID, inbox.Notifications[0].ID)
	assert.Zero(t, inbox.Unread)
}

func TestCleanupExpired(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, 24*time.Hour, zaptest.NewLogger(t))
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.Notify(ctx, &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "old"}))

	svc.now = func() time.Time { return base.Add(23 * time.Hour) }
	require.NoError(t, svc.Notify(ctx, &models.Notification{UserID: "u1", Type: models.NotificationSystem, Title: "new"}))

	svc.now = func() time.Time { return base.Add(25 * time.Hour) }
	inbox, err := svc.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, "new", inbox.Notifications[0].Title)

	removed, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var left int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&left).Error)
	assert.Equal(t, int64(1), left)
}

func TestSendTemplateTargetsTier(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	testutil.SeedUser(t, db, "a", 0)
	testutil.SeedUser(t, db, "b", 1500)
	testutil.SeedUser(t, db, "c", 2000)
	testutil.SeedUser(t, db, "d", 6000)

	gold := models.TierGold
	tmpl := &models.NotificationTemplate{
		Title: "Gold drop", Message: "new set", Type: models.TemplatePromotion, TargetTier: &gold, IsActive: true,
	}
	require.NoError(t, svc.CreateTemplate(ctx, tmpl))

	sent, err := svc.SendTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	var recipients []string
	require.NoError(t, db.Model(&models.Notification{}).Order("user_id").Pluck("user_id", &recipients).Error)
	assert.Equal(t, []string{"b", "c"}, recipients)

	everyone := &models.NotificationTemplate{
		Title: "Hi all", Message: "news", Type: models.TemplateAnnouncement, IsActive: true,
	}
	require.NoError(t, svc.CreateTemplate(ctx, everyone))
	sent, err = svc.SendTemplate(ctx, everyone.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, sent)

	inactive := &models.NotificationTemplate{Title: "x", Message: "y", Type: models.TemplateCustom}
	require.NoError(t, svc.CreateTemplate(ctx, inactive))
	_, err = svc.SendTemplate(ctx, inactive.ID)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestCreateTemplateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(db, nil, 0, zaptest.NewLogger(t))
	ctx := context.Background()

	err := svc.CreateTemplate(ctx, &models.NotificationTemplate{Title: " ", Message: "m", Type: models.TemplateCustom})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	err = svc.CreateTemplate(ctx, &models.NotificationTemplate{Title: "t", Message: "m", Type: "spam"})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	list, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNotifyPublishesToUserChannel(t *testing.T) {
	db := testutil.NewDB(t)
	_, rdb := testutil.NewRedis(t)
	svc := NewNotificationService(db, rdb, 0, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := svc.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Notify(ctx, &models.Notification{UserID: "u1", Type: models.NotificationMessage, Title: "ping"}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, ChannelFor("u1"), msg.Channel)

	var got models.Notification
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "ping", got.Title)
	assert.NotEmpty(t, got.ID)
}

func TestSubscribeWithoutRedis(t *testing.T) {
	svc := NewNotificationService(testutil.NewDB(t), nil, 0, zaptest.NewLogger(t))

	_, err := svc.Subscribe(context.Background(), "u1")
	assert.True(t, errors.Is(err, apperrors.ErrUnavailable))
}

func TestProgressionFeedsNotifications(t *testing.T) {
	db := testutil.NewDB(t)
	log := zaptest.NewLogger(t)
	notifications := NewNotificationService(db, nil, 0, log)
	progression := NewProgressionService(db, notifications, log)
	ctx := context.Background()

	testutil.SeedUser(t, db, "u1", 450)
	_, err := progression.AwardXPOnce(ctx, "u1", "p1", models.ActionLike)
	require.NoError(t, err)

	inbox, err := notifications.ListActive(ctx, "u1")
	require.NoError(t, err)
	types := map[models.NotificationType]bool{}
	for _, n := range inbox.Notifications {
		types[n.Type] = true
	}
	assert.True(t, types[models.NotificationXPGained])
	assert.True(t, types[models.NotificationLevelUp])
}
