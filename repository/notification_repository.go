package repository

import (
	"context"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	CreateBatch(ctx context.Context, ns []models.Notification) error
	// ListActive returns unexpired notifications, newest first.
	ListActive(ctx context.Context, userID string, now time.Time, limit int) ([]models.Notification, error)
	ListSince(ctx context.Context, userID string, since, now time.Time) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID string, now time.Time) (int64, error)
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	CreateTemplate(ctx context.Context, t *models.NotificationTemplate) error
	GetTemplate(ctx context.Context, id string) (*models.NotificationTemplate, error)
	ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error)
	// FindActiveTemplate returns the newest active template of the given type, or nil.
	FindActiveTemplate(ctx context.Context, t models.TemplateType) (*models.NotificationTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return storeErr("notifications.create", err)
	}
	return nil
}

func (r *notificationRepository) CreateBatch(ctx context.Context, ns []models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(ns, 100).Error; err != nil {
		return storeErr("notifications.create_batch", err)
	}
	return nil
}

func (r *notificationRepository) ListActive(ctx context.Context, userID string, now time.Time, limit int) ([]models.Notification, error) {
	var res []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("created_at DESC").
		Limit(limit).
		Find(&res).Error
	if err != nil {
		return nil, storeErr("notifications.list_active", err)
	}
	return res, nil
}

func (r *notificationRepository) ListSince(ctx context.Context, userID string, since, now time.Time) ([]models.Notification, error) {
	var res []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ? AND expires_at > ?", userID, since, now).
		Order("created_at ASC").
		Find(&res).Error
	if err != nil {
		return nil, storeErr("notifications.list_since", err)
	}
	return res, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string, now time.Time) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ? AND expires_at > ?", userID, false, now).
		Count(&cnt).Error
	if err != nil {
		return 0, storeErr("notifications.count_unread", err)
	}
	return cnt, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return storeErr("notifications.mark_read", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("notification", id)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, storeErr("notifications.mark_all_read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return storeErr("notifications.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("notification", id)
	}
	return nil
}

func (r *notificationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Notification{})
	if res.Error != nil {
		return 0, storeErr("notifications.delete_expired", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) CreateTemplate(ctx context.Context, t *models.NotificationTemplate) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return storeErr("templates.create", err)
	}
	return nil
}

func (r *notificationRepository) GetTemplate(ctx context.Context, id string) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if isNotFound(err) {
		return nil, apperrors.NewNotFoundError("notification template", id)
	}
	if err != nil {
		return nil, storeErr("templates.get", err)
	}
	return &t, nil
}

func (r *notificationRepository) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	var res []models.NotificationTemplate
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, storeErr("templates.list", err)
	}
	return res, nil
}

func (r *notificationRepository) DeleteTemplate(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.NotificationTemplate{})
	if res.Error != nil {
		return storeErr("templates.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("notification template", id)
	}
	return nil
}

func (r *notificationRepository) FindActiveTemplate(ctx context.Context, t models.TemplateType) (*models.NotificationTemplate, error) {
	var res []models.NotificationTemplate
	err := r.db.WithContext(ctx).
		Where("type = ? AND is_active = ?", t, true).
		Order("created_at DESC").
		Limit(1).
		Find(&res).Error
	if err != nil {
		return nil, storeErr("templates.find_active", err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	return &res[0], nil
}
