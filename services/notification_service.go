package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deluxe-isa/apperrors"
	"deluxe-isa/metrics"
	"deluxe-isa/models"
	"deluxe-isa/repository"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultNotificationTTL = 24 * time.Hour
	bulkSendPageSize       = 500
	maxListedNotifications = 50
)

// Creator is the account notifications appear to come from.
var Creator = struct {
	UserID       string
	Username     string
	DisplayName  string
	ProfileImage string
}{
	UserID:       "isabelle-lua-uid",
	Username:     "isabellelua",
	DisplayName:  "Isabelle Lua",
	ProfileImage: "/beautiful-woman-profile.png",
}

// NotificationService stores per-user notifications and fans them out over redis
// pub/sub when a client is configured. It is the ledger's NotificationSink.
type NotificationService struct {
	DB    *gorm.DB
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewNotificationService(db *gorm.DB, rdb *redis.Client, ttl time.Duration, log *zap.Logger) *NotificationService {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationService{DB: db, redis: rdb, ttl: ttl, log: log, now: time.Now}
}

// ChannelFor is the pub/sub channel carrying a user's new notifications.
func ChannelFor(userID string) string {
	return "notifications:" + userID
}

// Emit turns a progression event into an inbox notification.
func (s *NotificationService) Emit(ctx context.Context, userID string, event models.ProgressionEvent) error {
	n, err := s.fromEvent(ctx, userID, event)
	if err != nil {
		return err
	}
	return s.Notify(ctx, n)
}

func (s *NotificationService) fromEvent(ctx context.Context, userID string, event models.ProgressionEvent) (*models.Notification, error) {
	n := &models.Notification{UserID: userID}
	switch event.Kind {
	case models.EventXPGained:
		n.Type = models.NotificationXPGained
		n.Title = fmt.Sprintf("+%d XP", event.XP)
		n.Message = fmt.Sprintf("Você ganhou %d XP. Total: %d XP.", event.XP, event.TotalXP)
		if event.ContentID != "" {
			n.ActionURL = "/post/" + event.ContentID
		}
	case models.EventTierChanged:
		n.Type = models.NotificationLevelUp
		n.Title = "Nível aumentado!"
		n.Message = fmt.Sprintf("Parabéns! Você alcançou o nível %s!", strings.ToUpper(event.NewTier.String()))
	case models.EventWelcome:
		tmpl, err := repository.NewNotificationRepository(s.DB).FindActiveTemplate(ctx, models.TemplateWelcome)
		if err != nil {
			return nil, err
		}
		n.Type = models.NotificationWelcome
		if tmpl != nil {
			n.Title, n.Message = tmpl.Title, tmpl.Message
		} else {
			n.Title = "Bem-vindo à plataforma! 💕"
			n.Message = "Olá! Seja muito bem-vindo à minha plataforma exclusiva. Aqui você terá acesso a conteúdos especiais e poderá interagir comigo de forma única!"
		}
		stampCreator(n)
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("unknown event kind %q", event.Kind))
	}
	return n, nil
}

func stampCreator(n *models.Notification) {
	n.FromUserID = Creator.UserID
	n.FromUsername = Creator.Username
	n.FromDisplayName = Creator.DisplayName
	n.FromProfileImage = Creator.ProfileImage
}

// Notify stores n with the configured expiry and publishes it.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = s.now().Add(s.ttl)
	}
	if err := repository.NewNotificationRepository(s.DB).Create(ctx, n); err != nil {
		return err
	}
	return s.publish(ctx, n)
}

func (s *NotificationService) publish(ctx context.Context, n *models.Notification) error {
	if s.redis == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.redis.Publish(ctx, ChannelFor(n.UserID), payload).Err(); err != nil {
		return apperrors.NewTransientError("notifications.publish", err)
	}
	return nil
}

// Inbox is a user's active notifications plus the unread count.
type Inbox struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int64                 `json:"unread"`
}

func (s *NotificationService) ListActive(ctx context.Context, userID string) (*Inbox, error) {
	repo := repository.NewNotificationRepository(s.DB)
	now := s.now()
	list, err := repo.ListActive(ctx, userID, now, maxListedNotifications)
	if err != nil {
		return nil, err
	}
	unread, err := repo.CountUnread(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Notification{}
	}
	return &Inbox{Notifications: list, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return repository.NewNotificationRepository(s.DB).MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return repository.NewNotificationRepository(s.DB).MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	return repository.NewNotificationRepository(s.DB).Delete(ctx, userID, id)
}

// CleanupExpired deletes every notification past its expiry.
func (s *NotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := repository.NewNotificationRepository(s.DB).DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	metrics.NotificationsExpired.Add(float64(n))
	return n, nil
}

// CreateTemplate validates and stores a bulk notification template.
func (s *NotificationService) CreateTemplate(ctx context.Context, t *models.NotificationTemplate) error {
	t.Title = strings.TrimSpace(t.Title)
	t.Message = strings.TrimSpace(t.Message)
	if t.Title == "" || t.Message == "" {
		return apperrors.NewInvalidInputError("template title and message are required")
	}
	if !models.ValidTemplateType(t.Type) {
		return apperrors.NewInvalidInputError(fmt.Sprintf("unknown template type %q", t.Type))
	}
	if t.TargetTier != nil && !t.TargetTier.Valid() {
		return apperrors.NewInvalidInputError("invalid target tier")
	}
	return repository.NewNotificationRepository(s.DB).CreateTemplate(ctx, t)
}

func (s *NotificationService) ListTemplates(ctx context.Context) ([]models.NotificationTemplate, error) {
	list, err := repository.NewNotificationRepository(s.DB).ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.NotificationTemplate{}
	}
	return list, nil
}

func (s *NotificationService) DeleteTemplate(ctx context.Context, id string) error {
	return repository.NewNotificationRepository(s.DB).DeleteTemplate(ctx, id)
}

// SendTemplate delivers a template to every user in its target tier (or everyone).
// Users are walked in id order, one page per insert batch.
func (s *NotificationService) SendTemplate(ctx context.Context, templateID string) (int, error) {
	repos := repository.New(s.DB)
	tmpl, err := repos.Notifications.GetTemplate(ctx, templateID)
	if err != nil {
		return 0, err
	}
	if !tmpl.IsActive {
		return 0, apperrors.NewInvalidInputError("template is not active")
	}

	sent := 0
	cursor := ""
	for {
		ids, err := repos.Progression.ListUserIDs(ctx, tmpl.TargetTier, cursor, bulkSendPageSize)
		if err != nil {
			return sent, err
		}
		if len(ids) == 0 {
			break
		}

		expires := s.now().Add(s.ttl)
		batch := make([]models.Notification, len(ids))
		for i, id := range ids {
			batch[i] = models.Notification{
				UserID:    id,
				Type:      tmpl.Type.NotificationType(),
				Title:     tmpl.Title,
				Message:   tmpl.Message,
				ExpiresAt: expires,
			}
			stampCreator(&batch[i])
		}
		if err := repos.Notifications.CreateBatch(ctx, batch); err != nil {
			return sent, err
		}
		for i := range batch {
			if err := s.publish(ctx, &batch[i]); err != nil {
				s.log.Warn("bulk notification publish failed", zap.String("user_id", batch[i].UserID), zap.Error(err))
			}
		}

		sent += len(ids)
		cursor = ids[len(ids)-1]
		if len(ids) < bulkSendPageSize {
			break
		}
	}

	s.log.Info("template sent", zap.String("template_id", templateID), zap.Int("recipients", sent))
	return sent, nil
}

// Subscribe opens a pub/sub subscription on the user's channel. Callers must Close it.
func (s *NotificationService) Subscribe(ctx context.Context, userID string) (*redis.PubSub, error) {
	if s.redis == nil {
		return nil, apperrors.NewUnavailableError("realtime notifications are not configured")
	}
	sub := s.redis.Subscribe(ctx, ChannelFor(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, apperrors.NewTransientError("notifications.subscribe", err)
	}
	return sub, nil
}
