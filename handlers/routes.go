package handlers

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"deluxe-isa/middleware"
	"deluxe-isa/services"
	"deluxe-isa/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer calls into.
type Deps struct {
	Progression    *services.ProgressionService
	Engagement     *services.EngagementService
	Posts          *services.PostService
	Notifications  *services.NotificationService
	Stories        *services.StoryService
	Media          utils.MediaStore
	Log            *zap.Logger
	RequestTimeout time.Duration
}

// Register mounts every user and admin route. The gateway forwards paths like
// /api/v1/isa/s/posts -> /posts with X-User-ID and X-User-Roles set.
func Register(app *fiber.App, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 5 * time.Second
	}

	secured := app.Group("/", middleware.UserContextMiddleware(d.Log), middleware.RequestTimeout(d.RequestTimeout))
	admin := secured.Group("/admin", middleware.RequireRole("admin"))

	SetupProgressionRoutes(secured, admin, d.Progression, d.Log)
	SetupPostRoutes(secured, admin, d)
	SetupNotificationRoutes(secured, admin, d.Notifications, d.Log)
	SetupStoryRoutes(secured, admin, d.Stories, d.Media, d.Log)
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// uploadAll stores every file in order and returns their URLs.
func uploadAll(ctx context.Context, store utils.MediaStore, folder string, files []*multipart.FileHeader) ([]string, error) {
	var urls []string
	for _, fh := range files {
		if fh == nil || fh.Size == 0 {
			continue
		}
		url, err := store.Put(ctx, folder, fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
