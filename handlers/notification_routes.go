package handlers

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"deluxe-isa/middleware"
	"deluxe-isa/models"
	"deluxe-isa/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const sseHeartbeat = 15 * time.Second

func SetupNotificationRoutes(secured, admin fiber.Router, notificationService *services.NotificationService, log *zap.Logger) {
	secured.Get("/notifications", func(c *fiber.Ctx) error {
		inbox, err := notificationService.ListActive(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(inbox)
	})

	secured.Get("/notifications/stream", streamNotifications(notificationService, log))

	secured.Patch("/notifications/read-all", func(c *fiber.Ctx) error {
		n, err := notificationService.MarkAllRead(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(fiber.Map{"updated": n})
	})

	secured.Patch("/notifications/:id/read", func(c *fiber.Ctx) error {
		if err := notificationService.MarkRead(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	secured.Delete("/notifications/:id", func(c *fiber.Ctx) error {
		if err := notificationService.Delete(c.UserContext(), middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin.Post("/notification-templates", func(c *fiber.Ctx) error {
		var req struct {
			Title      string `json:"title"`
			Message    string `json:"message"`
			Type       string `json:"type"`
			TargetTier string `json:"target_tier"`
			IsActive   *bool  `json:"is_active"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, log, "invalid JSON")
		}

		tmpl := &models.NotificationTemplate{
			Title:     req.Title,
			Message:   req.Message,
			Type:      models.TemplateType(strings.ToLower(strings.TrimSpace(req.Type))),
			IsActive:  req.IsActive == nil || *req.IsActive,
			CreatedBy: middleware.UserID(c),
		}
		if target := strings.TrimSpace(req.TargetTier); target != "" && !strings.EqualFold(target, "all") {
			tier, err := models.ParseTier(target)
			if err != nil {
				return respondError(c, log, err)
			}
			tmpl.TargetTier = &tier
		}

		if err := notificationService.CreateTemplate(c.UserContext(), tmpl); err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(tmpl)
	})

	admin.Get("/notification-templates", func(c *fiber.Ctx) error {
		list, err := notificationService.ListTemplates(c.UserContext())
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(list)
	})

	admin.Delete("/notification-templates/:id", func(c *fiber.Ctx) error {
		if err := notificationService.DeleteTemplate(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin.Post("/notification-templates/:id/send", func(c *fiber.Ctx) error {
		sent, err := notificationService.SendTemplate(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(fiber.Map{"sent": sent})
	})
}

// streamNotifications relays the user's redis channel as server-sent events until the
// client goes away.
func streamNotifications(notificationService *services.NotificationService, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		sub, err := notificationService.Subscribe(c.UserContext(), userID)
		if err != nil {
			return respondError(c, log, err)
		}

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no") // nginx

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer sub.Close()
			heartbeat := time.NewTicker(sseHeartbeat)
			defer heartbeat.Stop()

			messages := sub.Channel()

			_, _ = w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case msg, ok := <-messages:
					if !ok {
						return
					}
					fmt.Fprintf(w, "event: notification\ndata: %s\n\n", msg.Payload)
					if err := w.Flush(); err != nil {
						log.Debug("SSE client disconnected", zap.String("user_id", userID))
						return
					}
				case <-heartbeat.C:
					_, _ = w.WriteString(":\n\n")
					if err := w.Flush(); err != nil {
						log.Debug("SSE client disconnected", zap.String("user_id", userID))
						return
					}
				}
			}
		})
		return nil
	}
}
