// handlers/progression_routes.go
package handlers

import (
	"deluxe-isa/middleware"
	"deluxe-isa/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SetupProgressionRoutes(secured, admin fiber.Router, progressionService *services.ProgressionService, log *zap.Logger) {
	// First visit creates the record, so clients never see USER_NOT_FOUND here.
	secured.Get("/user/progress", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		userID := middleware.UserID(c)

		if _, _, err := progressionService.EnsureUser(ctx, userID); err != nil {
			return respondError(c, log, err)
		}
		view, err := progressionService.GetProgression(ctx, userID)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(view)
	})

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, log, "invalid JSON")
		}
		if req.UserID == "" {
			return badRequest(c, log, "user_id is required")
		}

		res, err := progressionService.GrantXP(c.UserContext(), req.UserID, req.XP, req.Reason)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"result":  res,
		})
	})
}
