package handlers

import (
	"strings"

	"deluxe-isa/apperrors"
	"deluxe-isa/middleware"
	"deluxe-isa/models"
	"deluxe-isa/services"
	"deluxe-isa/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func SetupStoryRoutes(secured, admin fiber.Router, storyService *services.StoryService, media utils.MediaStore, log *zap.Logger) {
	secured.Get("/stories", func(c *fiber.Ctx) error {
		views, err := storyService.ListForViewer(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(views)
	})

	parse := func(c *fiber.Ctx) (services.StoryInput, error) {
		var in services.StoryInput
		if !isMultipart(c) {
			if err := c.BodyParser(&in); err != nil {
				return in, apperrors.NewInvalidInputError("invalid JSON")
			}
			return in, nil
		}

		form, err := c.MultipartForm()
		if err != nil {
			return in, apperrors.NewInvalidInputError("invalid multipart form")
		}
		if vals := form.Value["name"]; len(vals) > 0 {
			in.Name = &vals[0]
		}
		if raw := strings.TrimSpace(c.FormValue("required_tier")); raw != "" {
			tier, err := models.ParseTier(raw)
			if err != nil {
				return in, err
			}
			in.RequiredTier = &tier
		}
		if len(form.File["cover"]) > 0 || len(form.File["images"]) > 0 {
			if media == nil {
				return in, apperrors.NewInvalidInputError("media uploads are not configured")
			}
		}
		covers, err := uploadAll(c.UserContext(), media, "stories", form.File["cover"])
		if err != nil {
			return in, err
		}
		if len(covers) > 0 {
			in.CoverImage = &covers[0]
		}
		in.Images, err = uploadAll(c.UserContext(), media, "stories", form.File["images"])
		return in, err
	}

	admin.Post("/stories", func(c *fiber.Ctx) error {
		in, err := parse(c)
		if err != nil {
			return respondError(c, log, err)
		}
		story, err := storyService.Create(c.UserContext(), in)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(story)
	})

	admin.Put("/stories/:id", func(c *fiber.Ctx) error {
		in, err := parse(c)
		if err != nil {
			return respondError(c, log, err)
		}
		story, err := storyService.Update(c.UserContext(), c.Params("id"), in)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(story)
	})

	admin.Delete("/stories/:id", func(c *fiber.Ctx) error {
		if err := storyService.Delete(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
