package handlers

import (
	"strings"

	"deluxe-isa/middleware"
	"deluxe-isa/models"
	"deluxe-isa/services"

	"github.com/gofiber/fiber/v2"
)

const maxProjectionIDs = 1000

func SetupPostRoutes(secured, admin fiber.Router, d Deps) {
	log := d.Log

	secured.Get("/posts", func(c *fiber.Ctx) error {
		page, err := d.Posts.Feed(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("size", 20))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(page)
	})

	// Batched liked/retweeted flags for a page of post ids the client already holds.
	secured.Post("/posts/engagement", func(c *fiber.Ctx) error {
		var req struct {
			PostIDs []string `json:"post_ids"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, log, "invalid JSON")
		}
		if len(req.PostIDs) > maxProjectionIDs {
			return badRequest(c, log, "too many post ids")
		}
		proj, err := d.Engagement.Projection(c.UserContext(), middleware.UserID(c), req.PostIDs)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(proj)
	})

	secured.Get("/posts/:id", func(c *fiber.Ctx) error {
		item, err := d.Posts.GetPost(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(item)
	})

	secured.Post("/posts/:id/like", func(c *fiber.Ctx) error {
		res, err := d.Engagement.ToggleEngagement(c.UserContext(), middleware.UserID(c), c.Params("id"), models.ActionLike, "")
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(res)
	})

	secured.Post("/posts/:id/retweet", func(c *fiber.Ctx) error {
		var req struct {
			OwnerID string `json:"owner_id"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, log, "invalid JSON")
			}
		}
		res, err := d.Engagement.ToggleEngagement(c.UserContext(), middleware.UserID(c), c.Params("id"), models.ActionRetweet, req.OwnerID)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(res)
	})

	secured.Post("/posts/:id/comments", func(c *fiber.Ctx) error {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, log, "invalid JSON")
		}
		comment, award, err := d.Engagement.PostComment(c.UserContext(), middleware.UserID(c), c.Params("id"), req.Content)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"comment": comment,
			"award":   award,
		})
	})

	secured.Get("/posts/:id/comments", func(c *fiber.Ctx) error {
		page, err := d.Engagement.ListComments(c.UserContext(), c.Params("id"), c.QueryInt("page", 1), c.QueryInt("size", 20))
		if err != nil {
			return respondError(c, log, err)
		}
		return c.JSON(page)
	})

	secured.Get("/user/retweets", func(c *fiber.Ctx) error {
		list, err := d.Engagement.ListRetweets(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("size", 20))
		if err != nil {
			return respondError(c, log, err)
		}
		if list == nil {
			list = []models.Retweet{}
		}
		return c.JSON(list)
	})

	// Accepts JSON with media URLs, or multipart with "images"/"videos" files.
	admin.Post("/posts", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		in := services.CreatePostInput{
			AuthorID:           middleware.UserID(c),
			AuthorUsername:     services.Creator.Username,
			AuthorDisplayName:  services.Creator.DisplayName,
			AuthorProfileImage: services.Creator.ProfileImage,
		}

		if isMultipart(c) {
			form, err := c.MultipartForm()
			if err != nil {
				return badRequest(c, log, "invalid multipart form")
			}
			in.Content = c.FormValue("content")
			if raw := strings.TrimSpace(c.FormValue("required_tier")); raw != "" {
				tier, err := models.ParseTier(raw)
				if err != nil {
					return respondError(c, log, err)
				}
				in.RequiredTier = &tier
			}
			if d.Media == nil && (len(form.File["images"]) > 0 || len(form.File["videos"]) > 0) {
				return badRequest(c, log, "media uploads are not configured")
			}
			if in.Images, err = uploadAll(ctx, d.Media, "posts", form.File["images"]); err != nil {
				return respondError(c, log, err)
			}
			if in.Videos, err = uploadAll(ctx, d.Media, "videos", form.File["videos"]); err != nil {
				return respondError(c, log, err)
			}
		} else {
			var req struct {
				Content      string       `json:"content"`
				Images       []string     `json:"images"`
				Videos       []string     `json:"videos"`
				RequiredTier *models.Tier `json:"required_tier"`
			}
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, log, "invalid JSON")
			}
			in.Content, in.Images, in.Videos, in.RequiredTier = req.Content, req.Images, req.Videos, req.RequiredTier
		}

		post, err := d.Posts.CreatePost(ctx, in)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	})

	admin.Delete("/posts/:id", func(c *fiber.Ctx) error {
		if err := d.Posts.DeletePost(c.UserContext(), c.Params("id")); err != nil {
			return respondError(c, log, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	admin.Post("/media", func(c *fiber.Ctx) error {
		if d.Media == nil {
			return badRequest(c, log, "media uploads are not configured")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, log, "file is required")
		}
		folder := c.FormValue("folder", "posts")
		url, err := d.Media.Put(c.UserContext(), folder, fh)
		if err != nil {
			return respondError(c, log, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
	})
}
