package handlers

import (
	"errors"

	"deluxe-isa/apperrors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthorized:
		return fiber.StatusForbidden
	case apperrors.ErrCodeUserNotFound, apperrors.ErrCodeContentNotFound, apperrors.ErrCodeNotFound:
		return fiber.StatusNotFound
	case apperrors.ErrCodeInvalidAction, apperrors.ErrCodeInvalidInput:
		return fiber.StatusBadRequest
	case apperrors.ErrCodeTransientFailure, apperrors.ErrCodeUnavailable:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError writes err as {"error", "code", "retryable"} with the status its code maps to.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	var se *apperrors.StandardError
	if !errors.As(err, &se) {
		se = apperrors.NewTransientError(c.Route().Path, err)
	}

	status := statusFor(se.Code)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("code", string(se.Code)),
			zap.Error(err),
		)
	}

	msg := se.Message
	if se.Details != "" {
		msg = se.Message + ": " + se.Details
	}
	return c.Status(status).JSON(fiber.Map{
		"error":     msg,
		"code":      se.Code,
		"retryable": se.Retryable,
	})
}

func badRequest(c *fiber.Ctx, log *zap.Logger, details string) error {
	return respondError(c, log, apperrors.NewInvalidInputError(details))
}
