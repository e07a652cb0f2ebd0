package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/internal/pkg/usage"
	"github.com/abogadai/abogadai/internal/pkg/usercontext"
)

// GetUsageToday returns the current day's session allowance snapshot.
func (s *APIServer) GetUsageToday(c *fiber.Ctx) error {
	snapshot, err := s.tracker.Today(usercontext.GetUserID(c))
	if err != nil {
		return usageError(c, err)
	}
	return c.JSON(snapshot)
}

// PostStartSession consumes one session from today's allowance.
func (s *APIServer) PostStartSession(c *fiber.Ctx) error {
	snapshot, err := s.tracker.StartSession(usercontext.GetUserID(c))
	if err != nil {
		return usageError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

// PostAddMinutes accumulates consumed minutes onto today's row.
func (s *APIServer) PostAddMinutes(c *fiber.Ctx) error {
	var req AddMinutesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if req.Minutes < 0 {
		return unprocessable(c, "Minutes must not be negative")
	}

	snapshot, err := s.tracker.AddMinutes(usercontext.GetUserID(c), req.Minutes)
	if err != nil {
		return usageError(c, err)
	}
	return c.JSON(snapshot)
}

func usageError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usage.ErrUserNotFound):
		return notFound(c, "User not found")
	case errors.Is(err, usage.ErrSessionLimitReached):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "limit_reached", "message": "Daily session limit reached"})
	case errors.Is(err, usage.ErrMinuteLimitReached):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "limit_reached", "message": "Daily minute limit reached"})
	default:
		return internalError(c, "Usage operation failed")
	}
}
