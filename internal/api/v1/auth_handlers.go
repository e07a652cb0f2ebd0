package apiv1

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/internal/pkg/security"
	"github.com/abogadai/abogadai/internal/pkg/usercontext"
)

// PostRegister creates a new account and returns a bearer token.
func (s *APIServer) PostRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repos.User.GetByEmail(email); err == nil {
		return conflict(c, "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return internalError(c, "Registration failed")
	}

	user, err := models.CreateUser(strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		return unprocessable(c, err.Error())
	}
	user.Phone = strings.TrimSpace(req.Phone)
	user.City = strings.TrimSpace(req.City)

	if err := s.repos.User.Create(user); err != nil {
		log.Errorf("[API] user registration failed: %v", err)
		return internalError(c, "Registration failed")
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return internalError(c, "Token generation failed")
	}

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, User: userInfo(user)})
}

// PostLogin verifies credentials and returns a bearer token.
func (s *APIServer) PostLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	user, err := s.repos.User.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
		}
		return internalError(c, "Login failed")
	}

	if !user.CheckPassword(req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid credentials"})
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "User inactive"})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.repos.User.Update(user); err != nil {
		log.Warnf("[API] could not stamp last login for user %d: %v", user.ID, err)
	}

	token, err := security.GenerateToken(user)
	if err != nil {
		return internalError(c, "Token generation failed")
	}

	return c.JSON(AuthResponse{Token: token, User: userInfo(user)})
}

// GetMe returns the authenticated account.
func (s *APIServer) GetMe(c *fiber.Ctx) error {
	user, err := s.repos.User.GetByID(usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "User not found")
		}
		return internalError(c, "Failed to load user")
	}
	return c.JSON(userInfo(user))
}

// GetMyLimits returns the entitlement snapshot for the authenticated user.
func (s *APIServer) GetMyLimits(c *fiber.Ctx) error {
	limits, err := s.tiers.GetUserLimits(usercontext.GetUserID(c))
	if err != nil {
		return internalError(c, "Failed to load limits")
	}
	return c.JSON(limits)
}

func userInfo(u *models.User) UserInfo {
	return UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		Tier:  u.Tier,
	}
}
