package apiv1

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// PostMessage is the voice agent webhook: it appends one transcript turn to a
// case conversation. Authentication is the shared webhook secret, not a user
// token.
func (s *APIServer) PostMessage(c *fiber.Ctx) error {
	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	sender := strings.TrimSpace(req.Sender)
	if sender != models.MessageSenderUser && sender != models.MessageSenderAssistant {
		return unprocessable(c, "Sender must be user or assistant")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return unprocessable(c, "Message text is required")
	}

	cs, err := s.repos.Case.GetByUUID(strings.TrimSpace(req.CaseUUID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(c, "Case not found")
		}
		return internalError(c, "Failed to load case")
	}

	sentAt := time.Now()
	if req.SentAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.SentAt)
		if err != nil {
			return unprocessable(c, "sent_at must be RFC3339")
		}
		sentAt = parsed
	}

	msg := &models.Message{
		CaseID: cs.ID,
		Sender: sender,
		Text:   text,
		SentAt: sentAt,
	}
	if err := s.repos.Message.Create(msg); err != nil {
		return internalError(c, "Failed to store message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
