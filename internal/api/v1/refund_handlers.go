package apiv1

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/internal/pkg/refunds"
)

// Evidence uploads are capped well below the fiber body limit.
const maxEvidenceBytes = 10 << 20

// PostRefundRequest files a refund request against a paid case owned by the
// caller.
func (s *APIServer) PostRefundRequest(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}

	var req RefundRequestBody
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return unprocessable(c, "Refund reason is required")
	}

	result, err := s.refunds.RequestRefund(cs.ID, req.Reason, req.EvidenceURL)
	if err != nil {
		return refundError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetRefundHistory returns the append-only refund cycle log of a case.
func (s *APIServer) GetRefundHistory(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}

	history, err := s.refunds.History(cs.ID)
	if err != nil {
		return refundError(c, err)
	}
	return c.JSON(fiber.Map{"case_id": cs.ID, "events": history})
}

// PostEvidenceUpload stores one evidence file and returns the URL to attach
// to a refund request.
func (s *APIServer) PostEvidenceUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Multipart field 'file' is required")
	}
	if fileHeader.Size > maxEvidenceBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{"error": "too_large", "message": "Evidence file exceeds 10 MB"})
	}

	switch strings.ToLower(filepath.Ext(fileHeader.Filename)) {
	case ".pdf", ".png", ".jpg", ".jpeg":
	default:
		return unprocessable(c, "Evidence must be a PDF or an image")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return internalError(c, "Failed to read upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return internalError(c, "Failed to read upload")
	}

	url, err := s.evidence.Save(fileHeader.Filename, data)
	if err != nil {
		return internalError(c, "Failed to store evidence")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}

func refundError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, refunds.ErrCaseNotFound):
		return notFound(c, "Case not found")
	case errors.Is(err, refunds.ErrNotRefundable):
		return conflict(c, "Case is not refundable")
	case errors.Is(err, refunds.ErrRequestPending):
		return conflict(c, "A refund request is already pending")
	case errors.Is(err, refunds.ErrAlreadyRefunded):
		return conflict(c, "Case has already been refunded")
	case errors.Is(err, refunds.ErrNoPendingRequest):
		return conflict(c, "No pending refund request")
	default:
		return internalError(c, "Refund operation failed")
	}
}
