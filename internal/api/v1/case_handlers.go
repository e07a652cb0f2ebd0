package apiv1

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/internal/pkg/usercontext"
)

// PostCase opens a new draft case for the authenticated user.
func (s *APIServer) PostCase(c *fiber.Ctx) error {
	var req CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	docType := req.DocumentType
	if docType == "" {
		docType = models.DocumentTypeTutela
	}
	if docType != models.DocumentTypeTutela && docType != models.DocumentTypePeticion {
		return unprocessable(c, "Unknown document type")
	}

	newCase := models.NewCase(usercontext.GetUserID(c), req.Title, docType)
	if err := s.repos.Case.Create(newCase); err != nil {
		return internalError(c, "Failed to create case")
	}
	return c.Status(fiber.StatusCreated).JSON(newCase)
}

// GetCases lists the authenticated user's cases, newest first.
func (s *APIServer) GetCases(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	cases, err := s.repos.Case.GetByUserID(usercontext.GetUserID(c), (page-1)*limit, limit)
	if err != nil {
		return internalError(c, "Failed to load cases")
	}
	return c.JSON(fiber.Map{"cases": cases, "page": page, "limit": limit})
}

// GetCase returns one case owned by the caller.
func (s *APIServer) GetCase(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}
	return c.JSON(cs)
}

// PutCase edits the mutable fields of a draft. Generated and later cases are
// frozen.
func (s *APIServer) PutCase(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}
	if cs.Status != models.CaseStatusTemporary {
		return conflict(c, "Only draft cases can be edited")
	}

	var req UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if req.Title != nil {
		cs.Title = *req.Title
	}
	if req.DocumentType != nil {
		if *req.DocumentType != models.DocumentTypeTutela && *req.DocumentType != models.DocumentTypePeticion {
			return unprocessable(c, "Unknown document type")
		}
		cs.DocumentType = *req.DocumentType
	}

	if err := s.repos.Case.Update(cs); err != nil {
		return internalError(c, "Failed to update case")
	}
	return c.JSON(cs)
}

// PostGenerateCase moves a draft behind the paywall: status generated, locked,
// expiration clock started.
func (s *APIServer) PostGenerateCase(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}
	if cs.Status != models.CaseStatusTemporary {
		return conflict(c, "Case has already been generated")
	}

	cs.MarkGenerated(time.Now())
	if err := s.repos.Case.Update(cs); err != nil {
		return internalError(c, "Failed to update case")
	}
	return c.JSON(cs)
}

// PostAbandonCase marks a draft as given up. The cleanup sweep removes it
// later.
func (s *APIServer) PostAbandonCase(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}
	if cs.Status != models.CaseStatusTemporary {
		return conflict(c, "Only draft cases can be abandoned")
	}

	cs.Status = models.CaseStatusAbandoned
	if err := s.repos.Case.Update(cs); err != nil {
		return internalError(c, "Failed to update case")
	}
	return c.JSON(cs)
}

// DeleteCase removes a draft immediately. Generated and paid cases only leave
// through the sweeps or the refund flow.
func (s *APIServer) DeleteCase(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}
	if cs.Status != models.CaseStatusTemporary && cs.Status != models.CaseStatusAbandoned {
		return conflict(c, "Only draft cases can be deleted")
	}

	if err := s.repos.Case.Delete(cs.ID); err != nil {
		return internalError(c, "Failed to delete case")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCaseMessages returns the conversation transcript in sent order.
func (s *APIServer) GetCaseMessages(c *fiber.Ctx) error {
	cs, err := s.loadOwnedCase(c)
	if err != nil {
		return err
	}

	messages, err := s.repos.Message.GetByCaseID(cs.ID)
	if err != nil {
		return internalError(c, "Failed to load messages")
	}
	return c.JSON(fiber.Map{"case_id": cs.ID, "messages": messages})
}

// loadOwnedCase resolves the :id parameter and enforces ownership. Admins can
// read any case.
func (s *APIServer) loadOwnedCase(c *fiber.Ctx) (*models.Case, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, badRequest(c, "Invalid case id")
	}

	cs, err := s.repos.Case.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(c, "Case not found")
		}
		return nil, internalError(c, "Failed to load case")
	}

	userCtx := usercontext.GetUserContext(c)
	if cs.UserID != userCtx.UserID && !userCtx.IsAdmin {
		return nil, notFound(c, "Case not found")
	}
	return cs, nil
}
