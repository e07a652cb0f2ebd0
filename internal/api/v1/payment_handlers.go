package apiv1

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/internal/pkg/payments"
	"github.com/abogadai/abogadai/internal/pkg/usercontext"
)

// PostPayment opens a pending payment attempt for a generated case.
func (s *APIServer) PostPayment(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}
	if req.Amount <= 0 {
		return unprocessable(c, "Amount must be positive")
	}
	method := req.Method
	if method == "" {
		method = models.PaymentMethodCard
	}

	userCtx := usercontext.GetUserContext(c)

	cs, err := s.repos.Case.GetByID(req.CaseID)
	if err == nil && cs.UserID != userCtx.UserID {
		return notFound(c, "Case not found")
	}

	payment, err := s.payments.CreatePayment(userCtx.UserID, req.CaseID, req.Amount, method)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrCaseNotFound):
			return notFound(c, "Case not found")
		case errors.Is(err, payments.ErrCaseNotPayable):
			return conflict(c, "Case is not awaiting payment")
		default:
			return internalError(c, "Failed to create payment")
		}
	}
	return c.Status(fiber.StatusCreated).JSON(payment)
}

// GetPayments lists the caller's payment attempts, newest first.
func (s *APIServer) GetPayments(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	list, err := s.repos.Payment.GetByUserID(usercontext.GetUserID(c), (page-1)*limit, limit)
	if err != nil {
		return internalError(c, "Failed to load payments")
	}
	return c.JSON(fiber.Map{"payments": list, "page": page, "limit": limit})
}

// PostCompletePayment is the provider callback finalizing a pending payment
// by reference. Idempotent against replays: the second completion gets a 409.
func (s *APIServer) PostCompletePayment(c *fiber.Ctx) error {
	var req CompletePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON body")
	}

	payment, err := s.payments.CompletePayment(c.Params("reference"), req.Success)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			return notFound(c, "Payment not found")
		case errors.Is(err, payments.ErrAlreadyCompleted):
			return conflict(c, "Payment already completed")
		default:
			return internalError(c, "Failed to complete payment")
		}
	}
	return c.JSON(payment)
}
