package payments

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/tiering"
	"github.com/abogadai/abogadai/internal/pkg/usage"
)

var (
	// ErrCaseNotFound is returned when a payment references an unknown case.
	ErrCaseNotFound = errors.New("payments: case not found")
	// ErrPaymentNotFound is returned when a completion references an unknown payment.
	ErrPaymentNotFound = errors.New("payments: payment not found")
	// ErrCaseNotPayable is returned when the case is not behind the paywall.
	ErrCaseNotPayable = errors.New("payments: case is not awaiting payment")
	// ErrAlreadyCompleted is returned when a payment was already finalized.
	ErrAlreadyCompleted = errors.New("payments: payment already completed")
)

// Service runs the paywall lifecycle: pending payment creation against a
// generated case, and completion, which unlocks the document, grants the
// same-day bonus session and triggers the synchronous tier recompute.
type Service struct {
	cases    repository.CaseRepository
	payments repository.PaymentRepository
	tiers    *tiering.Service
	tracker  *usage.Tracker
	now      func() time.Time
}

// NewService creates a payment service from injected collaborators.
func NewService(cases repository.CaseRepository, payments repository.PaymentRepository, tiers *tiering.Service, tracker *usage.Tracker) *Service {
	return &Service{cases: cases, payments: payments, tiers: tiers, tracker: tracker, now: time.Now}
}

// CreatePayment opens a pending payment attempt for a generated, still-locked
// case and returns it with its unique reference.
func (s *Service) CreatePayment(userID, caseID uint, amount float64, method string) (*models.Payment, error) {
	c, err := s.cases.GetByID(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if c.Status != models.CaseStatusGenerated || c.DocumentUnlocked {
		return nil, ErrCaseNotPayable
	}

	payment := models.NewPayment(userID, caseID, amount, method)
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// CompletePayment finalizes a pending payment by reference. On success the
// case is unlocked, the payer receives one same-day bonus session, and the
// tier recompute hook runs synchronously so entitlements reflect the new
// payment immediately. On failure only the payment row changes. The
// pending->final transition is a conditional update, so a replayed completion
// callback cannot apply twice.
func (s *Service) CompletePayment(reference string, success bool) (*models.Payment, error) {
	payment, err := s.payments.GetByReference(reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrAlreadyCompleted
	}

	now := s.now()
	status := models.PaymentStatusFailed
	if success {
		status = models.PaymentStatusSuccessful
	}

	won, err := s.payments.CompletePending(reference, status, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrAlreadyCompleted
	}

	payment.Status = status
	if success {
		payment.MarkSuccessful(now)

		c, err := s.cases.GetByID(payment.CaseID)
		if err != nil {
			return nil, err
		}
		c.MarkPaid(now)
		if err := s.cases.Update(c); err != nil {
			return nil, err
		}

		if err := s.tracker.GrantBonusSession(payment.UserID); err != nil {
			log.Warnf("[Payments] bonus session grant for user %d failed: %v", payment.UserID, err)
		}
		if _, err := s.tiers.HandleSuccessfulPayment(payment.UserID); err != nil {
			log.Warnf("[Payments] post-payment tier recompute for user %d failed: %v", payment.UserID, err)
		}
	}

	return payment, nil
}
