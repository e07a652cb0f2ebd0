package refunds

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
)

// Service runs the per-case refund lifecycle:
//
//	no request -> pending -> rejected -> pending -> ... -> approved
//
// A rejected request can be re-submitted any number of times; approval is
// terminal. Every decided cycle is appended to the refund_events table, which
// is the sole audit trail: the scalar fields on the case only describe the
// latest cycle and are overwritten on each pass.
type Service struct {
	cases    repository.CaseRepository
	payments repository.PaymentRepository
	users    repository.UserRepository
	notifier Notifier
	now      func() time.Time
}

// NewService creates a refund service from injected repositories. The
// notifier may be nil.
func NewService(cases repository.CaseRepository, payments repository.PaymentRepository, users repository.UserRepository, notifier Notifier) *Service {
	return &Service{cases: cases, payments: payments, users: users, notifier: notifier, now: time.Now}
}

// RequestRefund files a refund request for a paid case. Fails when the case
// is not refundable, already refunded, or a request is still pending.
func (s *Service) RequestRefund(caseID uint, reason, evidenceURL string) (*RequestResult, error) {
	c, err := s.cases.GetByID(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}

	if c.Status == models.CaseStatusRefunded {
		return nil, ErrAlreadyRefunded
	}
	if c.HasPendingRefund() {
		return nil, ErrRequestPending
	}
	if !c.IsRefundable() {
		return nil, ErrNotRefundable
	}

	rejections, err := s.cases.CountRefundRejections(caseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c.RefundRequested = true
	c.RefundRequestDate = &now
	c.RefundReason = strings.TrimSpace(reason)
	c.RefundEvidenceURL = strings.TrimSpace(evidenceURL)
	if err := s.cases.Update(c); err != nil {
		return nil, err
	}

	return &RequestResult{
		CaseID:         caseID,
		RequestDate:    now,
		IsResubmission: rejections > 0,
	}, nil
}

// ProcessRefund decides a pending request. Rejection keeps the case paid and
// re-opens the door for a re-submission; approval refunds the case and its
// backing payment and is terminal. The whole decision commits in a single
// transaction whose conditional pending-clear is the race guard: two
// concurrent decisions cannot both win, and a failed write leaves the request
// pending instead of consuming it undecided.
func (s *Service) ProcessRefund(caseID uint, approve bool, adminComment string) (*DecisionResult, error) {
	c, err := s.cases.GetByID(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	if !c.HasPendingRefund() {
		return nil, ErrNoPendingRequest
	}

	history, err := s.cases.GetRefundEvents(caseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	event := &models.RefundEvent{
		CaseID:       caseID,
		Seq:          len(history) + 1,
		UserReason:   c.RefundReason,
		AdminComment: strings.TrimSpace(adminComment),
		DecisionDate: now,
	}

	result := &DecisionResult{
		CaseID:       caseID,
		Approved:     approve,
		HistoryCount: len(history) + 1,
	}

	c.RefundRequested = false
	c.AdminComment = event.AdminComment

	var payment *models.Payment
	if approve {
		event.Type = models.RefundEventApproval
		c.Status = models.CaseStatusRefunded
		c.DocumentUnlocked = false
		c.RefundDate = &now
		result.RefundDate = &now

		payment, err = s.refundBackingPayment(caseID, now, result)
		if err != nil {
			return nil, err
		}
	} else {
		event.Type = models.RefundEventRejection
		c.RejectionReason = event.AdminComment
		result.CanResubmit = true
	}

	won, err := s.cases.DecideRefund(c, event, payment)
	if err != nil {
		return nil, err
	}
	if !won {
		// Another decision got there first.
		return nil, ErrNoPendingRequest
	}

	s.notify(c, approve, event.AdminComment)
	return result, nil
}

// History returns the append-only refund event log of a case in cycle order.
func (s *Service) History(caseID uint) ([]models.RefundEvent, error) {
	if _, err := s.cases.GetByID(caseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, err
	}
	return s.cases.GetRefundEvents(caseID)
}

// refundBackingPayment loads and marks the successful payment behind a case;
// the caller persists it inside the decision transaction.
func (s *Service) refundBackingPayment(caseID uint, now time.Time, result *DecisionResult) (*models.Payment, error) {
	payment, err := s.payments.GetActiveSuccessfulByCase(caseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Refund approved on a case without a successful payment row.
			// The case state stands; flag the inconsistency for operators.
			log.Warnf("[Refunds] case %d approved without a backing payment", caseID)
			return nil, nil
		}
		return nil, err
	}

	payment.MarkRefunded(now)
	result.Amount = payment.Amount
	return payment, nil
}

func (s *Service) notify(c *models.Case, approved bool, adminComment string) {
	if s.notifier == nil {
		return
	}
	user, err := s.users.GetByID(c.UserID)
	if err != nil {
		log.Warnf("[Refunds] could not load user %d for notification: %v", c.UserID, err)
		return
	}
	if err := s.notifier.NotifyRefundDecision(user.Email, c.Title, approved, adminComment); err != nil {
		log.Warnf("[Refunds] notification for case %d failed: %v", c.ID, err)
	}
}
