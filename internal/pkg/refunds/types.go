package refunds

import (
	"errors"
	"time"
)

// Refund state machine errors. All of them mean "operation rejected, nothing
// was mutated".
var (
	ErrCaseNotFound     = errors.New("refunds: case not found")
	ErrNotRefundable    = errors.New("refunds: case is not in a refundable status")
	ErrRequestPending   = errors.New("refunds: a refund request is already pending")
	ErrAlreadyRefunded  = errors.New("refunds: case has already been refunded")
	ErrNoPendingRequest = errors.New("refunds: no pending refund request to decide")
)

// RequestResult reports an accepted refund request.
type RequestResult struct {
	CaseID         uint      `json:"case_id"`
	RequestDate    time.Time `json:"request_date"`
	IsResubmission bool      `json:"is_resubmission"`
}

// DecisionResult reports a processed refund decision.
type DecisionResult struct {
	CaseID       uint       `json:"case_id"`
	Approved     bool       `json:"approved"`
	CanResubmit  bool       `json:"can_resubmit"`
	Amount       float64    `json:"amount,omitempty"`
	RefundDate   *time.Time `json:"refund_date,omitempty"`
	HistoryCount int        `json:"history_count"`
}

// Notifier delivers best-effort refund decision notifications to the case
// owner. A nil notifier disables notifications.
type Notifier interface {
	NotifyRefundDecision(email, caseTitle string, approved bool, adminComment string) error
}
