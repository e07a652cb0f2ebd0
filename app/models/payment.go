package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusSuccessful = "successful"
	PaymentStatusFailed     = "failed"
	PaymentStatusRefunded   = "refunded"
)

const (
	PaymentMethodCard = "card"
	PaymentMethodPSE  = "pse"
	PaymentMethodCash = "cash"
	PaymentMethodTest = "test"
)

// Payment is one payment attempt against a case. At most one successful
// payment actively backs a case's paid state; approving a refund moves that
// payment to refunded together with the case.
type Payment struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   uint    `gorm:"not null;index" json:"user_id"`
	CaseID   uint    `gorm:"not null;index" json:"case_id"`
	Amount   float64 `gorm:"not null" json:"amount"`
	Currency string  `gorm:"type:varchar(3);not null;default:'COP'" json:"currency"`
	Status   string  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Method   string  `gorm:"type:varchar(20);not null;default:'card'" json:"method"`

	Reference   string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"reference"`
	PaymentDate *time.Time `gorm:"type:timestamp;default:null;index" json:"payment_date,omitempty"`

	RefundReference string     `gorm:"type:varchar(36);default:null" json:"refund_reference,omitempty"`
	RefundDate      *time.Time `gorm:"type:timestamp;default:null" json:"refund_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
	Case Case `gorm:"foreignKey:CaseID" json:"-"`
}

// NewPayment creates a pending payment attempt with a fresh reference.
func NewPayment(userID, caseID uint, amount float64, method string) *Payment {
	return &Payment{
		UserID:    userID,
		CaseID:    caseID,
		Amount:    amount,
		Currency:  "COP",
		Status:    PaymentStatusPending,
		Method:    method,
		Reference: uuid.New().String(),
	}
}

// MarkSuccessful stamps the payment as completed.
func (p *Payment) MarkSuccessful(now time.Time) {
	p.Status = PaymentStatusSuccessful
	p.PaymentDate = &now
}

// MarkRefunded stamps the payment as refunded with its own reference.
func (p *Payment) MarkRefunded(now time.Time) {
	p.Status = PaymentStatusRefunded
	p.RefundReference = uuid.New().String()
	p.RefundDate = &now
}
