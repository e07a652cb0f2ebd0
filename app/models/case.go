package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case lifecycle states. The column is a plain varchar holding exactly one of
// these lowercase values; NormalizeCaseStatus absorbs the upper/lowercase drift
// older rows accumulated before the enum was consolidated.
const (
	CaseStatusTemporary = "temporary" // draft, never generated
	CaseStatusGenerated = "generated" // document generated, behind the paywall
	CaseStatusPaid      = "paid"      // paid and unlocked
	CaseStatusRefunded  = "refunded"  // refund approved, terminal
	CaseStatusAbandoned = "abandoned" // explicitly given up by the user
)

const (
	DocumentTypeTutela   = "tutela"
	DocumentTypePeticion = "derecho_peticion"
)

// Unpaid generated documents expire this long after generation.
const DocumentExpirationDays = 14

// Case is one legal-document unit of work with its own paywall and refund
// lifecycle. Refund scalar fields always describe the most recent cycle; the
// full audit trail lives in the refund_events table.
type Case struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	UUID         string `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID       uint   `gorm:"not null;index" json:"user_id"`
	Title        string `gorm:"type:varchar(255)" json:"title"`
	DocumentType string `gorm:"type:varchar(50);not null;default:'tutela'" json:"document_type"`
	Status       string `gorm:"type:varchar(32);not null;default:'temporary';index" json:"status"`

	// Paywall
	DocumentUnlocked bool       `gorm:"not null;default:false" json:"document_unlocked"`
	GeneratedAt      *time.Time `gorm:"type:timestamp;default:null" json:"generated_at,omitempty"`
	PaymentDate      *time.Time `gorm:"type:timestamp;default:null" json:"payment_date,omitempty"`
	ExpirationDate   *time.Time `gorm:"type:timestamp;default:null;index" json:"expiration_date,omitempty"`

	// Refund scalars for the latest cycle only.
	RefundRequested   bool       `gorm:"not null;default:false;index" json:"refund_requested"`
	RefundRequestDate *time.Time `gorm:"type:timestamp;default:null" json:"refund_request_date,omitempty"`
	RefundReason      string     `gorm:"type:text" json:"refund_reason,omitempty"`
	RefundEvidenceURL string     `gorm:"type:varchar(500)" json:"refund_evidence_url,omitempty"`
	RejectionReason   string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	AdminComment      string     `gorm:"type:text" json:"admin_comment,omitempty"`
	RefundDate        *time.Time `gorm:"type:timestamp;default:null" json:"refund_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User         User          `gorm:"foreignKey:UserID" json:"-"`
	RefundEvents []RefundEvent `gorm:"foreignKey:CaseID" json:"-"`
	Messages     []Message     `gorm:"foreignKey:CaseID" json:"-"`
}

// NewCase creates a fresh draft case for a user.
func NewCase(userID uint, title, documentType string) *Case {
	return &Case{
		UUID:         uuid.New().String(),
		UserID:       userID,
		Title:        title,
		DocumentType: documentType,
		Status:       CaseStatusTemporary,
	}
}

// MarkGenerated flips a draft into the generated-locked state and starts the
// unpaid expiration clock.
func (c *Case) MarkGenerated(now time.Time) {
	c.Status = CaseStatusGenerated
	c.DocumentUnlocked = false
	c.GeneratedAt = &now
	exp := now.AddDate(0, 0, DocumentExpirationDays)
	c.ExpirationDate = &exp
}

// MarkPaid unlocks the document after a successful payment.
func (c *Case) MarkPaid(now time.Time) {
	c.Status = CaseStatusPaid
	c.DocumentUnlocked = true
	c.PaymentDate = &now
	c.ExpirationDate = nil
}

// IsRefundable reports whether a refund may be requested at all.
func (c *Case) IsRefundable() bool {
	return c.Status == CaseStatusPaid
}

// HasPendingRefund reports whether an undecided refund request exists.
func (c *Case) HasPendingRefund() bool {
	return c.RefundRequested
}

// NormalizeCaseStatus maps historical status spellings (GENERADO, temporal,
// PAGADO, ...) onto the closed lowercase enum. Unknown values pass through
// lowercased so the drift is at least contained.
func NormalizeCaseStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "temporal", "temporary":
		return CaseStatusTemporary
	case "generado", "generated":
		return CaseStatusGenerated
	case "pagado", "paid":
		return CaseStatusPaid
	case "reembolsado", "refunded":
		return CaseStatusRefunded
	case "abandonado", "abandoned":
		return CaseStatusAbandoned
	default:
		return strings.ToLower(strings.TrimSpace(raw))
	}
}

// BeforeSave keeps the closed enum closed even if a caller hands us a legacy
// spelling.
func (c *Case) BeforeSave(tx *gorm.DB) error {
	c.Status = NormalizeCaseStatus(c.Status)
	return nil
}
