package models

import "time"

const (
	RefundEventRejection = "rejection"
	RefundEventApproval  = "approval"
)

// RefundEvent is one decided refund cycle for a case. Rows are append-only:
// they are created when an admin decides a request and never updated or
// deleted afterwards. The sequence number orders cycles within a case, so the
// event count equals the total request/decision cycles the case went through.
type RefundEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CaseID       uint      `gorm:"not null;index:ux_refund_events_case_seq,unique,priority:1" json:"case_id"`
	Seq          int       `gorm:"not null;index:ux_refund_events_case_seq,unique,priority:2" json:"seq"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	UserReason   string    `gorm:"type:text" json:"user_reason"`
	AdminComment string    `gorm:"type:text" json:"admin_comment"`
	DecisionDate time.Time `gorm:"not null" json:"decision_date"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsRejection reports whether this cycle ended in a rejection, which is what
// allows the user to re-submit.
func (e *RefundEvent) IsRejection() bool {
	return e.Type == RefundEventRejection
}
