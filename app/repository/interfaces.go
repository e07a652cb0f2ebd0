package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	// ListAll streams every user for batch recalculation jobs.
	ListAll() ([]models.User, error)
	// ResetBonusSessions zeroes bonus_sessions_today for every user that has
	// any, returning the number of affected rows.
	ResetBonusSessions() (int64, error)
	// UpdateTierFields overwrites the cached tiering columns for one user.
	UpdateTierFields(userID uint, tier, paymentsLast30 int, recalcAt time.Time) error
	// UpdateTierFieldsBulk applies a batch of tier updates in one transaction.
	UpdateTierFieldsBulk(updates []TierUpdate) error
}

// TierUpdate is one user's recalculated tier state for a bulk write.
type TierUpdate struct {
	UserID         uint
	Tier           int
	PaymentsLast30 int
	RecalcAt       time.Time
}

// CaseRepository defines the interface for case-related database operations
type CaseRepository interface {
	Create(c *models.Case) error
	GetByID(id uint) (*models.Case, error)
	GetByUUID(uuid string) (*models.Case, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Case, error)
	Update(c *models.Case) error
	Delete(id uint) error
	CountByStatus(status string) (int64, error)
	// ListPendingRefunds returns cases with an undecided refund request.
	ListPendingRefunds() ([]models.Case, error)

	// Refund history (append-only).
	GetRefundEvents(caseID uint) ([]models.RefundEvent, error)
	CountRefundRejections(caseID uint) (int64, error)

	// DecideRefund finalizes one refund cycle in a single transaction:
	// conditionally clears refund_requested, appends the decision event and
	// saves the updated case, plus the refunded payment when one is given.
	// Returns false without writing anything when another decision already
	// consumed the pending request.
	DecideRefund(c *models.Case, event *models.RefundEvent, payment *models.Payment) (bool, error)

	// Sweeper bulk deletes; each runs in its own transaction and returns the
	// number of cases removed.
	DeleteExpiredGenerated(now time.Time) (int64, error)
	DeleteAbandonedDrafts(before time.Time) (int64, error)
	CountExpiredGenerated(now time.Time) (int64, error)
	CountAbandonedDrafts(before time.Time) (int64, error)
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(p *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByReference(reference string) (*models.Payment, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Payment, error)
	// CountSuccessfulSince counts successful payments for a user with a
	// payment date at or after the cutoff. The tier calculator's only input.
	CountSuccessfulSince(userID uint, cutoff time.Time) (int64, error)
	// GetActiveSuccessfulByCase returns the successful payment currently
	// backing a paid case, if any.
	GetActiveSuccessfulByCase(caseID uint) (*models.Payment, error)
	// CompletePending conditionally moves a pending payment to the given
	// status and reports whether the transition happened. Guards against a
	// payment being completed twice.
	CompletePending(reference string, status string, paidAt time.Time) (bool, error)
}

// UsageRepository defines the interface for daily-usage database operations
type UsageRepository interface {
	GetForDate(userID uint, date time.Time) (*models.DailyUsage, error)
	Create(u *models.DailyUsage) error
	Update(u *models.DailyUsage) error
	DeleteOlderThan(before time.Time) (int64, error)
	CountOlderThan(before time.Time) (int64, error)
}

// MessageRepository defines the interface for message-related database operations
type MessageRepository interface {
	Create(m *models.Message) error
	GetByCaseID(caseID uint) ([]models.Message, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Case    CaseRepository
	Payment PaymentRepository
	Usage   UsageRepository
	Message MessageRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Case:    NewCaseRepository(db),
		Payment: NewPaymentRepository(db),
		Usage:   NewUsageRepository(db),
		Message: NewMessageRepository(db),
	}
}
