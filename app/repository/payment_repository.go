package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// paymentRepository implements the PaymentRepository interface
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create creates a new payment in the database
func (r *paymentRepository) Create(p *models.Payment) error {
	return r.db.Create(p).Error
}

// GetByID retrieves a payment by its ID
func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByReference retrieves a payment by its unique reference
func (r *paymentRepository) GetByReference(reference string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("reference = ?", reference).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID retrieves the payments of a user with pagination
func (r *paymentRepository) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// CountSuccessfulSince counts successful payments at or after the cutoff.
// The lower bound is inclusive.
func (r *paymentRepository) CountSuccessfulSince(userID uint, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Payment{}).
		Where("user_id = ? AND status = ? AND payment_date >= ?",
			userID, models.PaymentStatusSuccessful, cutoff).
		Count(&count).Error
	return count, err
}

// GetActiveSuccessfulByCase returns the successful payment backing a case
func (r *paymentRepository) GetActiveSuccessfulByCase(caseID uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.Where("case_id = ? AND status = ?", caseID, models.PaymentStatusSuccessful).
		Order("payment_date DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompletePending moves a pending payment into a final status, but only if it
// is still pending, so a completion webhook replay cannot apply twice.
func (r *paymentRepository) CompletePending(reference string, status string, paidAt time.Time) (bool, error) {
	updates := map[string]interface{}{"status": status}
	if status == models.PaymentStatusSuccessful {
		updates["payment_date"] = paidAt
	}
	result := r.db.Model(&models.Payment{}).
		Where("reference = ? AND status = ?", reference, models.PaymentStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
