package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// caseRepository implements the CaseRepository interface
type caseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new case repository instance
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &caseRepository{db: db}
}

// Create creates a new case in the database
func (r *caseRepository) Create(c *models.Case) error {
	return r.db.Create(c).Error
}

// GetByID retrieves a case by its ID
func (r *caseRepository) GetByID(id uint) (*models.Case, error) {
	var c models.Case
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUUID retrieves a case by its public UUID
func (r *caseRepository) GetByUUID(uuid string) (*models.Case, error) {
	var c models.Case
	err := r.db.Where("uuid = ?", uuid).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByUserID retrieves the cases of a user with pagination
func (r *caseRepository) GetByUserID(userID uint, offset, limit int) ([]models.Case, error) {
	var cases []models.Case
	err := r.db.Where("user_id = ?", userID).
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&cases).Error
	return cases, err
}

// Update updates an existing case in the database
func (r *caseRepository) Update(c *models.Case) error {
	return r.db.Save(c).Error
}

// Delete removes a case together with its messages and refund events
func (r *caseRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id = ?", id).Delete(&models.RefundEvent{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Case{}, id).Error
	})
}

// CountByStatus returns the number of cases in the given status
func (r *caseRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Case{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// ListPendingRefunds returns cases with an undecided refund request
func (r *caseRepository) ListPendingRefunds() ([]models.Case, error) {
	var cases []models.Case
	err := r.db.Where("refund_requested = ?", true).
		Order("refund_request_date ASC").
		Find(&cases).Error
	return cases, err
}

// GetRefundEvents returns the full refund history of a case in cycle order
func (r *caseRepository) GetRefundEvents(caseID uint) ([]models.RefundEvent, error) {
	var events []models.RefundEvent
	err := r.db.Where("case_id = ?", caseID).Order("seq ASC").Find(&events).Error
	return events, err
}

// CountRefundRejections counts prior rejected cycles for a case
func (r *caseRepository) CountRefundRejections(caseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.RefundEvent{}).
		Where("case_id = ? AND type = ?", caseID, models.RefundEventRejection).
		Count(&count).Error
	return count, err
}

// DecideRefund writes one decided refund cycle in a single transaction. The
// conditional refund_requested clear is the race guard: of two concurrent
// decisions exactly one observes the pending transition, and a failure in any
// later write rolls the whole decision back, leaving the request pending. The
// unique (case_id, seq) index on refund_events is the backstop against a
// duplicated cycle.
func (r *caseRepository) DecideRefund(c *models.Case, event *models.RefundEvent, payment *models.Payment) (bool, error) {
	won := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Case{}).
			Where("id = ? AND refund_requested = ?", c.ID, true).
			Update("refund_requested", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		won = true
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		if payment != nil {
			return tx.Save(payment).Error
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

// DeleteExpiredGenerated bulk-deletes generated, still-locked cases whose
// expiration date has passed. Runs in its own transaction.
func (r *caseRepository) DeleteExpiredGenerated(now time.Time) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Case{}).
			Where("status = ? AND document_unlocked = ? AND expiration_date IS NOT NULL AND expiration_date < ?",
				models.CaseStatusGenerated, false, now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("case_id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("case_id IN ?", ids).Delete(&models.RefundEvent{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Case{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

// DeleteAbandonedDrafts bulk-deletes temporary cases created before the
// threshold. Runs in its own transaction.
func (r *caseRepository) DeleteAbandonedDrafts(before time.Time) (int64, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Case{}).
			Where("status = ? AND created_at < ?", models.CaseStatusTemporary, before).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("case_id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Case{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, err
}

// CountExpiredGenerated counts sweep candidates without deleting them
func (r *caseRepository) CountExpiredGenerated(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Case{}).
		Where("status = ? AND document_unlocked = ? AND expiration_date IS NOT NULL AND expiration_date < ?",
			models.CaseStatusGenerated, false, now).
		Count(&count).Error
	return count, err
}

// CountAbandonedDrafts counts sweep candidates without deleting them
func (r *caseRepository) CountAbandonedDrafts(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Case{}).
		Where("status = ? AND created_at < ?", models.CaseStatusTemporary, before).
		Count(&count).Error
	return count, err
}
