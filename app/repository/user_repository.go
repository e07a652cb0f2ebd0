package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft-deletes a user by ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// List retrieves users with pagination
func (r *userRepository) List(offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&users).Error
	return users, err
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// ListAll returns every user, ordered by ID, for the nightly batch jobs.
func (r *userRepository) ListAll() ([]models.User, error) {
	var users []models.User
	err := r.db.Order("id ASC").Find(&users).Error
	return users, err
}

// ResetBonusSessions zeroes bonus_sessions_today wherever it is non-zero.
func (r *userRepository) ResetBonusSessions() (int64, error) {
	result := r.db.Model(&models.User{}).
		Where("bonus_sessions_today > 0").
		Update("bonus_sessions_today", 0)
	return result.RowsAffected, result.Error
}

// UpdateTierFields overwrites the cached tiering columns for one user
func (r *userRepository) UpdateTierFields(userID uint, tier, paymentsLast30 int, recalcAt time.Time) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"tier":                  tier,
			"payments_last_30_days": paymentsLast30,
			"last_tier_recalc":      recalcAt,
		}).Error
}

// UpdateTierFieldsBulk applies the nightly recalculation in one transaction
// so a crash mid-batch leaves no half-written tier state behind.
func (r *userRepository) UpdateTierFieldsBulk(updates []TierUpdate) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			err := tx.Model(&models.User{}).
				Where("id = ?", u.UserID).
				Updates(map[string]interface{}{
					"tier":                  u.Tier,
					"payments_last_30_days": u.PaymentsLast30,
					"last_tier_recalc":      u.RecalcAt,
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
