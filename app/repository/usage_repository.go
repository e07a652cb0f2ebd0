package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// usageRepository implements the UsageRepository interface
type usageRepository struct {
	db *gorm.DB
}

// NewUsageRepository creates a new usage repository instance
func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepository{db: db}
}

// GetForDate retrieves the usage row of a user for one calendar date
func (r *usageRepository) GetForDate(userID uint, date time.Time) (*models.DailyUsage, error) {
	var u models.DailyUsage
	day := date.Truncate(24 * time.Hour)
	err := r.db.Where("user_id = ? AND usage_date = ?", userID, day.Format("2006-01-02")).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create creates a new daily usage row
func (r *usageRepository) Create(u *models.DailyUsage) error {
	return r.db.Create(u).Error
}

// Update updates an existing daily usage row
func (r *usageRepository) Update(u *models.DailyUsage) error {
	return r.db.Save(u).Error
}

// DeleteOlderThan bulk-deletes usage rows with a date before the threshold
func (r *usageRepository) DeleteOlderThan(before time.Time) (int64, error) {
	result := r.db.Where("usage_date < ?", before.Format("2006-01-02")).
		Delete(&models.DailyUsage{})
	return result.RowsAffected, result.Error
}

// CountOlderThan counts sweep candidates without deleting them
func (r *usageRepository) CountOlderThan(before time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.DailyUsage{}).
		Where("usage_date < ?", before.Format("2006-01-02")).
		Count(&count).Error
	return count, err
}
