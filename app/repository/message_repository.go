package repository

import (
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

// messageRepository implements the MessageRepository interface
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message in the database
func (r *messageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

// GetByCaseID returns the transcript of a case ordered by send time
func (r *messageRepository) GetByCaseID(caseID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("case_id = ?", caseID).Order("sent_at ASC").Find(&messages).Error
	return messages, err
}
