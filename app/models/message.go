package models

import "time"

const (
	MessageSenderUser      = "user"
	MessageSenderAssistant = "assistant"
)

// Message is one turn of the case conversation transcript. The voice agent
// posts them through the messages webhook as the interview happens.
type Message struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	CaseID uint   `gorm:"not null;index" json:"case_id"`
	Sender string `gorm:"type:varchar(20);not null" json:"sender"`
	Text   string `gorm:"type:text;not null" json:"text"`

	SentAt    time.Time `gorm:"not null;index" json:"sent_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Case Case `gorm:"foreignKey:CaseID" json:"-"`
}
