package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/N1cus0r/chat-backend/models"
)

var ErrEmptyMessage = errors.New("message text must not be empty")

// HistoryLimit is how many recent messages a history request returns.
const HistoryLimit = 10

// MessageService is the storage collaborator for chat messages: append on
// receive, last-N for history.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// Append persists a new message and returns it with its assigned id.
func (s *MessageService) Append(roomID, userID uint, text string) (*models.Message, error) {
	if text == "" {
		return nil, ErrEmptyMessage
	}

	message := models.Message{
		RoomID:   roomID,
		UserID:   userID,
		Text:     text,
		TimeSent: time.Now(),
	}
	if err := s.db.Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

// History returns up to HistoryLimit messages of a room, newest first.
func (s *MessageService) History(roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("room_id = ?", roomID).
		Order("time_sent DESC").
		Order("id DESC").
		Limit(HistoryLimit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
