package kafka

import (
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"github.com/labstack/gommon/log"

	"github.com/N1cus0r/chat-backend/models"
)

// Producer publishes chat lifecycle events (message persisted, room
// destroyed) to a single topic, keyed by room code so that one room's
// events stay in order on one partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

type MessageCreatedEvent struct {
	Kind      string    `json:"kind"` // "message.created"
	RoomCode  string    `json:"room_code"`
	MessageID uint      `json:"message_id"`
	RoomID    uint      `json:"room_id"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"text"`
	TimeSent  time.Time `json:"time_sent"`
}

type RoomDestroyedEvent struct {
	Kind     string `json:"kind"` // "room.destroyed"
	RoomCode string `json:"room_code"`
	RoomID   uint   `json:"room_id"`
	HostID   uint   `json:"host_id"`
}

func NewProducer(brokers []string, topic string, config *sarama.Config) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, err
	}
	return &Producer{producer: producer, topic: topic}, nil
}

// PublishMessageCreated emits an event for a freshly persisted message.
// Failures are logged and swallowed: the event stream is an observer of the
// chat flow, never a gate on it.
func (p *Producer) PublishMessageCreated(roomCode string, message *models.Message) {
	p.send(roomCode, MessageCreatedEvent{
		Kind:      "message.created",
		RoomCode:  roomCode,
		MessageID: message.ID,
		RoomID:    message.RoomID,
		UserID:    message.UserID,
		Text:      message.Text,
		TimeSent:  message.TimeSent,
	})
}

// PublishRoomDestroyed emits an event when a host dissolves a room.
func (p *Producer) PublishRoomDestroyed(room *models.Room) {
	p.send(room.Code, RoomDestroyedEvent{
		Kind:     "room.destroyed",
		RoomCode: room.Code,
		RoomID:   room.ID,
		HostID:   room.HostID,
	})
}

func (p *Producer) send(key string, value interface{}) {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		log.Errorf("Failed to marshal kafka event: %v", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(jsonValue),
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		log.Errorf("Failed to publish kafka event for room %s: %v", key, err)
	}
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
