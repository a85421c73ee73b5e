package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrCapacityExceeded is returned by the save hook when a write would leave
// a room with more participants than it can seat.
var ErrCapacityExceeded = errors.New("room is full")

// CodeLength is the length of the short join code identifying a room.
const CodeLength = 6

// Capacity bounds for a room. DefaultCapacity applies when the host does
// not ask for a specific size.
const (
	MinCapacity     = 2
	MaxCapacity     = 5
	DefaultCapacity = 5
)

type Room struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	HostID          uint      `json:"host_id" gorm:"index"`
	Code            string    `json:"code" gorm:"size:6;uniqueIndex"`
	MaxParticipants int       `json:"max_participants"`
	Participants    int       `json:"participants"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsFull reports whether the room has no free slot left.
func (r *Room) IsFull() bool {
	return r.Participants >= r.MaxParticipants
}

// BeforeSave keeps the participants count inside [0, MaxParticipants] on
// every instance write.
func (r *Room) BeforeSave(tx *gorm.DB) error {
	if r.Participants < 0 || r.Participants > r.MaxParticipants {
		return ErrCapacityExceeded
	}
	return nil
}
