package models

import "time"

type Message struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	RoomID   uint      `json:"room_id" gorm:"index"`
	UserID   uint      `json:"user_id"`
	Text     string    `json:"text" gorm:"type:text"`
	TimeSent time.Time `json:"time_sent" gorm:"index"`
}
