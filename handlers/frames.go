package handlers

import (
	"bytes"
	"encoding/json"
	"time"
)

// Frame is one unit of live-connection payload, in either direction.
// Exactly one of Event or Message is set: events are opaque blobs relayed
// unmodified, messages are persisted chat lines.
type Frame struct {
	Event   json.RawMessage `json:"event,omitempty"`
	Message *MessagePayload `json:"message,omitempty"`
}

type MessagePayload struct {
	ID       uint       `json:"id,omitempty"`
	UserID   uint       `json:"user_id"`
	RoomID   uint       `json:"room_id"`
	Text     string     `json:"text"`
	TimeSent *time.Time `json:"time_sent,omitempty"`
}

type FrameKind int

const (
	FrameMalformed FrameKind = iota
	FrameEvent
	FrameMessage
)

var jsonNull = []byte("null")

// DecodeFrame classifies a raw inbound frame. Anything that is not valid
// JSON carrying an event or a message is FrameMalformed; the caller logs
// and drops it without ending the session.
func DecodeFrame(raw []byte) (FrameKind, *Frame) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return FrameMalformed, nil
	}

	if len(frame.Event) > 0 && !bytes.Equal(frame.Event, jsonNull) {
		return FrameEvent, &frame
	}
	if frame.Message != nil {
		return FrameMessage, &frame
	}
	return FrameMalformed, nil
}
