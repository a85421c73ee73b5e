package handlers

import (
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want FrameKind
	}{
		{
			name: "opaque event object",
			raw:  `{"event": {"kind": "cursor", "x": 3}}`,
			want: FrameEvent,
		},
		{
			name: "opaque event scalar",
			raw:  `{"event": "ping"}`,
			want: FrameEvent,
		},
		{
			name: "chat message",
			raw:  `{"message": {"user_id": 1, "room_id": 2, "text": "hi"}}`,
			want: FrameMessage,
		},
		{
			name: "event wins when both present",
			raw:  `{"event": "x", "message": {"user_id": 1, "room_id": 2, "text": "hi"}}`,
			want: FrameEvent,
		},
		{
			name: "null event with no message",
			raw:  `{"event": null}`,
			want: FrameMalformed,
		},
		{
			name: "unrelated object",
			raw:  `{"something": "else"}`,
			want: FrameMalformed,
		},
		{
			name: "invalid json",
			raw:  `{not json`,
			want: FrameMalformed,
		},
		{
			name: "empty payload",
			raw:  ``,
			want: FrameMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, frame := DecodeFrame([]byte(tt.raw))
			if kind != tt.want {
				t.Errorf("DecodeFrame() kind = %v, want %v", kind, tt.want)
			}
			if tt.want != FrameMalformed && frame == nil {
				t.Error("expected a decoded frame for a well-formed payload")
			}
		})
	}
}

func TestDecodeFrame_MessageFields(t *testing.T) {
	kind, frame := DecodeFrame([]byte(`{"message": {"user_id": 4, "room_id": 9, "text": "hello"}}`))
	if kind != FrameMessage {
		t.Fatalf("DecodeFrame() kind = %v, want FrameMessage", kind)
	}

	m := frame.Message
	if m.UserID != 4 || m.RoomID != 9 || m.Text != "hello" {
		t.Errorf("unexpected message payload: %+v", m)
	}
	if m.ID != 0 {
		t.Errorf("inbound message must not carry an id, got %d", m.ID)
	}
}
