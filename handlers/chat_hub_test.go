package handlers

import (
	"encoding/json"
	"testing"
	"time"
)

func waitForClients(t *testing.T, hub *ChatHub, code string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(code) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients on %s, got %d", want, code, hub.ClientCount(code))
}

func receiveFrame(t *testing.T, client *ChatClient) *Frame {
	t.Helper()
	select {
	case frame, ok := <-client.Send:
		if !ok {
			t.Fatal("send queue closed while a frame was expected")
		}
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

func TestBroadcastReachesAllClientsIncludingSender(t *testing.T) {
	hub := NewChatHub()

	sender := newChatClient(1, nil)
	other := newChatClient(2, nil)
	hub.Attach("ABCDEF", sender)
	hub.Attach("ABCDEF", other)
	waitForClients(t, hub, "ABCDEF", 2)

	hub.Broadcast("ABCDEF", &Frame{Event: json.RawMessage(`"ping"`)})

	for _, client := range []*ChatClient{sender, other} {
		frame := receiveFrame(t, client)
		if string(frame.Event) != `"ping"` {
			t.Errorf("client %s got event %s, want \"ping\"", client.ID, frame.Event)
		}
	}
}

func TestBroadcastIsScopedToRoomCode(t *testing.T) {
	hub := NewChatHub()

	inRoom := newChatClient(1, nil)
	elsewhere := newChatClient(2, nil)
	hub.Attach("AAAAAA", inRoom)
	hub.Attach("BBBBBB", elsewhere)
	waitForClients(t, hub, "AAAAAA", 1)
	waitForClients(t, hub, "BBBBBB", 1)

	hub.Broadcast("AAAAAA", &Frame{Event: json.RawMessage(`1`)})
	receiveFrame(t, inRoom)

	select {
	case frame := <-elsewhere.Send:
		t.Errorf("client in another room received %+v", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastOrderIsFIFOPerPublisher(t *testing.T) {
	hub := NewChatHub()

	client := newChatClient(1, nil)
	hub.Attach("CCCCCC", client)
	waitForClients(t, hub, "CCCCCC", 1)

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(i)
		hub.Broadcast("CCCCCC", &Frame{Event: payload})
	}

	for i := 0; i < 5; i++ {
		frame := receiveFrame(t, client)
		var got int
		if err := json.Unmarshal(frame.Event, &got); err != nil {
			t.Fatalf("unexpected event payload: %s", frame.Event)
		}
		if got != i {
			t.Fatalf("expected frame %d, got %d", i, got)
		}
	}
}

func TestDetachRemovesClient(t *testing.T) {
	hub := NewChatHub()

	staying := newChatClient(1, nil)
	leaving := newChatClient(2, nil)
	hub.Attach("DDDDDD", staying)
	hub.Attach("DDDDDD", leaving)
	waitForClients(t, hub, "DDDDDD", 2)

	hub.Detach(leaving)
	waitForClients(t, hub, "DDDDDD", 1)

	// The departed client's queue is closed; the rest still receive.
	hub.Broadcast("DDDDDD", &Frame{Event: json.RawMessage(`"after"`)})
	receiveFrame(t, staying)

	select {
	case _, ok := <-leaving.Send:
		if ok {
			t.Error("detached client received a frame")
		}
	case <-time.After(2 * time.Second):
		t.Error("expected detached client's queue to be closed")
	}
}

func TestSlowClientIsDroppedWithoutBlockingOthers(t *testing.T) {
	hub := NewChatHub()

	healthy := newChatClient(1, nil)
	stuck := newChatClient(2, nil)
	hub.Attach("EEEEEE", healthy)
	hub.Attach("EEEEEE", stuck)
	waitForClients(t, hub, "EEEEEE", 2)

	// Fill the stuck client's queue so the next delivery cannot land.
	for i := 0; i < cap(stuck.Send); i++ {
		stuck.Send <- &Frame{Event: json.RawMessage(`0`)}
	}

	hub.Broadcast("EEEEEE", &Frame{Event: json.RawMessage(`"overflow"`)})

	// The healthy client drains its queue; the first frame is the overflow
	// broadcast since its queue was empty.
	frame := receiveFrame(t, healthy)
	if string(frame.Event) != `"overflow"` {
		t.Errorf("healthy client got %s, want \"overflow\"", frame.Event)
	}

	waitForClients(t, hub, "EEEEEE", 1)
}

func TestCloseRoomTearsDownGroup(t *testing.T) {
	hub := NewChatHub()

	client := newChatClient(1, nil)
	hub.Attach("FFFFFF", client)
	waitForClients(t, hub, "FFFFFF", 1)

	hub.CloseRoom("FFFFFF")
	waitForClients(t, hub, "FFFFFF", 0)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-client.Send:
			if !ok {
				return // queue closed as expected
			}
		case <-deadline:
			t.Fatal("expected client queue to be closed after CloseRoom")
		}
	}
}

func TestDetachAfterCloseRoomIsSafe(t *testing.T) {
	hub := NewChatHub()

	client := newChatClient(1, nil)
	hub.Attach("GGGGGG", client)
	waitForClients(t, hub, "GGGGGG", 1)

	hub.CloseRoom("GGGGGG")

	done := make(chan struct{})
	go func() {
		hub.Detach(client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Detach blocked after the group was closed")
	}
}
