package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/N1cus0r/chat-backend/kafka"
	"github.com/N1cus0r/chat-backend/models"
	"github.com/N1cus0r/chat-backend/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatWebSocketHandler owns the live-connection side of a room: it attaches
// sockets to the hub, dispatches inbound frames and serves message history.
type ChatWebSocketHandler struct {
	hub      *ChatHub
	rooms    *services.RoomService
	messages *services.MessageService
	producer *kafka.Producer // optional, may be nil
}

func NewChatWebSocketHandler(hub *ChatHub, rooms *services.RoomService, messages *services.MessageService, producer *kafka.Producer) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		hub:      hub,
		rooms:    rooms,
		messages: messages,
		producer: producer,
	}
}

// HandleWebSocket upgrades the request and runs the session until the
// client disconnects. The room code comes from the route; a dead code is
// rejected before the upgrade.
func (h *ChatWebSocketHandler) HandleWebSocket(c echo.Context) error {
	code := c.Param("code")
	user := c.Get("user").(*models.User)

	if _, err := h.rooms.FindByCode(code); err != nil {
		if err == services.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to resolve room"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newChatClient(user.ID, ws)
	h.hub.Attach(code, client)

	go h.writePump(client)
	h.readPump(code, client)

	return nil
}

// readPump consumes inbound frames until the connection dies. Detaching
// from the hub is deferred so cleanup runs on every exit path, error or
// abrupt disconnect included.
func (h *ChatWebSocketHandler) readPump(code string, client *ChatClient) {
	defer func() {
		client.cancel()
		h.hub.Detach(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("WebSocket error on room %s: %v", code, err)
			}
			break
		}

		h.handleFrame(code, client, raw)
	}
}

// handleFrame classifies one inbound frame and relays it. A frame-level
// error never terminates the session.
func (h *ChatWebSocketHandler) handleFrame(code string, client *ChatClient, raw []byte) {
	kind, frame := DecodeFrame(raw)
	switch kind {
	case FrameEvent:
		h.hub.Broadcast(code, &Frame{Event: frame.Event})

	case FrameMessage:
		h.handleChatMessage(code, frame.Message)

	default:
		log.Warnf("Dropping malformed frame from client %s on room %s", client.ID, code)
	}
}

// handleChatMessage persists the message, then relays it with the assigned
// id so every participant sees the stored identity.
func (h *ChatWebSocketHandler) handleChatMessage(code string, payload *MessagePayload) {
	message, err := h.messages.Append(payload.RoomID, payload.UserID, payload.Text)
	if err != nil {
		log.Errorf("Failed to save message for room %s: %v", code, err)
		return
	}

	payload.ID = message.ID
	payload.TimeSent = &message.TimeSent
	h.hub.Broadcast(code, &Frame{Message: payload})

	if h.producer != nil {
		h.producer.PublishMessageCreated(code, message)
	}
}

// writePump drains the client's send queue and keeps the connection alive
// with pings. A closed queue means the group let the client go.
func (h *ChatWebSocketHandler) writePump(client *ChatClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case <-client.ctx.Done():
			return

		case frame, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(frame); err != nil {
				log.Warnf("WriteJSON error for client %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// GetMessages returns the most recent messages of a room, newest first.
func (h *ChatWebSocketHandler) GetMessages(c echo.Context) error {
	roomID64, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room ID"})
	}

	messages, err := h.messages.History(uint(roomID64))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch messages"})
	}
	return c.JSON(http.StatusOK, messages)
}
