package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/N1cus0r/chat-backend/kafka"
	"github.com/N1cus0r/chat-backend/models"
	"github.com/N1cus0r/chat-backend/services"
)

type RoomHandler struct {
	roomService *services.RoomService
	hub         *ChatHub
	producer    *kafka.Producer // optional, may be nil
}

func NewRoomHandler(roomService *services.RoomService, hub *ChatHub, producer *kafka.Producer) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		hub:         hub,
		producer:    producer,
	}
}

type CreateRoomRequest struct {
	MaxParticipants int `json:"max_participants" validate:"omitempty,min=2,max=5"`
}

type RoomCodeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// CreateRoom returns the caller's room, creating it on first use. Calling
// again reconfigures the existing room instead of duplicating it.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	user := c.Get("user").(*models.User)

	var req CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": services.ErrInvalidCapacity.Error()})
	}

	room, err := h.roomService.CreateOrReplaceForHost(user.ID, req.MaxParticipants)
	if err != nil {
		if err == services.ErrInvalidCapacity {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create room"})
	}
	return c.JSON(http.StatusCreated, room)
}

// GetRoomDetails resolves a room by the code query parameter.
func (h *RoomHandler) GetRoomDetails(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "room code was not provided"})
	}

	room, err := h.roomService.FindByCode(code)
	if err != nil {
		if err == services.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch room"})
	}
	return c.JSON(http.StatusOK, room)
}

// JoinRoom claims a slot in the room identified by the code in the body.
func (h *RoomHandler) JoinRoom(c echo.Context) error {
	user := c.Get("user").(*models.User)

	var req RoomCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "room code was not provided"})
	}

	room, err := h.roomService.Join(req.Code, user.ID)
	if err != nil {
		switch err {
		case services.ErrRoomNotFound:
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		case services.ErrRoomFull:
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to join room"})
		}
	}
	return c.JSON(http.StatusOK, room)
}

// LeaveRoom releases the caller's slot. When the host leaves, the room is
// dissolved and its broadcast group torn down.
func (h *RoomHandler) LeaveRoom(c echo.Context) error {
	user := c.Get("user").(*models.User)

	var req RoomCodeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "room code was not provided"})
	}

	room, dissolved, err := h.roomService.Leave(req.Code, user.ID)
	if err != nil {
		if err == services.ErrRoomNotFound {
			return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to leave room"})
	}

	if dissolved {
		h.hub.CloseRoom(room.Code)
		if h.producer != nil {
			h.producer.PublishRoomDestroyed(room)
		}
	}
	return c.JSON(http.StatusOK, map[string]string{})
}

// IsRoomActive reports whether a code refers to a live room.
func (h *RoomHandler) IsRoomActive(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "room code was not provided"})
	}

	active, err := h.roomService.IsActive(code)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to check room"})
	}
	if !active {
		return c.JSON(http.StatusNotFound, map[string]string{"error": services.ErrRoomNotFound.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{})
}
