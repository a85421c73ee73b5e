package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/N1cus0r/chat-backend/models"
	"github.com/N1cus0r/chat-backend/services"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

type testEnv struct {
	echo     *echo.Echo
	db       *gorm.DB
	hub      *ChatHub
	rooms    *services.RoomService
	messages *services.MessageService
	roomH    *RoomHandler
	chatH    *ChatWebSocketHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrateAll(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	hub := NewChatHub()
	rooms := services.NewRoomService(db, nil)
	messages := services.NewMessageService(db)

	return &testEnv{
		echo:     e,
		db:       db,
		hub:      hub,
		rooms:    rooms,
		messages: messages,
		roomH:    NewRoomHandler(rooms, hub, nil),
		chatH:    NewChatWebSocketHandler(hub, rooms, messages, nil),
	}
}

// request runs a handler against a synthetic JSON request issued by user.
func (env *testEnv) request(t *testing.T, method, target, body string, user *models.User, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := env.echo.NewContext(req, rec)
	if user != nil {
		c.Set("user", user)
	}

	if err := handler(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeRoom(t *testing.T, rec *httptest.ResponseRecorder) models.Room {
	t.Helper()
	var room models.Room
	if err := json.Unmarshal(rec.Body.Bytes(), &room); err != nil {
		t.Fatalf("failed to decode room response: %v", err)
	}
	return room
}

func (env *testEnv) createRoom(t *testing.T, host *models.User, maxParticipants int) models.Room {
	t.Helper()
	body := "{}"
	if maxParticipants != 0 {
		body = fmt.Sprintf(`{"max_participants": %d}`, maxParticipants)
	}
	rec := env.request(t, http.MethodPost, "/api/v1/rooms", body, host, env.roomH.CreateRoom)
	if rec.Code != http.StatusCreated {
		t.Fatalf("CreateRoom status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeRoom(t, rec)
}
