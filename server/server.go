package server

import (
	"github.com/IBM/sarama"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/N1cus0r/chat-backend/config"
	"github.com/N1cus0r/chat-backend/handlers"
	"github.com/N1cus0r/chat-backend/kafka"
	custommiddleware "github.com/N1cus0r/chat-backend/middleware"
	"github.com/N1cus0r/chat-backend/models"
	redispkg "github.com/N1cus0r/chat-backend/redis"
	"github.com/N1cus0r/chat-backend/services"
)

type Server struct {
	Echo                 *echo.Echo
	DB                   *gorm.DB
	Config               *config.Config
	Hub                  *handlers.ChatHub
	AuthHandler          *handlers.AuthHandler
	RoomHandler          *handlers.RoomHandler
	ChatWebSocketHandler *handlers.ChatWebSocketHandler
}

type Validator struct {
	validator *validator.Validate
}

func (v *Validator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

func NewServer() *Server {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = &Validator{validator: validator.New()}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	roomCache := newRoomCache(&cfg.Redis)
	producer := newEventProducer(&cfg.Kafka)

	hub := handlers.NewChatHub()
	authService := services.NewAuthService(db, &cfg.Auth)
	roomService := services.NewRoomService(db, roomCache)
	messageService := services.NewMessageService(db)

	s := &Server{
		Echo:                 e,
		DB:                   db,
		Config:               &cfg,
		Hub:                  hub,
		AuthHandler:          handlers.NewAuthHandler(authService),
		RoomHandler:          handlers.NewRoomHandler(roomService, hub, producer),
		ChatWebSocketHandler: handlers.NewChatWebSocketHandler(hub, roomService, messageService, producer),
	}

	authMiddleware := custommiddleware.AuthMiddleware(authService)
	s.SetupRoutes(authMiddleware)
	return s
}

// newRoomCache wires the optional redis-backed room cache. The service runs
// without it when redis is not configured or unreachable.
func newRoomCache(cfg *config.RedisConfig) *redispkg.RoomCache {
	if cfg.Addr == "" {
		return nil
	}
	client, err := redispkg.NewRedisClient(cfg)
	if err != nil {
		log.Warnf("Room cache disabled: %v", err)
		return nil
	}
	return redispkg.NewRoomCache(client.Client)
}

// newEventProducer wires the optional kafka event stream.
func newEventProducer(cfg *config.KafkaConfig) *kafka.Producer {
	if len(cfg.Brokers) == 0 {
		return nil
	}

	var (
		saramaConfig *sarama.Config
		err          error
	)
	if cfg.Mechanism != "" {
		saramaConfig, err = kafka.NewSaramaConfigWithSCRAM(cfg, cfg.Mechanism)
	} else {
		saramaConfig, err = kafka.NewSaramaConfig(cfg)
	}
	if err != nil {
		log.Warnf("Event stream disabled: %v", err)
		return nil
	}

	producer, err := kafka.NewProducer(cfg.Brokers, cfg.Topic, saramaConfig)
	if err != nil {
		log.Warnf("Event stream disabled: %v", err)
		return nil
	}
	return producer
}

func (s *Server) Start() error {
	return s.Echo.Start(s.Config.Server.Addr)
}
