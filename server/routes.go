package server

import (
	"github.com/labstack/echo/v4"
)

func (s *Server) SetupRoutes(authMiddleware echo.MiddlewareFunc) {
	e := s.Echo
	api := e.Group("/api/v1")

	// Auth routes (unprotected)
	auth := api.Group("/auth")
	{
		auth.POST("/register", s.AuthHandler.Register)
		auth.POST("/login", s.AuthHandler.Login)
		auth.POST("/refresh", s.AuthHandler.RefreshToken)
		auth.GET("/verify", s.AuthHandler.VerifyToken)
	}

	// Anyone may probe whether a room code is live
	api.GET("/rooms/active", s.RoomHandler.IsRoomActive)

	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/user", s.AuthHandler.GetCurrentUser)

		rooms := protected.Group("/rooms")
		{
			rooms.POST("", s.RoomHandler.CreateRoom)
			rooms.GET("", s.RoomHandler.GetRoomDetails)
			rooms.PUT("/join", s.RoomHandler.JoinRoom)
			rooms.PUT("/leave", s.RoomHandler.LeaveRoom)
		}

		chat := protected.Group("/chat")
		{
			chat.GET("/:roomId/messages", s.ChatWebSocketHandler.GetMessages)
			chat.GET("/:code/ws", s.ChatWebSocketHandler.HandleWebSocket)
		}
	}
}
