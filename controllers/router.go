package controllers

import (
	"context"
	"net/http"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Deps is everything the HTTP layer needs from the rest of the application.
type Deps struct {
	Auth     *services.AuthService
	Rooms    *services.RoomDirectory
	Messages *services.MessageLog
	Logger   zerolog.Logger

	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error

	MaxUploadBytes int64
}

func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.CORS(), logger.GinMiddleware(deps.Logger), gin.Recovery())

	authCtl := NewAuthController(deps.Auth)
	userCtl := NewUserController(deps.Auth)
	roomCtl := NewRoomController(deps.Rooms, deps.Messages)
	messageCtl := NewMessageController(deps.Messages, deps.MaxUploadBytes)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/healthz", healthz(deps.Ping))

	// Authentication routes
	public := router.Group("/api")
	{
		public.POST("/register", authCtl.Register)
		public.POST("/auth/token", authCtl.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.TokenAuth(deps.Auth))
	{
		api.POST("/auth/logout", authCtl.Logout)

		// User routes
		api.GET("/users", userCtl.ListUsers)
		api.GET("/users/:id", userCtl.GetUser)

		// Room routes
		api.GET("/rooms", roomCtl.GetRooms)
		api.POST("/rooms", roomCtl.CreateRoom)
		api.POST("/rooms/create", roomCtl.CreateOrGetRoom)
		api.GET("/rooms/:id", roomCtl.GetRoom)
		api.GET("/rooms/:id/messages", roomCtl.GetRoomMessages)
		api.PATCH("/rooms/:id/update_name", roomCtl.UpdateRoomName)

		// Message routes
		api.GET("/messages", messageCtl.GetMessages)
		api.POST("/messages", messageCtl.CreateMessage)
		api.GET("/messages/:id", messageCtl.GetMessage)
		api.GET("/messages/:id/:kind", messageCtl.GetAttachment)
	}

	return router
}

// healthz godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /healthz [get]
func healthz(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				logger.Ctx(c.Request.Context()).Error().Err(err).Msg("database ping failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
