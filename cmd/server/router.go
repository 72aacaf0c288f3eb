package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thereayou/streamhub/internal/handlers"
	"github.com/thereayou/streamhub/internal/middleware"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	Video     *handlers.VideoHandler
	Comment   *handlers.CommentHandler
	Room      *handlers.RoomHandler
	Message   *handlers.HTTPMessageHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

func APIEndpoints(r *gin.Engine, h Handlers, authn middleware.Authenticator) {
	requireAuth := middleware.AuthMiddleware(authn)

	r.GET("/healthz", h.Health.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.Auth.Signup)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", requireAuth, h.Auth.Logout)
		auth.GET("/me", requireAuth, h.Auth.Me)
	}

	videos := r.Group("/videos")
	{
		videos.GET("", h.Video.List)
		videos.GET("/liked", requireAuth, h.Video.Liked)
		videos.POST("", requireAuth, h.Video.Create)
		videos.POST("/upload-url", requireAuth, h.Video.UploadURL)
		videos.GET("/:id", h.Video.Get)
		videos.POST("/:id/like", requireAuth, h.Video.Like)
		videos.POST("/:id/dislike", requireAuth, h.Video.Dislike)
		videos.GET("/:id/comments", h.Comment.List)
		videos.POST("/:id/comments", requireAuth, h.Comment.Create)
	}

	chat := r.Group("/chat/rooms")
	{
		chat.GET("", h.Room.List)
		chat.POST("", requireAuth, h.Room.Create)
		chat.GET("/:id", h.Room.Get)
		chat.GET("/:id/messages", requireAuth, h.Message.GetRoomMessages)
		chat.POST("/:id/messages", requireAuth, h.Message.SendMessage)
	}

	r.GET("/ws", middleware.WSAuthMiddleware(authn), h.WebSocket.HandleWebSocket)
}
