package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"campuschat/internal/auth"
	"campuschat/internal/middleware"
	"campuschat/internal/ratelimit"
	"campuschat/internal/websocket"
	"campuschat/pkg/logger"
)

type RouterDeps struct {
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Typing        *TypingHandler
	Attachments   *AttachmentHandler
	WebSocket     *websocket.Handler
	TokenParser   *auth.TokenParser
	RateStore     ratelimit.CounterStore
	Logger        *logger.Logger
}

// NewRouter assembles the full HTTP surface: middleware chain, REST routes
// and the WebSocket upgrade endpoint.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.ErrorHandler(deps.Logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/ws", deps.WebSocket.Connect)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.TokenParser))
	v1.Use(middleware.APIRateLimit(deps.RateStore, 300, time.Minute))

	conversations := v1.Group("/conversations")
	{
		conversations.POST("", deps.Conversations.Create)
		conversations.GET("", deps.Conversations.List)
		conversations.GET("/unread", deps.Conversations.UnreadTotal)
		conversations.GET("/:id", deps.Conversations.Get)
		conversations.PATCH("/:id", deps.Conversations.Update)
		conversations.DELETE("/:id", deps.Conversations.Delete)
		conversations.POST("/:id/archive", deps.Conversations.Archive)

		conversations.POST("/:id/participants", deps.Conversations.AddParticipant)
		conversations.DELETE("/:id/participants/:userId", deps.Conversations.RemoveParticipant)
		conversations.PATCH("/:id/participants/:userId/role", deps.Conversations.ChangeRole)

		conversations.POST("/:id/invites", deps.Conversations.Invite)

		conversations.PUT("/:id/draft", deps.Conversations.SaveDraft)
		conversations.GET("/:id/draft", deps.Conversations.GetDraft)
		conversations.DELETE("/:id/draft", deps.Conversations.DeleteDraft)

		conversations.POST("/:id/messages", deps.Messages.Send)
		conversations.GET("/:id/messages", deps.Messages.Load)
		conversations.POST("/:id/read", deps.Messages.MarkConversationRead)
		conversations.GET("/:id/pins", deps.Messages.ListPinned)
		conversations.POST("/:id/broadcast", deps.Messages.Broadcast)

		conversations.POST("/:id/typing/start", deps.Typing.Start)
		conversations.POST("/:id/typing/stop", deps.Typing.Stop)
		conversations.GET("/:id/typing", deps.Typing.Active)
	}

	invites := v1.Group("/invites")
	{
		invites.GET("", deps.Conversations.ListInvites)
		invites.POST("/:inviteId/respond", deps.Conversations.RespondToInvite)
	}

	messages := v1.Group("/messages")
	{
		messages.PATCH("/:messageId", deps.Messages.Edit)
		messages.DELETE("/:messageId", deps.Messages.Delete)
		messages.POST("/:messageId/reactions", deps.Messages.React)
		messages.POST("/:messageId/read", deps.Messages.MarkRead)
		messages.GET("/:messageId/receipts", deps.Messages.ReadReceipts)
		messages.POST("/:messageId/pin", deps.Messages.Pin)
		messages.DELETE("/:messageId/pin", deps.Messages.Unpin)
	}

	v1.DELETE("/reactions/:reactionId", deps.Messages.RemoveReaction)
	v1.POST("/attachments/presign", deps.Attachments.Presign)

	return r
}
