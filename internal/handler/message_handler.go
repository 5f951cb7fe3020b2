package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/internal/repository"
	"campuschat/internal/services"
	"campuschat/internal/transport/httpdto"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

func (h *MessageHandler) Send(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}

	attachments := make([]services.AttachmentInput, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, services.AttachmentInput{
			URL:          a.URL,
			Name:         a.Name,
			Size:         a.Size,
			Type:         a.Type,
			ThumbnailURL: a.ThumbnailURL,
		})
	}

	msg, err := h.service.Send(c.Request.Context(), actor, services.SendMessageInput{
		ConversationID: conversationID,
		Content:        req.Content,
		ContentType:    domain.ContentType(req.ContentType),
		ReplyToID:      req.ReplyToID,
		Metadata:       req.Metadata,
		Attachments:    attachments,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(msg))
}

// Load serves history pages: ?cursor=&limit=&direction=before|after.
func (h *MessageHandler) Load(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	var query httpdto.LoadMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid query", "VALIDATION_FAILED"))
		return
	}

	page, err := h.service.Load(c.Request.Context(), actor, services.LoadMessagesInput{
		ConversationID: conversationID,
		Cursor:         query.Cursor,
		Limit:          query.Limit,
		Direction:      repository.Direction(query.Direction),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(page))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	msg, err := h.service.Edit(c.Request.Context(), actor, messageID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msg))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, messageID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) React(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	var req httpdto.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.React(c.Request.Context(), actor, messageID, req.Emoji); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	actor, reactionID, ok := actorAndParam(c, "reactionId")
	if !ok {
		return
	}
	if err := h.service.RemoveReaction(c.Request.Context(), actor, reactionID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.service.MarkRead(c.Request.Context(), actor, messageID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) MarkConversationRead(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkConversationRead(c.Request.Context(), actor, conversationID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ReadReceipts(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	receipts, err := h.service.ReadReceipts(c.Request.Context(), actor, messageID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(receipts))
}

func (h *MessageHandler) Pin(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.service.Pin(c.Request.Context(), actor, messageID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) Unpin(c *gin.Context) {
	actor, messageID, ok := actorAndParam(c, "messageId")
	if !ok {
		return
	}
	if err := h.service.Unpin(c.Request.Context(), actor, messageID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ListPinned(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	pinned, err := h.service.ListPinned(c.Request.Context(), actor, conversationID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(pinned))
}

func (h *MessageHandler) Broadcast(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	var req httpdto.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	msg, err := h.service.Broadcast(c.Request.Context(), actor, conversationID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(msg))
}

func actorAndParam(c *gin.Context, param string) (actor domain.Actor, id uuid.UUID, ok bool) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return actor, id, false
	}
	id, err = uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid "+param, "VALIDATION_FAILED"))
		return actor, id, false
	}
	return actor, id, true
}
