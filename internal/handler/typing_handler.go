package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuschat/internal/services"
	"campuschat/internal/transport/httpdto"
)

type TypingHandler struct {
	service *services.TypingService
}

func NewTypingHandler(service *services.TypingService) *TypingHandler {
	return &TypingHandler{service: service}
}

func (h *TypingHandler) Start(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Start(c.Request.Context(), actor, conversationID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TypingHandler) Stop(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Stop(c.Request.Context(), actor, conversationID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TypingHandler) Active(c *gin.Context) {
	actor, conversationID, ok := actorAndParam(c, "id")
	if !ok {
		return
	}
	typists, err := h.service.Active(c.Request.Context(), actor, conversationID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(typists))
}
