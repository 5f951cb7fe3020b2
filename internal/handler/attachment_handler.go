package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuschat/internal/services"
	"campuschat/internal/transport/httpdto"
)

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Presign hands the client a direct-to-storage upload URL.
func (h *AttachmentHandler) Presign(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}

	result, err := h.service.PresignUpload(c.Request.Context(), actor, services.PresignUploadInput{
		ConversationID: req.ConversationID,
		FileName:       req.FileName,
		ContentType:    req.ContentType,
		SizeBytes:      req.SizeBytes,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}
