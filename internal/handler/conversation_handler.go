package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/internal/services"
	"campuschat/internal/transport/httpdto"
)

type ConversationHandler struct {
	service *services.ConversationService
}

func NewConversationHandler(service *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req httpdto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	conv, err := h.service.Create(c.Request.Context(), actor, services.CreateConversationInput{
		Type:           domain.ConversationType(req.Type),
		Title:          req.Title,
		Avatar:         req.Avatar,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) List(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	summaries, err := h.service.List(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(summaries))
}

func (h *ConversationHandler) Get(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	conv, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) Update(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req httpdto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	conv, err := h.service.Update(c.Request.Context(), actor, id, services.UpdateConversationInput{
		Title:  req.Title,
		Avatar: req.Avatar,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(conv))
}

func (h *ConversationHandler) Archive(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req httpdto.ArchiveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.SetArchived(c.Request.Context(), actor, id, *req.Archived); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"archived": *req.Archived}))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) UnreadTotal(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	total, err := h.service.UnreadTotal(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"unread_total": total}))
}

func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req httpdto.AddParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	var role *domain.ParticipantRole
	if req.Role != nil {
		r := domain.ParticipantRole(*req.Role)
		role = &r
	}
	if err := h.service.AddParticipant(c.Request.Context(), actor, id, req.UserID, role); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.RemoveParticipant(c.Request.Context(), actor, id, userID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) ChangeRole(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "VALIDATION_FAILED"))
		return
	}
	var req httpdto.ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.ChangeRole(c.Request.Context(), actor, id, userID, domain.ParticipantRole(req.Role)); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) Invite(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req httpdto.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	invite, err := h.service.Invite(c.Request.Context(), actor, services.CreateInviteInput{
		ConversationID: id,
		InviteeID:      req.InviteeID,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(invite))
}

func (h *ConversationHandler) ListInvites(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	invites, err := h.service.ListInvites(c.Request.Context(), actor)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(invites))
}

func (h *ConversationHandler) RespondToInvite(c *gin.Context) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid invite id", "VALIDATION_FAILED"))
		return
	}
	var req httpdto.RespondInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.RespondToInvite(c.Request.Context(), actor, inviteID, *req.Accept); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) SaveDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var req httpdto.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "VALIDATION_FAILED"))
		return
	}
	if err := h.service.SaveDraft(c.Request.Context(), actor, id, req.Content, req.ReplyToID); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) GetDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	draft, err := h.service.GetDraft(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(draft))
}

func (h *ConversationHandler) DeleteDraft(c *gin.Context) {
	actor, id, ok := h.actorAndID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteDraft(c.Request.Context(), actor, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ConversationHandler) actorAndID(c *gin.Context) (actor domain.Actor, id uuid.UUID, ok bool) {
	actor, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return actor, id, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "VALIDATION_FAILED"))
		return actor, id, false
	}
	return actor, id, true
}
