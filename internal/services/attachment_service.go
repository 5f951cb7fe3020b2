package services

import (
	"context"

	"github.com/google/uuid"

	"campuschat/internal/authz"
	"campuschat/internal/domain"
	"campuschat/internal/repository"
	"campuschat/internal/storage"
	"campuschat/pkg/apperrors"
)

type PresignUploadInput struct {
	ConversationID uuid.UUID
	FileName       string
	ContentType    string
	SizeBytes      int64
}

type PresignUploadResult struct {
	AttachmentID uuid.UUID         `json:"attachment_id"`
	ObjectKey    string            `json:"object_key"`
	UploadURL    string            `json:"upload_url"`
	FileURL      string            `json:"file_url,omitempty"`
	Headers      map[string]string `json:"headers"`
}

// AttachmentService brokers direct-to-storage uploads. Clients PUT the file
// against the presigned URL, then reference the returned file URL when
// sending the message.
type AttachmentService struct {
	conversations repository.ConversationRepository
	storage       *storage.Client
}

func NewAttachmentService(conversations repository.ConversationRepository, storage *storage.Client) *AttachmentService {
	return &AttachmentService{conversations: conversations, storage: storage}
}

func (s *AttachmentService) PresignUpload(ctx context.Context, actor domain.Actor, input PresignUploadInput) (PresignUploadResult, error) {
	if s.storage == nil {
		return PresignUploadResult{}, apperrors.Conflictf("attachment storage is not configured")
	}
	if input.FileName == "" {
		return PresignUploadResult{}, &apperrors.ValidationError{Reason: "file name is required"}
	}
	if input.SizeBytes <= 0 || input.SizeBytes > storage.MaxAttachmentSize {
		return PresignUploadResult{}, apperrors.Validationf("file size must be between 1 and %d bytes", storage.MaxAttachmentSize)
	}
	if err := s.storage.ValidateContentType(input.ContentType); err != nil {
		return PresignUploadResult{}, &apperrors.ValidationError{Reason: err.Error()}
	}

	conv, err := s.conversations.GetByID(ctx, actor.SchoolID, input.ConversationID)
	if err != nil {
		return PresignUploadResult{}, err
	}
	participant, _ := conv.ParticipantByUser(actor.UserID)
	if err := authz.Assert(authz.ActionSendMessage, authz.Input{Actor: actor, Conversation: &conv, Participant: participant}); err != nil {
		return PresignUploadResult{}, err
	}

	attachmentID := uuid.New()
	key := storage.AttachmentKey(actor.SchoolID, conv.ID, attachmentID, input.FileName)
	uploadURL, headers, err := s.storage.PresignPut(ctx, key, input.ContentType, input.SizeBytes)
	if err != nil {
		return PresignUploadResult{}, err
	}

	return PresignUploadResult{
		AttachmentID: attachmentID,
		ObjectKey:    key,
		UploadURL:    uploadURL,
		FileURL:      s.storage.FileURL(key),
		Headers:      headers,
	}, nil
}
