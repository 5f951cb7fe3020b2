package httpdto

import "github.com/google/uuid"

type PresignUploadRequest struct {
	ConversationID uuid.UUID `json:"conversation_id" binding:"required"`
	FileName       string    `json:"file_name" binding:"required"`
	ContentType    string    `json:"content_type" binding:"required"`
	SizeBytes      int64     `json:"size_bytes" binding:"required"`
}
