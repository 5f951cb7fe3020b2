package httpdto

import "github.com/google/uuid"

type SendMessageRequest struct {
	Content     string            `json:"content" binding:"required"`
	ContentType string            `json:"content_type"`
	ReplyToID   *uuid.UUID        `json:"reply_to_id"`
	Metadata    map[string]any    `json:"metadata"`
	Attachments []AttachmentInput `json:"attachments"`
}

type AttachmentInput struct {
	URL          string  `json:"url" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Size         int64   `json:"size" binding:"required"`
	Type         string  `json:"type"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type BroadcastRequest struct {
	Content string `json:"content" binding:"required"`
}

// LoadMessagesQuery binds the pagination query string.
type LoadMessagesQuery struct {
	Cursor    string `form:"cursor"`
	Limit     int    `form:"limit"`
	Direction string `form:"direction"`
}
