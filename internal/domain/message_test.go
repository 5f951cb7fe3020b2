package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/pkg/apperrors"
)

func testConversation(t *testing.T) *Conversation {
	t.Helper()
	conv, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("g"), nil, []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	return conv
}

func TestNewMessage(t *testing.T) {
	conv := testConversation(t)
	sender := conv.Participants[0].UserID

	msg, err := NewMessage(conv, sender, "hello", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, MessageStatusSent, msg.Status)
	assert.Equal(t, ContentTypeText, msg.ContentType)
	assert.Equal(t, conv.SchoolID, msg.SchoolID)
	assert.False(t, msg.IsEdited)
}

func TestValidateContent(t *testing.T) {
	assert.ErrorIs(t, ValidateContent(""), apperrors.ErrValidation)
	assert.ErrorIs(t, ValidateContent("   \n\t"), apperrors.ErrValidation)

	// Length is counted in code points, not bytes.
	assert.NoError(t, ValidateContent(strings.Repeat("é", MaxContentLength)))
	assert.ErrorIs(t, ValidateContent(strings.Repeat("a", MaxContentLength+1)), apperrors.ErrValidation)
}

func TestApplyEditInsideWindow(t *testing.T) {
	conv := testConversation(t)
	msg, err := NewMessage(conv, uuid.New(), "hello", ContentTypeText, nil, nil)
	require.NoError(t, err)

	now := msg.CreatedAt.Add(5 * time.Minute)
	require.NoError(t, msg.ApplyEdit("hello again", now, 15*time.Minute))

	assert.Equal(t, "hello again", msg.Content)
	assert.True(t, msg.IsEdited)
	require.NotNil(t, msg.EditedAt)
	assert.Equal(t, now, *msg.EditedAt)
}

func TestApplyEditWindowBoundary(t *testing.T) {
	conv := testConversation(t)
	msg, err := NewMessage(conv, uuid.New(), "hello", ContentTypeText, nil, nil)
	require.NoError(t, err)

	window := 15 * time.Minute

	// One nanosecond before expiry still succeeds.
	assert.NoError(t, msg.ApplyEdit("a", msg.CreatedAt.Add(window-time.Nanosecond), window))

	// Exactly at the boundary the window is closed.
	err = msg.ApplyEdit("b", msg.CreatedAt.Add(window), window)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestApplyEditRejectsDeleted(t *testing.T) {
	conv := testConversation(t)
	msg, err := NewMessage(conv, uuid.New(), "hello", ContentTypeText, nil, nil)
	require.NoError(t, err)

	require.NoError(t, msg.ApplyDelete(time.Now()))
	err = msg.ApplyEdit("edited", time.Now(), time.Hour)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestApplyDelete(t *testing.T) {
	conv := testConversation(t)
	msg, err := NewMessage(conv, uuid.New(), "hello", ContentTypeText, nil, nil)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, msg.ApplyDelete(now))

	assert.True(t, msg.IsDeleted)
	assert.Equal(t, DeletionMarker, msg.Content)
	require.NotNil(t, msg.DeletedAt)

	// Deleting twice conflicts, and deleted messages refuse reactions.
	assert.ErrorIs(t, msg.ApplyDelete(now), apperrors.ErrConflict)
	assert.ErrorIs(t, msg.CanReact(), apperrors.ErrConflict)
}

func TestNewSystemMessage(t *testing.T) {
	conv := testConversation(t)
	msg := NewSystemMessage(conv, uuid.New(), "user joined")
	assert.True(t, msg.IsSystem)
	assert.Equal(t, MessageStatusSent, msg.Status)
}
