package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuschat/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func TestNewConversationDirect(t *testing.T) {
	schoolID := uuid.New()
	creator := uuid.New()
	other := uuid.New()

	conv, err := NewConversation(schoolID, creator, ConversationTypeDirect, nil, nil, []uuid.UUID{other})
	require.NoError(t, err)

	assert.Equal(t, ConversationTypeDirect, conv.Type)
	assert.Nil(t, conv.Title)
	require.NotNil(t, conv.DirectKey)
	assert.Len(t, conv.Participants, 2)

	p, ok := conv.ParticipantByUser(creator)
	require.True(t, ok)
	assert.Equal(t, ParticipantRoleOwner, p.Role)

	p, ok = conv.ParticipantByUser(other)
	require.True(t, ok)
	assert.Equal(t, ParticipantRoleMember, p.Role)
}

func TestNewConversationDirectRejectsTitle(t *testing.T) {
	_, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeDirect, strPtr("hi"), nil, []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewConversationDirectNeedsTwoDistinctParticipants(t *testing.T) {
	creator := uuid.New()

	_, err := NewConversation(uuid.New(), creator, ConversationTypeDirect, nil, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Self plus duplicates still collapses to one participant.
	_, err = NewConversation(uuid.New(), creator, ConversationTypeDirect, nil, nil, []uuid.UUID{creator, creator})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = NewConversation(uuid.New(), creator, ConversationTypeDirect, nil, nil, []uuid.UUID{uuid.New(), uuid.New()})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestNewConversationGroupRequiresTitle(t *testing.T) {
	_, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, nil, nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("   "), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	conv, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("math club"), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, conv.DirectKey)
}

func TestNewConversationUnknownType(t *testing.T) {
	_, err := NewConversation(uuid.New(), uuid.New(), ConversationType("CHANNEL"), strPtr("x"), nil, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDirectKeyOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	assert.Equal(t, DirectKey(a, b), DirectKey(b, a))
}

func TestNewConversationDeduplicatesParticipants(t *testing.T) {
	creator := uuid.New()
	other := uuid.New()

	conv, err := NewConversation(uuid.New(), creator, ConversationTypeGroup, strPtr("g"), nil, []uuid.UUID{other, other, creator})
	require.NoError(t, err)
	assert.Len(t, conv.Participants, 2)
}

func TestNewInviteExpiry(t *testing.T) {
	conv, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("g"), nil, nil)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	_, err = NewInvite(conv, uuid.New(), uuid.New(), &past)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	future := time.Now().Add(time.Hour)
	inv, err := NewInvite(conv, uuid.New(), uuid.New(), &future)
	require.NoError(t, err)
	assert.Equal(t, InviteStatusPending, inv.Status)
	assert.False(t, inv.Expired(time.Now()))
	assert.True(t, inv.Expired(future.Add(time.Second)))
}

func TestNewInviteSelf(t *testing.T) {
	conv, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("g"), nil, nil)
	require.NoError(t, err)

	id := uuid.New()
	_, err = NewInvite(conv, id, id, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOwnerCount(t *testing.T) {
	conv, err := NewConversation(uuid.New(), uuid.New(), ConversationTypeGroup, strPtr("g"), nil, []uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, 1, conv.OwnerCount())
}
