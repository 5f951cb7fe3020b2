package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"campuschat/internal/domain"
)

func actor(role domain.PlatformRole) domain.Actor {
	return domain.Actor{UserID: uuid.New(), SchoolID: uuid.New(), PlatformRole: role}
}

func member(role domain.ParticipantRole, userID uuid.UUID) *domain.Participant {
	return &domain.Participant{UserID: userID, Role: role}
}

func TestCreationMatrix(t *testing.T) {
	cases := []struct {
		role    domain.PlatformRole
		create  domain.ConversationType
		allowed bool
	}{
		{domain.PlatformRoleStudent, domain.ConversationTypeDirect, true},
		{domain.PlatformRoleStudent, domain.ConversationTypeGroup, true},
		{domain.PlatformRoleStudent, domain.ConversationTypeClass, false},
		{domain.PlatformRoleStudent, domain.ConversationTypeAnnouncement, false},
		{domain.PlatformRoleTeacher, domain.ConversationTypeClass, true},
		{domain.PlatformRoleTeacher, domain.ConversationTypeDepartment, false},
		{domain.PlatformRoleStaff, domain.ConversationTypeDepartment, true},
		{domain.PlatformRoleStaff, domain.ConversationTypeClass, false},
		{domain.PlatformRoleAdmin, domain.ConversationTypeAnnouncement, true},
		{domain.PlatformRoleDeveloper, domain.ConversationTypeAnnouncement, true},
	}

	for _, tc := range cases {
		got := Check(ActionCreateConversation, Input{Actor: actor(tc.role), CreateType: tc.create})
		assert.Equalf(t, tc.allowed, got, "%s creating %s", tc.role, tc.create)
	}
}

func TestReadRequiresParticipation(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}

	assert.False(t, Check(ActionReadConversation, Input{Actor: a, Conversation: conv}))
	assert.True(t, Check(ActionReadConversation, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
}

func TestSendMessageDeniedForReadOnly(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeAnnouncement}

	assert.False(t, Check(ActionSendMessage, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleReadOnly, a.UserID),
	}))
	assert.True(t, Check(ActionSendMessage, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
}

func TestGroupMembersMayAddParticipants(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	group := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}
	class := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeClass}

	// Plain members may invite in groups but not in class conversations.
	assert.True(t, Check(ActionAddParticipant, Input{
		Actor: a, Conversation: group, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
	assert.False(t, Check(ActionAddParticipant, Input{
		Actor: a, Conversation: class, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
	assert.True(t, Check(ActionAddParticipant, Input{
		Actor: a, Conversation: class, Participant: member(domain.ParticipantRoleAdmin, a.UserID),
	}))
}

func TestRemoveParticipantRequiresModerator(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}

	assert.False(t, Check(ActionRemoveParticipant, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
	assert.True(t, Check(ActionRemoveParticipant, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleOwner, a.UserID),
	}))
}

func TestLeaveRequiresParticipation(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}

	assert.True(t, Check(ActionLeaveConversation, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
	assert.True(t, Check(ActionLeaveConversation, Input{
		Actor: a, Conversation: conv, Participant: member(domain.ParticipantRoleReadOnly, a.UserID),
	}))
	assert.False(t, Check(ActionLeaveConversation, Input{Actor: a, Conversation: conv}))
}

func TestEditOnlyBySender(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}
	otherSender := uuid.New()

	assert.True(t, Check(ActionEditMessage, Input{
		Actor: a, Conversation: conv,
		Participant:     member(domain.ParticipantRoleMember, a.UserID),
		MessageSenderID: &a.UserID,
	}))
	// Even an owner cannot edit someone else's message.
	assert.False(t, Check(ActionEditMessage, Input{
		Actor: a, Conversation: conv,
		Participant:     member(domain.ParticipantRoleOwner, a.UserID),
		MessageSenderID: &otherSender,
	}))
}

func TestDeleteBySenderOrModerator(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}
	otherSender := uuid.New()

	assert.True(t, Check(ActionDeleteMessage, Input{
		Actor: a, Conversation: conv,
		Participant:     member(domain.ParticipantRoleMember, a.UserID),
		MessageSenderID: &a.UserID,
	}))
	assert.True(t, Check(ActionDeleteMessage, Input{
		Actor: a, Conversation: conv,
		Participant:     member(domain.ParticipantRoleAdmin, a.UserID),
		MessageSenderID: &otherSender,
	}))
	assert.False(t, Check(ActionDeleteMessage, Input{
		Actor: a, Conversation: conv,
		Participant:     member(domain.ParticipantRoleMember, a.UserID),
		MessageSenderID: &otherSender,
	}))
}

func TestBroadcastOnlyOnAnnouncements(t *testing.T) {
	a := actor(domain.PlatformRoleTeacher)
	announcement := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeAnnouncement}
	group := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}

	assert.True(t, Check(ActionSendBroadcast, Input{
		Actor: a, Conversation: announcement, Participant: member(domain.ParticipantRoleAdmin, a.UserID),
	}))
	assert.False(t, Check(ActionSendBroadcast, Input{
		Actor: a, Conversation: announcement, Participant: member(domain.ParticipantRoleMember, a.UserID),
	}))
	assert.False(t, Check(ActionSendBroadcast, Input{
		Actor: a, Conversation: group, Participant: member(domain.ParticipantRoleAdmin, a.UserID),
	}))
	assert.True(t, Check(ActionSendBroadcast, Input{
		Actor: actor(domain.PlatformRoleAdmin), Conversation: announcement,
	}))
}

func TestDeveloperBypassesEverything(t *testing.T) {
	dev := actor(domain.PlatformRoleDeveloper)
	conv := &domain.Conversation{ID: uuid.New(), Type: domain.ConversationTypeGroup}
	otherSender := uuid.New()

	assert.True(t, Check(ActionDeleteConversation, Input{Actor: dev, Conversation: conv}))
	assert.True(t, Check(ActionEditMessage, Input{Actor: dev, Conversation: conv, MessageSenderID: &otherSender}))
	assert.True(t, Check(Action("made.up.action"), Input{Actor: dev}))
}

func TestUnknownActionDenied(t *testing.T) {
	assert.False(t, Check(Action("made.up.action"), Input{Actor: actor(domain.PlatformRoleAdmin)}))
}

func TestAssertReturnsTypedError(t *testing.T) {
	a := actor(domain.PlatformRoleStudent)
	err := Assert(ActionRemoveParticipant, Input{Actor: a})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), string(ActionRemoveParticipant))
}
