package authz

import (
	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

// Input carries everything a permission rule may inspect. Conversation and
// Participant are nil when the action has no conversation context (create)
// or the actor is not a member. MessageSenderID is only set for
// message-level actions.
type Input struct {
	Actor           domain.Actor
	Conversation    *domain.Conversation
	Participant     *domain.Participant
	MessageSenderID *uuid.UUID
	// CreateType is the conversation type being created, for
	// ActionCreateConversation only.
	CreateType domain.ConversationType
}

func (in Input) actorIsSender() bool {
	return in.MessageSenderID != nil && *in.MessageSenderID == in.Actor.UserID
}

func (in Input) isParticipant() bool { return in.Participant != nil }

func (in Input) hasRole() domain.ParticipantRole {
	if in.Participant == nil {
		return ""
	}
	return in.Participant.Role
}

func (in Input) isCreator() bool {
	return in.Conversation != nil && in.Conversation.CreatedBy == in.Actor.UserID
}

type rule func(in Input) bool

// creationMatrix maps platform roles to the conversation types they may
// open. Elevated roles are handled before the table is consulted.
var creationMatrix = map[domain.PlatformRole]map[domain.ConversationType]bool{
	domain.PlatformRoleStudent: {
		domain.ConversationTypeDirect: true,
		domain.ConversationTypeGroup:  true,
	},
	domain.PlatformRoleTeacher: {
		domain.ConversationTypeDirect: true,
		domain.ConversationTypeGroup:  true,
		domain.ConversationTypeClass:  true,
	},
	domain.PlatformRoleStaff: {
		domain.ConversationTypeDirect:     true,
		domain.ConversationTypeGroup:      true,
		domain.ConversationTypeDepartment: true,
	},
}

// rules is the exhaustive permission table. Every Action must appear here;
// unknown actions are denied.
var rules = map[Action]rule{
	ActionCreateConversation: func(in Input) bool {
		if in.Actor.PlatformRole.Elevated() {
			return true
		}
		return creationMatrix[in.Actor.PlatformRole][in.CreateType]
	},
	ActionReadConversation: func(in Input) bool {
		return in.isParticipant()
	},
	ActionReadMessage: func(in Input) bool {
		return in.isParticipant()
	},
	ActionUpdateConversation: func(in Input) bool {
		return in.isCreator() || in.hasRole().CanModerate()
	},
	ActionDeleteConversation: func(in Input) bool {
		return in.Actor.PlatformRole.Elevated() || in.isCreator()
	},
	ActionArchiveConversation: func(in Input) bool {
		return in.isParticipant()
	},
	ActionLeaveConversation: func(in Input) bool {
		return in.isParticipant()
	},
	ActionAddParticipant: func(in Input) bool {
		if in.hasRole().CanModerate() {
			return true
		}
		return in.Conversation != nil &&
			in.Conversation.Type == domain.ConversationTypeGroup &&
			in.hasRole() == domain.ParticipantRoleMember
	},
	ActionRemoveParticipant: func(in Input) bool {
		return in.hasRole().CanModerate()
	},
	ActionChangeRole: func(in Input) bool {
		return in.hasRole().CanModerate()
	},
	ActionSendMessage: func(in Input) bool {
		return in.isParticipant() && in.hasRole() != domain.ParticipantRoleReadOnly
	},
	ActionEditMessage: func(in Input) bool {
		return in.actorIsSender()
	},
	ActionDeleteMessage: func(in Input) bool {
		return in.actorIsSender() || in.hasRole().CanModerate()
	},
	ActionReactToMessage: func(in Input) bool {
		return in.isParticipant()
	},
	ActionPinMessage: func(in Input) bool {
		return in.hasRole().CanModerate()
	},
	ActionSendBroadcast: func(in Input) bool {
		if in.Conversation == nil || in.Conversation.Type != domain.ConversationTypeAnnouncement {
			return false
		}
		return in.Actor.PlatformRole.Elevated() || in.hasRole().CanModerate()
	},
}

// Check decides (actor, action, context) → allow/deny. The developer role
// is the super-admin escape hatch and bypasses every rule.
func Check(action Action, in Input) bool {
	if in.Actor.PlatformRole == domain.PlatformRoleDeveloper {
		return true
	}
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r(in)
}

// Assert raises a typed authorization error naming the denied action.
func Assert(action Action, in Input) error {
	if !Check(action, in) {
		return &apperrors.AuthzError{Action: string(action)}
	}
	return nil
}
