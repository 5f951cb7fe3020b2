package domain

type ConversationType string

const (
	ConversationTypeDirect       ConversationType = "DIRECT"
	ConversationTypeGroup        ConversationType = "GROUP"
	ConversationTypeClass        ConversationType = "CLASS"
	ConversationTypeDepartment   ConversationType = "DEPARTMENT"
	ConversationTypeAnnouncement ConversationType = "ANNOUNCEMENT"
)

func (t ConversationType) Valid() bool {
	switch t {
	case ConversationTypeDirect, ConversationTypeGroup, ConversationTypeClass,
		ConversationTypeDepartment, ConversationTypeAnnouncement:
		return true
	}
	return false
}

// RequiresTitle reports whether conversations of this type must carry a
// non-empty title. Direct conversations never have one.
func (t ConversationType) RequiresTitle() bool {
	return t != ConversationTypeDirect
}

type ParticipantRole string

const (
	ParticipantRoleOwner    ParticipantRole = "OWNER"
	ParticipantRoleAdmin    ParticipantRole = "ADMIN"
	ParticipantRoleMember   ParticipantRole = "MEMBER"
	ParticipantRoleReadOnly ParticipantRole = "READ_ONLY"
)

// Rank orders participant roles: owner(4) > admin(3) > member(2) > read_only(1).
func (r ParticipantRole) Rank() int {
	switch r {
	case ParticipantRoleOwner:
		return 4
	case ParticipantRoleAdmin:
		return 3
	case ParticipantRoleMember:
		return 2
	case ParticipantRoleReadOnly:
		return 1
	}
	return 0
}

func (r ParticipantRole) Valid() bool { return r.Rank() > 0 }

// CanModerate reports whether the role may manage participants, pins and
// conversation settings.
func (r ParticipantRole) CanModerate() bool {
	return r == ParticipantRoleOwner || r == ParticipantRoleAdmin
}

// PlatformRole is the actor's school-wide role, distinct from any
// per-conversation participant role.
type PlatformRole string

const (
	PlatformRoleStudent   PlatformRole = "STUDENT"
	PlatformRoleTeacher   PlatformRole = "TEACHER"
	PlatformRoleStaff     PlatformRole = "STAFF"
	PlatformRoleAdmin     PlatformRole = "ADMIN"
	PlatformRoleDeveloper PlatformRole = "DEVELOPER"
)

func (r PlatformRole) Valid() bool {
	switch r {
	case PlatformRoleStudent, PlatformRoleTeacher, PlatformRoleStaff,
		PlatformRoleAdmin, PlatformRoleDeveloper:
		return true
	}
	return false
}

// Elevated platform roles bypass participant-level checks.
func (r PlatformRole) Elevated() bool {
	return r == PlatformRoleAdmin || r == PlatformRoleDeveloper
}

type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "SENDING"
	MessageStatusSent      MessageStatus = "SENT"
	MessageStatusDelivered MessageStatus = "DELIVERED"
	MessageStatusRead      MessageStatus = "READ"
)

type ContentType string

const (
	ContentTypeText  ContentType = "TEXT"
	ContentTypeImage ContentType = "IMAGE"
	ContentTypeFile  ContentType = "FILE"
	ContentTypeAudio ContentType = "AUDIO"
	ContentTypeVideo ContentType = "VIDEO"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusRejected InviteStatus = "REJECTED"
	InviteStatusExpired  InviteStatus = "EXPIRED"
)
