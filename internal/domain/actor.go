package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of a command: a user within one school
// (tenant), carrying their platform-wide role. Per-conversation roles are
// looked up separately from the participant row.
type Actor struct {
	UserID       uuid.UUID
	SchoolID     uuid.UUID
	PlatformRole PlatformRole
}
