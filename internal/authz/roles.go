package authz

import (
	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

// CanChangeRole validates a participant role change. The actor must rank at
// least as high as the target's current role, and only owners may assign a
// role at or above their own rank — a non-owner cannot promote a peer to
// their own level or higher.
func CanChangeRole(actorRole, targetRole, newRole domain.ParticipantRole) bool {
	if !newRole.Valid() {
		return false
	}
	if actorRole.Rank() < targetRole.Rank() {
		return false
	}
	if actorRole == domain.ParticipantRoleOwner {
		return true
	}
	return newRole.Rank() < actorRole.Rank()
}

// AssertRoleChange wraps CanChangeRole with the typed authz error.
func AssertRoleChange(actorRole, targetRole, newRole domain.ParticipantRole) error {
	if !CanChangeRole(actorRole, targetRole, newRole) {
		return &apperrors.AuthzError{Action: string(ActionChangeRole)}
	}
	return nil
}
