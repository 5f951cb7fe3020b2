package services

import (
	"context"

	"campuschat/internal/domain"
	"campuschat/pkg/apperrors"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor stores the authenticated principal on the context. The auth
// middleware sets it once per request.
func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext resolves the acting principal or fails as
// unauthenticated.
func ActorFromContext(ctx context.Context) (domain.Actor, error) {
	actor, ok := ctx.Value(actorContextKey).(domain.Actor)
	if !ok {
		return domain.Actor{}, apperrors.ErrAuthentication
	}
	return actor, nil
}
