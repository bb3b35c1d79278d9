package middleware

import (
	"context"

	"staylane/internal/app/apperr"
	"staylane/internal/app/commands"
	"staylane/internal/app/queries"
	"staylane/internal/domain/user"
)

// Actor is the authenticated caller as seen by the application layer.
type Actor struct {
	ID    user.ID
	Roles []user.Role
}

func (a Actor) HasRole(role user.Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	return actor, ok && actor.ID != ""
}

type Authorizer interface {
	Authorize(ctx context.Context, message any) error
}

// RoleRestricted messages may only be sent by actors holding one of the roles.
type RoleRestricted interface {
	AllowedRoles() []user.Role
}

// RoleAuthorizer checks RoleRestricted messages against the actor in context.
// Admins pass every check.
type RoleAuthorizer struct{}

func (RoleAuthorizer) Authorize(ctx context.Context, message any) error {
	restricted, ok := message.(RoleRestricted)
	if !ok {
		return nil
	}
	actor, ok := ActorFrom(ctx)
	if !ok {
		return apperr.New(apperr.KindUnauthorized, "middleware.authorization", "authentication required", nil)
	}
	if actor.HasRole(user.RoleAdmin) {
		return nil
	}
	for _, role := range restricted.AllowedRoles() {
		if actor.HasRole(role) {
			return nil
		}
	}
	return apperr.New(apperr.KindForbidden, "middleware.authorization", "insufficient role", nil)
}

func Authorization(a Authorizer) CommandMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := a.Authorize(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func QueryAuthorization(a Authorizer) QueryMiddleware {
	if a == nil {
		panic("middleware: authorizer required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := a.Authorize(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
