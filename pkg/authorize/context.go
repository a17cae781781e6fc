package authorize

import (
	"context"
	"errors"

	"github.com/Alijeyrad/medtrack_backend/pkg/reqctx"
)

var ErrNoSubjectInContext = errors.New("no subject found in context")

// RoleFromContext returns the caller's role as carried by the access token.
func RoleFromContext(ctx context.Context) (Role, error) {
	actor, ok := reqctx.ActorFromContext(ctx)
	if !ok || actor.Role == "" {
		return "", ErrNoSubjectInContext
	}
	return Role(actor.Role), nil
}

// EnforceContext checks the permission for the caller found in ctx.
func EnforceContext(ctx context.Context, auth IAuthorization, object Resource, action Action) error {
	role, err := RoleFromContext(ctx)
	if err != nil {
		return err
	}
	return auth.MustEnforce(ctx, role, object, action)
}
