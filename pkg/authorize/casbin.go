package authorize

import (
	"context"
	"errors"
	"fmt"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

var (
	ErrForbidden   = errors.New("forbidden")
	ErrInvalidArgs = errors.New("invalid authorization arguments")
)

// IAuthorization is the only thing services/middleware should depend on.
type IAuthorization interface {
	Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error)

	// MustEnforce returns ErrForbidden when not allowed.
	MustEnforce(ctx context.Context, role Role, object Resource, action Action) error

	AddPermission(ctx context.Context, p Policy) (bool, error)
	RemovePermission(ctx context.Context, p Policy) (bool, error)
}

// Authorization is a thin typed wrapper around casbin.SyncedEnforcer.
type Authorization struct {
	enforcer *casbin.SyncedEnforcer
}

// New builds an in-memory enforcer from the RBAC model and loads the given
// policies. Policies live in code and are reloaded on every start.
func New(policies []Policy) (*Authorization, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}

	a := &Authorization{enforcer: e}
	for _, p := range policies {
		if _, err := a.AddPermission(context.Background(), p); err != nil {
			return nil, fmt.Errorf("add policy %v: %w", p, err)
		}
	}
	return a, nil
}

func (a *Authorization) Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error) {
	_ = ctx

	if role == "" {
		return false, fmt.Errorf("%w: role is empty", ErrInvalidArgs)
	}
	if _, ok := KnownResources[object]; !ok {
		return false, fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, object)
	}
	if _, ok := KnownActions[action]; !ok {
		return false, fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, action)
	}

	return a.enforcer.Enforce(string(role), string(object), string(action))
}

func (a *Authorization) MustEnforce(ctx context.Context, role Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *Authorization) AddPermission(ctx context.Context, p Policy) (bool, error) {
	_ = ctx
	if err := validatePolicy(p); err != nil {
		return false, err
	}
	return a.enforcer.AddPolicy(string(p.Role), string(p.Resource), string(p.Action), string(p.Effect))
}

func (a *Authorization) RemovePermission(ctx context.Context, p Policy) (bool, error) {
	_ = ctx
	if err := validatePolicy(p); err != nil {
		return false, err
	}
	return a.enforcer.RemovePolicy(string(p.Role), string(p.Resource), string(p.Action), string(p.Effect))
}

func validatePolicy(p Policy) error {
	if _, ok := KnownRoles[p.Role]; !ok {
		return fmt.Errorf("%w: unknown role: %q", ErrInvalidArgs, p.Role)
	}
	if _, ok := KnownResources[p.Resource]; !ok {
		return fmt.Errorf("%w: unknown resource: %q", ErrInvalidArgs, p.Resource)
	}
	if _, ok := KnownActions[p.Action]; !ok {
		return fmt.Errorf("%w: unknown action: %q", ErrInvalidArgs, p.Action)
	}
	if p.Effect != EffectAllow && p.Effect != EffectDeny {
		return fmt.Errorf("%w: invalid effect: %q", ErrInvalidArgs, p.Effect)
	}
	return nil
}
