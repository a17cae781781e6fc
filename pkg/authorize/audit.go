package authorize

import (
	"context"
	"log/slog"
	"time"

	"github.com/Alijeyrad/medtrack_backend/pkg/reqctx"
)

// AuditedAuthorization wraps an IAuthorization implementation with audit logging.
type AuditedAuthorization struct {
	inner  IAuthorization
	logger *slog.Logger
}

func NewAuditedAuthorization(inner IAuthorization, logger *slog.Logger) IAuthorization {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditedAuthorization{inner: inner, logger: logger}
}

func (a *AuditedAuthorization) Enforce(ctx context.Context, role Role, object Resource, action Action) (bool, error) {
	start := time.Now()
	allowed, err := a.inner.Enforce(ctx, role, object, action)

	attrs := []any{
		"role", string(role),
		"resource", string(object),
		"action", string(action),
		"allowed", allowed,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	attrs = append(attrs, reqctx.LogAttrs(ctx)...)

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		a.logger.Error("authz_decision", attrs...)
	case allowed:
		a.logger.Debug("authz_decision", attrs...)
	default:
		a.logger.Warn("authz_decision", attrs...)
	}

	return allowed, err
}

func (a *AuditedAuthorization) MustEnforce(ctx context.Context, role Role, object Resource, action Action) error {
	ok, err := a.Enforce(ctx, role, object, action)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (a *AuditedAuthorization) AddPermission(ctx context.Context, p Policy) (bool, error) {
	added, err := a.inner.AddPermission(ctx, p)
	a.logChange(ctx, "add_permission", p, added, err)
	return added, err
}

func (a *AuditedAuthorization) RemovePermission(ctx context.Context, p Policy) (bool, error) {
	removed, err := a.inner.RemovePermission(ctx, p)
	a.logChange(ctx, "remove_permission", p, removed, err)
	return removed, err
}

func (a *AuditedAuthorization) logChange(ctx context.Context, op string, p Policy, changed bool, err error) {
	attrs := []any{
		"operation", op,
		"role", string(p.Role),
		"resource", string(p.Resource),
		"action", string(p.Action),
		"effect", string(p.Effect),
		"changed", changed,
	}
	attrs = append(attrs, reqctx.LogAttrs(ctx)...)
	if err != nil {
		attrs = append(attrs, "error", err.Error())
		a.logger.Error("authz_policy_change", attrs...)
		return
	}
	a.logger.Info("authz_policy_change", attrs...)
}
