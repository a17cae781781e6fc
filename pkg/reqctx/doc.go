// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware sets RequestMeta on every request and Claims on
// authenticated ones; services and loggers read them back through the
// typed getters. All keys are unexported.
//
//	ctx = reqctx.WithClaims(ctx, claims)
//	if actor, ok := reqctx.ActorFromContext(ctx); ok {
//	    slog.Info("acting", "user_id", actor.UserID, "role", actor.Role)
//	}
package reqctx
