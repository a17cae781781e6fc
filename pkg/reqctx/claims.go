package reqctx

import "context"

// AuthClaims is implemented by verified token payloads.
type AuthClaims interface {
	GetUserID() string
	GetRole() string
	GetSessionID() string
	IsExpired() bool
}

// Actor is the authenticated caller as services see it.
type Actor struct {
	UserID    string
	Role      string
	SessionID string
}

func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns nil for unauthenticated requests.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

func IsAuthenticated(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && !claims.IsExpired()
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return Actor{}, false
	}
	return Actor{
		UserID:    claims.GetUserID(),
		Role:      claims.GetRole(),
		SessionID: claims.GetSessionID(),
	}, true
}
