package utils

import (
	"context"

	"clinic-booking/internal/data/entity"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// SetPrincipalContext stores the verified caller on the request context.
func SetPrincipalContext(ctx context.Context, p entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipalFromContext returns the verified caller, if any.
func GetPrincipalFromContext(ctx context.Context) (entity.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(entity.Principal)
	if !ok || !p.Valid() {
		return entity.Principal{}, false
	}
	return p, true
}
