package authz

import (
	"context"

	"sales-crm/pkg/contextkeys"
	apperrors "sales-crm/pkg/errors"
)

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextkeys.CallerKey, c)
}

// CallerFrom returns the caller stored by the auth middleware.
func CallerFrom(ctx context.Context) (Caller, error) {
	c, ok := ctx.Value(contextkeys.CallerKey).(Caller)
	if !ok || c.ID <= 0 {
		return Caller{}, apperrors.ErrCallerNotInContext
	}
	return c, nil
}
