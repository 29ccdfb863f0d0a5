// Package actorctx carries the authenticated user id on a context.Context so code
// below the HTTP layer (logging, repositories) can attribute work without gin.
package actorctx

import "context"

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	v, ok := ctx.Value(ctxKey{}).(string)
	return v, ok && v != ""
}
