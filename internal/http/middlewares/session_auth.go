package middlewares

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/recipehub/internal/actorctx"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type SessionResolver interface {
	CurrentUser(ctx context.Context, sessionID string) (*user.User, error)
}

type SessionAuth struct {
	resolver   SessionResolver
	cookieName string
	log        *slog.Logger
}

func NewSessionAuth(resolver SessionResolver, cookieName string, log *slog.Logger) *SessionAuth {
	if log == nil {
		log = slog.Default()
	}
	return &SessionAuth{resolver: resolver, cookieName: cookieName, log: log}
}

// Authenticate attaches the session owner to the context when the cookie holds a live session.
// Anonymous requests pass through untouched.
func (m *SessionAuth) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(m.cookieName)
		if err != nil || sid == "" {
			c.Next()
			return
		}

		u, err := m.resolver.CurrentUser(c.Request.Context(), sid)
		if err != nil {
			m.log.ErrorContext(c.Request.Context(), "session lookup failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "internal_error",
					"message": "Could not load session",
				},
			})
			return
		}

		c.Set(CtxSessionID, sid)
		if u != nil {
			c.Set(CtxUser, u)
			c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), u.ID))
		}

		c.Next()
	}
}

func (m *SessionAuth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Not authenticated",
				},
			})
			return
		}
		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func UserFromContext(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok && u != nil
}

func SessionIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxSessionID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
