package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/recipehub/internal/auth"
	"github.com/geocoder89/recipehub/internal/domain/session"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (user.User, session.Session, error)
	Login(ctx context.Context, email, password string) (user.User, session.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	accounts AccountService
	cookie   CookieConfig
	log      *slog.Logger
	now      func() time.Time
}

func NewAuthHandler(accounts AccountService, cookie CookieConfig, log *slog.Logger) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "session_id"
	}
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		accounts: accounts,
		cookie:   cookie,
		log:      log,
		now:      time.Now,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"omitempty,max=100"`
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, s, err := h.accounts.Register(cctx, auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			RespondConflict(ctx, "email_taken", "Email is already in use.")
			return
		}

		h.log.ErrorContext(ctx.Request.Context(), "signup failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	h.setSessionCookie(ctx, s)
	ctx.JSON(http.StatusCreated, gin.H{"user": u})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, s, err := h.accounts.Login(cctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		case errors.Is(err, auth.ErrUserBlocked):
			RespondForbidden(ctx, "user_blocked", "This account has been blocked.")
		default:
			h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err)
			RespondInternal(ctx, "Could not log in")
		}
		return
	}

	h.setSessionCookie(ctx, s)
	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

// Logout always clears the cookie, even when the session is already gone.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	sid, err := ctx.Cookie(h.cookie.Name)
	if err == nil && sid != "" {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		if err := h.accounts.Logout(cctx, sid); err != nil {
			h.log.ErrorContext(ctx.Request.Context(), "logout failed", "err", err)
			RespondInternal(ctx, "Could not log out")
			return
		}
	}

	h.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u})
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, s session.Session) {
	maxAge := int(s.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}

	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(h.cookie.Name, s.ID, maxAge, "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}
