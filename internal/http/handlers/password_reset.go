package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/geocoder89/recipehub/internal/domain/passwordreset"
	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const minPasswordLength = 6

type ResetService interface {
	// Issue reports ok=false, without error, when no account has the email.
	Issue(ctx context.Context, email string) (passwordreset.Token, bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) (bool, error)
}

// ResetLinkSender hands a reset link to whatever delivers it, normally the mail queue.
type ResetLinkSender interface {
	SendResetLink(ctx context.Context, email, resetURL string, expiresAt time.Time) error
}

type PasswordResetConfig struct {
	BaseURL string
	// LogLinks writes reset links to the log. Never enable in production.
	LogLinks bool
}

type PasswordResetHandler struct {
	resets ResetService
	sender ResetLinkSender
	cfg    PasswordResetConfig
	log    *slog.Logger
}

func NewPasswordResetHandler(resets ResetService, sender ResetLinkSender, cfg PasswordResetConfig, log *slog.Logger) *PasswordResetHandler {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if log == nil {
		log = slog.Default()
	}

	return &PasswordResetHandler{
		resets: resets,
		sender: sender,
		cfg:    cfg,
		log:    log,
	}
}

// The reset endpoints keep their historical response shapes, {"success":true} and {"error":"..."},
// which the reset pages depend on, so they bind without the BindJSON error envelope.

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// passwordLength counts UTF-16 code units, the unit browsers use for the same check.
func passwordLength(pw string) int {
	return len(utf16.Encode([]rune(pw)))
}

// ForgotPassword answers {"success":true} for every outcome so callers cannot learn which emails exist.
func (h *PasswordResetHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.log.DebugContext(ctx.Request.Context(), "forgot password body rejected", "err", err)
		ctx.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	if email := user.NormalizeEmail(req.Email); email != "" {
		h.issue(ctx.Request.Context(), email)
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PasswordResetHandler) issue(ctx context.Context, email string) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rec, ok, err := h.resets.Issue(cctx, email)
	if err != nil {
		h.log.ErrorContext(ctx, "forgot password failed", "err", err)
		return
	}
	if !ok {
		return
	}

	resetURL := h.cfg.BaseURL + "/reset-password?token=" + url.QueryEscape(rec.Token)

	if h.cfg.LogLinks {
		h.log.InfoContext(ctx, "password reset link", "reset_url", resetURL)
	}

	if h.sender == nil {
		return
	}

	if err := h.sender.SendResetLink(cctx, email, resetURL, rec.ExpiresAt); err != nil {
		h.log.ErrorContext(ctx, "enqueue reset link failed", "err", err)
	}
}

func (h *PasswordResetHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token := strings.TrimSpace(req.Token)
	if token == "" || req.Password == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if passwordLength(req.Password) < minPasswordLength {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	ok, err := h.resets.ResetPassword(cctx, token, req.Password)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "reset password failed", "err", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Reset link is invalid or has expired"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
