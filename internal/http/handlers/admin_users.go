package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/geocoder89/recipehub/internal/domain/user"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserStatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status user.Status) (bool, error)
}

type AdminUsersHandler struct {
	users UserStatusUpdater
	log   *slog.Logger
}

func NewAdminUsersHandler(users UserStatusUpdater, log *slog.Logger) *AdminUsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminUsersHandler{users: users, log: log}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active blocked"`
}

// UpdateStatus blocks or reactivates an account. Blocked users keep their sessions
// but are treated as anonymous until reactivated.
func (h *AdminUsersHandler) UpdateStatus(ctx *gin.Context) {
	var req UpdateStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	id := ctx.Param("id")

	if admin, ok := middlewares.UserFromContext(ctx); ok && admin.ID == id && req.Status == string(user.StatusBlocked) {
		RespondBadRequest(ctx, "Admins cannot block themselves", nil)
		return
	}

	found, err := h.users.UpdateStatus(ctx.Request.Context(), id, user.Status(req.Status))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "update user status failed", "user_id", id, "err", err)
		RespondInternal(ctx, "Could not update user")
		return
	}
	if !found {
		RespondNotFound(ctx, "User not found")
		return
	}

	h.log.InfoContext(ctx.Request.Context(), "user status updated", "user_id", id, "status", req.Status)
	ctx.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}
