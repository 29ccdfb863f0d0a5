package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/geocoder89/recipehub/internal/domain/activity"
	"github.com/geocoder89/recipehub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ActivityLister interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]activity.Activity, error)
}

type ActivityHandler struct {
	activities ActivityLister
	log        *slog.Logger
}

func NewActivityHandler(activities ActivityLister, log *slog.Logger) *ActivityHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ActivityHandler{activities: activities, log: log}
}

// Mine lists the caller's recent activity, newest first.
func (h *ActivityHandler) Mine(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated")
		return
	}

	limit := 20
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	items, err := h.activities.ListByUser(ctx.Request.Context(), u.ID, limit)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list activity failed", "err", err)
		RespondInternal(ctx, "Could not load activity")
		return
	}

	if items == nil {
		items = []activity.Activity{}
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}
