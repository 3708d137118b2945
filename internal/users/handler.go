package users

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/server/respond"
	"cvbuilder-backend/internal/usage"
)

// UsageChecker reports the caller's AI allowance.
type UsageChecker interface {
	CheckUserUsage(ctx context.Context, userID string) (usage.Limits, error)
}

type Handler struct {
	Svc   *Service
	Usage UsageChecker
}

func NewHandler(svc *Service, usage UsageChecker) *Handler {
	return &Handler{Svc: svc, Usage: usage}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

// me returns the stored profile when there is one; guests only have an id.
func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	body := gin.H{
		"id":      userID,
		"isGuest": middleware.IsGuest(c),
	}

	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	switch {
	case err == nil:
		body["email"] = user.Email
		body["fullName"] = user.FullName
		body["pictureUrl"] = user.PictureURL
		body["subscriptionTier"] = user.SubscriptionTier
	case err == ErrNotFound:
		if email := middleware.UserEmailFromContext(c); email != "" {
			body["email"] = email
		}
		if name := middleware.UserNameFromContext(c); name != "" {
			body["fullName"] = name
		}
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}

	if h.Usage != nil {
		limits, err := h.Usage.CheckUserUsage(c.Request.Context(), userID)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load usage", nil)
			return
		}
		body["usage"] = limits
	}
	respond.JSON(c, http.StatusOK, body)
}
