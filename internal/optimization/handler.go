package optimization

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/crud"
	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/server/respond"
	"cvbuilder-backend/internal/usage"
)

// Handler exposes the AI workflow endpoints.
type Handler struct {
	Svc *Service
	// Limit guards the provider-backed endpoints; nil disables it.
	Limit gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, limit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Limit: limit}
}

// RegisterRoutes attaches /ai and score routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	ai := rg.Group("/ai")
	guarded := []gin.HandlerFunc{}
	if h.Limit != nil {
		guarded = append(guarded, h.Limit)
	}
	ai.POST("/improve-section", append(guarded, h.improveSection)...)
	ai.POST("/score", append(guarded, h.scoreCv)...)
	ai.GET("/requests", h.listRequests)

	rg.GET("/cvs/:cvId/scores/latest", h.latestScore)
	rg.GET("/cvs/:cvId/scores", h.scoreHistory)
}

func (h *Handler) improveSection(c *gin.Context) {
	var in ImproveSectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error(), nil)
		return
	}
	out, err := h.Svc.ImproveSection(requestContext(c), middleware.UserIDFromContext(c), in)
	if err != nil {
		h.failure(c, err)
		return
	}
	respond.Created(c, out)
}

func (h *Handler) scoreCv(c *gin.Context) {
	var in ScoreCvInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error(), nil)
		return
	}
	out, err := h.Svc.ScoreCv(requestContext(c), middleware.UserIDFromContext(c), in)
	if err != nil {
		h.failure(c, err)
		return
	}
	respond.Created(c, out)
}

func (h *Handler) listRequests(c *gin.Context) {
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	items, err := h.Svc.ListRequests(requestContext(c), middleware.UserIDFromContext(c), limit)
	if err != nil {
		h.failure(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) latestScore(c *gin.Context) {
	cvID, err := crud.ParseID(c.Param("cvId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	score, err := h.Svc.GetLatestCvScore(requestContext(c), middleware.UserIDFromContext(c), cvID)
	if err != nil {
		h.failure(c, err)
		return
	}
	respond.OK(c, score)
}

func (h *Handler) scoreHistory(c *gin.Context) {
	cvID, err := crud.ParseID(c.Param("cvId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	limit, ok := limitParam(c)
	if !ok {
		return
	}
	items, err := h.Svc.GetCvScoreHistory(requestContext(c), middleware.UserIDFromContext(c), cvID, limit)
	if err != nil {
		h.failure(c, err)
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) failure(c *gin.Context, err error) {
	var quota *usage.QuotaExceededError
	switch {
	case errors.As(err, &quota):
		respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", err.Error(), quota.Limits)
	case errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusGatewayTimeout, "ai_timeout", "AI provider timed out", nil)
	case errors.Is(err, context.Canceled):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	case llm.IsProviderFailure(err), errors.Is(err, ErrInvalidResponse):
		respond.Error(c, http.StatusBadGateway, "ai_provider_error", sanitizeError(err), nil)
	default:
		respond.Failure(c, err)
	}
}

func requestContext(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}

func limitParam(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "limit must be a positive integer", nil)
		return 0, false
	}
	return limit, true
}
