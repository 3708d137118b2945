package crud

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/shared/apperr"
	"cvbuilder-backend/internal/shared/server/respond"
)

// ParentResolver extracts and authorizes the parent id for a request.
// It returns an apperr NotFound when the caller may not see the parent.
type ParentResolver[P comparable] func(c *gin.Context) (P, error)

// ChildHandler serves list/create/get/update/delete for one child collection.
type ChildHandler[S, I, U any, P comparable] struct {
	Svc     *ChildService[S, I, U, P]
	Path    string
	IDParam string
	Parent  ParentResolver[P]
}

// NewChildHandler mounts a collection at path with items addressed by :id.
func NewChildHandler[S, I, U any, P comparable](svc *ChildService[S, I, U, P], path string, parent ParentResolver[P]) *ChildHandler[S, I, U, P] {
	return &ChildHandler[S, I, U, P]{Svc: svc, Path: path, IDParam: "id", Parent: parent}
}

// RegisterRoutes attaches the five collection routes under rg.
func (h *ChildHandler[S, I, U, P]) RegisterRoutes(rg *gin.RouterGroup) {
	item := h.Path + "/:" + h.IDParam
	rg.GET(h.Path, h.list)
	rg.POST(h.Path, h.create)
	rg.GET(item, h.get)
	rg.PATCH(item, h.update)
	rg.DELETE(item, h.delete)
}

func (h *ChildHandler[S, I, U, P]) list(c *gin.Context) {
	parentID, err := h.Parent(c)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	opts, err := query.ParseValues(c.Request.URL.Query())
	if err != nil {
		respond.Failure(c, err)
		return
	}
	rows, err := h.Svc.ListForParent(c.Request.Context(), parentID, opts)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, gin.H{"items": rows})
}

func (h *ChildHandler[S, I, U, P]) create(c *gin.Context) {
	parentID, err := h.Parent(c)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	var in I
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", bindMessage(err), nil)
		return
	}
	row, err := h.Svc.CreateForParent(c.Request.Context(), parentID, in)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.Created(c, row)
}

func (h *ChildHandler[S, I, U, P]) get(c *gin.Context) {
	parentID, id, ok := h.target(c)
	if !ok {
		return
	}
	row, err := h.Svc.FindByParentAndID(c.Request.Context(), parentID, id)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, row)
}

func (h *ChildHandler[S, I, U, P]) update(c *gin.Context) {
	parentID, id, ok := h.target(c)
	if !ok {
		return
	}
	var patch U
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", bindMessage(err), nil)
		return
	}
	row, err := h.Svc.UpdateForParent(c.Request.Context(), parentID, id, patch)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	respond.OK(c, row)
}

func (h *ChildHandler[S, I, U, P]) delete(c *gin.Context) {
	parentID, id, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.Svc.DeleteFromParent(c.Request.Context(), parentID, id); err != nil {
		respond.Failure(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *ChildHandler[S, I, U, P]) target(c *gin.Context) (P, int64, bool) {
	var zero P
	parentID, err := h.Parent(c)
	if err != nil {
		respond.Failure(c, err)
		return zero, 0, false
	}
	id, err := ParseID(c.Param(h.IDParam))
	if err != nil {
		respond.Failure(c, err)
		return zero, 0, false
	}
	return parentID, id, true
}

// ParseID reads a positive record id. Malformed ids cannot exist, so they are not found.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("record %q not found", raw)
	}
	return id, nil
}

func bindMessage(err error) string {
	msg := err.Error()
	if msg == "EOF" {
		return "request body is required"
	}
	return "invalid request body: " + msg
}
