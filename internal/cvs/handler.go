package cvs

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/crud"
	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/server/respond"
)

// Handler wires CV and section routes.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches /cvs, /cvs/:cvId/snapshot and every section collection.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	cvs := crud.NewChildHandler(h.Svc.CVs, "/cvs", caller)
	cvs.IDParam = "cvId"
	cvs.RegisterRoutes(rg)

	cv := rg.Group("/cvs/:cvId")
	cv.GET("/snapshot", h.snapshot)

	sec := h.Svc.Sections
	owned := h.OwnedCV
	crud.NewChildHandler(sec.Contacts, "/contacts", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Socials, "/socials", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Locations, "/locations", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Educations, "/educations", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Works, "/works", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Projects, "/projects", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Skills, "/skills", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Languages, "/languages", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Courses, "/courses", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.Organizations, "/organizations", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.CoverLetters, "/cover-letters", owned).RegisterRoutes(cv)
	crud.NewChildHandler(sec.JobApplications, "/job-applications", owned).RegisterRoutes(cv)
}

// OwnedCV resolves :cvId and checks the caller owns it.
func (h *Handler) OwnedCV(c *gin.Context) (int64, error) {
	cvID, err := crud.ParseID(c.Param("cvId"))
	if err != nil {
		return 0, err
	}
	cv, err := h.Svc.Owned(c.Request.Context(), middleware.UserIDFromContext(c), cvID)
	if err != nil {
		return 0, err
	}
	return cv.ID, nil
}

func (h *Handler) snapshot(c *gin.Context) {
	cvID, err := crud.ParseID(c.Param("cvId"))
	if err != nil {
		respond.Failure(c, err)
		return
	}
	snap, err := h.Svc.Snapshot(c.Request.Context(), middleware.UserIDFromContext(c), cvID)
	if err != nil {
		respond.Failure(c, err)
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, snap.Text())
		return
	}
	respond.OK(c, snap)
}

func caller(c *gin.Context) (string, error) {
	return middleware.UserIDFromContext(c), nil
}
