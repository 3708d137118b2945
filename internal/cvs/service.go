// Package cvs owns CVs and their sections.
package cvs

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"cvbuilder-backend/internal/crud"
	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/repository"
)

// Sections holds one child service per CV section table.
type Sections struct {
	Contacts        *crud.ChildService[Contact, ContactInput, ContactPatch, int64]
	Socials         *crud.ChildService[Social, SocialInput, SocialPatch, int64]
	Locations       *crud.ChildService[Location, LocationInput, LocationPatch, int64]
	Educations      *crud.ChildService[Education, EducationInput, EducationPatch, int64]
	Works           *crud.ChildService[Work, WorkInput, WorkPatch, int64]
	Projects        *crud.ChildService[Project, ProjectInput, ProjectPatch, int64]
	Skills          *crud.ChildService[Skill, SkillInput, SkillPatch, int64]
	Languages       *crud.ChildService[Language, LanguageInput, LanguagePatch, int64]
	Courses         *crud.ChildService[Course, CourseInput, CoursePatch, int64]
	Organizations   *crud.ChildService[Organization, OrganizationInput, OrganizationPatch, int64]
	CoverLetters    *crud.ChildService[CoverLetter, CoverLetterInput, CoverLetterPatch, int64]
	JobApplications *crud.ChildService[JobApplication, JobApplicationInput, JobApplicationPatch, int64]
}

func newSection[S, I, U any](db *sqlx.DB, table, entity string) *crud.ChildService[S, I, U, int64] {
	return crud.NewChildService[S, I, U, int64](repository.NewChildSQL[S, I, U, int64](db, table, "cv_id"), entity)
}

// NewSections wires every section table on db.
func NewSections(db *sqlx.DB) *Sections {
	return &Sections{
		Contacts:        newSection[Contact, ContactInput, ContactPatch](db, "contacts", "contact"),
		Socials:         newSection[Social, SocialInput, SocialPatch](db, "socials", "social"),
		Locations:       newSection[Location, LocationInput, LocationPatch](db, "locations", "location"),
		Educations:      newSection[Education, EducationInput, EducationPatch](db, "educations", "education"),
		Works:           newSection[Work, WorkInput, WorkPatch](db, "works", "work"),
		Projects:        newSection[Project, ProjectInput, ProjectPatch](db, "projects", "project"),
		Skills:          newSection[Skill, SkillInput, SkillPatch](db, "skills", "skill"),
		Languages:       newSection[Language, LanguageInput, LanguagePatch](db, "languages", "language"),
		Courses:         newSection[Course, CourseInput, CoursePatch](db, "courses", "course"),
		Organizations:   newSection[Organization, OrganizationInput, OrganizationPatch](db, "organizations", "organization"),
		CoverLetters:    newSection[CoverLetter, CoverLetterInput, CoverLetterPatch](db, "cover_letters", "cover letter"),
		JobApplications: newSection[JobApplication, JobApplicationInput, JobApplicationPatch](db, "job_applications", "job application"),
	}
}

// Service manages CVs, which are children of a user id.
type Service struct {
	CVs      *crud.ChildService[CV, CVInput, CVPatch, string]
	Sections *Sections
}

// NewService wires the CV table and all section tables on db.
func NewService(db *sqlx.DB) *Service {
	repo := repository.NewChildSQL[CV, CVInput, CVPatch, string](db, "cvs", "user_id")
	return &Service{
		CVs:      crud.NewChildService[CV, CVInput, CVPatch, string](repo, "cv"),
		Sections: NewSections(db),
	}
}

// NewAdmin serves CVs by id without owner scoping. It backs operator tooling only.
func NewAdmin(db *sqlx.DB) *crud.Service[CV, CVInput, CVPatch] {
	return crud.NewService[CV, CVInput, CVPatch](repository.NewSQL[CV, CVInput, CVPatch](db, "cvs"), "cv")
}

// Owned returns the CV when userID owns it; otherwise a NotFound error.
func (s *Service) Owned(ctx context.Context, userID string, cvID int64) (*CV, error) {
	return s.CVs.FindByParentAndID(ctx, userID, cvID)
}

// Snapshot is a CV with every section loaded.
type Snapshot struct {
	CV              CV               `json:"cv"`
	Contacts        []Contact        `json:"contacts"`
	Socials         []Social         `json:"socials"`
	Locations       []Location       `json:"locations"`
	Educations      []Education      `json:"educations"`
	Works           []Work           `json:"works"`
	Projects        []Project        `json:"projects"`
	Skills          []Skill          `json:"skills"`
	Languages       []Language       `json:"languages"`
	Courses         []Course         `json:"courses"`
	Organizations   []Organization   `json:"organizations"`
	CoverLetters    []CoverLetter    `json:"coverLetters"`
	JobApplications []JobApplication `json:"jobApplications"`
}

// Snapshot loads the owned CV and all of its sections.
func (s *Service) Snapshot(ctx context.Context, userID string, cvID int64) (*Snapshot, error) {
	cv, err := s.Owned(ctx, userID, cvID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{CV: *cv}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	sec := s.Sections
	load(g, gctx, cvID, &snap.Contacts, sec.Contacts)
	load(g, gctx, cvID, &snap.Socials, sec.Socials)
	load(g, gctx, cvID, &snap.Locations, sec.Locations)
	load(g, gctx, cvID, &snap.Educations, sec.Educations)
	load(g, gctx, cvID, &snap.Works, sec.Works)
	load(g, gctx, cvID, &snap.Projects, sec.Projects)
	load(g, gctx, cvID, &snap.Skills, sec.Skills)
	load(g, gctx, cvID, &snap.Languages, sec.Languages)
	load(g, gctx, cvID, &snap.Courses, sec.Courses)
	load(g, gctx, cvID, &snap.Organizations, sec.Organizations)
	load(g, gctx, cvID, &snap.CoverLetters, sec.CoverLetters)
	load(g, gctx, cvID, &snap.JobApplications, sec.JobApplications)
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func load[S, I, U any](g *errgroup.Group, ctx context.Context, cvID int64, dst *[]S, svc *crud.ChildService[S, I, U, int64]) {
	g.Go(func() error {
		rows, err := svc.ListForParent(ctx, cvID, query.Options{})
		if err != nil {
			return err
		}
		*dst = rows
		return nil
	})
}
