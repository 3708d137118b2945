package cvs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/query"
	"cvbuilder-backend/internal/shared/apperr"
	"cvbuilder-backend/internal/shared/server/middleware"
	"cvbuilder-backend/internal/shared/storage/db/dbtest"
)

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.NewSQLite(t))
}

func TestCVsAreScopedToTheirUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cv, err := svc.CVs.CreateForParent(ctx, "google:ada", CVInput{Title: "Backend Engineer"})
	if err != nil {
		t.Fatalf("create cv: %v", err)
	}
	if cv.UserID != "google:ada" {
		t.Fatalf("unexpected owner %q", cv.UserID)
	}

	if _, err := svc.Owned(ctx, "guest:mallory", cv.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFound for other user, got %v", err)
	}
	list, err := svc.CVs.ListForParent(ctx, "guest:mallory", query.Options{})
	if err != nil || len(list) != 0 {
		t.Fatalf("other user list = %+v, %v", list, err)
	}
}

func TestPatchLeavesNilFieldsAndClearsWithEmptyString(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := "google:ada"

	cv, err := svc.CVs.CreateForParent(ctx, user, CVInput{Title: "Ada", TargetRole: ptr("Analyst")})
	if err != nil {
		t.Fatalf("create cv: %v", err)
	}
	contact, err := svc.Sections.Contacts.CreateForParent(ctx, cv.ID, ContactInput{
		FullName: "Ada Lovelace",
		Headline: ptr("Enchantress of numbers"),
		Phone:    ptr("+44 20 0000"),
	})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}

	got, err := svc.Sections.Contacts.UpdateForParent(ctx, cv.ID, contact.ID, ContactPatch{Headline: ptr("")})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if got.FullName != "Ada Lovelace" || got.Phone == nil || *got.Phone != "+44 20 0000" {
		t.Fatalf("nil fields must be untouched: %+v", got)
	}
	if got.Headline == nil || *got.Headline != "" {
		t.Fatalf("headline should be cleared to empty, got %v", got.Headline)
	}

	snap, err := svc.Snapshot(ctx, user, cv.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	text := snap.Text()
	if strings.Contains(text, "Enchantress") || strings.Contains(text, "Ada Lovelace |") {
		t.Fatalf("cleared headline still rendered:\n%s", text)
	}
	if !strings.Contains(text, "Ada Lovelace") {
		t.Fatalf("contact name missing:\n%s", text)
	}
}

func TestSnapshotLoadsEverySection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := "google:ada"

	cv, err := svc.CVs.CreateForParent(ctx, user, CVInput{Title: "Ada Lovelace", Summary: ptr("Analyst of engines.")})
	if err != nil {
		t.Fatalf("create cv: %v", err)
	}
	sec := svc.Sections
	mustCreate(t, func() error {
		_, err := sec.Contacts.CreateForParent(ctx, cv.ID, ContactInput{FullName: "Ada Lovelace", Email: ptr("ada@example.com")})
		return err
	})
	mustCreate(t, func() error {
		_, err := sec.Works.CreateForParent(ctx, cv.ID, WorkInput{Company: "Analytical Engines", Position: "Programmer", StartDate: ptr("1842"), IsCurrent: true, Description: ptr("Wrote the first algorithm.\nPublished notes.")})
		return err
	})
	mustCreate(t, func() error {
		_, err := sec.Skills.CreateForParent(ctx, cv.ID, SkillInput{Name: "Mathematics", Level: ptr("expert")})
		return err
	})
	mustCreate(t, func() error {
		_, err := sec.JobApplications.CreateForParent(ctx, cv.ID, JobApplicationInput{Company: "Babbage Ltd", Position: "Analyst", Status: StatusApplied})
		return err
	})

	snap, err := svc.Snapshot(ctx, user, cv.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Contacts) != 1 || len(snap.Works) != 1 || len(snap.Skills) != 1 || len(snap.JobApplications) != 1 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Educations == nil {
		t.Fatalf("empty sections should be empty slices, not nil")
	}

	text := snap.Text()
	for _, want := range []string{"Ada Lovelace", "EXPERIENCE", "Programmer at Analytical Engines", "1842 - present", "  Published notes.", "Mathematics (expert)", "SUMMARY"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Babbage Ltd") {
		t.Fatalf("job applications should not be rendered:\n%s", text)
	}

	if _, err := svc.Snapshot(ctx, "guest:other", cv.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected NotFound for other user, got %v", err)
	}
}

func mustCreate(t *testing.T, fn func() error) {
	t.Helper()
	if err := fn(); err != nil {
		t.Fatalf("create: %v", err)
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		middleware.SetUserID(c, "guest:"+c.GetHeader("X-Guest-Id"))
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r, svc
}

func call(r http.Handler, guest, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", guest)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSectionRoutesEnforceCVOwnership(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := call(r, "ada", http.MethodPost, "/api/v1/cvs", `{"title":"Backend"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create cv: %d %s", resp.Code, resp.Body.String())
	}
	var cv CV
	if err := json.Unmarshal(resp.Body.Bytes(), &cv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	base := "/api/v1/cvs/" + strconv.FormatInt(cv.ID, 10)

	resp = call(r, "ada", http.MethodPost, base+"/socials", `{"social":"github","url":"https://github.com/ada"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create social: %d %s", resp.Code, resp.Body.String())
	}

	for _, path := range []string{base, base + "/socials", base + "/snapshot"} {
		if resp := call(r, "mallory", http.MethodGet, path, ""); resp.Code != http.StatusNotFound {
			t.Fatalf("GET %s as other user: expected 404, got %d", path, resp.Code)
		}
	}
	if resp := call(r, "mallory", http.MethodPost, base+"/skills", `{"name":"Go"}`); resp.Code != http.StatusNotFound {
		t.Fatalf("POST into foreign cv: expected 404, got %d", resp.Code)
	}

	resp = call(r, "ada", http.MethodGet, base+"/socials?search=gi&searchColumns=social", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "github") {
		t.Fatalf("list socials: %d %s", resp.Code, resp.Body.String())
	}

	resp = call(r, "ada", http.MethodGet, base+"/snapshot?format=text", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), "github: https://github.com/ada") {
		t.Fatalf("text snapshot: %d %s", resp.Code, resp.Body.String())
	}
}

func TestJobApplicationStatusIsValidated(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := call(r, "ada", http.MethodPost, "/api/v1/cvs", `{"title":"Backend"}`)
	var cv CV
	_ = json.Unmarshal(resp.Body.Bytes(), &cv)
	base := "/api/v1/cvs/" + strconv.FormatInt(cv.ID, 10) + "/job-applications"

	resp = call(r, "ada", http.MethodPost, base, `{"company":"Acme","position":"SRE","status":"ghosted"}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
	resp = call(r, "ada", http.MethodPost, base, `{"company":"Acme","position":"SRE","status":"interview"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestDeletingCVCascadesToSections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	cv, err := svc.CVs.CreateForParent(ctx, "guest:a", CVInput{Title: "Temp"})
	if err != nil {
		t.Fatalf("create cv: %v", err)
	}
	skill, err := svc.Sections.Skills.CreateForParent(ctx, cv.ID, SkillInput{Name: "Go"})
	if err != nil {
		t.Fatalf("create skill: %v", err)
	}
	if err := svc.CVs.DeleteFromParent(ctx, "guest:a", cv.ID); err != nil {
		t.Fatalf("delete cv: %v", err)
	}
	if _, err := svc.Sections.Skills.FindByParentAndID(ctx, cv.ID, skill.ID); !apperr.IsNotFound(err) {
		t.Fatalf("expected skill to be gone, got %v", err)
	}
}
