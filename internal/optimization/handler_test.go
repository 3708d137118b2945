package optimization

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"

	"cvbuilder-backend/internal/llm"
	"cvbuilder-backend/internal/shared/server/middleware"
)

func newTestRouter(f *fixture, limit gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetUserID(c, c.GetHeader("X-Test-User"))
		c.Next()
	})
	NewHandler(f.svc, limit).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func TestHandlerImproveSection(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/ai/improve-section", "google:ada", map[string]any{
		"cvId": f.cvID, "sectionType": "summary", "originalText": "did things",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var out SectionResult
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.OptimizationRequest.Status != StatusDone || out.AIResponse.Improved == "" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/ai/requests?limit=5", "google:ada", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestHandlerValidation(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/ai/improve-section", "google:ada", map[string]any{"cvId": f.cvID})
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "invalid_request" {
		t.Fatalf("expected 400 invalid_request, got %d %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodGet, "/api/v1/ai/requests?limit=abc", "google:ada", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(f *fixture)
		status int
		code   string
	}{
		{
			name:   "quota",
			setup:  func(f *fixture) { f.seedRequests(t, "google:ada", 3) },
			status: http.StatusTooManyRequests,
			code:   "quota_exceeded",
		},
		{
			name:   "provider",
			setup:  func(f *fixture) { f.provider.err = &llm.StatusError{Provider: "openai", Code: 500} },
			status: http.StatusBadGateway,
			code:   "ai_provider_error",
		},
		{
			name:   "timeout",
			setup:  func(f *fixture) { f.provider.block = true; f.svc.Timeout = 1 },
			status: http.StatusGatewayTimeout,
			code:   "ai_timeout",
		},
		{
			name:   "unexpected",
			setup:  func(f *fixture) { f.provider.err = errors.New("weird") },
			status: http.StatusInternalServerError,
			code:   "internal",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.setup(f)
			r := newTestRouter(f, nil)
			w := doJSON(r, http.MethodPost, "/api/v1/ai/improve-section", "google:ada", map[string]any{
				"cvId": f.cvID, "sectionType": "summary", "originalText": "x",
			})
			if w.Code != tc.status || errorCode(t, w) != tc.code {
				t.Fatalf("expected %d %s, got %d %s", tc.status, tc.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestHandlerScores(t *testing.T) {
	f := newFixture(t)
	f.provider.resp = scoreJSON
	r := newTestRouter(f, nil)
	base := "/api/v1/cvs/" + strconv.FormatInt(f.cvID, 10)

	w := doJSON(r, http.MethodGet, base+"/scores/latest", "google:ada", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before scoring, got %d", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/ai/score", "google:ada", map[string]any{"cvId": f.cvID, "cvText": "Ada"})
	if w.Code != http.StatusCreated {
		t.Fatalf("score: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodGet, base+"/scores/latest", "google:ada", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var latest CvScore
	_ = json.Unmarshal(w.Body.Bytes(), &latest)
	if latest.OverallScore != 80 {
		t.Fatalf("unexpected latest %+v", latest)
	}

	w = doJSON(r, http.MethodGet, base+"/scores?limit=3", "google:ada", nil)
	var history struct {
		Items []CvScore `json:"items"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &history)
	if w.Code != http.StatusOK || len(history.Items) != 1 {
		t.Fatalf("unexpected history %d %s", w.Code, w.Body.String())
	}
}

func TestHandlerRateLimitGuardsProviderRoutes(t *testing.T) {
	f := newFixture(t)
	limit := middleware.RateLimit("ai", middleware.RateLimitRule{Rate: 0.001, Burst: 1}, middleware.NewMemoryLimiter(nil))
	r := newTestRouter(f, limit)
	body := map[string]any{"cvId": f.cvID, "sectionType": "summary", "originalText": "x"}

	if w := doJSON(r, http.MethodPost, "/api/v1/ai/improve-section", "google:ada", body); w.Code != http.StatusCreated {
		t.Fatalf("first call: %d", w.Code)
	}
	w := doJSON(r, http.MethodPost, "/api/v1/ai/improve-section", "google:ada", body)
	if w.Code != http.StatusTooManyRequests || errorCode(t, w) != "rate_limited" {
		t.Fatalf("expected rate_limited, got %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/ai/requests", "google:ada", nil); w.Code != http.StatusOK {
		t.Fatalf("listing should not be rate limited, got %d", w.Code)
	}
}
