package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.POST("/api/v1/cvs/:cvId/contacts", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  bool
	}{
		{name: "preflight allowed", allowed: []string{"http://localhost:5173"}, method: http.MethodOptions, origin: "http://localhost:5173", wantStatus: http.StatusNoContent, wantAllow: true},
		{name: "post allowed", allowed: []string{"http://localhost:5173/"}, method: http.MethodPost, origin: "http://localhost:5173", wantStatus: http.StatusOK, wantAllow: true},
		{name: "foreign origin", allowed: []string{"http://localhost:5173"}, method: http.MethodPost, origin: "https://evil.test", wantStatus: http.StatusOK},
		{name: "foreign preflight", allowed: []string{"http://localhost:5173"}, method: http.MethodOptions, origin: "https://evil.test", wantStatus: http.StatusNoContent},
		{name: "wildcard", allowed: []string{"*"}, method: http.MethodPost, origin: "https://app.example.com", wantStatus: http.StatusOK, wantAllow: true},
		{name: "no origin", allowed: []string{"*"}, method: http.MethodPost, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/cvs/123/contacts", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			resp := httptest.NewRecorder()
			newCORSRouter(tt.allowed...).ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.Code)
			}
			got := resp.Header().Get("Access-Control-Allow-Origin")
			if !tt.wantAllow {
				if got != "" {
					t.Fatalf("expected no Allow-Origin, got %q", got)
				}
				return
			}
			if got != tt.origin {
				t.Fatalf("expected Allow-Origin %q, got %q", tt.origin, got)
			}
			if resp.Header().Get("Access-Control-Allow-Headers") == "" {
				t.Fatalf("expected Allow-Headers header")
			}
			if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
				t.Fatalf("expected Max-Age 600, got %q", got)
			}
		})
	}
}
