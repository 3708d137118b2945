package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	sharedauth "cvbuilder-backend/internal/shared/auth"
	"cvbuilder-backend/internal/users"
)

type recordingUsers struct {
	got []users.User
}

func (r *recordingUsers) UpsertFromAuth(_ context.Context, user users.User) error {
	r.got = append(r.got, user)
	return nil
}

func newGoogleProvider(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "123", "email": "ada@example.com", "name": "Ada"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleCallbackUpsertsUserAndIssuesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := newGoogleProvider(t)
	signer := sharedauth.NewSigner("secret", time.Hour)
	store := &recordingUsers{}

	svc := NewGoogleService("cid", "csecret", "http://api.local/callback", "http://ui.local/done", signer, store)
	svc.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: provider.URL + "/auth", TokenURL: provider.URL + "/token"}
	svc.userInfoURL = provider.URL + "/userinfo"

	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	start := httptest.NewRecorder()
	r.ServeHTTP(start, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if start.Code != http.StatusFound {
		t.Fatalf("start: expected 302, got %d", start.Code)
	}
	loc, _ := url.Parse(start.Header().Get("Location"))
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatalf("missing state in %s", loc)
	}

	cb := httptest.NewRecorder()
	r.ServeHTTP(cb, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=c&state="+state, nil))
	if cb.Code != http.StatusFound {
		t.Fatalf("callback: expected 302, got %d: %s", cb.Code, cb.Body.String())
	}
	done, _ := url.Parse(cb.Header().Get("Location"))
	if !strings.HasPrefix(done.String(), "http://ui.local/done") {
		t.Fatalf("unexpected redirect %s", done)
	}
	claims, err := signer.Verify(done.Query().Get("token"))
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if claims.Subject != "google:123" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(store.got) != 1 || store.got[0].ID != "google:123" || store.got[0].FullName != "Ada" {
		t.Fatalf("user not upserted: %+v", store.got)
	}

	replay := httptest.NewRecorder()
	r.ServeHTTP(replay, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?code=c&state="+state, nil))
	if replay.Code != http.StatusBadRequest {
		t.Fatalf("state must be single use, got %d", replay.Code)
	}
}

func TestGoogleStartRequiresConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("", "", "", "", sharedauth.NewSigner("", 0), nil)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/start", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when unconfigured, got %d", w.Code)
	}
}

func TestStateStoreExpiresAndSweeps(t *testing.T) {
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := newStateStore(time.Minute)
	store.now = func() time.Time { return clock }

	stale := store.issue()
	clock = clock.Add(2 * time.Minute)
	fresh := store.issue()
	if _, ok := store.items[stale]; ok {
		t.Fatalf("expired state should be swept on issue")
	}
	if store.consume(stale) {
		t.Fatalf("expired state must not be accepted")
	}
	if !store.consume(fresh) {
		t.Fatalf("fresh state rejected")
	}
	if store.consume(fresh) {
		t.Fatalf("state must be single use")
	}
}

func TestGoogleCallbackRejectsMissingCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewGoogleService("cid", "csecret", "http://api.local/callback", "http://ui.local/done", sharedauth.NewSigner("", 0), nil)
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback?state=s", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
