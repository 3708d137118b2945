// Package auth implements Google sign-in for the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	sharedauth "cvbuilder-backend/internal/shared/auth"
	"cvbuilder-backend/internal/shared/server/respond"
	"cvbuilder-backend/internal/shared/telemetry"
	"cvbuilder-backend/internal/users"
)

const (
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	stateTTL    = 5 * time.Minute
)

// TokenSigner issues session tokens for a subject.
type TokenSigner interface {
	Sign(subject string, claims sharedauth.Claims) (string, error)
}

// UserUpserter stores the signed-in identity.
type UserUpserter interface {
	UpsertFromAuth(ctx context.Context, user users.User) error
}

// GoogleService runs the OAuth2 authorization-code flow and hands the UI a session token.
type GoogleService struct {
	oauthConfig *oauth2.Config
	uiRedirect  string
	states      *stateStore
	signer      TokenSigner
	users       UserUpserter
	userInfoURL string
}

// NewGoogleService builds a GoogleService. userSvc may be nil.
func NewGoogleService(clientID, clientSecret, redirectURL, uiRedirect string, signer TokenSigner, userSvc UserUpserter) *GoogleService {
	return &GoogleService{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		uiRedirect:  uiRedirect,
		states:      newStateStore(stateTTL),
		signer:      signer,
		users:       userSvc,
		userInfoURL: userInfoURL,
	}
}

// RegisterRoutes attaches Google auth routes.
func (s *GoogleService) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/google/start", s.start)
	rg.GET("/auth/google/callback", s.callback)
}

func (s *GoogleService) configured() bool {
	cfg := s.oauthConfig
	return cfg.ClientID != "" && cfg.ClientSecret != "" && cfg.RedirectURL != ""
}

func (s *GoogleService) start(c *gin.Context) {
	if !s.configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", "Google auth not configured", nil)
		return
	}
	c.Redirect(http.StatusFound, s.oauthConfig.AuthCodeURL(s.states.issue()))
}

func (s *GoogleService) callback(c *gin.Context) {
	token, err := s.signIn(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		var se *signInError
		if errors.As(err, &se) {
			respond.Error(c, se.status, se.code, se.message, nil)
			return
		}
		respond.Failure(c, err)
		return
	}
	target, err := withToken(s.uiRedirect, token)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to redirect", nil)
		return
	}
	c.Redirect(http.StatusFound, target)
}

type signInError struct {
	status  int
	code    string
	message string
	cause   error
}

func (e *signInError) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *signInError) Unwrap() error { return e.cause }

func rejected(message string) error {
	return &signInError{status: http.StatusBadRequest, code: "invalid_request", message: message}
}

// signIn exchanges the code, stores the profile and returns a session token for "google:<sub>".
func (s *GoogleService) signIn(ctx context.Context, state, code string) (string, error) {
	if state == "" || code == "" {
		return "", rejected("missing state or code")
	}
	if !s.states.consume(state) {
		return "", rejected("invalid or expired state")
	}
	tok, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		telemetry.Warn("auth.exchange_failed", map[string]any{"error": err})
		return "", rejected("failed to exchange code")
	}
	profile, err := s.fetchProfile(ctx, tok)
	if err != nil {
		return "", &signInError{status: http.StatusBadGateway, code: "auth_failed", message: "failed to fetch user profile", cause: err}
	}

	subject := "google:" + profile.ID
	if s.users != nil {
		if err := s.users.UpsertFromAuth(ctx, profile); err != nil {
			telemetry.Error("auth.user_upsert_failed", map[string]any{"user_id": subject, "error": err})
			return "", fmt.Errorf("store user %s: %w", subject, err)
		}
	}
	return s.signer.Sign(subject, sharedauth.Claims{
		Email:   profile.Email,
		Name:    profile.FullName,
		Picture: profile.PictureURL,
	})
}

// fetchProfile reads the userinfo document. Its id field is "sub" or, on the v2 endpoint, "id".
func (s *GoogleService) fetchProfile(ctx context.Context, tok *oauth2.Token) (users.User, error) {
	resp, err := resty.NewWithClient(s.oauthConfig.Client(ctx, tok)).R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		Get(s.userInfoURL)
	if err != nil {
		return users.User{}, err
	}
	if resp.IsError() {
		return users.User{}, fmt.Errorf("userinfo status %d", resp.StatusCode())
	}
	doc := gjson.ParseBytes(resp.Body())
	sub := doc.Get("sub").String()
	if sub == "" {
		sub = doc.Get("id").String()
	}
	if sub == "" {
		return users.User{}, errors.New("userinfo has no subject")
	}
	return users.User{
		ID:         "google:" + sub,
		Email:      doc.Get("email").String(),
		FullName:   doc.Get("name").String(),
		PictureURL: doc.Get("picture").String(),
	}, nil
}

// stateStore holds single-use OAuth state values until they expire.
type stateStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]time.Time
	now   func() time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{ttl: ttl, items: make(map[string]time.Time), now: time.Now}
}

func (s *stateStore) issue() string {
	state := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, exp := range s.items {
		if now.After(exp) {
			delete(s.items, k)
		}
	}
	s.items[state] = now.Add(s.ttl)
	return state
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.items[state]
	delete(s.items, state)
	return ok && !s.now().After(exp)
}

func withToken(rawURL, token string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
