package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/personify/internal/compositor"
	"github.com/desertthunder/personify/internal/critique"
	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/repositories"
	"github.com/desertthunder/personify/internal/services"
	"github.com/desertthunder/personify/internal/shared"
	tu "github.com/desertthunder/personify/internal/testing"
	"golang.org/x/oauth2"
)

type fakeAuthorizer struct {
	exchangeErr error
	supplier    *tu.MockTrackSupplier
	codes       []string
}

func (f *fakeAuthorizer) GetAuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeAuthorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &oauth2.Token{AccessToken: "token"}, nil
}

func (f *fakeAuthorizer) Supplier(ctx context.Context, token *oauth2.Token) services.TrackSupplier {
	return f.supplier
}

type testApp struct {
	app      *App
	handler  http.Handler
	sessions *repositories.SessionRepository
	auth     *fakeAuthorizer
	critic   *tu.MockCompleter
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	sessions := repositories.NewSessionRepository(db)
	auth := &fakeAuthorizer{supplier: &tu.MockTrackSupplier{Tracks: tu.Tracks(3)}}
	completer := &tu.MockCompleter{Responses: []string{tu.LongCritique(120, "Your music taste is deeply-and-specifically bad.")}}
	gen := critique.NewGenerator(completer, critique.Options{Sleep: (&tu.SleepRecorder{}).Sleep})

	app := NewApp(sessions, auth, gen, compositor.New(nil, compositor.DefaultLayout(), nil), AppOptions{
		PublicURL:  "https://personify.example.com/",
		MaxRetries: 2,
	})

	cfg := shared.DefaultConfig().Server
	cfg.RateLimit = 0

	return &testApp{
		app:      app,
		handler:  NewServiceRouter(app, cfg, nil),
		sessions: sessions,
		auth:     auth,
		critic:   completer,
	}
}

func (ta *testApp) do(t *testing.T, target string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	ta.handler.ServeHTTP(rec, req)
	return rec
}

// login runs /login and returns the session cookie and the state sent to the authorizer.
func (ta *testApp) login(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	rec := ta.do(t, "/login", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect from /login, got %d", rec.Code)
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected session cookie")
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("invalid redirect: %v", err)
	}
	return cookie, loc.Query().Get("state")
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAppLogin(t *testing.T) {
	ta := newTestApp(t)
	cookie, state := ta.login(t)

	if !cookie.Secure || !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("unexpected cookie attributes %+v", cookie)
	}
	if cookie.MaxAge != 1200 {
		t.Errorf("expected max age 1200, got %d", cookie.MaxAge)
	}
	if len(state) != 32 {
		t.Errorf("expected 32 character state, got %q", state)
	}

	session, err := ta.sessions.Get(cookie.Value)
	if err != nil {
		t.Fatalf("expected stored session: %v", err)
	}
	if session.State() != state {
		t.Error("stored state does not match redirect state")
	}

	t.Run("second login replaces the session", func(t *testing.T) {
		rec := ta.do(t, "/login", cookie)
		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d", rec.Code)
		}
		if _, err := ta.sessions.Get(cookie.Value); !errors.Is(err, shared.ErrNoSession) {
			t.Errorf("expected old session deleted, got %v", err)
		}
	})
}

func TestAppCallback(t *testing.T) {
	t.Run("stores tracks and redirects", func(t *testing.T) {
		ta := newTestApp(t)
		cookie, state := ta.login(t)

		rec := ta.do(t, "/callback?code=abc&state="+state, cookie)
		if rec.Code != http.StatusFound {
			t.Fatalf("expected redirect, got %d: %s", rec.Code, rec.Body.String())
		}
		if loc := rec.Header().Get("Location"); loc != "https://personify.example.com/results" {
			t.Errorf("unexpected redirect %s", loc)
		}
		if ta.auth.supplier.Limit != 10 {
			t.Errorf("expected limit 10, got %d", ta.auth.supplier.Limit)
		}

		session, _ := ta.sessions.Get(cookie.Value)
		if len(session.Tracks()) != 3 {
			t.Errorf("expected 3 stored tracks, got %d", len(session.Tracks()))
		}
		if session.State() == state {
			t.Error("expected state to rotate after use")
		}
	})

	t.Run("missing code", func(t *testing.T) {
		ta := newTestApp(t)
		rec := ta.do(t, "/callback?error=access_denied", nil)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if body := decodeJSON(t, rec); body["error"] != "No code received from Spotify" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("state mismatch", func(t *testing.T) {
		ta := newTestApp(t)
		cookie, _ := ta.login(t)

		rec := ta.do(t, "/callback?code=abc&state=forged", cookie)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(ta.auth.codes) != 0 {
			t.Error("expected no exchange for a forged state")
		}
	})

	t.Run("no session", func(t *testing.T) {
		ta := newTestApp(t)
		if rec := ta.do(t, "/callback?code=abc&state=x", nil); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.exchangeErr = shared.ErrAuthFailed
		cookie, state := ta.login(t)

		rec := ta.do(t, "/callback?code=abc&state="+state, cookie)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("top tracks failure", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.supplier.Err = shared.ErrAPIRequest
		cookie, state := ta.login(t)

		rec := ta.do(t, "/callback?code=abc&state="+state, cookie)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if body := decodeJSON(t, rec); body["error"] != "Failed to retrieve access token or top tracks" {
			t.Errorf("unexpected body %v", body)
		}
	})
}

func TestAppCritiqueAndImage(t *testing.T) {
	ta := newTestApp(t)
	cookie, state := ta.login(t)

	t.Run("critique before callback", func(t *testing.T) {
		rec := ta.do(t, "/get-critique", cookie)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if body := decodeJSON(t, rec); body["critique"] != "No tracks available." {
			t.Errorf("unexpected body %v", body)
		}
		if ta.critic.Calls() != 0 {
			t.Error("completer should not be called without tracks")
		}
	})

	t.Run("image before critique", func(t *testing.T) {
		if rec := ta.do(t, "/get-image", cookie); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	if rec := ta.do(t, "/callback?code=abc&state="+state, cookie); rec.Code != http.StatusFound {
		t.Fatalf("callback failed with %d", rec.Code)
	}

	t.Run("critique", func(t *testing.T) {
		rec := ta.do(t, "/get-critique", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := decodeJSON(t, rec)
		text, _ := body["critique"].(string)
		if !strings.Contains(text, "deeply-and-specifically bad") {
			t.Errorf("unexpected critique %q", text)
		}
		if body["fallback"] != false {
			t.Errorf("expected fallback false, got %v", body["fallback"])
		}

		session, _ := ta.sessions.Get(cookie.Value)
		if session.Critique() != text {
			t.Error("expected critique stored on the session")
		}
	})

	t.Run("image", func(t *testing.T) {
		rec := ta.do(t, "/get-image", cookie)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %s", ct)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="critique.png"` {
			t.Errorf("unexpected disposition %s", cd)
		}

		cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
		if err != nil {
			t.Fatalf("invalid png: %v", err)
		}
		if cfg.Width != compositor.Width || cfg.Height != compositor.Height {
			t.Errorf("unexpected size %dx%d", cfg.Width, cfg.Height)
		}
	})

	t.Run("fallback critique is reported", func(t *testing.T) {
		ta.critic.Responses = []string{"too short"}
		rec := ta.do(t, "/get-critique", cookie)

		body := decodeJSON(t, rec)
		if body["critique"] != critique.FallbackMessage || body["fallback"] != true {
			t.Errorf("expected fallback body, got %v", body)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/get-critique", nil)
		rec := httptest.NewRecorder()
		ta.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestAppSweepSessions(t *testing.T) {
	ta := newTestApp(t)
	cookie, _ := ta.login(t)

	ta.app.now = func() time.Time { return time.Now().Add(time.Hour) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ta.app.SweepSessions(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		sessions, _ := ta.sessions.List(map[string]any{})
		if len(sessions) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("session %s was not swept", cookie.Value)
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)
	rec := ta.do(t, "/healthz", nil)
	if rec.Code != http.StatusOK || decodeJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected health response %d", rec.Code)
	}
}

var _ Critic = (*critique.Generator)(nil)
var _ SessionStore = (*repositories.SessionRepository)(nil)
var _ Renderer = (*compositor.Compositor)(nil)
var _ models.Repository[*models.Session] = (*repositories.SessionRepository)(nil)
