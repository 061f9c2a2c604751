package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/personify/internal/critique"
	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/services"
	"github.com/desertthunder/personify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	// SessionCookie names the cookie carrying the session ID.
	SessionCookie = "personify_session"

	DefaultSessionTTL = 1200 * time.Second
)

// SessionStore persists [models.Session] values. Get wraps [shared.ErrNoSession] for missing or expired sessions.
type SessionStore interface {
	Create(session *models.Session) error
	Get(id string) (*models.Session, error)
	Update(session *models.Session) error
	Delete(id string) error
	Expire(before time.Time) (int64, error)
}

// Authorizer runs the Spotify side of the login flow.
type Authorizer interface {
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Supplier(ctx context.Context, token *oauth2.Token) services.TrackSupplier
}

// Critic produces a critique for tracks. It never fails; failures surface as a fallback result.
type Critic interface {
	Generate(ctx context.Context, tracks []models.Track, maxRetries int, retryDelay time.Duration) models.CritiqueResult
}

// Renderer draws a critique and tracks as PNG.
type Renderer interface {
	RenderPNG(text string, tracks []models.Track) ([]byte, error)
}

// AppOptions configures an [App]. Zero values select defaults.
type AppOptions struct {
	PublicURL  string // results page is PublicURL + "/results"
	SessionTTL time.Duration
	MaxRetries int
	RetryDelay time.Duration
	TrackLimit int
	Logger     *log.Logger
}

// App serves the login, callback, critique and image endpoints of the web service.
// Implements the [Handler] interface for registration with a [Router].
type App struct {
	sessions SessionStore
	auth     Authorizer
	critic   Critic
	renderer Renderer
	opts     AppOptions
	logger   *log.Logger
	now      func() time.Time
}

// NewApp creates an [App].
func NewApp(sessions SessionStore, auth Authorizer, critic Critic, renderer Renderer, opts AppOptions) *App {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.TrackLimit <= 0 {
		opts.TrackLimit = services.DefaultTopTracks
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	opts.PublicURL = strings.TrimSuffix(opts.PublicURL, "/")

	return &App{
		sessions: sessions,
		auth:     auth,
		critic:   critic,
		renderer: renderer,
		opts:     opts,
		logger:   shared.WithLogger(opts.Logger, "component", "app"),
		now:      time.Now,
	}
}

// Routes returns the HTTP routes this handler serves.
func (a *App) Routes() []string {
	return []string{"/login", "/callback", "/get-critique", "/get-image"}
}

// ServeHTTP dispatches on the request path. Every route is GET only.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/login":
		a.login(w, r)
	case "/callback":
		a.callback(w, r)
	case "/get-critique":
		a.getCritique(w, r)
	case "/get-image":
		a.getImage(w, r)
	default:
		http.NotFound(w, r)
	}
}

// login starts a fresh session and redirects to Spotify.
func (a *App) login(w http.ResponseWriter, r *http.Request) {
	if old, err := r.Cookie(SessionCookie); err == nil {
		_ = a.sessions.Delete(old.Value)
	}

	session := models.NewSession(0, shared.GenerateState(), a.opts.SessionTTL)
	if err := a.sessions.Create(session); err != nil {
		a.logger.Error("failed to create session", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
		return
	}

	a.setCookie(w, session.ID())
	a.logger.Debug("session started", "sequence", session.Sequence())
	http.Redirect(w, r, a.auth.GetAuthURL(session.State()), http.StatusFound)
}

// callback completes the authorization code flow and stores the listener's top tracks.
func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code := q.Get("code")
	if code == "" {
		a.logger.Warn("callback without code", "error", q.Get("error"))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No code received from Spotify"})
		return
	}

	session, ok := a.session(r)
	if !ok || q.Get("state") != session.State() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid state parameter"})
		return
	}

	token, err := a.auth.Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve access token or top tracks"})
		return
	}

	tracks, err := a.auth.Supplier(r.Context(), token).TopTracks(r.Context(), a.opts.TrackLimit)
	if err != nil {
		a.logger.Error("failed to fetch top tracks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to retrieve access token or top tracks"})
		return
	}

	session.SetTracks(tracks)
	session.SetState(shared.GenerateState())
	if err := a.sessions.Update(session); err != nil {
		a.logger.Error("failed to store tracks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to store tracks"})
		return
	}

	a.logger.Info("stored top tracks", "sequence", session.Sequence(), "count", len(tracks))
	http.Redirect(w, r, a.opts.PublicURL+"/results", http.StatusFound)
}

// getCritique generates a critique for the session's tracks and stores it.
func (a *App) getCritique(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok || len(session.Tracks()) == 0 {
		writeJSON(w, http.StatusBadRequest, models.CritiqueResult{Text: critique.NoTracksMessage, IsFallback: true})
		return
	}

	result := a.critic.Generate(r.Context(), session.Tracks(), a.opts.MaxRetries, a.opts.RetryDelay)

	session.SetCritique(result)
	if err := a.sessions.Update(session); err != nil {
		a.logger.Error("failed to store critique", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error generating critique: " + err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// getImage renders the session's critique and tracks as a downloadable PNG.
func (a *App) getImage(w http.ResponseWriter, r *http.Request) {
	session, ok := a.session(r)
	if !ok || strings.TrimSpace(session.Critique()) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No critique available."})
		return
	}

	data, err := a.renderer.RenderPNG(session.Critique(), session.Tracks())
	switch {
	case errors.Is(err, shared.ErrMissingCritique), errors.Is(err, shared.ErrMissingTracks):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	case err != nil:
		a.logger.Error("failed to render image", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to render image"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="critique.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// SweepSessions removes expired sessions every interval until ctx is done.
func (a *App) SweepSessions(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.sessions.Expire(a.now())
			if err != nil {
				a.logger.Warn("failed to expire sessions", "error", err)
				continue
			}
			if n > 0 {
				a.logger.Debug("expired sessions", "count", n)
			}
		}
	}
}

func (a *App) session(r *http.Request) (*models.Session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}

	session, err := a.sessions.Get(c.Value)
	if err != nil {
		if !errors.Is(err, shared.ErrNoSession) {
			a.logger.Error("failed to load session", "error", err)
		}
		return nil, false
	}
	return session, true
}

func (a *App) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(a.opts.SessionTTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewServiceRouter wires middleware and the app's routes. The rate limit applies to the critique endpoint only.
func NewServiceRouter(app *App, cfg shared.ServerConfig, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	r := NewBasicRouter()
	r.Use(
		Logging(shared.WithLogger(logger, "component", "http")),
		CORS(cfg.AllowedOrigin),
		RateLimit(cfg.RateLimit, cfg.RateBurst, "/get-critique"),
	)
	r.Handler(app)
	r.HandleFunc(http.MethodGet, "/healthz", Health)
	return r
}
