// Spotify API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// DefaultTopTracks is how many top tracks the roast is built from.
	DefaultTopTracks = 10
	maxTopTracks     = 50
)

// SpotifyScopes are the scopes requested at login.
var SpotifyScopes = []string{"user-read-private", "user-read-email", "user-top-read"}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"` // premium, free, etc.
}

// SpotifyArtist represents a simplified Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	Popularity int             `json:"popularity"`
	URI        string          `json:"uri"`
}

// Model maps the track to [models.Track] with its first artist.
func (t SpotifyTrack) Model() models.Track {
	track := models.Track{Name: t.Name}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// SpotifyTopTracks is a page of the /me/top/tracks response.
type SpotifyTopTracks struct {
	Items  []SpotifyTrack `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// SpotifyOption customizes a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithSpotifyEndpoints overrides the accounts and API base URLs. Empty values keep the defaults.
func WithSpotifyEndpoints(authURL, tokenURL, apiURL string) SpotifyOption {
	return func(s *SpotifyService) {
		if authURL != "" {
			s.config.Endpoint.AuthURL = authURL
		}
		if tokenURL != "" {
			s.config.Endpoint.TokenURL = tokenURL
		}
		if apiURL != "" {
			s.baseURL = strings.TrimSuffix(apiURL, "/")
		}
	}
}

// WithSpotifyHTTPClient sets the client used for token exchange and as the transport under the OAuth2 client.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) {
		s.baseClient = c
	}
}

// SpotifyService implements the [Provider] interface for Spotify API interactions.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	baseClient *http.Client
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:3000/callback"
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       SpotifyScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
		httpClient: http.DefaultClient,
		baseURL:    spotifyBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewSpotifyServiceFromConfig builds the service from the [shared.Config] credentials.
func NewSpotifyServiceFromConfig(cfg *shared.Config, opts ...SpotifyOption) (*SpotifyService, error) {
	return NewSpotifyService(map[string]string{
		"client_id":     cfg.Credentials.Spotify.ClientID,
		"client_secret": cfg.Credentials.Spotify.ClientSecret,
		"redirect_uri":  cfg.Credentials.Spotify.RedirectURI,
	}, opts...)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// RedirectURL is the callback registered with Spotify.
func (s *SpotifyService) RedirectURL() string {
	return s.config.RedirectURL
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.bind(ctx, &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.Exchange(ctx, authCode)
		if err != nil {
			return err
		}
		s.bind(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// Exchange trades an authorization code for a token without binding it.
func (s *SpotifyService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.config.Exchange(s.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// WithToken returns a copy of the service authenticated as token's owner. The receiver is unchanged.
func (s *SpotifyService) WithToken(ctx context.Context, token *oauth2.Token) *SpotifyService {
	cp := *s
	cp.bind(ctx, token)
	return &cp
}

// Supplier is [SpotifyService.WithToken] as a [TrackSupplier].
func (s *SpotifyService) Supplier(ctx context.Context, token *oauth2.Token) TrackSupplier {
	return s.WithToken(ctx, token)
}

// Token returns the bound token, or nil before authentication.
func (s *SpotifyService) Token() *oauth2.Token {
	return s.token
}

func (s *SpotifyService) bind(ctx context.Context, token *oauth2.Token) {
	s.token = token
	s.httpClient = s.config.Client(s.clientContext(ctx), token)
}

// clientContext carries the base client to the oauth2 package, which reads it from the context.
func (s *SpotifyService) clientContext(ctx context.Context) context.Context {
	if s.baseClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.baseClient)
}

// doRequest performs an authenticated GET to the Spotify API and decodes the JSON body into result.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: spotify rejected the token", shared.ErrNotAuthenticated)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: spotify API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// TopTracks retrieves the listener's top tracks. limit is clamped to Spotify's range; zero or less uses [DefaultTopTracks].
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = DefaultTopTracks
	}
	limit = min(limit, maxTopTracks)

	var page SpotifyTopTracks
	if err := s.doRequest(ctx, fmt.Sprintf("/me/top/tracks?limit=%d", limit), &page); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, item.Model())
	}
	return tracks, nil
}
