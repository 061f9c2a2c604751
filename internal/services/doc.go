// Package services defines the [TrackSupplier] and [Provider] interfaces and implements them for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] uses the OAuth2 authorization code flow with the scopes
// user-read-private, user-read-email and user-top-read.
//
// The [oauth2.Client] attaches the bearer token to every request and refreshes it when a refresh token is present.
// [SpotifyService.WithToken] binds a copy of the service to one listener's token, which is how the web service
// handles concurrent sessions with a single configured client.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called, or Spotify answered 401
//   - [shared.ErrAuthFailed] : code exchange rejected
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrMissingCredentials] : client ID or secret absent
//
// # API Mappings
//
// Spotify top track items map to [models.Track] using the track name and the first listed artist.
package services
