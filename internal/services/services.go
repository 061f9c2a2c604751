// package services defines interfaces for the HTTP APIs the roast is built from
//
// Spotify (top tracks)
package services

import (
	"context"

	"github.com/desertthunder/personify/internal/models"
)

// TrackSupplier returns the authenticated listener's most played tracks, most played first.
type TrackSupplier interface {
	TopTracks(ctx context.Context, limit int) ([]models.Track, error)
}

// Provider is a music service that can authenticate a listener and supply their tracks.
type Provider interface {
	TrackSupplier

	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}
