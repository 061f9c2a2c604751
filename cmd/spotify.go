package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/desertthunder/personify/internal/server"
	"github.com/desertthunder/personify/internal/services"
	"github.com/desertthunder/personify/internal/shared"
	"golang.org/x/oauth2"
)

// spotifyAuth returns the injected authorizer or builds the Spotify service from the config.
func (r *Runner) spotifyAuth() (server.Authorizer, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	svc, err := services.NewSpotifyServiceFromConfig(r.cfg())
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}
	r.auth = svc
	return svc, nil
}

// authorize executes the OAuth2 authorization flow with a local callback server on the configured address.
func (r *Runner) authorize(ctx context.Context, auth server.Authorizer) (*oauth2.Token, error) {
	addr := r.cfg().Server.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to listen on %s: %v", shared.ErrServiceUnavailable, addr, err)
	}
	return r.authorizeOn(ctx, auth, ln)
}

func (r *Runner) authorizeOn(ctx context.Context, auth server.Authorizer, ln net.Listener) (*oauth2.Token, error) {
	state := shared.GenerateState()
	handler := server.NewOAuthHandler(auth, state)
	router := server.NewBasicRouter()
	router.Handler(handler)

	srvCtx, stop := context.WithCancel(ctx)
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ServeListener(srvCtx, ln, router, r.logger)
	}()

	stopped := false
	defer func() {
		stop()
		if !stopped {
			<-serverErrors
		}
	}()

	authURL := auth.GetAuthURL(state)
	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%v timeout)...\n", r.authTimeout)

	timeout := time.NewTimer(r.authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-handler.Result():
	case err := <-serverErrors:
		stopped = true
		return nil, fmt.Errorf("%w: callback server stopped: %v", shared.ErrServiceUnavailable, err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %v", shared.ErrTimeout, r.authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	r.writePlain("✓ Authorization successful\n")
	return result.Token, nil
}
