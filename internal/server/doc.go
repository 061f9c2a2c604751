// Package server provides HTTP routing, middleware, the web service handlers and OAuth handling for the CLI.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [Logging], [CORS] and [RateLimit] cover request logs, the frontend origin and per-client throttling.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Web Service
//
// [App] serves four GET routes backed by a [SessionStore]:
//
//	/login         new session, cookie, redirect to Spotify
//	/callback      state check, code exchange, top tracks stored on the session
//	/get-critique  critique generated for the stored tracks, JSON {"critique", "fallback"}
//	/get-image     PNG of the stored critique, served as an attachment
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback for the CLI. A temporary server on the
// redirect URI's host handles the callback and shuts down after receiving the token.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel. It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
