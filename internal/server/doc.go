// Package server provides the HTTP API, routing, middleware, session tokens and OAuth callback handling.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("POST /playlists").
//
// # API
//
// [API] serves:
//
//	GET  /healthz          liveness
//	POST /songs/normalize  {text} or {songs} → {songs}
//	POST /songs/enrich     {songs, phases?} → {songs}, same length as the input
//	POST /playlists        {songs, platform, name?, description?} → PlaylistReport
//
// Every error body is JSON with an "error" message. "details" carries the internal error
// outside production, and "suggestSpotify" is set on YouTube quota and generic failures.
//
// Playlist requests require a session. On the YouTube path the song count is checked against
// the gate's size limit (400) and then the subject is admitted by the rate gate (429), both
// before any platform call.
//
// # Sessions
//
// [SessionService] signs HS256 tokens carrying the platform access token, the identity provider
// and the user email. The [Sessions] middleware reads "Authorization: Bearer <token>".
//
// # OAuth Callback Handler
//
// [OAuthHandler] receives the authorization code callback during CLI sign-in.
//
// The handler validates the state parameter (CSRF protection) and sends the code through a channel.
// It only processes one callback to prevent replay attacks.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
