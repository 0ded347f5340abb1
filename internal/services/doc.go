// Package services defines the [Service] interface for music platforms and implements it for Spotify and YouTube Music.
//
// # Service Interface
//
// All platforms implement a common abstraction so playlist assembly works uniformly:
// create a playlist, search for a track, append track handles. [Service.BatchSize] tells the
// assembler whether handles are appended in bulk (Spotify, 100 per call) or one at a time
// right after each search (YouTube, 1).
//
// [Lookup] and [Resolve] map a [models.SongDescriptor] to a new [models.ResolvedSong]; a failed
// or empty search yields found=false and is never an error for the request as a whole.
//
// # Spotify Implementation
//
// [SpotifyService] talks to the Spotify Web API with a bearer token wrapped in an [oauth2.Client].
// Playlists are created private under the user returned by /me.
//
// # YouTube Implementation
//
// [YouTubeService] talks to the YouTube Data API v3 over plain HTTP: playlists.insert,
// search.list (type=video, maxResults=1) and playlistItems.insert.
//
// # Authentication
//
// Both services implement [Authenticator]. A bearer token from a session is enough to call the
// APIs; the OAuth2 client id and secret are only needed to exchange authorization codes in the
// CLI sign-in flow.
//
// # Error Handling
//
// Non-2xx responses become a [*PlatformError] whose [ErrorKind] is derived from, in order:
//   - the structured reason code (error.errors[].reason, error.status)
//   - the HTTP status (401 auth, 429 quota, 404 not found)
//   - the message text ("quota", "authenticat"), only when nothing structured is present
//
// [PlatformError] unwraps to the shared sentinels so callers can use errors.Is:
//   - [shared.ErrQuotaExceeded] : quota or rate limit reached
//   - [shared.ErrAuthFailed] : token missing, expired or revoked
//   - [shared.ErrTrackNotFound] : resource not found
//   - [shared.ErrAPIRequest] : anything else
package services
