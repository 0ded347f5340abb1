// Package tasks assembles playlists on a music service with real-time progress reporting.
//
// # Core Operation
//
// [PlaylistEngine.Assemble] turns an [AssembleRequest] into a [models.PlaylistReport]:
//
//  1. Create the playlist (failure aborts the request)
//  2. Resolve each song via [services.Lookup]
//  3. Attach resolved tracks, one at a time or in batches depending on the service
//
// The report always holds one [models.ResolvedSong] per requested song, in request order.
// NotFoundSongs lists, in order, the names of every song with found=false.
//
// # Pacing
//
// Every platform call of one Assemble waits on that call's [rate.Limiter]; separate requests
// are paced independently. Once the playlist exists, a wait that fails (cancelled context,
// or a deadline the next token cannot meet) marks the song not found instead of aborting.
// Batched services may search several
// songs at once ([EngineOpts.SearchConcurrency], default 1) through an errgroup; results are
// written into fixed slots so order never depends on completion order.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
