// Package models defines the value types shared by the setlist playlist pipeline.
//
// Songs move through the pipeline in three shapes:
//   - [SongInput] : a request entry, either a bare name or a full object
//   - [SongDescriptor] : a name plus optional artist, [Tempo], genre, energy and mood
//   - [ResolvedSong] : a descriptor plus the platform resolution outcome
//
// A [PlaylistReport] is produced once per playlist creation request and is never persisted.
// Its Songs slice always has one entry per submitted descriptor, in submission order, and
// NotFoundSongs only names songs whose Found flag is false.
//
// [RateLimitEntry] is the admission counter kept by the request gate, and [Session] is the
// identity (access token, provider, email) handed over by the sign-in flow.
package models
