// package models defines the data model for the playlist creation service
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Platform identifies a destination music platform.
type Platform string

const (
	Spotify Platform = "spotify"
	YouTube Platform = "youtube"
)

// ParsePlatform validates a platform value from user input.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(strings.ToLower(strings.TrimSpace(s))) {
	case Spotify:
		return Spotify, nil
	case YouTube:
		return YouTube, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Label returns the human readable platform name used in reports.
func (p Platform) Label() string {
	switch p {
	case Spotify:
		return "Spotify"
	case YouTube:
		return "YouTube Music"
	default:
		return string(p)
	}
}

// Provider returns the identity provider whose tokens are accepted for the platform.
func (p Platform) Provider() string {
	switch p {
	case YouTube:
		return "google"
	default:
		return string(p)
	}
}

// Tempo is the coarse pace of a song.
type Tempo string

const (
	TempoSlow   Tempo = "slow"
	TempoMedium Tempo = "medium"
	TempoFast   Tempo = "fast"
)

// ParseTempo returns the tempo for s, or "" when s is not a known tempo.
func ParseTempo(s string) Tempo {
	switch t := Tempo(strings.ToLower(strings.TrimSpace(s))); t {
	case TempoSlow, TempoMedium, TempoFast:
		return t
	default:
		return ""
	}
}

// SongDescriptor is a song name plus optional metadata, before or after enrichment.
type SongDescriptor struct {
	Name   string   `json:"name"`
	Artist string   `json:"artist,omitempty"`
	Tempo  Tempo    `json:"tempo,omitempty"`
	Genre  string   `json:"genre,omitempty"`
	Energy *float64 `json:"energy,omitempty"` // within [0,1]
	Mood   string   `json:"mood,omitempty"`
}

// Query builds the platform search query "{name} {artist}", omitting an empty artist.
func (s SongDescriptor) Query() string {
	return strings.TrimSpace(s.Name + " " + s.Artist)
}

// SongInput is a request entry that is either a bare song name or a full descriptor.
type SongInput struct {
	SongDescriptor
}

// UnmarshalJSON accepts `"Song"` and `{"name": "Song", ...}`.
func (in *SongInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		in.SongDescriptor = SongDescriptor{Name: name}
		return nil
	}

	var d SongDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("song entry must be a string or an object: %w", err)
	}
	in.SongDescriptor = d
	return nil
}

// ResolvedSong is a descriptor plus its platform resolution outcome.
type ResolvedSong struct {
	SongDescriptor
	Found      bool   `json:"found"`
	PlatformID string `json:"platformId,omitempty"`
}

// NotFound marks the song as unresolved, dropping any platform id.
func (r ResolvedSong) NotFound() ResolvedSong {
	r.Found = false
	r.PlatformID = ""
	return r
}

// PlaylistReport is the partial-success result of a playlist creation request.
type PlaylistReport struct {
	Success       bool           `json:"success"`
	Platform      string         `json:"platform"`
	PlaylistID    string         `json:"playlistId,omitempty"`
	PlaylistURL   string         `json:"playlistUrl,omitempty"`
	Songs         []ResolvedSong `json:"songs"`
	NotFoundSongs []string       `json:"notFoundSongs"`
}

// FoundCount returns the number of resolved songs.
func (r *PlaylistReport) FoundCount() int {
	n := 0
	for _, s := range r.Songs {
		if s.Found {
			n++
		}
	}
	return n
}

// RateLimitEntry is the admission counter for one subject key.
type RateLimitEntry struct {
	SubjectKey    string
	Count         int
	WindowResetAt time.Time
}

// Session is the identity consumed from the sign-in collaborator.
type Session struct {
	AccessToken string `json:"accessToken"`
	Provider    string `json:"provider"`
	Email       string `json:"email,omitempty"`
}
