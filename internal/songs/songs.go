// Package songs turns raw user input into ordered song descriptors.
//
// Normalization splits text on line breaks, trims every line and drops blank ones. Each
// remaining line becomes a [models.SongDescriptor] with only its name set. Order and duplicates
// are preserved; empty input yields an empty, non-nil slice.
package songs

import (
	"strings"

	"github.com/desertthunder/setlist/internal/models"
)

// Normalize maps raw multi-line text to one descriptor per non-blank line.
func Normalize(text string) []models.SongDescriptor {
	lines := strings.FieldsFunc(text, func(r rune) bool { return r == '\n' || r == '\r' })

	out := make([]models.SongDescriptor, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			out = append(out, models.SongDescriptor{Name: name})
		}
	}
	return out
}

// FromNames maps a list of bare names, dropping blank entries.
func FromNames(names []string) []models.SongDescriptor {
	out := make([]models.SongDescriptor, 0, len(names))
	for _, n := range names {
		if name := strings.TrimSpace(n); name != "" {
			out = append(out, models.SongDescriptor{Name: name})
		}
	}
	return out
}

// FromInputs converts request entries into descriptors.
//
// Names and artists are trimmed and entries whose name is blank are dropped. Metadata on
// structured entries is kept.
func FromInputs(in []models.SongInput) []models.SongDescriptor {
	out := make([]models.SongDescriptor, 0, len(in))
	for _, entry := range in {
		d := entry.SongDescriptor
		d.Name = strings.TrimSpace(d.Name)
		d.Artist = strings.TrimSpace(d.Artist)
		if d.Name == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Names returns the descriptor names in order.
func Names(songs []models.SongDescriptor) []string {
	names := make([]string, len(songs))
	for i, s := range songs {
		names[i] = s.Name
	}
	return names
}
