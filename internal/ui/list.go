package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/setlist/internal/models"
)

var (
	_ list.Item = songItem{}
	_ list.Item = resolvedItem{}
)

// songItem wraps [models.SongDescriptor] to implement [list.Item].
type songItem struct {
	song models.SongDescriptor
}

func (i songItem) FilterValue() string { return i.song.Name }
func (i songItem) Title() string       { return i.song.Name }
func (i songItem) Description() string { return describe(i.song) }

// resolvedItem wraps [models.ResolvedSong] to implement [list.Item].
type resolvedItem struct {
	song models.ResolvedSong
}

func (i resolvedItem) FilterValue() string { return i.song.Name }

func (i resolvedItem) Title() string {
	if i.song.Found {
		return "✓ " + i.song.Name
	}
	return "✗ " + i.song.Name
}

func (i resolvedItem) Description() string {
	if !i.song.Found {
		return "not found"
	}
	return describe(i.song.SongDescriptor)
}

// describe joins the artist and metadata with " • ".
func describe(s models.SongDescriptor) string {
	var parts []string
	for _, p := range []string{s.Artist, string(s.Tempo), s.Genre, s.Mood} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "unknown artist"
	}
	return strings.Join(parts, " • ")
}

func songItems(songs []models.SongDescriptor) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = songItem{song: s}
	}
	return items
}

func resolvedItems(songs []models.ResolvedSong) []list.Item {
	items := make([]list.Item, len(songs))
	for i, s := range songs {
		items[i] = resolvedItem{song: s}
	}
	return items
}
