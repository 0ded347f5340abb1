package enrich

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
)

const replyRules = `Reply with a JSON array only. Keep the "id" of every song exactly as given, return one
object per input song, and never merge or drop songs.`

var systemPrompts = map[Phase]string{
	PhaseCorrect: `You are a music expert. For every song:
1. Correct the song name (capitalization, spelling, stray spaces)
2. If no artist is given, use the most popular artist for that song
3. Remove text that is not part of a song title

Each object must contain "id", "name" and "artist".
` + replyRules,

	PhaseAnalyze: `You are a music expert. Add metadata to every song:
tempo ("slow", "medium" or "fast"), genre (specific but consistent), energy (0 to 1, 1 is highest)
and mood (short description).

Each object must contain "id", "name", "artist", "tempo", "genre", "energy" and "mood".
` + replyRules,

	PhaseOrder: `You are a playlist curator. Order the songs for listening flow: open with medium energy,
build up gradually, keep similar genres and moods together, avoid jarring tempo changes and end
with calmer songs.

Return every song object unchanged, only reordered.
` + replyRules,
}

// promptSong is the wire shape sent upstream; ID is the input index.
type promptSong struct {
	ID     int      `json:"id"`
	Name   string   `json:"name"`
	Artist string   `json:"artist"`
	Tempo  string   `json:"tempo,omitempty"`
	Genre  string   `json:"genre,omitempty"`
	Energy *float64 `json:"energy,omitempty"`
	Mood   string   `json:"mood,omitempty"`
}

func buildPrompt(phase Phase, songs []models.SongDescriptor, temperature float32) (Prompt, error) {
	system, ok := systemPrompts[phase]
	if !ok {
		return Prompt{}, fmt.Errorf("no prompt for phase %q", phase)
	}

	items := make([]promptSong, len(songs))
	for i, s := range songs {
		items[i] = promptSong{
			ID:     i,
			Name:   s.Name,
			Artist: s.Artist,
			Tempo:  string(s.Tempo),
			Genre:  s.Genre,
			Energy: s.Energy,
			Mood:   s.Mood,
		}
	}

	body, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return Prompt{}, err
	}

	return Prompt{
		System:      system,
		User:        fmt.Sprintf("Songs:\n%s", body),
		Temperature: temperature,
	}, nil
}
