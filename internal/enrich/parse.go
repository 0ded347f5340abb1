package enrich

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable is returned when no song list can be extracted from a reply.
var ErrUnparseable = errors.New("no song list found in reply")

var (
	fencedArray = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(\\[.*?\\])\\s*```")
	listMarker  = regexp.MustCompile(`^(?:[-*•]\s+|\d+[.)]\s+)`)
)

// parsedSong is one entry of an upstream reply. ID is the input index, when echoed back.
type parsedSong struct {
	ID     json.Number `json:"id"`
	Name   string      `json:"name"`
	Artist string      `json:"artist"`
	Tempo  string      `json:"tempo"`
	Genre  string      `json:"genre"`
	Energy *float64    `json:"energy"`
	Mood   string      `json:"mood"`
}

// index returns the echoed input index, accepting both 3 and "3".
func (p parsedSong) index() (int, bool) {
	if p.ID == "" {
		return 0, false
	}
	n, err := p.ID.Int64()
	if err != nil {
		return 0, false
	}
	return int(n), true
}

// UnmarshalJSON accepts bare strings as well as objects.
func (p *parsedSong) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*p = parsedSong{Name: name}
		return nil
	}

	type plain parsedSong
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = parsedSong(v)
	return nil
}

// ParseSongs extracts a song list from free text.
//
// Attempts, in order:
//  1. a fenced code block holding a JSON array
//  2. the first bracket-delimited JSON array anywhere in the text
//  3. one "name - artist" entry per non-empty line, split on the first hyphen
//
// The third form is only used when the text contains no array at all. Entries without a name
// are dropped; an empty result is an error.
func ParseSongs(text string) ([]parsedSong, error) {
	var (
		songs []parsedSong
		err   error
	)

	switch {
	case fencedArray.MatchString(text):
		m := fencedArray.FindStringSubmatch(text)
		if err = json.Unmarshal([]byte(m[1]), &songs); err != nil {
			return nil, fmt.Errorf("%w: fenced block: %v", ErrUnparseable, err)
		}
	case strings.Contains(text, "["):
		if songs, err = firstArray(text); err != nil {
			return nil, err
		}
	default:
		songs = parseLines(text)
	}

	out := songs[:0]
	for _, s := range songs {
		s.Name = strings.TrimSpace(s.Name)
		s.Artist = strings.TrimSpace(s.Artist)
		if s.Name != "" {
			out = append(out, s)
		}
	}

	if len(out) == 0 {
		return nil, ErrUnparseable
	}
	return out, nil
}

// firstArray decodes the first '[' position that starts a valid JSON array of songs.
func firstArray(text string) ([]parsedSong, error) {
	var lastErr error = ErrUnparseable
	for i := strings.IndexByte(text, '['); i >= 0; {
		var songs []parsedSong
		err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&songs)
		if err == nil {
			return songs, nil
		}
		lastErr = err

		next := strings.IndexByte(text[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, fmt.Errorf("%w: %v", ErrUnparseable, lastErr)
}

func parseLines(text string) []parsedSong {
	var songs []parsedSong
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		name, artist := splitNameArtist(line)
		songs = append(songs, parsedSong{Name: name, Artist: artist})
	}
	return songs
}

// splitNameArtist splits on the first " - ", then on the first bare hyphen.
func splitNameArtist(line string) (string, string) {
	name, artist, ok := strings.Cut(line, " - ")
	if !ok {
		name, artist, ok = strings.Cut(line, "-")
	}
	if !ok {
		return line, ""
	}

	name, artist = strings.TrimSpace(name), strings.TrimSpace(artist)
	if name == "" {
		return line, ""
	}
	return name, artist
}
