package enrich

import (
	"cmp"
	"slices"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// minRenameSimilarity is the name similarity a leftover reply entry needs to be taken as a
// rewrite of an unclaimed input.
const minRenameSimilarity = 0.6

// Reconcile maps an upstream reply back onto the input so the result has exactly len(input)
// descriptors.
//
// Reply entries are claimed against inputs in reply order:
//  1. by echoed id (the input index), when valid and unclaimed
//  2. by case-insensitive name against an unclaimed input with that name
//  3. otherwise the entry is a leftover; once all entries have been seen, leftovers pair with
//     the unclaimed input whose name is most similar, best scores first
//
// A leftover that resembles no unclaimed input is dropped, so one song's metadata is never
// carried onto another. Inputs still unclaimed are appended verbatim. The result follows reply
// order, so the order phase can reorder songs without losing any.
func Reconcile(input []models.SongDescriptor, reply []parsedSong) []models.SongDescriptor {
	claimed := make([]bool, len(input))
	byName := make(map[string][]int, len(input))
	for i, s := range input {
		key := shared.NormalizeSongKey(s.Name)
		byName[key] = append(byName[key], i)
	}

	claimByName := func(name string) int {
		key := shared.NormalizeSongKey(name)
		for _, i := range byName[key] {
			if !claimed[i] {
				return i
			}
		}
		return -1
	}

	type slot struct {
		input int // -1 for a leftover awaiting pairing
		entry parsedSong
	}
	slots := make([]slot, 0, len(reply))

	for _, entry := range reply {
		idx, ok := entry.index()
		if !ok || idx < 0 || idx >= len(input) || claimed[idx] {
			idx = claimByName(entry.Name)
		}

		if idx >= 0 {
			claimed[idx] = true
		}
		slots = append(slots, slot{input: idx, entry: entry})
	}

	type candidate struct {
		slot, input int
		score       float64
	}
	var candidates []candidate
	for si, s := range slots {
		if s.input >= 0 {
			continue
		}
		name := shared.NormalizeSongKey(s.entry.Name)
		for i, in := range input {
			if claimed[i] {
				continue
			}
			if score := similarity(name, shared.NormalizeSongKey(in.Name)); score >= minRenameSimilarity {
				candidates = append(candidates, candidate{slot: si, input: i, score: score})
			}
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})
	for _, c := range candidates {
		if slots[c.slot].input >= 0 || claimed[c.input] {
			continue
		}
		slots[c.slot].input = c.input
		claimed[c.input] = true
	}

	out := make([]models.SongDescriptor, 0, len(input))
	for _, s := range slots {
		if s.input < 0 {
			continue
		}
		out = append(out, merge(input[s.input], s.entry))
	}

	for i, s := range input {
		if !claimed[i] {
			out = append(out, s)
		}
	}
	return out
}

// merge overlays the non-empty fields of a reply entry on the input descriptor.
func merge(in models.SongDescriptor, e parsedSong) models.SongDescriptor {
	out := in
	if e.Name != "" {
		out.Name = e.Name
	}
	if e.Artist != "" {
		out.Artist = e.Artist
	}
	if t := models.ParseTempo(e.Tempo); t != "" {
		out.Tempo = t
	}
	if e.Genre != "" {
		out.Genre = e.Genre
	}
	if e.Mood != "" {
		out.Mood = e.Mood
	}
	if e.Energy != nil {
		v := min(max(*e.Energy, 0), 1)
		out.Energy = &v
	}
	return out
}

// similarity is 1 minus the edit distance over the longer length, in runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
