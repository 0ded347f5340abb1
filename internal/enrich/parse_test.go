package enrich

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSongs(t *testing.T) {
	t.Run("fenced code block", func(t *testing.T) {
		text := "Here you go:\n```json\n[{\"id\": 0, \"name\": \"Shape of You\", \"artist\": \"Ed Sheeran\"}]\n```\nEnjoy!"
		songs, err := ParseSongs(text)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "Shape of You", songs[0].Name)
		assert.Equal(t, "Ed Sheeran", songs[0].Artist)

		idx, ok := songs[0].index()
		assert.True(t, ok)
		assert.Equal(t, 0, idx)
	})

	t.Run("fenced block wins over earlier bracket text", func(t *testing.T) {
		text := "[note] see below\n```\n[{\"name\": \"Perfect\"}]\n```"
		songs, err := ParseSongs(text)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "Perfect", songs[0].Name)
	})

	t.Run("invalid fenced block is an error", func(t *testing.T) {
		_, err := ParseSongs("```json\n[{\"name\": }]\n```")
		assert.True(t, errors.Is(err, ErrUnparseable))
	})

	t.Run("first bracketed array", func(t *testing.T) {
		text := `Sure! [{"name": "Hello", "artist": "Adele", "tempo": "slow", "energy": 0.3}] Let me know.`
		songs, err := ParseSongs(text)
		require.NoError(t, err)
		require.Len(t, songs, 1)
		assert.Equal(t, "slow", songs[0].Tempo)
		require.NotNil(t, songs[0].Energy)
		assert.InDelta(t, 0.3, *songs[0].Energy, 1e-9)
	})

	t.Run("skips brackets that are not arrays of songs", func(t *testing.T) {
		text := `Songs [1] and [2]: ["Yesterday", "Let It Be"]`
		songs, err := ParseSongs(text)
		require.NoError(t, err)
		require.Len(t, songs, 2)
		assert.Equal(t, "Yesterday", songs[0].Name)
		assert.Equal(t, "Let It Be", songs[1].Name)
	})

	t.Run("string ids", func(t *testing.T) {
		songs, err := ParseSongs(`[{"id": "2", "name": "Halo"}]`)
		require.NoError(t, err)
		idx, ok := songs[0].index()
		assert.True(t, ok)
		assert.Equal(t, 2, idx)
	})

	t.Run("line fallback splits on first hyphen", func(t *testing.T) {
		text := "1. Shape of You - Ed Sheeran\n\n- Anti-Hero - Taylor Swift\nBlinding Lights\nLose-Yourself"
		songs, err := ParseSongs(text)
		require.NoError(t, err)
		require.Len(t, songs, 4)

		assert.Equal(t, "Shape of You", songs[0].Name)
		assert.Equal(t, "Ed Sheeran", songs[0].Artist)
		assert.Equal(t, "Anti-Hero", songs[1].Name)
		assert.Equal(t, "Taylor Swift", songs[1].Artist)
		assert.Equal(t, "Blinding Lights", songs[2].Name)
		assert.Empty(t, songs[2].Artist)
		assert.Equal(t, "Lose", songs[3].Name)
		assert.Equal(t, "Yourself", songs[3].Artist)
	})

	t.Run("empty reply", func(t *testing.T) {
		_, err := ParseSongs("  \n ")
		assert.ErrorIs(t, err, ErrUnparseable)

		_, err = ParseSongs("[]")
		assert.ErrorIs(t, err, ErrUnparseable)
	})

	t.Run("unclosed array", func(t *testing.T) {
		_, err := ParseSongs(`[{"name": "Hello"`)
		assert.ErrorIs(t, err, ErrUnparseable)
	})
}
