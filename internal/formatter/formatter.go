// package formatter renders playlist reports to various formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists every supported format name.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// Render converts a PlaylistReport to the named format.
//
// "md" is accepted for markdown and "text" for txt.
func Render(report *models.PlaylistReport, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ReportToJSON(report)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatMarkdown, "md":
		return ReportToMarkdown(report)
	case FormatText, "text":
		return ReportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Write renders the report and writes it to w.
func Write(w io.Writer, report *models.PlaylistReport, format string) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile renders the report to path.
//
// Defaults to {playlistId}_report.{ext} as the filename.
func WriteFile(report *models.PlaylistReport, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.%s", report.PlaylistID, extension(format))
	}

	data, err := Render(report, format)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

func extension(format string) string {
	switch strings.ToLower(format) {
	case FormatCSV:
		return "csv"
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	default:
		return "json"
	}
}

// ReportToJSON returns the report as indented JSON, the same shape the HTTP API returns.
func ReportToJSON(report *models.PlaylistReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// ReportToCSV converts a PlaylistReport to CSV format with columns: Position, Name, Artist, Tempo, Genre, Energy, Mood, Found, PlatformID
func ReportToCSV(report *models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Name", "Artist", "Tempo", "Genre", "Energy", "Mood", "Found", "PlatformID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range report.Songs {
		record := []string{
			strconv.Itoa(i + 1),
			song.Name,
			song.Artist,
			string(song.Tempo),
			song.Genre,
			energy(song.Energy),
			song.Mood,
			strconv.FormatBool(song.Found),
			song.PlatformID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a PlaylistReport to Markdown with a link to the playlist and a not-found section
func ReportToMarkdown(report *models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s Playlist\n\n", report.Platform)
	if report.PlaylistURL != "" {
		fmt.Fprintf(&buf, "**Link**: [%s](%s)\n", report.PlaylistID, report.PlaylistURL)
	}
	fmt.Fprintf(&buf, "**Added**: %d of %d\n\n", report.FoundCount(), len(report.Songs))

	buf.WriteString("## Songs\n\n")
	for i, song := range report.Songs {
		mark := "x"
		if !song.Found {
			mark = " "
		}
		fmt.Fprintf(&buf, "%d. [%s] %s%s\n", i+1, mark, label(song.SongDescriptor), details(song.SongDescriptor))
	}

	if len(report.NotFoundSongs) > 0 {
		buf.WriteString("\n## Not Found\n\n")
		for _, name := range report.NotFoundSongs {
			fmt.Fprintf(&buf, "- %s\n", name)
		}
	}

	return buf.Bytes(), nil
}

// ReportToText converts a PlaylistReport to plain text format
func ReportToText(report *models.PlaylistReport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Platform: %s\n", report.Platform)
	if report.PlaylistURL != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", report.PlaylistURL)
	}
	fmt.Fprintf(&buf, "Added: %d/%d\n\n", report.FoundCount(), len(report.Songs))

	for i, song := range report.Songs {
		status := "ok"
		if !song.Found {
			status = "not found"
		}
		fmt.Fprintf(&buf, "%d. %s [%s]\n", i+1, song.Query(), status)
	}

	return buf.Bytes(), nil
}

// SongsToText renders a song list one per line as "{name} - {artist}".
func SongsToText(songs []models.SongDescriptor) []byte {
	var buf bytes.Buffer
	for _, s := range songs {
		buf.WriteString(label(s) + details(s) + "\n")
	}
	return buf.Bytes()
}

func label(s models.SongDescriptor) string {
	if s.Artist == "" {
		return s.Name
	}
	return s.Name + " - " + s.Artist
}

// details formats the optional metadata as " (tempo, genre, energy, mood)".
func details(s models.SongDescriptor) string {
	var parts []string
	for _, p := range []string{string(s.Tempo), s.Genre, energy(s.Energy), s.Mood} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

func energy(e *float64) string {
	if e == nil {
		return ""
	}
	return strconv.FormatFloat(*e, 'f', 2, 64)
}
