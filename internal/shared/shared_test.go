package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeSongKey(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic normalization", input: "Shape of You", want: "shape of you"},
		{name: "extra whitespace", input: "  Shape   of\tYou  ", want: "shape of you"},
		{name: "mixed case", input: "sHaPe Of yOu", want: "shape of you"},
		{name: "empty", input: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSongKey(tt.input); got != tt.want {
				t.Errorf("NormalizeSongKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("SetLogLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)

		SetLogLevel(logger, "warn")
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("expected warn level, got %v", logger.GetLevel())
		}

		SetLogLevel(logger, "nonsense")
		if logger.GetLevel() != log.WarnLevel {
			t.Errorf("unknown level should not change the logger, got %v", logger.GetLevel())
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "setlist.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("written to file")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "written to file") {
			t.Errorf("expected message in log file, got %q", string(data))
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == "" || a == b {
			t.Errorf("expected unique ids, got %q and %q", a, b)
		}
	})
}
