package shared

import "testing"

func TestBrowserCommand(t *testing.T) {
	for goos, bin := range map[string]string{"darwin": "open", "linux": "xdg-open", "windows": "rundll32"} {
		t.Run(goos, func(t *testing.T) {
			cmd, err := browserCommand(goos, "http://127.0.0.1:3000")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[0] != bin {
				t.Errorf("expected %s, got %s", bin, cmd.Args[0])
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		original := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = original }()

		if err := OpenBrowser("http://127.0.0.1"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
