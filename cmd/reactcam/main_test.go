package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayusman/reactcam/internal/config"
)

func TestParseConfig(t *testing.T) {
	chdir(t, t.TempDir())

	t.Run("defaults", func(t *testing.T) {
		cfg, save, err := parseConfig(nil)
		if err != nil {
			t.Fatalf("parseConfig() error = %v", err)
		}
		if save != "" {
			t.Errorf("save = %q, want empty", save)
		}
		if cfg.FPS != config.DefaultFPS || !cfg.Mirror || cfg.Headless {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("flags override", func(t *testing.T) {
		cfg, _, err := parseConfig([]string{"-fps", "15", "-no-mirror", "-landmarks", "-db", "", "-addr", ":9000"})
		if err != nil {
			t.Fatalf("parseConfig() error = %v", err)
		}
		if cfg.FPS != 15 || cfg.Mirror || !cfg.ShowLandmarks || cfg.DBPath != "" || cfg.Addr != ":9000" {
			t.Errorf("flags not applied: %+v", cfg)
		}
	})

	t.Run("tray implies headless", func(t *testing.T) {
		cfg, _, err := parseConfig([]string{"-tray"})
		if err != nil {
			t.Fatalf("parseConfig() error = %v", err)
		}
		if !cfg.Headless {
			t.Error("tray should force headless")
		}
	})

	t.Run("unset flags keep config file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.json")
		if err := os.WriteFile(path, []byte(`{"fps": 12, "camera_id": 2}`), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, _, err := parseConfig([]string{"-config", path, "-camera", "1"})
		if err != nil {
			t.Fatalf("parseConfig() error = %v", err)
		}
		if cfg.FPS != 12 || cfg.CameraID != 1 {
			t.Errorf("FPS = %d, CameraID = %d; want 12, 1", cfg.FPS, cfg.CameraID)
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, _, err := parseConfig([]string{"-fps", "0"})
		if !errors.Is(err, config.ErrInvalid) {
			t.Errorf("parseConfig() error = %v, want ErrInvalid", err)
		}
	})
}

func TestBanner(t *testing.T) {
	cfg := config.NewDefaultConfig()
	out := banner(cfg)

	for _, want := range []string{"Tongue Out", "Heart", "'q' quit", "http://127.0.0.1:8080/"} {
		if !strings.Contains(out, want) {
			t.Errorf("banner missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Default") {
		t.Errorf("banner should not list Default:\n%s", out)
	}

	cfg.Headless = true
	cfg.Addr = ""
	out = banner(cfg)
	if !strings.Contains(out, "Ctrl+C") || strings.Contains(out, "Live view") {
		t.Errorf("headless banner:\n%s", out)
	}
}

func TestViewerURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080/",
		":9000":          "http://localhost:9000/",
		"0.0.0.0:80":     "http://localhost:80/",
		"[::]:8080":      "http://localhost:8080/",
	}
	for addr, want := range tests {
		if got := viewerURL(addr); got != want {
			t.Errorf("viewerURL(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestFindDir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}
	chdir(t, root)

	if got := findDir("assets"); got != filepath.Join(root, "assets") {
		t.Errorf("findDir(assets) = %q", got)
	}
	if got := findDir(filepath.Join(root, "assets")); got == "" {
		t.Error("absolute path should resolve")
	}
	if got := findDir("missing-dir-xyz"); got != "" {
		t.Errorf("findDir(missing) = %q, want empty", got)
	}
	if got := findDir(""); got != "" {
		t.Errorf("findDir(\"\") = %q, want empty", got)
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
	})
}
