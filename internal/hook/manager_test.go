package hook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/reactcam/internal/gesture"
)

func writeManifest(t *testing.T, root, dir string, m any) {
	t.Helper()
	hookDir := filepath.Join(root, dir)
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		t.Fatalf("failed to create hook dir: %v", err)
	}

	var data []byte
	switch v := m.(type) {
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			t.Fatalf("failed to marshal manifest: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(hookDir, ManifestFile), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()

	writeManifest(t, root, "notify", Manifest{
		Name:        "notify",
		Version:     "1.0.0",
		Description: "Desktop notification",
		Executable:  "notify",
		Labels:      []string{"heart", "thumbs_up"},
	})
	writeManifest(t, root, "logger", Manifest{Executable: "log.sh"})

	// Not a hook: no manifest.
	os.MkdirAll(filepath.Join(root, "empty"), 0o755)
	// Not a hook: plain file.
	os.WriteFile(filepath.Join(root, "README"), []byte("hi"), 0o644)

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	hooks := m.List()
	if len(hooks) != 2 {
		t.Fatalf("expected 2 hooks, got %d", len(hooks))
	}

	// Sorted by name; the directory name is used when the manifest has none.
	if hooks[0].Manifest.Name != "logger" || hooks[1].Manifest.Name != "notify" {
		t.Errorf("hooks = %q, %q", hooks[0].Manifest.Name, hooks[1].Manifest.Name)
	}

	notify, err := m.Get("notify")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if notify.Path != filepath.Join(root, "notify") {
		t.Errorf("Path = %q", notify.Path)
	}
	if notify.Executable != filepath.Join(root, "notify", "notify") {
		t.Errorf("Executable = %q", notify.Executable)
	}
	if m.Dir() != root {
		t.Errorf("Dir() = %q, want %q", m.Dir(), root)
	}
}

func TestManager_Discover_InvalidManifests(t *testing.T) {
	root := t.TempDir()

	writeManifest(t, root, "good", Manifest{Name: "good", Executable: "run"})
	writeManifest(t, root, "broken", "{not json")
	writeManifest(t, root, "noexec", Manifest{Name: "noexec"})
	writeManifest(t, root, "typo", Manifest{Name: "typo", Executable: "run", Labels: []string{"thumbs-up"}})

	m := NewManager(root)
	err := m.Discover()
	if err == nil {
		t.Fatal("expected an error describing the bad manifests")
	}
	if !errors.Is(err, gesture.ErrUnknownLabel) {
		t.Errorf("error should wrap ErrUnknownLabel: %v", err)
	}

	// Valid hooks still load; a bad label filter is reported but kept.
	if _, err := m.Get("good"); err != nil {
		t.Errorf("Get(good) error = %v", err)
	}
	if _, err := m.Get("typo"); err != nil {
		t.Errorf("Get(typo) error = %v", err)
	}
	if _, err := m.Get("broken"); !errors.Is(err, ErrHookNotFound) {
		t.Errorf("Get(broken) error = %v, want ErrHookNotFound", err)
	}
	if _, err := m.Get("noexec"); !errors.Is(err, ErrHookNotFound) {
		t.Errorf("Get(noexec) error = %v, want ErrHookNotFound", err)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "does-not-exist")} {
		m := NewManager(dir)
		if err := m.Discover(); err != nil {
			t.Errorf("Discover(%q) error = %v", dir, err)
		}
		if len(m.List()) != 0 {
			t.Errorf("Discover(%q) found hooks", dir)
		}
	}
}

func TestManager_For(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "all", Manifest{Name: "all", Executable: "run"})
	writeManifest(t, root, "hearts", Manifest{Name: "hearts", Executable: "run", Labels: []string{"heart"}})

	m := NewManager(root)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	if got := m.For(gesture.Heart); len(got) != 2 {
		t.Errorf("For(Heart) = %d hooks, want 2", len(got))
	}
	got := m.For(gesture.Fist)
	if len(got) != 1 || got[0].Manifest.Name != "all" {
		t.Errorf("For(Fist) = %v, want only 'all'", got)
	}
}
