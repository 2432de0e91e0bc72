package hook

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeScript creates an executable shell hook in a temp dir.
func writeScript(t *testing.T, name, body string) *Hook {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Hook{
		Manifest:   Manifest{Name: name, Version: "1.0.0", Executable: name},
		Path:       dir,
		Executable: path,
	}
}

func testEvent() *Event {
	return &Event{
		Event:     EventReactionChanged,
		Label:     "thumbs_up",
		Title:     "Thumbs Up",
		Previous:  "default",
		Timestamp: 1700000000000,
	}
}

func TestExecutor_Execute(t *testing.T) {
	h := writeScript(t, "ok.sh", "cat >/dev/null\necho '{\"success\":true,\"data\":{\"message\":\"hello world\"}}'\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success || resp.Error != "" {
		t.Errorf("response = %+v, want success", resp)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	h := writeScript(t, "echo.sh", "INPUT=$(cat)\necho \"{\\\"success\\\":true,\\\"data\\\":{\\\"received\\\":$INPUT}}\"\n")
	h.Manifest.Config = json.RawMessage(`{"volume":3}`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received struct {
			Event    string         `json:"event"`
			Label    string         `json:"label"`
			Previous string         `json:"previous"`
			Config   map[string]int `json:"config"`
		} `json:"received"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Event != EventReactionChanged || got.Label != "thumbs_up" || got.Previous != "default" {
		t.Errorf("received = %+v", got)
	}
	if got.Config["volume"] != 3 {
		t.Errorf("manifest config not forwarded: %+v", got.Config)
	}
}

func TestExecutor_EmptyOutputIsSuccess(t *testing.T) {
	h := writeScript(t, "quiet.sh", "cat >/dev/null\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Error("expected success for a silent hook")
	}
}

func TestExecutor_Timeout(t *testing.T) {
	h := writeScript(t, "slow.sh", "sleep 10\necho '{\"success\":true}'\n")

	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), h, testEvent())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Execute() error = %v, want ErrTimeout", err)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	h := writeScript(t, "fail.sh", "echo '{\"success\":false,\"error\":\"something went wrong\"}'\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success {
		t.Errorf("expected success=false, got true")
	}
	if resp.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", resp.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	h := writeScript(t, "bad.sh", "echo 'not valid json'\n")

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent()); err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	h := writeScript(t, "exit.sh", "echo 'Error: something failed' >&2\nexit 1\n")

	if _, err := NewExecutor(5*time.Second).Execute(context.Background(), h, testEvent()); err == nil {
		t.Fatal("expected error for non-zero exit, got nil")
	}
}

func TestNewExecutor(t *testing.T) {
	if e := NewExecutor(3 * time.Second); e.timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", e.timeout)
	}
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", e.timeout)
	}
}
