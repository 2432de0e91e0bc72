// Package main is a reactcam hook that shows a desktop notification for each
// new reaction. Build it next to its hook.json:
//
//	go build -o hooks/notify/notify ./hooks/notify
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// Event is the input written to stdin by reactcam.
type Event struct {
	Event    string          `json:"event"`
	Label    string          `json:"label"`
	Title    string          `json:"title"`
	Previous string          `json:"previous"`
	Config   json.RawMessage `json:"config"`
}

// Response is written to stdout for reactcam.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type config struct {
	Title string `json:"title"`
}

func main() {
	var ev Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		writeResponse(fmt.Errorf("failed to decode event: %w", err))
		return
	}

	// Reverting to the idle screen is not worth a notification.
	if ev.Label == "default" {
		writeResponse(nil)
		return
	}

	cfg := config{Title: "reactcam"}
	if len(ev.Config) > 0 {
		if err := json.Unmarshal(ev.Config, &cfg); err != nil {
			writeResponse(fmt.Errorf("invalid config: %w", err))
			return
		}
	}

	writeResponse(notify(cfg.Title, ev.Title))
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

// notify shows a notification with the platform's own tool.
func notify(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
		cmd = exec.Command("osascript", "-e", script)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("notify-send", title, body)
	default:
		return fmt.Errorf("notifications are not supported on %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}
