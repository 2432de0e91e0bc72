package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// ServiceScript is the file name of the Python helper that runs MediaPipe.
const ServiceScript = "landmark_service.py"

// IdleShutdown is how long the helper process may sit unused before it is stopped.
const IdleShutdown = 30 * time.Second

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Each frame is written to the helper's stdin as a 4-byte big-endian length
// followed by a JPEG. The helper answers with one JSON line:
//
//	{"face": {"points": [...]}, "hands": [{"points": [...], "handedness": "Left", "score": 0.98}]}
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	python     string
	log        logrus.FieldLogger
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	lastUsed   time.Time
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log logrus.FieldLogger) (*MediaPipeDetector, error) {
	scriptPath := findServiceScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", ServiceScript)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		log:        log.WithField("component", "mediapipe"),
	}, nil
}

// Detect analyzes a frame and returns detected face and hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (DetectionFrame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return DetectionFrame{}, fmt.Errorf("detect: empty frame")
	}

	if err := d.ensureStarted(); err != nil {
		return DetectionFrame{}, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return DetectionFrame{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	// Any pipe error leaves the stream mid-frame, so the helper is stopped
	// and respawned on the next call.
	if _, err := d.stdin.Write(length); err != nil {
		return DetectionFrame{}, d.fail(fmt.Errorf("write length: %w", err))
	}
	if _, err := d.stdin.Write(data); err != nil {
		return DetectionFrame{}, d.fail(fmt.Errorf("write data: %w", err))
	}

	line, err := d.stdout.ReadString('\n')
	if err != nil {
		return DetectionFrame{}, d.fail(fmt.Errorf("read response: %w", err))
	}

	result, err := decodeResponse([]byte(line))
	if err != nil {
		return DetectionFrame{}, err
	}

	d.lastUsed = time.Now()
	d.resetIdleTimer()

	return result, nil
}

// fail stops the helper after an I/O error and returns err.
func (d *MediaPipeDetector) fail(err error) error {
	d.log.WithError(err).Warn("MediaPipe helper failed, restarting on next frame")
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	if serr := d.shutdown(); serr != nil {
		d.log.WithError(serr).Debug("MediaPipe helper exit")
	}
	return err
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

// args builds the helper's command line from the detector config.
func (d *MediaPipeDetector) args() []string {
	formatConf := func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []string{
		d.scriptPath,
		"--max-faces", strconv.Itoa(d.config.MaxFaces),
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--refine-landmarks=" + strconv.FormatBool(d.config.RefineLandmarks),
		"--face-detection-confidence", formatConf(d.config.MinFaceConfidence),
		"--face-tracking-confidence", formatConf(d.config.MinFaceTrackingConf),
		"--hand-detection-confidence", formatConf(d.config.MinHandConfidence),
		"--hand-tracking-confidence", formatConf(d.config.MinHandTrackingConf),
	}
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	// Use virtual environment Python if available
	pythonPath := d.python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	d.cmd = exec.Command(pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start landmark service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.lastUsed = time.Now()

	d.log.WithFields(logrus.Fields{
		"python": pythonPath,
		"script": d.scriptPath,
	}).Info("landmark service started")

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Info("landmark service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(IdleShutdown, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.WithError(err).Warn("idle shutdown")
		}
	})
}

func findServiceScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", ServiceScript),
		filepath.Join("..", "scripts", ServiceScript),
		filepath.Join(execDir, "scripts", ServiceScript),
		filepath.Join(os.Getenv("HOME"), ".reactcam", "scripts", ServiceScript),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".reactcam/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonFrame represents the JSON structure from the Python service.
type jsonFrame struct {
	Face  *jsonFace  `json:"face"`
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error"`
}

type jsonFace struct {
	Points []jsonPoint `json:"points"`
}

type jsonHand struct {
	Points     []jsonPoint `json:"points"`
	Handedness string      `json:"handedness"`
	Score      float64     `json:"score"`
}

type jsonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// decodeResponse parses one response line. Point counts are carried through
// unchanged so that classification can reject short sets.
func decodeResponse(line []byte) (DetectionFrame, error) {
	var response jsonFrame
	if err := json.Unmarshal(line, &response); err != nil {
		return DetectionFrame{}, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return DetectionFrame{}, fmt.Errorf("landmark service: %s", response.Error)
	}

	var frame DetectionFrame
	if response.Face != nil {
		frame.Face = &FaceLandmarks{Points: toPoints(response.Face.Points)}
	}
	if len(response.Hands) > 0 {
		frame.Hands = make([]HandLandmarks, len(response.Hands))
		for i, h := range response.Hands {
			frame.Hands[i] = HandLandmarks{
				Points:     toPoints(h.Points),
				Handedness: h.Handedness,
				Score:      h.Score,
			}
		}
	}
	return frame, nil
}

func toPoints(in []jsonPoint) []Point3D {
	out := make([]Point3D, len(in))
	for i, p := range in {
		out[i] = Point3D{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}
