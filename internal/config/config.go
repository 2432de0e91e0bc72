// Package config loads reactcam settings from a JSON file, a .env file and
// REACTCAM_* environment variables, in that order of precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/detector"
)

const (
	DefaultConfigPath = "reactcam.json"
	DefaultAddr       = "127.0.0.1:8080"
	DefaultAssetsDir  = "assets"
	DefaultFPS        = 30

	// EnvPrefix is prepended to every environment override.
	EnvPrefix = "REACTCAM_"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all runtime settings.
type Config struct {
	CameraID  int    `json:"camera_id"`
	FPS       int    `json:"fps"`
	AssetsDir string `json:"assets_dir"`

	// Addr is the live view listen address; empty disables the server.
	Addr string `json:"addr"`
	// DBPath is the SQLite history file; empty disables history.
	DBPath string `json:"db_path"`
	// StaticDir holds the live view's web assets.
	StaticDir string `json:"static_dir"`
	// HooksDir holds executables run on reaction changes; empty disables hooks.
	HooksDir string `json:"hooks_dir"`

	Headless      bool   `json:"headless"`
	Tray          bool   `json:"tray"`
	ShowLandmarks bool   `json:"show_landmarks"`
	Mirror        bool   `json:"mirror"`
	LogLevel      string `json:"log_level"`

	Detector detector.Config `json:"detector"`
}

// NewDefaultConfig returns the settings used when nothing else is given.
func NewDefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		CameraID:      0,
		FPS:           DefaultFPS,
		AssetsDir:     DefaultAssetsDir,
		Addr:          DefaultAddr,
		DBPath:        filepath.Join(home, ".reactcam", "reactcam.db"),
		StaticDir:     "web",
		HooksDir:      "hooks",
		ShowLandmarks: false,
		Mirror:        true,
		LogLevel:      "info",
		Detector:      detector.DefaultConfig(),
	}
}

// LoadConfigFile reads path over the defaults. A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config file, then a .env file in the working directory
// if present, then applies REACTCAM_* environment overrides.
func Load(path string) (*Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}

	integer("CAMERA_ID", &c.CameraID)
	integer("FPS", &c.FPS)
	str("ASSETS_DIR", &c.AssetsDir)
	str("ADDR", &c.Addr)
	str("DB_PATH", &c.DBPath)
	str("STATIC_DIR", &c.StaticDir)
	str("HOOKS_DIR", &c.HooksDir)
	boolean("HEADLESS", &c.Headless)
	boolean("TRAY", &c.Tray)
	boolean("SHOW_LANDMARKS", &c.ShowLandmarks)
	boolean("MIRROR", &c.Mirror)
	str("LOG_LEVEL", &c.LogLevel)
	integer("MAX_HANDS", &c.Detector.MaxHands)
	boolean("REFINE_LANDMARKS", &c.Detector.RefineLandmarks)
	float("FACE_CONFIDENCE", &c.Detector.MinFaceConfidence)
	float("FACE_TRACKING_CONFIDENCE", &c.Detector.MinFaceTrackingConf)
	float("HAND_CONFIDENCE", &c.Detector.MinHandConfidence)
	float("HAND_TRACKING_CONFIDENCE", &c.Detector.MinHandTrackingConf)

	return errors.Join(errs...)
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("%w: camera_id %d is negative", ErrInvalid, c.CameraID)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalid, c.FPS)
	}
	if c.Detector.MaxFaces < 0 || c.Detector.MaxFaces > 1 {
		return fmt.Errorf("%w: max_faces must be 0 or 1, got %d", ErrInvalid, c.Detector.MaxFaces)
	}
	if c.Detector.MaxHands < 0 || c.Detector.MaxHands > detector.MaxHands {
		return fmt.Errorf("%w: max_hands must be between 0 and %d, got %d", ErrInvalid, detector.MaxHands, c.Detector.MaxHands)
	}

	confidences := map[string]float64{
		"min_face_confidence":          c.Detector.MinFaceConfidence,
		"min_face_tracking_confidence": c.Detector.MinFaceTrackingConf,
		"min_hand_confidence":          c.Detector.MinHandConfidence,
		"min_hand_tracking_confidence": c.Detector.MinHandTrackingConf,
	}
	for name, v := range confidences {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be within [0, 1], got %v", ErrInvalid, name, v)
		}
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Tray && !c.Headless {
		return fmt.Errorf("%w: tray mode requires headless", ErrInvalid)
	}
	return nil
}

// Save writes the config as indented JSON, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
