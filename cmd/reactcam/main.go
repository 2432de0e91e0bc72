package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/app"
	"github.com/ayusman/reactcam/internal/capture"
	"github.com/ayusman/reactcam/internal/config"
	"github.com/ayusman/reactcam/internal/display"
	"github.com/ayusman/reactcam/internal/gesture"
	"github.com/ayusman/reactcam/internal/hook"
	"github.com/ayusman/reactcam/internal/live"
	"github.com/ayusman/reactcam/internal/metrics"
	"github.com/ayusman/reactcam/internal/reaction"
	"github.com/ayusman/reactcam/internal/server"
	"github.com/ayusman/reactcam/internal/store"
	"github.com/ayusman/reactcam/internal/tray"
)

// OpenCV windows and the system tray both need the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "reactcam: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, saveTo, err := parseConfig(args)
	if err != nil {
		return err
	}
	if saveTo != "" {
		if err := cfg.Save(saveTo); err != nil {
			return err
		}
		fmt.Printf("Wrote config to %s\n", saveTo)
		return nil
	}

	log := newLogger(cfg.LogLevel)
	fmt.Print(banner(cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st *store.Store
	if cfg.DBPath != "" {
		st, err = store.New(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
		log.WithField("path", st.Path()).Info("reaction history enabled")
	}

	presenter := reaction.NewPresenter(findDir(cfg.AssetsDir), log)
	if n := presenter.Preload(); n == 0 {
		log.WithField("dir", cfg.AssetsDir).Warn("no reaction assets found, showing placeholders")
	}

	hub := live.NewHub()
	m := metrics.New("")

	a, err := app.New(app.Config{
		Camera:        capture.NewCamera(cfg.CameraID, log),
		Detector:      app.NewDetector(cfg.Detector, log),
		Presenter:     presenter,
		Classifier:    gesture.NewClassifier(log),
		Store:         st,
		Hub:           hub,
		Metrics:       m,
		FPS:           cfg.FPS,
		Mirror:        cfg.Mirror,
		ShowLandmarks: cfg.ShowLandmarks,
		Log:           log,
	})
	if err != nil {
		return err
	}

	if cfg.Addr != "" {
		staticDir := findDir(cfg.StaticDir)
		if staticDir != "" {
			log.WithField("dir", staticDir).Info("serving static files")
		}
		srv := server.New(server.Config{
			StaticDir: staticDir,
			Store:     st,
			Hub:       hub,
			Metrics:   m,
			Log:       log,
		})
		go func() {
			if err := srv.Run(ctx, cfg.Addr); err != nil {
				log.WithError(err).Error("http server failed")
			}
		}()
	}

	if hooksDir := findDir(cfg.HooksDir); hooksDir != "" {
		mgr := hook.NewManager(hooksDir)
		if err := mgr.Discover(); err != nil {
			log.WithError(err).Warn("some hooks could not be loaded")
		}
		if n := len(mgr.List()); n > 0 {
			log.WithFields(logrus.Fields{"dir": hooksDir, "count": n}).Info("reaction hooks enabled")
			d := hook.NewDispatcher(mgr, hook.NewExecutor(hook.DefaultTimeout), log)
			go d.Run(ctx, hub)
		}
	}

	switch {
	case cfg.Tray:
		err = runTray(ctx, a, cfg, log)
	case cfg.Headless:
		err = runHeadless(ctx, a)
	default:
		err = runWindows(ctx, a)
	}

	a.Stop()
	return err
}

// parseConfig loads the config file and environment, then applies the flags
// that were set explicitly on the command line.
func parseConfig(args []string) (*config.Config, string, error) {
	fs := flag.NewFlagSet("reactcam", flag.ContinueOnError)

	configPath := fs.String("config", config.DefaultConfigPath, "path to JSON config file")
	saveConfig := fs.String("save-config", "", "write the effective config to this path and exit")
	cameraID := fs.Int("camera", 0, "camera device ID")
	fps := fs.Int("fps", config.DefaultFPS, "frames per second")
	assets := fs.String("assets", config.DefaultAssetsDir, "reaction asset directory")
	addr := fs.String("addr", config.DefaultAddr, "live view listen address, empty to disable")
	dbPath := fs.String("db", "", "SQLite history file, empty to disable")
	hooksDir := fs.String("hooks", "", "reaction hooks directory, empty to disable")
	headless := fs.Bool("headless", false, "run without OpenCV windows")
	withTray := fs.Bool("tray", false, "show a system tray menu (implies -headless)")
	landmarks := fs.Bool("landmarks", false, "draw face and hand landmarks")
	noMirror := fs.Bool("no-mirror", false, "do not mirror the camera image")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, "", err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "camera":
			cfg.CameraID = *cameraID
		case "fps":
			cfg.FPS = *fps
		case "assets":
			cfg.AssetsDir = *assets
		case "addr":
			cfg.Addr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "hooks":
			cfg.HooksDir = *hooksDir
		case "headless":
			cfg.Headless = *headless
		case "tray":
			cfg.Tray = *withTray
		case "landmarks":
			cfg.ShowLandmarks = *landmarks
		case "no-mirror":
			cfg.Mirror = !*noMirror
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if cfg.Tray {
		cfg.Headless = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, *saveConfig, nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// banner lists the controls and the gestures reactcam understands.
func banner(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("reactcam - gesture reactions\n")
	b.WriteString("Gestures:\n")
	for _, l := range gesture.Labels() {
		if l == gesture.Default {
			continue
		}
		fmt.Fprintf(&b, "  - %s\n", l.Title())
	}
	if cfg.Headless {
		b.WriteString("Running headless, press Ctrl+C to quit\n")
	} else {
		b.WriteString("Controls: 'q' quit, 'l' toggle landmarks\n")
	}
	if cfg.Addr != "" {
		fmt.Fprintf(&b, "Live view: %s\n", viewerURL(cfg.Addr))
	}
	return b.String()
}

func runHeadless(ctx context.Context, a *app.App) error {
	if err := a.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func runWindows(ctx context.Context, a *app.App) error {
	w := display.NewWindows()
	defer w.Close()
	return a.RunWindows(w, ctx.Done())
}

func runTray(ctx context.Context, a *app.App, cfg *config.Config, log logrus.FieldLogger) error {
	if err := a.Start(); err != nil {
		return err
	}

	t := tray.New(a.ShowLandmarks())
	t.OnToggle(a.SetShowLandmarks)
	t.OnViewer(func() {
		if cfg.Addr == "" {
			log.Warn("live view is disabled")
			return
		}
		if err := openBrowser(viewerURL(cfg.Addr)); err != nil {
			log.WithError(err).Warn("failed to open browser")
		}
	})

	done := make(chan struct{})
	defer close(done)
	go t.Watch(a.Hub(), done)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()

	t.Run()
	return nil
}

// findDir resolves a data directory relative to the working directory, its
// parents, or ~/.reactcam. It returns "" when none exists.
func findDir(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			return name
		}
		return ""
	}

	for _, p := range []string{name, filepath.Join("..", name), filepath.Join("..", "..", name)} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homePath := filepath.Join(homeDir, ".reactcam", name)
	if info, err := os.Stat(homePath); err == nil && info.IsDir() {
		return homePath
	}
	return ""
}
