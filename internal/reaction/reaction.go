// Package reaction loads the reaction images shown for each gesture and
// picks the frame to display at a given instant.
package reaction

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/gesture"
)

const (
	// Width and Height are the size every reaction frame is scaled to.
	Width  = 640
	Height = 480

	// AnimationFPS is the rate animated assets cycle at.
	AnimationFPS = 10
)

// ErrNoAsset is returned when no file for an asset name exists or decodes.
var ErrNoAsset = errors.New("asset not found")

// AssetFiles maps each gesture to the file it is shown with.
var AssetFiles = map[gesture.Label]string{
	gesture.Heart:      "lovely.gif",
	gesture.TongueOut:  "tongue.gif",
	gesture.EyesClosed: "closed_eyes.gif",
	gesture.PeaceSign:  "peace.gif",
	gesture.ThumbsUp:   "thumbs_up.gif",
	gesture.OpenPalm:   "open_palm.gif",
	gesture.Fist:       "fist.gif",
}

// extensions are tried in order; the empty string means the name as given.
var extensions = []string{"", ".gif", ".jpg", ".png", ".jpeg"}

// Asset is a decoded reaction, already scaled to Width x Height.
type Asset struct {
	Name        string
	Path        string
	Frames      []image.Image
	Placeholder bool
}

// Animated reports whether the asset has more than one frame.
func (a *Asset) Animated() bool {
	return len(a.Frames) > 1
}

// FrameAt returns the frame to show at time now. Animations loop at
// AnimationFPS on the wall clock, so every viewer sees the same frame.
func (a *Asset) FrameAt(now time.Time) image.Image {
	if len(a.Frames) == 0 {
		return nil
	}
	if len(a.Frames) == 1 {
		return a.Frames[0]
	}
	tick := now.UnixNano() / int64(time.Second/AnimationFPS)
	return a.Frames[int(tick%int64(len(a.Frames)))]
}

// Presenter resolves labels to reaction frames. Assets are loaded once and
// cached; a missing or broken file is replaced by a placeholder card.
type Presenter struct {
	dir string
	log logrus.FieldLogger

	mu     sync.Mutex
	assets map[gesture.Label]*Asset
	idle   *Asset
}

// NewPresenter creates a Presenter reading assets from dir.
func NewPresenter(dir string, log logrus.FieldLogger) *Presenter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Presenter{
		dir:    dir,
		log:    log.WithField("component", "reaction"),
		assets: make(map[gesture.Label]*Asset),
		idle: &Asset{
			Name:        "default",
			Frames:      []image.Image{DefaultCard()},
			Placeholder: true,
		},
	}
}

// Preload loads every asset up front and returns how many were found on disk.
func (p *Presenter) Preload() int {
	found := 0
	for _, label := range gesture.Labels() {
		if label == gesture.Default {
			continue
		}
		if !p.Asset(label).Placeholder {
			found++
		}
	}
	return found
}

// Asset returns the cached asset for label, loading it on first use.
func (p *Presenter) Asset(label gesture.Label) *Asset {
	name, ok := AssetFiles[label]
	if !ok {
		return p.idle
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.assets[label]; ok {
		return a
	}

	a, err := LoadAsset(p.dir, name)
	if err != nil {
		p.log.WithError(err).WithField("asset", name).Warn("using placeholder")
		a = &Asset{
			Name:        name,
			Frames:      []image.Image{PlaceholderCard(name)},
			Placeholder: true,
		}
	} else {
		p.log.WithFields(logrus.Fields{
			"asset":  name,
			"path":   a.Path,
			"frames": len(a.Frames),
		}).Info("loaded reaction")
	}
	p.assets[label] = a
	return a
}

// Frame returns the image to show for label at time now.
func (p *Presenter) Frame(label gesture.Label, now time.Time) image.Image {
	return p.Asset(label).FrameAt(now)
}

// LoadAsset finds name in dir, trying the name as given and then each known
// extension in place of its own. GIFs decode to every composited frame;
// other formats, and GIFs that fail to decode as animations, are loaded as
// a single still.
func LoadAsset(dir, name string) (*Asset, error) {
	base := filepath.Join(dir, name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	for _, ext := range extensions {
		path := base
		if ext != "" {
			path = stem + ext
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}

		if strings.EqualFold(filepath.Ext(path), ".gif") {
			if frames, err := decodeGIF(path); err == nil && len(frames) > 0 {
				return &Asset{Name: name, Path: path, Frames: frames}, nil
			}
		}

		img, err := imaging.Open(path)
		if err != nil {
			continue
		}
		return &Asset{
			Name:   name,
			Path:   path,
			Frames: []image.Image{fit(img)},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s in %s", ErrNoAsset, name, dir)
}

func fit(img image.Image) image.Image {
	return imaging.Resize(img, Width, Height, imaging.Lanczos)
}

// decodeGIF renders each GIF frame onto a running canvas so partial frames
// and disposal methods produce the full picture a browser would show.
func decodeGIF(path string) ([]image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("decoding %s: no frames", path)
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		for _, frame := range g.Image {
			bounds = bounds.Union(frame.Bounds())
		}
	}

	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.Black, image.Point{}, draw.Src)

	frames := make([]image.Image, 0, len(g.Image))
	for i, frame := range g.Image {
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = image.NewRGBA(bounds)
			draw.Draw(previous, bounds, canvas, bounds.Min, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)
		frames = append(frames, fit(canvas))

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Black, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = previous
		}
	}
	return frames, nil
}

// card fills a Width x Height image with a gray level and writes text on it.
func card(level uint8, text string, at image.Point, scale int) image.Image {
	bg := imaging.New(Width, Height, color.NRGBA{R: level, G: level, B: level, A: 255})
	return DrawText(bg, text, at, color.White, scale)
}

// PlaceholderCard is shown for a gesture whose asset is missing.
func PlaceholderCard(name string) image.Image {
	return card(50, "Add: "+name, image.Pt(150, 240), 2)
}

// DefaultCard is shown while no gesture is active.
func DefaultCard() image.Image {
	return card(30, "Make a gesture!", image.Pt(180, 240), 2)
}
