package reaction

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/ayusman/reactcam/internal/gesture"
)

func writeGIF(t *testing.T, path string, colors ...color.Color) {
	t.Helper()
	g := &gif.GIF{}
	for _, c := range colors {
		frame := image.NewPaletted(image.Rect(0, 0, 32, 24), palette.Plan9)
		for y := 0; y < 24; y++ {
			for x := 0; x < 32; x++ {
				frame.Set(x, y, c)
			}
		}
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create gif: %v", err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
}

func writePNG(t *testing.T, path string, c color.Color) {
	t.Helper()
	img := imaging.New(20, 10, c)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save png: %v", err)
	}
}

func TestLoadAsset_AnimatedGIF(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "lovely.gif"), color.White, color.Black, color.RGBA{R: 255, A: 255})

	a, err := LoadAsset(dir, "lovely.gif")
	if err != nil {
		t.Fatalf("LoadAsset() error = %v", err)
	}
	if len(a.Frames) != 3 || !a.Animated() {
		t.Fatalf("got %d frames, want 3 animated", len(a.Frames))
	}
	for i, f := range a.Frames {
		if b := f.Bounds(); b.Dx() != Width || b.Dy() != Height {
			t.Errorf("frame %d is %v, want %dx%d", i, b, Width, Height)
		}
	}

	r, _, _, _ := a.Frames[2].At(Width/2, Height/2).RGBA()
	if r>>8 < 200 {
		t.Errorf("third frame should be red, got r=%d", r>>8)
	}
}

func TestLoadAsset_ExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "tongue.png"), color.NRGBA{G: 255, A: 255})

	a, err := LoadAsset(dir, "tongue.gif")
	if err != nil {
		t.Fatalf("LoadAsset() error = %v", err)
	}
	if filepath.Base(a.Path) != "tongue.png" {
		t.Errorf("Path = %s, want tongue.png", a.Path)
	}
	if a.Animated() {
		t.Error("png should be a still")
	}
	if b := a.Frames[0].Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Errorf("still is %v, want %dx%d", b, Width, Height)
	}
}

func TestLoadAsset_ExtensionOrder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "fist.png"), color.White)
	writePNG(t, filepath.Join(dir, "fist.jpg"), color.Black)

	a, err := LoadAsset(dir, "fist.gif")
	if err != nil {
		t.Fatalf("LoadAsset() error = %v", err)
	}
	if filepath.Base(a.Path) != "fist.jpg" {
		t.Errorf("Path = %s, want fist.jpg before fist.png", a.Path)
	}
}

func TestLoadAsset_Missing(t *testing.T) {
	_, err := LoadAsset(t.TempDir(), "peace.gif")
	if !errors.Is(err, ErrNoAsset) {
		t.Errorf("LoadAsset() error = %v, want ErrNoAsset", err)
	}
}

func TestLoadAsset_Corrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "peace.gif"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadAsset(dir, "peace.gif")
	if !errors.Is(err, ErrNoAsset) {
		t.Errorf("LoadAsset() error = %v, want ErrNoAsset", err)
	}
}

func TestAsset_FrameAt(t *testing.T) {
	frames := []image.Image{
		image.NewGray(image.Rect(0, 0, 1, 1)),
		image.NewGray(image.Rect(0, 0, 2, 2)),
		image.NewGray(image.Rect(0, 0, 3, 3)),
	}
	a := &Asset{Frames: frames}

	base := time.Unix(100, 0) // tick 1000, 1000 % 3 == 1
	tests := []struct {
		offset time.Duration
		want   int
	}{
		{0, 1},
		{99 * time.Millisecond, 1},
		{100 * time.Millisecond, 2},
		{200 * time.Millisecond, 0},
		{300 * time.Millisecond, 1},
	}

	for _, tt := range tests {
		got := a.FrameAt(base.Add(tt.offset))
		if got != frames[tt.want] {
			t.Errorf("FrameAt(+%v) = frame of %v, want frame %d", tt.offset, got.Bounds(), tt.want)
		}
	}

	still := &Asset{Frames: frames[:1]}
	if still.FrameAt(base.Add(time.Hour)) != frames[0] {
		t.Error("still asset should always return its only frame")
	}
	if (&Asset{}).FrameAt(base) != nil {
		t.Error("empty asset should return nil")
	}
}

func TestPresenter(t *testing.T) {
	dir := t.TempDir()
	writeGIF(t, filepath.Join(dir, "thumbs_up.gif"), color.White, color.Black)

	p := NewPresenter(dir, nil)

	t.Run("preload counts assets on disk", func(t *testing.T) {
		if got := p.Preload(); got != 1 {
			t.Errorf("Preload() = %d, want 1", got)
		}
	})

	t.Run("loaded asset", func(t *testing.T) {
		a := p.Asset(gesture.ThumbsUp)
		if a.Placeholder || !a.Animated() {
			t.Errorf("thumbs up asset = %+v", a)
		}
		if p.Asset(gesture.ThumbsUp) != a {
			t.Error("asset should be cached")
		}
	})

	t.Run("missing asset uses placeholder", func(t *testing.T) {
		a := p.Asset(gesture.Heart)
		if !a.Placeholder || a.Name != "lovely.gif" {
			t.Errorf("heart asset = %+v", a)
		}
		img := p.Frame(gesture.Heart, time.Now())
		if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
			t.Errorf("placeholder is %v", b)
		}
	})

	t.Run("default card", func(t *testing.T) {
		a := p.Asset(gesture.Default)
		if a.Name != "default" || len(a.Frames) != 1 {
			t.Errorf("default asset = %+v", a)
		}
		gray := color.GrayModel.Convert(p.Frame(gesture.Default, time.Now()).At(5, 5)).(color.Gray)
		if gray.Y != 30 {
			t.Errorf("default background = %d, want 30", gray.Y)
		}
	})
}

func TestCards(t *testing.T) {
	placeholder := PlaceholderCard("fist.gif")
	gray := color.GrayModel.Convert(placeholder.At(5, 5)).(color.Gray)
	if gray.Y != 50 {
		t.Errorf("placeholder background = %d, want 50", gray.Y)
	}

	// Some pixel on the text row must be white.
	white := false
	for x := 150; x < 400 && !white; x++ {
		for y := 220; y < 245; y++ {
			if r, _, _, _ := placeholder.At(x, y).RGBA(); r>>8 == 255 {
				white = true
				break
			}
		}
	}
	if !white {
		t.Error("placeholder text was not drawn")
	}
}

func TestDrawText_Empty(t *testing.T) {
	src := imaging.New(10, 10, color.Black)
	out := DrawText(src, "", image.Pt(0, 5), color.White, 2)
	if out.Bounds() != src.Bounds() {
		t.Errorf("bounds = %v", out.Bounds())
	}
}
