package imagegen

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
}

func TestCompose_CanvasAndPlacement(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "bg.png", 640, 480, color.RGBA{R: 0x10, G: 0x80, B: 0x10, A: 0xff})
	writeTestPNG(t, dir, "char.png", 400, 800, color.RGBA{R: 0xc0, G: 0x20, B: 0x20, A: 0xff})

	c := NewComposer(dir)
	filename, err := c.Compose("char.png", "bg.png")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	combined, err := imaging.Open(filepath.Join(dir, filename))
	if err != nil {
		t.Fatalf("open combined: %v", err)
	}
	if combined.Bounds().Dx() != composeCanvasWidth || combined.Bounds().Dy() != composeCanvasHeight {
		t.Errorf("canvas = %dx%d, want %dx%d",
			combined.Bounds().Dx(), combined.Bounds().Dy(), composeCanvasWidth, composeCanvasHeight)
	}

	// Bottom-right area carries the character color, top-left the background
	r, _, _, _ := combined.At(composeCanvasWidth-composeMargin-10, composeCanvasHeight-composeMargin-10).RGBA()
	if r>>8 < 0x80 {
		t.Error("bottom-right corner does not look like the overlaid character")
	}
	_, g, _, _ := combined.At(10, 10).RGBA()
	if g>>8 < 0x40 {
		t.Error("top-left corner does not look like the background")
	}
}

func TestCompose_MissingFileIsAnError(t *testing.T) {
	c := NewComposer(t.TempDir())
	if _, err := c.Compose("missing_char.png", "missing_bg.png"); err == nil {
		t.Fatal("expected error for missing inputs")
	}
}
