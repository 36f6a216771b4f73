package imagegen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font/basicfont"
)

// errorArtifactRef is returned when even the simplest placeholder cannot be
// written to disk. It is an explicit reference, not a crash: an image problem
// never fails a generation.
const errorArtifactRef = "unavailable.png"

const placeholderHeaderHeight = 90

// Placeholder renders a local substitute image when every external provider
// fails. Render always returns a reference and never returns an error: the
// rich render falls back to a flat single-color image, and a write failure
// falls back to the error artifact reference.
type Placeholder struct {
	imagesDir string
}

// NewPlaceholder creates a placeholder renderer writing into imagesDir.
func NewPlaceholder(imagesDir string) *Placeholder {
	return &Placeholder{imagesDir: imagesDir}
}

// Render synthesizes a placeholder for the given kind and returns its filename.
func (p *Placeholder) Render(description string, kind Kind) string {
	filename, err := p.renderRich(description, kind)
	if err == nil {
		log.Info().
			Str("kind", kind.String()).
			Str("filename", filename).
			Msg("Placeholder image rendered")
		return filename
	}
	log.Warn().Err(err).Str("kind", kind.String()).Msg("Rich placeholder failed, using flat placeholder")

	filename, err = p.renderFlat(kind)
	if err == nil {
		return filename
	}
	log.Error().Err(err).Str("kind", kind.String()).Msg("Flat placeholder failed, returning error artifact reference")

	return errorArtifactRef
}

// renderRich draws a colored header band with a kind-specific title and the
// description word-wrapped into the body.
func (p *Placeholder) renderRich(description string, kind Kind) (filename string, err error) {
	// The drawing library can panic on degenerate input; a panic here must
	// not cross the placeholder boundary.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("placeholder render panic: %v", r)
		}
	}()

	width, height := kind.Dimensions()
	header, body := placeholderColors(kind)

	dc := gg.NewContext(width, height)
	dc.SetColor(body)
	dc.Clear()

	dc.SetColor(header)
	dc.DrawRectangle(0, 0, float64(width), placeholderHeaderHeight)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(placeholderTitle(kind), float64(width)/2, placeholderHeaderHeight/2, 0.5, 0.5)

	dc.SetRGB(0.15, 0.15, 0.2)
	dc.DrawStringWrapped(description,
		float64(width)/2, placeholderHeaderHeight+40,
		0.5, 0,
		float64(width)-80, 1.6, gg.AlignCenter)

	filename = fmt.Sprintf("%s_placeholder_%s.png", kind.String(), uuid.NewString()[:8])
	if err := p.savePNG(filename, dc.Image()); err != nil {
		return "", err
	}
	return filename, nil
}

// renderFlat writes a uniform single-color image, the simplest possible
// placeholder.
func (p *Placeholder) renderFlat(kind Kind) (string, error) {
	width, height := kind.Dimensions()
	_, body := placeholderColors(kind)

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, body)
		}
	}

	filename := fmt.Sprintf("%s_placeholder_%s.png", kind.String(), uuid.NewString()[:8])
	if err := p.savePNG(filename, img); err != nil {
		return "", err
	}
	return filename, nil
}

func (p *Placeholder) savePNG(filename string, img image.Image) error {
	if err := os.MkdirAll(p.imagesDir, 0o755); err != nil {
		return fmt.Errorf("create images dir: %w", err)
	}
	f, err := os.Create(filepath.Join(p.imagesDir, filename))
	if err != nil {
		return fmt.Errorf("create placeholder file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode placeholder: %w", err)
	}
	return nil
}

func placeholderTitle(kind Kind) string {
	switch kind {
	case KindCharacter:
		return "* Character Portrait *"
	case KindBackground:
		return "~ Story Background ~"
	default:
		return "~ Story Scene ~"
	}
}

func placeholderColors(kind Kind) (header, body color.Color) {
	switch kind {
	case KindCharacter:
		return color.RGBA{R: 0x6a, G: 0x4c, B: 0x93, A: 0xff}, color.RGBA{R: 0xe8, G: 0xe0, B: 0xf4, A: 0xff}
	case KindBackground:
		return color.RGBA{R: 0x2d, G: 0x6a, B: 0x4f, A: 0xff}, color.RGBA{R: 0xd8, G: 0xf3, B: 0xdc, A: 0xff}
	default:
		return color.RGBA{R: 0x1d, G: 0x35, B: 0x57, A: 0xff}, color.RGBA{R: 0xdb, G: 0xe7, B: 0xf6, A: 0xff}
	}
}
