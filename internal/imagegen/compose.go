package imagegen

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Fixed composition canvas and layout. The character is scaled to roughly
// 30% of the canvas width (aspect ratio preserved) and anchored bottom-right.
const (
	composeCanvasWidth  = 1024
	composeCanvasHeight = 768
	composeMargin       = 24
	composeCharFraction = 0.3
)

// Composer combines a character portrait and a background into one scene
// image. Used when the scene mode is "composite".
type Composer struct {
	imagesDir string
}

// NewComposer creates a composer reading from and writing into imagesDir.
func NewComposer(imagesDir string) *Composer {
	return &Composer{imagesDir: imagesDir}
}

// Compose overlays the character onto the background and returns the combined
// image's filename. Errors are reported to the caller, which degrades to an
// absent combined image rather than failing the generation.
func (c *Composer) Compose(characterFile, backgroundFile string) (string, error) {
	background, err := imaging.Open(filepath.Join(c.imagesDir, backgroundFile))
	if err != nil {
		return "", fmt.Errorf("open background: %w", err)
	}
	character, err := imaging.Open(filepath.Join(c.imagesDir, characterFile))
	if err != nil {
		return "", fmt.Errorf("open character: %w", err)
	}

	canvas := imaging.Resize(background, composeCanvasWidth, composeCanvasHeight, imaging.Lanczos)

	// Height 0 preserves the character's aspect ratio
	canvasWidth := float64(composeCanvasWidth)
	charWidth := int(composeCharFraction * canvasWidth)
	character = imaging.Resize(character, charWidth, 0, imaging.Lanczos)

	pos := image.Pt(
		composeCanvasWidth-character.Bounds().Dx()-composeMargin,
		composeCanvasHeight-character.Bounds().Dy()-composeMargin,
	)
	// Overlay alpha-composites when the character carries transparency
	combined := imaging.Overlay(canvas, character, pos, 1.0)

	filename := fmt.Sprintf("combined_%s.png", uuid.NewString()[:8])
	if err := imaging.Save(combined, filepath.Join(c.imagesDir, filename)); err != nil {
		return "", fmt.Errorf("save combined image: %w", err)
	}

	log.Info().
		Str("character", characterFile).
		Str("background", backgroundFile).
		Str("filename", filename).
		Msg("Scene composition complete")

	return filename, nil
}
