package imagegen

import "context"

// Kind identifies which image the pipeline is asking for. It selects the
// prompt decoration, the output dimensions and the filename prefix.
type Kind int

const (
	KindCharacter Kind = iota
	KindBackground
	KindScene
)

// String returns the filename prefix for the kind.
func (k Kind) String() string {
	switch k {
	case KindCharacter:
		return "character"
	case KindBackground:
		return "background"
	case KindScene:
		return "story_scene"
	default:
		return "image"
	}
}

// Default output dimensions per kind (portrait for characters, landscape
// otherwise).
func (k Kind) Dimensions() (width, height int) {
	if k == KindCharacter {
		return 800, 1024
	}
	return 1024, 768
}

// Request is a single image generation attempt against one provider.
type Request struct {
	Prompt string
	Width  int
	Height int
	Seed   int // random per request to avoid provider-side caching collisions
}

// Provider is one external text-to-image backend. Generate returns the raw
// image bytes on success; any error means this attempt failed and the caller
// moves to the next provider. Attempts are independent, no cross-attempt
// state.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) ([]byte, error)
}
