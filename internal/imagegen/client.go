package imagegen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// styleKeywords is appended to every prompt before submission. Keeping a
// fixed artistic suffix measurably improves output quality across providers.
const styleKeywords = "beautiful digital art, cinematic lighting, fantasy illustration, high detail"

// Config holds the image client configuration
type Config struct {
	ImagesDir string
	Timeout   time.Duration

	// Gemini native image generation (optional, tried first when key is set)
	GeminiAPIKey      string
	GeminiAPIEndpoint string
	GeminiModel       string

	// Hugging Face style inference endpoints (primary HTTP family)
	HFEndpoint string
	HFAPIKey   string
	HFModels   []string

	// Pollinations style endpoint (secondary HTTP provider)
	PollinationsEndpoint string
	PollinationsModel    string
}

// Client generates images through an ordered chain of external providers.
// Generate returns an empty filename (and nil error) when every provider is
// exhausted; the caller is expected to fall back to a locally rendered
// placeholder.
type Client struct {
	providers []Provider
	imagesDir string
}

// NewClient builds the provider chain from config. Order is fixed: Gemini
// native generation (when configured), then the Hugging Face model family,
// then Pollinations.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var providers []Provider
	if cfg.GeminiAPIKey != "" {
		if p := newGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiAPIEndpoint, cfg.GeminiModel); p != nil {
			providers = append(providers, p)
		}
	}
	if cfg.HFEndpoint != "" && len(cfg.HFModels) > 0 {
		providers = append(providers, newHuggingFaceProvider(httpClient, cfg.HFEndpoint, cfg.HFAPIKey, cfg.HFModels))
	}
	if cfg.PollinationsEndpoint != "" {
		providers = append(providers, newPollinationsProvider(httpClient, cfg.PollinationsEndpoint, cfg.PollinationsModel))
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.Info().
		Strs("providers", names).
		Str("images_dir", cfg.ImagesDir).
		Msg("Image client initialized")

	return &Client{providers: providers, imagesDir: cfg.ImagesDir}
}

// NewClientWithProviders builds a client over an explicit provider chain.
func NewClientWithProviders(imagesDir string, providers ...Provider) *Client {
	return &Client{providers: providers, imagesDir: imagesDir}
}

// Generate produces an image for the given kind. For KindCharacter the text
// is the character description, for KindBackground it is the full story (the
// scene is extracted from it), for KindScene it is the raw user prompt.
// Returns ("", nil) when every provider attempt failed.
func (c *Client) Generate(ctx context.Context, text string, kind Kind, width, height int) (string, error) {
	prompt := c.buildPrompt(text, kind)
	if width <= 0 || height <= 0 {
		width, height = kind.Dimensions()
	}

	for _, provider := range c.providers {
		req := Request{
			Prompt: prompt,
			Width:  width,
			Height: height,
			Seed:   rand.IntN(10000) + 1,
		}

		log.Info().
			Str("provider", provider.Name()).
			Str("kind", kind.String()).
			Str("prompt", truncate(prompt, 120)).
			Msg("Generating image")

		data, err := provider.Generate(ctx, req)
		if err != nil {
			log.Warn().
				Err(err).
				Str("provider", provider.Name()).
				Str("kind", kind.String()).
				Msg("Image provider attempt failed, trying next")
			continue
		}

		filename, err := c.writeImage(kind.String(), data)
		if err != nil {
			log.Error().Err(err).Str("kind", kind.String()).Msg("Failed to write image file")
			continue
		}

		log.Info().
			Str("provider", provider.Name()).
			Str("filename", filename).
			Int("size_bytes", len(data)).
			Msg("Image saved")
		return filename, nil
	}

	log.Warn().Str("kind", kind.String()).Msg("All image providers exhausted")
	return "", nil
}

// buildPrompt decorates the caller-supplied text per kind, then appends the
// fixed style keywords.
func (c *Client) buildPrompt(text string, kind Kind) string {
	var base string
	switch kind {
	case KindCharacter:
		base = fmt.Sprintf("portrait of %s, detailed character design, beautiful lighting", text)
	case KindBackground:
		base = fmt.Sprintf("%s, beautiful landscape, detailed environment, no characters", ExtractSetting(text))
	default:
		base = text
	}
	return base + ", " + styleKeywords
}

// writeImage stores image bytes under a collision-resistant random filename
// in the images directory and returns the filename only.
func (c *Client) writeImage(prefix string, data []byte) (string, error) {
	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		return "", fmt.Errorf("create images dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.png", prefix, uuid.NewString()[:8])
	if err := os.WriteFile(filepath.Join(c.imagesDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	return filename, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
