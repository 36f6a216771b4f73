package pipeline

import (
	"context"
	"sync"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/imagegen"
	"github.com/rs/zerolog/log"
)

// TextGenerator produces the story and character description texts.
type TextGenerator interface {
	GenerateStory(ctx context.Context, prompt string) (string, error)
	GenerateCharacterDescription(ctx context.Context, story string) (string, error)
}

// ImageGenerator produces an image through the external provider chain.
// It returns an empty filename (and nil error) when every provider failed.
type ImageGenerator interface {
	Generate(ctx context.Context, text string, kind imagegen.Kind, width, height int) (string, error)
}

// PlaceholderRenderer renders a local substitute image. It always returns a
// reference and never fails.
type PlaceholderRenderer interface {
	Render(description string, kind imagegen.Kind) string
}

// SceneComposer combines the character and background images into one scene.
type SceneComposer interface {
	Compose(characterFile, backgroundFile string) (string, error)
}

// Result is the pipeline's output contract. On failure only ErrorMessage is
// set; on success Story and CharacterDescription are non-empty and both the
// character and background image references are present (real or placeholder).
type Result struct {
	Story                string
	CharacterDescription string
	CharacterImage       string
	BackgroundImage      string
	CombinedImage        string
	Success              bool
	ErrorMessage         string
}

// Orchestrator sequences one generation: story, character description,
// character image, background image, and the final scene. Text steps are
// fatal on error; image steps always degrade and never fail the pipeline.
// Run writes image files but has no other side effects; the caller persists
// the result.
type Orchestrator struct {
	text        TextGenerator
	images      ImageGenerator
	placeholder PlaceholderRenderer
	composer    SceneComposer
	sceneMode   string
}

// NewOrchestrator creates an orchestrator. composer may be nil when sceneMode
// is "generate".
func NewOrchestrator(text TextGenerator, images ImageGenerator, placeholder PlaceholderRenderer, composer SceneComposer, sceneMode string) *Orchestrator {
	if sceneMode != config.SceneModeComposite {
		sceneMode = config.SceneModeGenerate
	}
	return &Orchestrator{
		text:        text,
		images:      images,
		placeholder: placeholder,
		composer:    composer,
		sceneMode:   sceneMode,
	}
}

// Run executes the full pipeline for one prompt.
func (o *Orchestrator) Run(ctx context.Context, prompt string) *Result {
	log.Info().Str("prompt", truncate(prompt, 80)).Msg("Starting generation pipeline")

	// Step 1: story. Fatal on error.
	story, err := o.text.GenerateStory(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("Story generation failed")
		return &Result{Success: false, ErrorMessage: err.Error()}
	}

	// Step 2: character description from the story. Fatal on error.
	character, err := o.text.GenerateCharacterDescription(ctx, story)
	if err != nil {
		log.Error().Err(err).Msg("Character description failed")
		return &Result{Success: false, ErrorMessage: err.Error()}
	}

	// Steps 3 and 4: character portrait and background. Independent, so they
	// run concurrently; each falls back to a placeholder on exhaustion and
	// neither can fail the pipeline.
	var wg sync.WaitGroup
	var characterImage, backgroundImage string

	wg.Add(2)
	go func() {
		defer wg.Done()
		characterImage = o.resolveImage(ctx, character, imagegen.KindCharacter)
	}()
	go func() {
		defer wg.Done()
		backgroundImage = o.resolveImage(ctx, story, imagegen.KindBackground)
	}()
	wg.Wait()

	// Step 5: final scene, per configured mode. Degrades, never fails.
	combinedImage := o.resolveScene(ctx, prompt, characterImage, backgroundImage)

	log.Info().
		Str("character_image", characterImage).
		Str("background_image", backgroundImage).
		Str("combined_image", combinedImage).
		Msg("Generation pipeline complete")

	return &Result{
		Story:                story,
		CharacterDescription: character,
		CharacterImage:       characterImage,
		BackgroundImage:      backgroundImage,
		CombinedImage:        combinedImage,
		Success:              true,
	}
}

// resolveImage runs the provider chain and falls back to the placeholder
// renderer when the chain is exhausted.
func (o *Orchestrator) resolveImage(ctx context.Context, text string, kind imagegen.Kind) string {
	filename, err := o.images.Generate(ctx, text, kind, 0, 0)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind.String()).Msg("Image generation error, using placeholder")
		filename = ""
	}
	if filename == "" {
		filename = o.placeholder.Render(text, kind)
	}
	return filename
}

// resolveScene produces the combined scene image. In "generate" mode a third
// image is generated directly from the raw user prompt; in "composite" mode
// the character is overlaid onto the background. Either way a failure only
// means an absent combined image.
func (o *Orchestrator) resolveScene(ctx context.Context, prompt, characterImage, backgroundImage string) string {
	if o.sceneMode == config.SceneModeComposite {
		if o.composer == nil {
			log.Warn().Msg("Composite scene mode without a composer, skipping scene")
			return ""
		}
		combined, err := o.composer.Compose(characterImage, backgroundImage)
		if err != nil {
			log.Warn().Err(err).Msg("Scene composition failed, degrading to no combined image")
			return ""
		}
		return combined
	}

	return o.resolveImage(ctx, prompt, imagegen.KindScene)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
