package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/imagegen"
)

type fakeText struct {
	story     string
	storyErr  error
	character string
	charErr   error
}

func (f *fakeText) GenerateStory(ctx context.Context, prompt string) (string, error) {
	return f.story, f.storyErr
}

func (f *fakeText) GenerateCharacterDescription(ctx context.Context, story string) (string, error) {
	return f.character, f.charErr
}

type fakeImages struct {
	results map[imagegen.Kind]string
	errs    map[imagegen.Kind]error
	calls   []imagegen.Kind
}

func (f *fakeImages) Generate(ctx context.Context, text string, kind imagegen.Kind, width, height int) (string, error) {
	f.calls = append(f.calls, kind)
	if err := f.errs[kind]; err != nil {
		return "", err
	}
	return f.results[kind], nil
}

type fakePlaceholder struct {
	calls []imagegen.Kind
}

func (f *fakePlaceholder) Render(description string, kind imagegen.Kind) string {
	f.calls = append(f.calls, kind)
	return "placeholder_" + kind.String() + ".png"
}

func (f *fakePlaceholder) count(kind imagegen.Kind) int {
	n := 0
	for _, k := range f.calls {
		if k == kind {
			n++
		}
	}
	return n
}

type fakeComposer struct {
	combined string
	err      error
	charArg  string
	bgArg    string
}

func (f *fakeComposer) Compose(characterFile, backgroundFile string) (string, error) {
	f.charArg = characterFile
	f.bgArg = backgroundFile
	return f.combined, f.err
}

func TestRunSuccess(t *testing.T) {
	text := &fakeText{
		story:     "A brave knight rode into the enchanted forest.",
		character: "Sir Aldric, a tall knight in silver armor.",
	}
	images := &fakeImages{results: map[imagegen.Kind]string{
		imagegen.KindCharacter:  "character_ab12cd34.png",
		imagegen.KindBackground: "background_ef56ab78.png",
		imagegen.KindScene:      "story_scene_12ab34cd.png",
	}}
	placeholder := &fakePlaceholder{}

	o := NewOrchestrator(text, images, placeholder, nil, config.SceneModeGenerate)
	result := o.Run(context.Background(), "a knight in a forest")

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.ErrorMessage)
	}
	if result.Story != text.story {
		t.Errorf("story = %q", result.Story)
	}
	if result.CharacterDescription != text.character {
		t.Errorf("character description = %q", result.CharacterDescription)
	}
	if result.CharacterImage != "character_ab12cd34.png" {
		t.Errorf("character image = %q", result.CharacterImage)
	}
	if result.BackgroundImage != "background_ef56ab78.png" {
		t.Errorf("background image = %q", result.BackgroundImage)
	}
	if result.CombinedImage != "story_scene_12ab34cd.png" {
		t.Errorf("combined image = %q", result.CombinedImage)
	}
	if len(placeholder.calls) != 0 {
		t.Errorf("placeholder rendered %d times for successful providers", len(placeholder.calls))
	}
}

func TestRunStoryFailure(t *testing.T) {
	text := &fakeText{storyErr: errors.New("model unavailable")}
	images := &fakeImages{}
	placeholder := &fakePlaceholder{}

	o := NewOrchestrator(text, images, placeholder, nil, config.SceneModeGenerate)
	result := o.Run(context.Background(), "a knight")

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorMessage != "model unavailable" {
		t.Errorf("error message = %q", result.ErrorMessage)
	}
	if result.Story != "" || result.CharacterDescription != "" ||
		result.CharacterImage != "" || result.BackgroundImage != "" || result.CombinedImage != "" {
		t.Errorf("failed result carries content: %+v", result)
	}
	if len(images.calls) != 0 {
		t.Errorf("image generation attempted after text failure: %v", images.calls)
	}
}

func TestRunCharacterDescriptionFailure(t *testing.T) {
	text := &fakeText{story: "Once upon a time.", charErr: errors.New("quota exceeded")}
	o := NewOrchestrator(text, &fakeImages{}, &fakePlaceholder{}, nil, config.SceneModeGenerate)
	result := o.Run(context.Background(), "a knight")

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.ErrorMessage != "quota exceeded" {
		t.Errorf("error message = %q", result.ErrorMessage)
	}
	if result.Story != "" {
		t.Errorf("failed result carries story %q", result.Story)
	}
}

func TestRunPlaceholderFallback(t *testing.T) {
	text := &fakeText{story: "A story.", character: "A hero."}
	// Providers exhausted for every image kind.
	images := &fakeImages{results: map[imagegen.Kind]string{}}
	placeholder := &fakePlaceholder{}

	o := NewOrchestrator(text, images, placeholder, nil, config.SceneModeGenerate)
	result := o.Run(context.Background(), "a hero")

	if !result.Success {
		t.Fatalf("image exhaustion must not fail the pipeline: %q", result.ErrorMessage)
	}
	if !strings.HasPrefix(result.CharacterImage, "placeholder_character") {
		t.Errorf("character image = %q", result.CharacterImage)
	}
	if !strings.HasPrefix(result.BackgroundImage, "placeholder_background") {
		t.Errorf("background image = %q", result.BackgroundImage)
	}
	if !strings.HasPrefix(result.CombinedImage, "placeholder_story_scene") {
		t.Errorf("combined image = %q", result.CombinedImage)
	}
	for _, kind := range []imagegen.Kind{imagegen.KindCharacter, imagegen.KindBackground, imagegen.KindScene} {
		if got := placeholder.count(kind); got != 1 {
			t.Errorf("placeholder rendered %d times for %s", got, kind)
		}
	}
}

func TestRunPlaceholderOnGeneratorError(t *testing.T) {
	text := &fakeText{story: "A story.", character: "A hero."}
	images := &fakeImages{
		results: map[imagegen.Kind]string{
			imagegen.KindBackground: "background_11223344.png",
			imagegen.KindScene:      "story_scene_55667788.png",
		},
		errs: map[imagegen.Kind]error{imagegen.KindCharacter: errors.New("write failed")},
	}
	placeholder := &fakePlaceholder{}

	o := NewOrchestrator(text, images, placeholder, nil, config.SceneModeGenerate)
	result := o.Run(context.Background(), "a hero")

	if !result.Success {
		t.Fatalf("unexpected failure: %q", result.ErrorMessage)
	}
	if got := placeholder.count(imagegen.KindCharacter); got != 1 {
		t.Errorf("placeholder rendered %d times for character", got)
	}
	if result.BackgroundImage != "background_11223344.png" {
		t.Errorf("background image = %q", result.BackgroundImage)
	}
}

func TestRunCompositeMode(t *testing.T) {
	text := &fakeText{story: "A story.", character: "A hero."}
	images := &fakeImages{results: map[imagegen.Kind]string{
		imagegen.KindCharacter:  "character_aa.png",
		imagegen.KindBackground: "background_bb.png",
	}}
	composer := &fakeComposer{combined: "story_scene_cc.png"}

	o := NewOrchestrator(text, images, &fakePlaceholder{}, composer, config.SceneModeComposite)
	result := o.Run(context.Background(), "a hero")

	if !result.Success {
		t.Fatalf("unexpected failure: %q", result.ErrorMessage)
	}
	if result.CombinedImage != "story_scene_cc.png" {
		t.Errorf("combined image = %q", result.CombinedImage)
	}
	if composer.charArg != "character_aa.png" || composer.bgArg != "background_bb.png" {
		t.Errorf("composer called with (%q, %q)", composer.charArg, composer.bgArg)
	}
	// No scene generation request through the provider chain in composite mode.
	for _, kind := range images.calls {
		if kind == imagegen.KindScene {
			t.Error("scene image requested from providers in composite mode")
		}
	}
}

func TestRunCompositeFailureDegrades(t *testing.T) {
	text := &fakeText{story: "A story.", character: "A hero."}
	images := &fakeImages{results: map[imagegen.Kind]string{
		imagegen.KindCharacter:  "character_aa.png",
		imagegen.KindBackground: "background_bb.png",
	}}
	composer := &fakeComposer{err: errors.New("decode failed")}

	o := NewOrchestrator(text, images, &fakePlaceholder{}, composer, config.SceneModeComposite)
	result := o.Run(context.Background(), "a hero")

	if !result.Success {
		t.Fatalf("composition failure must not fail the pipeline: %q", result.ErrorMessage)
	}
	if result.CombinedImage != "" {
		t.Errorf("combined image = %q, want empty", result.CombinedImage)
	}
}
