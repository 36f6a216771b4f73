package llm

import (
	"strings"
	"testing"
)

func TestBuildStoryPrompt(t *testing.T) {
	prompt := buildStoryPrompt("A dragon who collects teacups")

	if !strings.Contains(prompt, "A dragon who collects teacups") {
		t.Errorf("user prompt not embedded in template:\n%s", prompt)
	}
	if !strings.Contains(prompt, "family-friendly") {
		t.Errorf("content constraint missing from template:\n%s", prompt)
	}
	if !strings.Contains(prompt, "150-300 words") {
		t.Errorf("story length target missing from template:\n%s", prompt)
	}
}

func TestBuildCharacterPrompt(t *testing.T) {
	prompt := buildCharacterPrompt("Once upon a time a knight rode north.")

	if !strings.Contains(prompt, "Once upon a time a knight rode north.") {
		t.Errorf("story not embedded in template:\n%s", prompt)
	}
	if !strings.Contains(prompt, "80-150 words") {
		t.Errorf("description length target missing from template:\n%s", prompt)
	}
	if !strings.Contains(prompt, "appearance and personality") {
		t.Errorf("description focus missing from template:\n%s", prompt)
	}
}

func TestGenerateStory_NoModel(t *testing.T) {
	c := &Client{}
	if _, err := c.GenerateStory(t.Context(), "A brave knight"); err == nil {
		t.Fatal("expected error when text model is not initialized")
	}
}
