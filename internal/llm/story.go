package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
)

// buildStoryPrompt returns the instruction template for story synthesis.
func buildStoryPrompt(userPrompt string) string {
	return fmt.Sprintf(`You are a master storyteller. From the user's prompt, create an imaginative and family-friendly short story (150-300 words).

User Prompt: %s

Story:`, userPrompt)
}

// buildCharacterPrompt returns the instruction template for character description synthesis.
func buildCharacterPrompt(story string) string {
	return fmt.Sprintf(`Based on the story, describe the main character's appearance and personality in 80-150 words.

Story: %s

Character Description:`, story)
}

// GenerateStory generates a short story from the user's prompt. There is no
// retry: any transport or model error, or an empty response, is returned to
// the caller and is fatal for the whole generation pipeline.
func (c *Client) GenerateStory(ctx context.Context, userPrompt string) (string, error) {
	if c.llmText == nil {
		return "", fmt.Errorf("text model not initialized")
	}

	log.Debug().Int("prompt_length", len(userPrompt)).Msg("Generating story")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	response, err := llms.GenerateFromSinglePrompt(ctx, c.llmText, buildStoryPrompt(userPrompt),
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(1000),
	)
	if err != nil {
		return "", fmt.Errorf("story generation failed: %w", err)
	}

	logGeminiResponse("GenerateStory", response)

	story := strings.TrimSpace(response)
	if story == "" {
		return "", fmt.Errorf("story generation returned empty response")
	}

	log.Info().Int("story_length", len(story)).Msg("Story generation complete")
	return story, nil
}

// GenerateCharacterDescription describes the story's main character. Same
// failure policy as GenerateStory.
func (c *Client) GenerateCharacterDescription(ctx context.Context, story string) (string, error) {
	if c.llmText == nil {
		return "", fmt.Errorf("text model not initialized")
	}

	log.Debug().Int("story_length", len(story)).Msg("Generating character description")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	response, err := llms.GenerateFromSinglePrompt(ctx, c.llmText, buildCharacterPrompt(story),
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		return "", fmt.Errorf("character description failed: %w", err)
	}

	logGeminiResponse("GenerateCharacterDescription", response)

	description := strings.TrimSpace(response)
	if description == "" {
		return "", fmt.Errorf("character description returned empty response")
	}

	log.Info().Int("description_length", len(description)).Msg("Character description complete")
	return description, nil
}
