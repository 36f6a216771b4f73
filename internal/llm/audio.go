package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	unifiedgenai "google.golang.org/genai"
)

const transcribeInstruction = "Transcribe the spoken words in this audio recording. Return ONLY the transcribed text, with normal punctuation, no explanations or timestamps."

// TranscribeAudio transcribes an uploaded audio recording using the unified
// genai SDK. The recording is sent inline; supported types include audio/mpeg,
// audio/wav, audio/mp4 and audio/ogg.
func (c *Client) TranscribeAudio(ctx context.Context, data []byte, mimeType string) (string, error) {
	if c.unifiedClient == nil {
		return "", fmt.Errorf("transcription client not initialized")
	}

	log.Debug().
		Str("mime_type", mimeType).
		Int("audio_size_bytes", len(data)).
		Msg("Transcribing audio")

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	contents := []*unifiedgenai.Content{
		{
			Role: "user",
			Parts: []*unifiedgenai.Part{
				unifiedgenai.NewPartFromText(transcribeInstruction),
				unifiedgenai.NewPartFromBytes(data, mimeType),
			},
		},
	}

	resp, err := c.unifiedClient.Models.GenerateContent(ctx, c.cfg.ModelTranscribe, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}

	logGeminiResponse("TranscribeAudio", text)
	log.Info().Int("transcript_length", len(text)).Msg("Audio transcription complete")

	return text, nil
}
