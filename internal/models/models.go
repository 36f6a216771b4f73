package models

import (
	"time"

	"github.com/google/uuid"
)

// Generation statuses. A generation starts pending, moves to processing when
// the pipeline picks it up, and ends in exactly one of completed or failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// IsTerminal reports whether status is completed or failed.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// StoryGeneration represents one story generation request and its results
type StoryGeneration struct {
	ID                   uuid.UUID `json:"id"`
	UserPrompt           string    `json:"user_prompt"`
	Story                *string   `json:"story,omitempty"`
	CharacterDescription *string   `json:"character_description,omitempty"`
	CharacterImage       *string   `json:"character_image,omitempty"`
	BackgroundImage      *string   `json:"background_image,omitempty"`
	CombinedImage        *string   `json:"combined_image,omitempty"`
	Status               string    `json:"status"` // pending, processing, completed, failed
	ErrorMessage         *string   `json:"error_message,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CharacterImageURL returns the serving URL for the character image, empty when absent.
func (s *StoryGeneration) CharacterImageURL() string {
	return imageURL(s.CharacterImage)
}

// BackgroundImageURL returns the serving URL for the background image, empty when absent.
func (s *StoryGeneration) BackgroundImageURL() string {
	return imageURL(s.BackgroundImage)
}

// CombinedImageURL returns the serving URL for the combined scene image, empty when absent.
func (s *StoryGeneration) CombinedImageURL() string {
	return imageURL(s.CombinedImage)
}

func imageURL(filename *string) string {
	if filename == nil || *filename == "" {
		return ""
	}
	return "/media/images/" + *filename
}

// AudioUpload represents an uploaded audio file and its transcription
type AudioUpload struct {
	ID                  uuid.UUID  `json:"id"`
	StoryGenerationID   *uuid.UUID `json:"story_generation_id,omitempty"`
	Filename            string     `json:"filename"`
	MimeType            string     `json:"mime_type"`
	SizeBytes           int64      `json:"size_bytes"`
	TranscribedText     *string    `json:"transcribed_text,omitempty"`
	TranscriptionStatus string     `json:"transcription_status"` // pending, processing, completed, failed
	CreatedAt           time.Time  `json:"created_at"`
}

// CreateStoryRequest represents a request to start a story generation
type CreateStoryRequest struct {
	Prompt string `json:"prompt"`
}

// CreateStoryResponse represents the response when a generation is accepted
type CreateStoryResponse struct {
	GenerationID uuid.UUID `json:"generation_id"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// StatusResponse represents the polling status of a generation. Content fields
// are only populated once the generation has completed.
type StatusResponse struct {
	GenerationID         uuid.UUID `json:"generation_id"`
	Status               string    `json:"status"`
	ErrorMessage         *string   `json:"error_message,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	Story                *string   `json:"story,omitempty"`
	CharacterDescription *string   `json:"character_description,omitempty"`
	CharacterImageURL    string    `json:"character_image_url,omitempty"`
	BackgroundImageURL   string    `json:"background_image_url,omitempty"`
	CombinedImageURL     string    `json:"combined_image_url,omitempty"`
}

// StatusFrom builds a StatusResponse from a generation record.
func StatusFrom(gen *StoryGeneration) *StatusResponse {
	resp := &StatusResponse{
		GenerationID: gen.ID,
		Status:       gen.Status,
		ErrorMessage: gen.ErrorMessage,
		CreatedAt:    gen.CreatedAt,
		UpdatedAt:    gen.UpdatedAt,
	}
	if gen.Status == StatusCompleted {
		resp.Story = gen.Story
		resp.CharacterDescription = gen.CharacterDescription
		resp.CharacterImageURL = gen.CharacterImageURL()
		resp.BackgroundImageURL = gen.BackgroundImageURL()
		resp.CombinedImageURL = gen.CombinedImageURL()
	}
	return resp
}
