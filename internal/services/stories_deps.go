package services

import (
	"context"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
)

// GenerationPublisher publishes generation messages (e.g. to Kafka). May be
// nil; the service then runs the pipeline in-process.
type GenerationPublisher interface {
	PublishGeneration(ctx context.Context, generationID uuid.UUID, traceID string) error
}

// GenerationProcessor runs the pipeline for one record. Used for in-process
// dispatch when no message broker is configured.
type GenerationProcessor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// Transcriber turns uploaded audio into text. May be nil when no speech
// backend is configured.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, data []byte, mimeType string) (string, error)
}

// storyRepository is the subset of generation DB operations used by StoryService.
type storyRepository interface {
	Create(ctx context.Context, gen *models.StoryGeneration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error)
	ListRecent(ctx context.Context, limit int) ([]*models.StoryGeneration, error)
	ListCompleted(ctx context.Context, limit int) ([]*models.StoryGeneration, error)
}

// audioRepository is the subset of audio upload DB operations used by StoryService.
type audioRepository interface {
	Create(ctx context.Context, upload *models.AudioUpload) error
	UpdateTranscription(ctx context.Context, id uuid.UUID, text *string, status string) error
}
