package database

import (
	"context"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
)

// AudioRepository handles audio upload database operations
type AudioRepository struct {
	db *DB
}

// NewAudioRepository creates a new AudioRepository
func NewAudioRepository(db *DB) *AudioRepository {
	return &AudioRepository{db: db}
}

// Create creates a new audio upload record
func (r *AudioRepository) Create(ctx context.Context, upload *models.AudioUpload) error {
	query := `
		INSERT INTO audio_uploads (
			id, story_generation_id, filename, mime_type, size_bytes,
			transcribed_text, transcription_status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		upload.ID, upload.StoryGenerationID, upload.Filename, upload.MimeType,
		upload.SizeBytes, upload.TranscribedText, upload.TranscriptionStatus,
		upload.CreatedAt,
	)

	return err
}

// UpdateTranscription stores the transcription result and status
func (r *AudioRepository) UpdateTranscription(ctx context.Context, id uuid.UUID, text *string, status string) error {
	query := `
		UPDATE audio_uploads
		SET transcribed_text = $1, transcription_status = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, text, status, id)
	return err
}
