package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// stockTranscription stands in for the audio prompt when no speech backend is
// configured or transcription fails. The generation still proceeds.
const stockTranscription = "A brave knight discovers a magical forest filled with talking animals."

// Allowed MIME types for audio uploads
var allowedAudioTypes = map[string]bool{
	"audio/webm":  true,
	"audio/ogg":   true,
	"audio/mpeg":  true,
	"audio/mp4":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
}

// AudioInput is an uploaded voice recording standing in for a typed prompt.
type AudioInput struct {
	Filename  string
	MimeType  string
	SizeBytes int64
	Data      []byte
}

// StoryService handles story generation business logic
type StoryService struct {
	storyRepo   storyRepository
	audioRepo   audioRepository
	publisher   GenerationPublisher
	processor   GenerationProcessor
	transcriber Transcriber
	config      *config.Config
}

// NewStoryService creates a new StoryService. publisher and processor are the
// two dispatch paths; exactly one should be non-nil.
func NewStoryService(
	storyRepo storyRepository,
	audioRepo audioRepository,
	publisher GenerationPublisher,
	processor GenerationProcessor,
	transcriber Transcriber,
	cfg *config.Config,
) *StoryService {
	return &StoryService{
		storyRepo:   storyRepo,
		audioRepo:   audioRepo,
		publisher:   publisher,
		processor:   processor,
		transcriber: transcriber,
		config:      cfg,
	}
}

// CreateStory validates the input, persists a pending generation record, and
// dispatches it for processing. Either prompt or audio must be provided; when
// both are present the typed prompt wins.
func (s *StoryService) CreateStory(ctx context.Context, prompt string, audio *AudioInput) (*models.CreateStoryResponse, error) {
	prompt = strings.TrimSpace(prompt)

	var audioUpload *models.AudioUpload
	if prompt == "" && audio != nil {
		var err error
		prompt, audioUpload, err = s.promptFromAudio(ctx, audio)
		if err != nil {
			return nil, err
		}
	}

	if prompt == "" {
		return nil, fmt.Errorf("please provide a story prompt or record one")
	}
	// Length limits count characters, not bytes.
	if n := utf8.RuneCountInString(prompt); n < s.config.PromptMinLen {
		return nil, fmt.Errorf("prompt must be at least %d characters", s.config.PromptMinLen)
	} else if n > s.config.PromptMaxLen {
		return nil, fmt.Errorf("prompt must be at most %d characters", s.config.PromptMaxLen)
	}

	gen := &models.StoryGeneration{
		ID:         uuid.New(),
		UserPrompt: prompt,
		Status:     models.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := s.storyRepo.Create(ctx, gen); err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	if audioUpload != nil {
		audioUpload.StoryGenerationID = &gen.ID
		s.persistAudio(ctx, audioUpload)
	}

	s.dispatch(ctx, gen.ID)

	log.Info().
		Str("generation_id", gen.ID.String()).
		Bool("from_audio", audioUpload != nil).
		Msg("Generation created")

	return &models.CreateStoryResponse{
		GenerationID: gen.ID,
		Status:       gen.Status,
		CreatedAt:    gen.CreatedAt,
	}, nil
}

// promptFromAudio validates the recording and transcribes it. Transcription
// failures fall back to a stock prompt rather than rejecting the request.
func (s *StoryService) promptFromAudio(ctx context.Context, audio *AudioInput) (string, *models.AudioUpload, error) {
	if audio.SizeBytes > s.config.MaxAudioSize {
		return "", nil, fmt.Errorf("audio exceeds maximum of %d bytes", s.config.MaxAudioSize)
	}
	if !allowedAudioTypes[normalizeMimeType(audio.MimeType)] {
		return "", nil, fmt.Errorf("unsupported audio type: %s", audio.MimeType)
	}

	filename := filepath.Base(audio.Filename)
	if filename == "" || filename == "." {
		filename = "recording"
	}

	upload := &models.AudioUpload{
		ID:                  uuid.New(),
		Filename:            filename,
		MimeType:            audio.MimeType,
		SizeBytes:           audio.SizeBytes,
		TranscriptionStatus: models.StatusPending,
		CreatedAt:           time.Now(),
	}

	prompt := stockTranscription
	upload.TranscriptionStatus = models.StatusFailed
	if s.transcriber != nil {
		text, err := s.transcriber.TranscribeAudio(ctx, audio.Data, audio.MimeType)
		if err != nil {
			log.Warn().Err(err).Msg("Transcription failed, using stock prompt")
		} else if text = strings.TrimSpace(text); text != "" {
			prompt = text
			upload.TranscriptionStatus = models.StatusCompleted
		}
	} else {
		log.Info().Msg("No transcriber configured, using stock prompt")
	}
	upload.TranscribedText = &prompt

	return prompt, upload, nil
}

// persistAudio writes the upload as a pending row first and then records the
// transcription outcome, so the row moves through the same statuses the
// transcription itself did. Failures are logged; the generation proceeds.
func (s *StoryService) persistAudio(ctx context.Context, upload *models.AudioUpload) {
	row := *upload
	row.TranscribedText = nil
	row.TranscriptionStatus = models.StatusPending
	if err := s.audioRepo.Create(ctx, &row); err != nil {
		log.Warn().Err(err).Str("upload_id", upload.ID.String()).Msg("Failed to record audio upload")
		return
	}
	if err := s.audioRepo.UpdateTranscription(ctx, upload.ID, upload.TranscribedText, upload.TranscriptionStatus); err != nil {
		log.Warn().Err(err).Str("upload_id", upload.ID.String()).Msg("Failed to store transcription outcome")
	}
}

// dispatch hands the generation off for processing, through Kafka when a
// producer is configured and otherwise in-process in the background.
func (s *StoryService) dispatch(ctx context.Context, id uuid.UUID) {
	if s.publisher != nil {
		traceID := uuid.New().String()
		if err := s.publisher.PublishGeneration(ctx, id, traceID); err != nil {
			log.Error().Err(err).Str("generation_id", id.String()).Msg("Failed to publish generation to Kafka")
		}
		return
	}

	if s.processor == nil {
		log.Error().Str("generation_id", id.String()).Msg("No dispatch path configured, generation will stay pending")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := s.processor.Process(ctx, id); err != nil {
			log.Error().Err(err).Str("generation_id", id.String()).Msg("In-process generation failed")
		}
	}()
}

// GetGeneration retrieves a generation record by ID.
func (s *StoryService) GetGeneration(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error) {
	gen, err := s.storyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("generation not found: %w", err)
	}
	return gen, nil
}

// GetStatus returns the polling status of a generation. Content fields are
// only populated once the generation has completed.
func (s *StoryService) GetStatus(ctx context.Context, id uuid.UUID) (*models.StatusResponse, error) {
	gen, err := s.storyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("generation not found: %w", err)
	}
	return models.StatusFrom(gen), nil
}

// ListRecent returns the newest generations regardless of status.
func (s *StoryService) ListRecent(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	return s.storyRepo.ListRecent(ctx, limit)
}

// ListCompleted returns the newest completed generations for the gallery.
func (s *StoryService) ListCompleted(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	return s.storyRepo.ListCompleted(ctx, limit)
}

func normalizeMimeType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
