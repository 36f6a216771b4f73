package pipeline

import (
	"context"
	"fmt"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RecordStore is the persistence surface the processor needs. It matches
// database.StoryRepository.
type RecordStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	SaveResult(ctx context.Context, id uuid.UUID, story, characterDescription, characterImage, backgroundImage, combinedImage string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// Processor drives the status machine for one generation record: it loads the
// record, marks it processing, runs the orchestrator, and writes exactly one
// terminal state. Records already in a terminal state are skipped, so a
// redelivered message is a no-op.
type Processor struct {
	store        RecordStore
	orchestrator *Orchestrator
}

func NewProcessor(store RecordStore, orchestrator *Orchestrator) *Processor {
	return &Processor{store: store, orchestrator: orchestrator}
}

// Process handles one generation by record ID.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) error {
	gen, err := p.store.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load generation %s: %w", id, err)
	}
	if models.IsTerminal(gen.Status) {
		log.Info().Str("generation_id", id.String()).Str("status", gen.Status).Msg("Generation already finished, skipping")
		return nil
	}

	if err := p.store.MarkProcessing(ctx, id); err != nil {
		return fmt.Errorf("mark processing %s: %w", id, err)
	}

	result := p.orchestrator.Run(ctx, gen.UserPrompt)
	if !result.Success {
		if err := p.store.MarkFailed(ctx, id, result.ErrorMessage); err != nil {
			return fmt.Errorf("mark failed %s: %w", id, err)
		}
		log.Warn().Str("generation_id", id.String()).Str("error", result.ErrorMessage).Msg("Generation failed")
		return nil
	}

	if err := p.store.SaveResult(ctx, id, result.Story, result.CharacterDescription, result.CharacterImage, result.BackgroundImage, result.CombinedImage); err != nil {
		return fmt.Errorf("save result %s: %w", id, err)
	}
	log.Info().Str("generation_id", id.String()).Msg("Generation completed")
	return nil
}
