package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
)

// StoryRepository handles story generation database operations
type StoryRepository struct {
	db *DB
}

// NewStoryRepository creates a new StoryRepository
func NewStoryRepository(db *DB) *StoryRepository {
	return &StoryRepository{db: db}
}

// Create creates a new story generation record
func (r *StoryRepository) Create(ctx context.Context, gen *models.StoryGeneration) error {
	query := `
		INSERT INTO story_generations (
			id, user_prompt, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		gen.ID, gen.UserPrompt, gen.Status, gen.CreatedAt, gen.UpdatedAt,
	)

	return err
}

const storyColumns = `
	id, user_prompt, story, character_description,
	character_image, background_image, combined_image,
	status, error_message, created_at, updated_at
`

func scanStory(row interface{ Scan(...any) error }) (*models.StoryGeneration, error) {
	gen := &models.StoryGeneration{}
	err := row.Scan(
		&gen.ID, &gen.UserPrompt, &gen.Story, &gen.CharacterDescription,
		&gen.CharacterImage, &gen.BackgroundImage, &gen.CombinedImage,
		&gen.Status, &gen.ErrorMessage, &gen.CreatedAt, &gen.UpdatedAt,
	)
	return gen, err
}

// GetByID retrieves a story generation by ID
func (r *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error) {
	query := `SELECT ` + storyColumns + ` FROM story_generations WHERE id = $1`

	gen, err := scanStory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("story generation not found")
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// MarkProcessing transitions a pending generation to processing.
func (r *StoryRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE story_generations
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusProcessing, time.Now(), id)
	return err
}

// SaveResult attaches the generated artifacts and marks the record completed.
// Empty image filenames are stored as NULL. This is a single write; callers
// must not expect intermediate artifact visibility before it.
func (r *StoryRepository) SaveResult(ctx context.Context, id uuid.UUID, story, characterDescription, characterImage, backgroundImage, combinedImage string) error {
	query := `
		UPDATE story_generations
		SET story = $1, character_description = $2,
			character_image = $3, background_image = $4, combined_image = $5,
			status = $6, error_message = NULL, updated_at = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		story, characterDescription,
		nullIfEmpty(characterImage), nullIfEmpty(backgroundImage), nullIfEmpty(combinedImage),
		models.StatusCompleted, time.Now(), id,
	)
	return err
}

// MarkFailed marks the record failed with the captured error message.
func (r *StoryRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE story_generations
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.StatusFailed, errorMessage, time.Now(), id)
	return err
}

// ListRecent retrieves the most recent generations regardless of status
func (r *StoryRepository) ListRecent(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM story_generations
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// ListCompleted retrieves completed generations, most recent first
func (r *StoryRepository) ListCompleted(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM story_generations
		WHERE status = '` + models.StatusCompleted + `'
		ORDER BY created_at DESC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

func (r *StoryRepository) list(ctx context.Context, query string, args ...any) ([]*models.StoryGeneration, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []*models.StoryGeneration
	for rows.Next() {
		gen, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}

	return gens, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
