package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/Chiga36/Story-Generator/internal/services"
	"github.com/Chiga36/Story-Generator/internal/storage"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

var errInvalidBody = errors.New("invalid request body")

// storyService is the subset of StoryService used by handlers.
type storyService interface {
	CreateStory(ctx context.Context, prompt string, audio *services.AudioInput) (*models.CreateStoryResponse, error)
	GetGeneration(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*models.StatusResponse, error)
	ListRecent(ctx context.Context, limit int) ([]*models.StoryGeneration, error)
	ListCompleted(ctx context.Context, limit int) ([]*models.StoryGeneration, error)
}

// objectStore is the subset of S3 operations used by handlers.
type objectStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
	GeneratePresignedURL(key string, expiration time.Duration) (string, error)
}

// Handler contains all HTTP handlers
type Handler struct {
	storyService storyService
	storage      objectStore // nil when no S3 bucket is configured
	config       *config.Config
}

// NewHandler creates a new handler. store may be nil when no S3 bucket is configured.
func NewHandler(storyService storyService, store *storage.Client, cfg *config.Config) *Handler {
	h := &Handler{
		storyService: storyService,
		config:       cfg,
	}
	if store != nil {
		h.storage = store
	}
	return h
}

// RegisterRoutes attaches all routes to the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Index).Methods(http.MethodGet)
	r.HandleFunc("/generate", h.CreateStory).Methods(http.MethodPost)
	r.HandleFunc("/result/{id}", h.Result).Methods(http.MethodGet)
	r.HandleFunc("/gallery", h.Gallery).Methods(http.MethodGet)
	r.HandleFunc("/story/{id}", h.StoryDetail).Methods(http.MethodGet)
	r.HandleFunc("/story/{id}/pdf", h.ExportPDF).Methods(http.MethodGet)
	r.HandleFunc("/api/status/{id}", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/ws/status/{id}", h.StatusWS).Methods(http.MethodGet)
	r.HandleFunc("/api/story/{id}", h.Story).Methods(http.MethodGet)
	r.HandleFunc("/media/images/{filename}", h.ServeImage).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
