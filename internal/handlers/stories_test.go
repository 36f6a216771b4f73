package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Chiga36/Story-Generator/internal/config"
	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/Chiga36/Story-Generator/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// fakeStoryService is a minimal storyService for tests.
type fakeStoryService struct {
	createStory func(context.Context, string, *services.AudioInput) (*models.CreateStoryResponse, error)
	getGen      func(context.Context, uuid.UUID) (*models.StoryGeneration, error)
	getStatus   func(context.Context, uuid.UUID) (*models.StatusResponse, error)
}

func (f *fakeStoryService) CreateStory(ctx context.Context, prompt string, audio *services.AudioInput) (*models.CreateStoryResponse, error) {
	if f.createStory != nil {
		return f.createStory(ctx, prompt, audio)
	}
	return &models.CreateStoryResponse{GenerationID: uuid.New(), Status: models.StatusPending, CreatedAt: time.Now()}, nil
}

func (f *fakeStoryService) GetGeneration(ctx context.Context, id uuid.UUID) (*models.StoryGeneration, error) {
	if f.getGen != nil {
		return f.getGen(ctx, id)
	}
	return nil, errors.New("not found")
}

func (f *fakeStoryService) GetStatus(ctx context.Context, id uuid.UUID) (*models.StatusResponse, error) {
	if f.getStatus != nil {
		return f.getStatus(ctx, id)
	}
	return nil, errors.New("not found")
}

func (f *fakeStoryService) ListRecent(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	return nil, nil
}

func (f *fakeStoryService) ListCompleted(ctx context.Context, limit int) ([]*models.StoryGeneration, error) {
	return nil, nil
}

// fakeObjectStore is a minimal objectStore for tests.
type fakeObjectStore struct {
	uploads   map[string][]byte
	objects   map[string][]byte
	publicURL string
}

func (f *fakeObjectStore) Upload(ctx context.Context, key string, data io.Reader, contentType string, contentLength int64) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.uploads == nil {
		f.uploads = map[string][]byte{}
	}
	f.uploads[key] = body
	return nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	if f.publicURL == "" {
		return ""
	}
	return f.publicURL + "/" + key
}

func (f *fakeObjectStore) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	return "https://bucket.signed.example/" + key + "?sig=abc", nil
}

func newTestRouter(svc storyService, cfg *config.Config) *mux.Router {
	if cfg == nil {
		cfg = &config.Config{MaxAudioSize: 10 << 20, ImagesDir: "media/generated_images"}
	}
	h := NewHandler(svc, nil, cfg)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestCreateStory_JSON(t *testing.T) {
	var gotPrompt string
	svc := &fakeStoryService{
		createStory: func(ctx context.Context, prompt string, audio *services.AudioInput) (*models.CreateStoryResponse, error) {
			gotPrompt = prompt
			return &models.CreateStoryResponse{GenerationID: uuid.New(), Status: models.StatusPending}, nil
		},
	}
	r := newTestRouter(svc, nil)

	body := bytes.NewBufferString(`{"prompt":"a knight in a haunted castle"}`)
	req := httptest.NewRequest(http.MethodPost, "/generate", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotPrompt != "a knight in a haunted castle" {
		t.Errorf("prompt = %q", gotPrompt)
	}
	var resp models.CreateStoryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.GenerationID == uuid.Nil {
		t.Error("empty generation id")
	}
}

func TestCreateStory_InvalidBody(t *testing.T) {
	r := newTestRouter(&fakeStoryService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateStory_ValidationError(t *testing.T) {
	svc := &fakeStoryService{
		createStory: func(ctx context.Context, prompt string, audio *services.AudioInput) (*models.CreateStoryResponse, error) {
			return nil, errors.New("prompt must be at least 10 characters")
		},
	}
	r := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(`{"prompt":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "at least 10 characters") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestCreateStory_MultipartWithAudio(t *testing.T) {
	var gotAudio *services.AudioInput
	svc := &fakeStoryService{
		createStory: func(ctx context.Context, prompt string, audio *services.AudioInput) (*models.CreateStoryResponse, error) {
			gotAudio = audio
			return &models.CreateStoryResponse{GenerationID: uuid.New(), Status: models.StatusPending}, nil
		},
	}
	r := newTestRouter(svc, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("prompt", "")
	fw, err := mw.CreateFormFile("audio", "recording.webm")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("fake audio bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotAudio == nil {
		t.Fatal("audio not passed to service")
	}
	if gotAudio.Filename != "recording.webm" {
		t.Errorf("filename = %q", gotAudio.Filename)
	}
	if gotAudio.SizeBytes != int64(len("fake audio bytes")) {
		t.Errorf("size = %d", gotAudio.SizeBytes)
	}
}

func TestStatus(t *testing.T) {
	id := uuid.New()
	svc := &fakeStoryService{
		getStatus: func(ctx context.Context, gotID uuid.UUID) (*models.StatusResponse, error) {
			if gotID != id {
				return nil, errors.New("not found")
			}
			return &models.StatusResponse{GenerationID: id, Status: models.StatusProcessing}, nil
		},
	}
	r := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp models.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != models.StatusProcessing {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestStatus_InvalidID(t *testing.T) {
	r := newTestRouter(&fakeStoryService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestStatus_NotFound(t *testing.T) {
	r := newTestRouter(&fakeStoryService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/status/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStoryDetail(t *testing.T) {
	id := uuid.New()
	story := "Once upon a time there was a knight."
	svc := &fakeStoryService{
		getGen: func(ctx context.Context, gotID uuid.UUID) (*models.StoryGeneration, error) {
			return &models.StoryGeneration{
				ID:         id,
				UserPrompt: "a knight",
				Story:      &story,
				Status:     models.StatusCompleted,
				CreatedAt:  time.Now(),
			}, nil
		},
	}
	r := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/story/"+id.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), story) {
		t.Error("story text missing from detail page")
	}
}

func TestServeImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "character_abc123.png"), []byte("png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{MaxAudioSize: 10 << 20, ImagesDir: dir}
	r := newTestRouter(&fakeStoryService{}, cfg)

	req := httptest.NewRequest(http.MethodGet, "/media/images/character_abc123.png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "png bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExportPDF_NotCompleted(t *testing.T) {
	id := uuid.New()
	svc := &fakeStoryService{
		getGen: func(ctx context.Context, gotID uuid.UUID) (*models.StoryGeneration, error) {
			return &models.StoryGeneration{ID: id, UserPrompt: "a knight", Status: models.StatusProcessing}, nil
		},
	}
	r := newTestRouter(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/story/"+id.String()+"/pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
}

func TestExportPDF(t *testing.T) {
	id := uuid.New()
	story := "Once upon a time."
	svc := &fakeStoryService{
		getGen: func(ctx context.Context, gotID uuid.UUID) (*models.StoryGeneration, error) {
			return &models.StoryGeneration{
				ID:         id,
				UserPrompt: "a knight",
				Story:      &story,
				Status:     models.StatusCompleted,
			}, nil
		},
	}
	cfg := &config.Config{MaxAudioSize: 10 << 20, ImagesDir: t.TempDir()}
	r := newTestRouter(svc, cfg)

	req := httptest.NewRequest(http.MethodGet, "/story/"+id.String()+"/pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("response is not a PDF")
	}
}

func newStorageRouter(svc storyService, store objectStore, cfg *config.Config) *mux.Router {
	h := NewHandler(svc, nil, cfg)
	h.storage = store
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func completedStoryService(id uuid.UUID) *fakeStoryService {
	story := "Once upon a time."
	return &fakeStoryService{
		getGen: func(ctx context.Context, gotID uuid.UUID) (*models.StoryGeneration, error) {
			return &models.StoryGeneration{
				ID:         id,
				UserPrompt: "a knight",
				Story:      &story,
				Status:     models.StatusCompleted,
			}, nil
		},
	}
}

func TestExportPDF_ArchiveURL(t *testing.T) {
	id := uuid.New()
	store := &fakeObjectStore{publicURL: "https://cdn.example"}
	cfg := &config.Config{MaxAudioSize: 10 << 20, ImagesDir: t.TempDir()}
	r := newStorageRouter(completedStoryService(id), store, cfg)

	req := httptest.NewRequest(http.MethodGet, "/story/"+id.String()+"/pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	key := "exports/" + id.String() + ".pdf"
	archived, ok := store.uploads[key]
	if !ok {
		t.Fatalf("export not archived, uploads = %v", store.uploads)
	}
	if !bytes.HasPrefix(archived, []byte("%PDF")) {
		t.Error("archived object is not a PDF")
	}
	if got := rec.Header().Get("Content-Location"); got != "https://cdn.example/"+key {
		t.Errorf("Content-Location = %q", got)
	}
}

func TestExportPDF_PresignedURLFallback(t *testing.T) {
	id := uuid.New()
	store := &fakeObjectStore{}
	cfg := &config.Config{MaxAudioSize: 10 << 20, ImagesDir: t.TempDir()}
	r := newStorageRouter(completedStoryService(id), store, cfg)

	req := httptest.NewRequest(http.MethodGet, "/story/"+id.String()+"/pdf", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	got := rec.Header().Get("Content-Location")
	if !strings.HasPrefix(got, "https://bucket.signed.example/exports/") {
		t.Errorf("Content-Location = %q, want a presigned URL", got)
	}
}

func TestServeImage_StorageFallback(t *testing.T) {
	store := &fakeObjectStore{objects: map[string][]byte{
		"images/character_remote.png": []byte("remote png bytes"),
	}}
	cfg := &config.Config{MaxAudioSize: 10 << 20, ImagesDir: t.TempDir()}
	r := newStorageRouter(&fakeStoryService{}, store, cfg)

	req := httptest.NewRequest(http.MethodGet, "/media/images/character_remote.png", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "remote png bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}
