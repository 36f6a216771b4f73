package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/Chiga36/Story-Generator/internal/services"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const defaultListLimit = 24

// Index handles GET / with the prompt form and recent generations.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	recent, err := h.storyService.ListRecent(r.Context(), defaultListLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list recent generations")
		recent = nil
	}

	renderPage(w, "index", map[string]interface{}{
		"Recent": recent,
	})
}

// CreateStory handles POST /generate. Accepts a multipart form with a prompt
// field and optionally an audio recording, or a JSON body with a prompt.
func (h *Handler) CreateStory(w http.ResponseWriter, r *http.Request) {
	prompt, audio, err := h.parseCreateRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.storyService.CreateStory(r.Context(), prompt, audio)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create generation")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) parseCreateRequest(r *http.Request) (string, *services.AudioInput, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req models.CreateStoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return "", nil, errInvalidBody
		}
		return req.Prompt, nil, nil
	}

	if err := r.ParseMultipartForm(h.config.MaxAudioSize); err != nil {
		return "", nil, errInvalidBody
	}
	prompt := r.FormValue("prompt")

	file, header, err := r.FormFile("audio")
	if err != nil {
		// No recording attached; the typed prompt must carry the request.
		return prompt, nil, nil
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.config.MaxAudioSize+1))
	if err != nil {
		return "", nil, errInvalidBody
	}

	audio := &services.AudioInput{
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		SizeBytes: int64(len(data)),
		Data:      data,
	}
	return prompt, audio, nil
}

// Result handles GET /result/{id}, the page that polls for progress.
func (h *Handler) Result(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	gen, err := h.storyService.GetGeneration(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	renderPage(w, "result", map[string]interface{}{
		"Generation": gen,
	})
}

// Gallery handles GET /gallery with completed generations.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	generations, err := h.storyService.ListCompleted(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list completed generations")
		http.Error(w, "failed to load gallery", http.StatusInternalServerError)
		return
	}

	renderPage(w, "gallery", map[string]interface{}{
		"Generations": generations,
	})
}

// StoryDetail handles GET /story/{id}, the full story page.
func (h *Handler) StoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.NotFound(w, r)
		return
	}

	gen, err := h.storyService.GetGeneration(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	renderPage(w, "detail", map[string]interface{}{
		"Generation": gen,
	})
}

// Status handles GET /api/status/{id}, the polling endpoint.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid generation id")
		return
	}

	status, err := h.storyService.GetStatus(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "generation not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Story handles GET /api/story/{id}, the full record as JSON.
func (h *Handler) Story(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid generation id")
		return
	}

	gen, err := h.storyService.GetGeneration(r.Context(), id)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "generation not found")
		return
	}

	writeJSON(w, http.StatusOK, gen)
}

// ServeImage handles GET /media/images/{filename}. Filenames are generated
// server-side; the Base call keeps path traversal out regardless. When the
// file is not on local disk and an S3 mirror is configured, it is served
// from there instead (the worker may run on another box).
func (h *Handler) ServeImage(w http.ResponseWriter, r *http.Request) {
	filename := filepath.Base(mux.Vars(r)["filename"])
	if filename == "." || filename == "/" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.config.ImagesDir, filename)
	if _, err := os.Stat(path); err == nil || h.storage == nil {
		http.ServeFile(w, r, path)
		return
	}

	body, err := h.storage.GetObject(r.Context(), "images/"+filename)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", "image/png")
	io.Copy(w, body)
}
