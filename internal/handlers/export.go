package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
)

// ExportPDF handles GET /story/{id}/pdf. It renders the completed story as a
// PDF and streams it to the client. When an S3 bucket is configured the export
// is also archived there and the archive URL is returned in Content-Location.
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
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
	if gen.Status != models.StatusCompleted {
		http.Error(w, "story is not ready for export", http.StatusConflict)
		return
	}

	data, err := h.buildPDF(gen)
	if err != nil {
		log.Error().Err(err).Str("generation_id", id.String()).Msg("Failed to build PDF export")
		http.Error(w, "failed to build export", http.StatusInternalServerError)
		return
	}

	if h.config.ExportsDir != "" {
		if err := os.MkdirAll(h.config.ExportsDir, 0o755); err == nil {
			name := filepath.Join(h.config.ExportsDir, id.String()+".pdf")
			if err := os.WriteFile(name, data, 0o644); err != nil {
				log.Warn().Err(err).Str("path", name).Msg("Failed to keep local export copy")
			}
		}
	}

	if h.storage != nil {
		key := fmt.Sprintf("exports/%s.pdf", id.String())
		if err := h.storage.Upload(r.Context(), key, bytes.NewReader(data), "application/pdf", int64(len(data))); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to archive export to S3")
		} else if url := h.exportURL(key); url != "" {
			w.Header().Set("Content-Location", url)
		}
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="story-%s.pdf"`, id.String()[:8]))
	w.Write(data)
}

// exportURL resolves an archived export key to a URL clients can fetch later,
// preferring the public bucket URL and falling back to a presigned one.
func (h *Handler) exportURL(key string) string {
	if url := h.storage.PublicURL(key); url != "" {
		return url
	}
	url, err := h.storage.GeneratePresignedURL(key, 24*time.Hour)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to presign export URL")
		return ""
	}
	return url
}

func (h *Handler) buildPDF(gen *models.StoryGeneration) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Story Export", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, tr(gen.UserPrompt), "", "L", false)
	pdf.Ln(4)

	// Scene image first when present, otherwise character and background side by side.
	if img := h.imagePath(gen.CombinedImage); img != "" {
		pdf.ImageOptions(img, 15, pdf.GetY(), 180, 0, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.Ln(6)
	} else {
		y := pdf.GetY()
		if img := h.imagePath(gen.CharacterImage); img != "" {
			pdf.ImageOptions(img, 15, y, 85, 0, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		if img := h.imagePath(gen.BackgroundImage); img != "" {
			pdf.ImageOptions(img, 110, y, 85, 0, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.SetY(y + 115)
	}

	if gen.Story != nil {
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, tr(*gen.Story), "", "L", false)
		pdf.Ln(4)
	}

	if gen.CharacterDescription != nil {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "The character")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, tr(*gen.CharacterDescription), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// imagePath resolves a stored filename to a readable path, empty when the
// image is absent or unreadable.
func (h *Handler) imagePath(filename *string) string {
	if filename == nil || *filename == "" {
		return ""
	}
	path := filepath.Join(h.config.ImagesDir, filepath.Base(*filename))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
