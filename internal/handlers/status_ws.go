package handlers

import (
	"net/http"
	"time"

	"github.com/Chiga36/Story-Generator/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	statusWSInterval = 2 * time.Second
	statusWSDeadline = 15 * time.Minute
)

var statusWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StatusWS handles GET /ws/status/{id}. It pushes the generation status
// to the client until the generation reaches a terminal state, then closes.
func (h *Handler) StatusWS(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid generation id", http.StatusBadRequest)
		return
	}

	conn, err := statusWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("status ws upgrade failed")
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(statusWSDeadline)
	ticker := time.NewTicker(statusWSInterval)
	defer ticker.Stop()

	for {
		status, err := h.storyService.GetStatus(r.Context(), id)
		if err != nil {
			log.Debug().Err(err).Str("generation_id", id.String()).Msg("status ws lookup failed")
			return
		}

		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(status); err != nil {
			log.Debug().Err(err).Msg("status ws write failed")
			return
		}

		if models.IsTerminal(status.Status) {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
		if time.Now().After(deadline) {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
