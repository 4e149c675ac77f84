package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/logbus"
)

// streamInterval is the full-buffer push cadence for the log stream.
// Consumers replace their view on each push rather than appending.
const streamInterval = time.Second

// LogHandlers exposes the run log buffer over HTTP.
type LogHandlers struct {
	bus *logbus.Bus
	log zerolog.Logger
}

// NewLogHandlers creates log endpoints over the given bus.
func NewLogHandlers(bus *logbus.Bus, log zerolog.Logger) *LogHandlers {
	return &LogHandlers{
		bus: bus,
		log: log.With().Str("handler", "logs").Logger(),
	}
}

// HandleSnapshot handles GET /api/logs
func (h *LogHandlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.bus.Snapshot())
}

// HandleClear handles DELETE /api/logs
func (h *LogHandlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.bus.Clear()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// HandleStream handles GET /api/logs/stream (SSE). Pushes the full
// buffer on a fixed interval until the client disconnects.
func (h *LogHandlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// The server's write timeout would sever the stream; lift the
	// deadline for this long-lived response only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug().Err(err).Msg("Could not clear write deadline for log stream")
	}

	h.log.Debug().Msg("Client connected to log stream")

	if !h.push(w, flusher) {
		return
	}

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	done := r.Context().Done()
	for {
		select {
		case <-done:
			h.log.Debug().Msg("Client disconnected from log stream")
			return
		case <-ticker.C:
			if !h.push(w, flusher) {
				return
			}
		}
	}
}

// push writes one full-buffer SSE frame. Returns false when the
// connection is no longer writable.
func (h *LogHandlers) push(w http.ResponseWriter, flusher http.Flusher) bool {
	data, err := json.Marshal(h.bus.Snapshot())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode log snapshot")
		return false
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}
