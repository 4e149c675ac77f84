package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/eacar/amplify/internal/database"
	"github.com/eacar/amplify/internal/runner"
)

// SystemHandlers exposes process and host status endpoints.
type SystemHandlers struct {
	controller *runner.Controller
	db         *database.DB
	startedAt  time.Time
	log        zerolog.Logger
}

// NewSystemHandlers creates system status handlers.
func NewSystemHandlers(controller *runner.Controller, db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		controller: controller,
		db:         db,
		startedAt:  time.Now(),
		log:        log.With().Str("handler", "system").Logger(),
	}
}

// StatusResponse is the body for GET /api/system/status.
type StatusResponse struct {
	IsRunning     bool    `json:"is_running"`
	UptimeSeconds int64   `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	resp := StatusResponse{
		IsRunning:     h.controller.Running(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPct,
		MemoryPercent: memPct,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read database stats")
		http.Error(w, "Failed to read database stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"size_bytes":     stats.SizeBytes,
		"wal_size_bytes": stats.WALSizeBytes,
		"page_count":     stats.PageCount,
		"page_size":      stats.PageSize,
	})
}

// systemStats samples CPU and RAM usage. The short CPU interval keeps
// the endpoint responsive for dashboard polling.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
