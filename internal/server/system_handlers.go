package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kpapad/rangekeeper/internal/database"
)

// SystemHandlers serves process and database health endpoints
type SystemHandlers struct {
	ledgerDB  *database.DB
	historyDB *database.DB
	log       zerolog.Logger
}

// NewSystemHandlers creates new system handlers
func NewSystemHandlers(ledgerDB, historyDB *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		ledgerDB:  ledgerDB,
		historyDB: historyDB,
		log:       log.With().Str("handler", "system").Logger(),
	}
}

// HandleHealth reports overall process health including database integrity.
// Any failing database marks the response degraded with a 503.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	databases := map[string]string{}
	healthy := true

	for _, db := range []*database.DB{h.ledgerDB, h.historyDB} {
		if err := db.QuickCheck(ctx); err != nil {
			databases[db.Name()] = err.Error()
			healthy = false
			continue
		}
		databases[db.Name()] = "ok"
	}

	cpuPct, memPct := h.systemStats()

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, map[string]interface{}{
		"status":         status,
		"databases":      databases,
		"cpu_percent":    cpuPct,
		"memory_percent": memPct,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleDatabaseStats reports size and page statistics per database
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]interface{}{}
	for _, db := range []*database.DB{h.ledgerDB, h.historyDB} {
		s, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			stats[db.Name()] = map[string]string{"error": err.Error()}
			continue
		}
		stats[db.Name()] = s
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// systemStats returns CPU and memory usage percentages. A short sampling
// interval keeps the health endpoint responsive.
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

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
