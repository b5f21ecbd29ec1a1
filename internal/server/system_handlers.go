package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/stockdash/stockdash/internal/database"
	"github.com/stockdash/stockdash/internal/di"
	"github.com/stockdash/stockdash/internal/scheduler"
)

// SystemStatusResponse represents system status
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Uptime        string  `json:"uptime"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
	CachedSeries  int     `json:"cached_series"`
	StoredSeries  int     `json:"stored_series"`
	Offline       bool    `json:"offline"`
	UpstreamState string  `json:"upstream_state"`
	Watchlist     int     `json:"watchlist"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Name        string          `json:"name"`
	Path        string          `json:"path"`
	SizeMB      float64         `json:"size_mb"`
	Stats       *database.Stats `json:"stats,omitempty"`
	DataDirMB   float64         `json:"data_dir_mb"`
	LastChecked string          `json:"last_checked"`
}

// SystemHandlers serves status and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	container *di.Container
	jobs      map[string]scheduler.Job
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, dataDir string, container *di.Container, jobs map[string]scheduler.Job) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		container: container,
		jobs:      jobs,
		startedAt: time.Now(),
	}
}

// HandleSystemStatus returns system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       Version,
		Uptime:        time.Since(h.startedAt).Round(time.Second).String(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		CachedSeries:  h.container.MarketDataService.CacheSize(),
		Offline:       h.container.MarketDataService.Offline(),
		UpstreamState: h.container.YahooClient.BreakerState(),
		Watchlist:     len(h.container.MarketDataService.Watchlist()),
		RiskFreeRate:  h.container.Optimizer.RiskFreeRate(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	stored, err := h.container.HistoryRepo.CountSeries(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to count stored series")
		response.Status = "degraded"
	}
	response.StoredSeries = stored

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDatabaseStats returns history database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	db := h.container.HistoryDB

	response := DatabaseStatsResponse{
		Name:        db.Name(),
		Path:        db.Path(),
		DataDirMB:   h.getDirSize(h.dataDir),
		LastChecked: time.Now().Format(time.RFC3339),
	}
	if info, err := os.Stat(db.Path()); err == nil {
		response.SizeMB = float64(info.Size()) / 1024 / 1024
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := db.GetStats(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get database stats")
	}
	response.Stats = stats

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListJobs lists the jobs that can be triggered manually
func (h *SystemHandlers) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleTriggerJob runs a job in the background
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"status": "error", "message": "unknown job " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")
	go func() {
		_ = h.container.Scheduler.RunNow(job)
	}()

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "success", "message": name + " triggered"})
}

// getDirSize calculates total size of a directory in MB
func (h *SystemHandlers) getDirSize(dirPath string) float64 {
	var totalSize int64

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if !info.IsDir() {
			totalSize += info.Size()
		}
		return nil
	})

	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats calculates CPU and RAM usage percentages over a short
// 100ms sample
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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
