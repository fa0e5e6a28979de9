package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/structura/internal/database"
	"github.com/aristath/structura/internal/modules/products"
	"github.com/aristath/structura/internal/scheduler"
)

// ProductLister counts stored drafts for the status page
type ProductLister interface {
	List(ctx context.Context) ([]products.Summary, error)
}

// JobRunner exposes the background scheduler
type JobRunner interface {
	Status() []scheduler.JobStatus
	RunNow(name string) error
}

// SystemHandlers serves host, database and job status
type SystemHandlers struct {
	db        *database.DB
	products  ProductLister
	jobs      JobRunner
	startedAt time.Time
	hostStats func() (float64, float64)
	log       zerolog.Logger
}

// NewSystemHandlers creates system handlers. jobs may be nil when no scheduler runs.
func NewSystemHandlers(db *database.DB, products ProductLister, jobs JobRunner, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		db:        db,
		products:  products,
		jobs:      jobs,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string                `json:"status"` // "healthy" or "degraded"
	UptimeSeconds int64                 `json:"uptime_seconds"`
	CPUPercent    float64               `json:"cpu_percent"`
	RAMPercent    float64               `json:"ram_percent"`
	ProductCount  int                   `json:"product_count"`
	Database      DatabaseStatus        `json:"database"`
	Jobs          []scheduler.JobStatus `json:"jobs"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// DatabaseStatus reports the products database
type DatabaseStatus struct {
	Name    string          `json:"name"`
	Healthy bool            `json:"healthy"`
	Stats   *database.Stats `json:"stats,omitempty"`
}

// HandleSystemStatus returns host, database and scheduler status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	response := h.snapshot(r.Context())
	if len(response.Warnings) > 0 {
		h.log.Warn().Str("warnings", strings.Join(response.Warnings, "; ")).Msg("System status collected with warnings")
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus lists scheduled jobs
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.jobs != nil {
		jobs = h.jobs.Status()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_jobs": len(jobs),
		"jobs":       jobs,
	})
}

// HandleRunJob runs a scheduled job immediately
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.jobs == nil {
		http.Error(w, "Scheduler not running", http.StatusServiceUnavailable)
		return
	}
	if !h.known(name) {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	if err := h.jobs.RunNow(name); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"job":     name,
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status": "success",
		"job":    name,
	})
}

func (h *SystemHandlers) known(name string) bool {
	for _, job := range h.jobs.Status() {
		if job.Name == name {
			return true
		}
	}
	return false
}

func (h *SystemHandlers) snapshot(ctx context.Context) SystemStatusResponse {
	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Jobs:          []scheduler.JobStatus{},
		Database:      DatabaseStatus{Name: h.db.Name(), Healthy: true},
	}
	response.CPUPercent, response.RAMPercent = h.hostStats()

	if err := h.db.HealthCheck(ctx); err != nil {
		response.Status = "degraded"
		response.Database.Healthy = false
		response.Warnings = append(response.Warnings, "database: "+err.Error())
	}
	if stats, err := h.db.GetStats(); err != nil {
		response.Warnings = append(response.Warnings, "database stats: "+err.Error())
	} else {
		response.Database.Stats = stats
	}

	if summaries, err := h.products.List(ctx); err != nil {
		response.Status = "degraded"
		response.Warnings = append(response.Warnings, "products: "+err.Error())
	} else {
		response.ProductCount = len(summaries)
	}

	if h.jobs != nil {
		response.Jobs = h.jobs.Status()
		for _, job := range response.Jobs {
			if job.LastError != "" {
				response.Warnings = append(response.Warnings, "job "+job.Name+": "+job.LastError)
			}
		}
	}

	return response
}

// getSystemStats returns CPU and RAM usage percentages
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	// 100ms sample keeps the endpoint responsive
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
