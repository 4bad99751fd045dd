package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/monitor"
)

// MonitorAPI is the slice of the monitor the HTTP surface needs.
type MonitorAPI interface {
	Start(ctx context.Context) error
	Stop() error
	Running() bool
	Latest() *monitor.Snapshot
	CollectNow(ctx context.Context) (*monitor.Snapshot, error)
}

// MonitorHandler exposes the monitor's snapshot and lifecycle over HTTP.
// runCtx is the application lifetime context; a monitor started over HTTP
// must outlive the request that started it.
type MonitorHandler struct {
	mon    MonitorAPI
	runCtx context.Context
	logger *slog.Logger
}

// NewMonitorHandler creates a MonitorHandler.
func NewMonitorHandler(mon MonitorAPI, runCtx context.Context, logger *slog.Logger) *MonitorHandler {
	return &MonitorHandler{
		mon:    mon,
		runCtx: runCtx,
		logger: logHandler(logger, "monitor"),
	}
}

// GetOpportunities returns the latest published snapshot.
// GET /api/v1/opportunities
func (h *MonitorHandler) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	snap := h.mon.Latest()
	if snap == nil {
		// No cycle has completed yet; an empty snapshot is still a valid
		// answer for a poller.
		snap = &monitor.Snapshot{Opportunities: []domain.Opportunity{}}
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetStatus reports whether the loop is running and the last cycle's stats.
// GET /api/v1/status
func (h *MonitorHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"running": h.mon.Running(),
	}
	if snap := h.mon.Latest(); snap != nil {
		status["updated_at"] = snap.UpdatedAt
		status["stats"] = snap.Stats
	}
	writeJSON(w, http.StatusOK, status)
}

// StartMonitor starts the periodic loop.
// POST /api/v1/monitor/start
func (h *MonitorHandler) StartMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.mon.Start(h.runCtx); err != nil {
		if errors.Is(err, domain.ErrMonitorRunning) {
			writeError(w, http.StatusConflict, "monitor already running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// StopMonitor stops the periodic loop.
// POST /api/v1/monitor/stop
func (h *MonitorHandler) StopMonitor(w http.ResponseWriter, r *http.Request) {
	if err := h.mon.Stop(); err != nil {
		if errors.Is(err, domain.ErrMonitorStopped) {
			writeError(w, http.StatusConflict, "monitor not running")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// Collect runs one synchronous cycle and returns its snapshot.
// POST /api/v1/collect
func (h *MonitorHandler) Collect(w http.ResponseWriter, r *http.Request) {
	snap, err := h.mon.CollectNow(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "one-shot collection failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
