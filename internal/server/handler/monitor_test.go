package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/arbwatch/internal/domain"
	"github.com/alanyoungcy/arbwatch/internal/monitor"
)

type fakeMonitor struct {
	running  bool
	latest   *monitor.Snapshot
	startErr error
	stopErr  error
}

func (f *fakeMonitor) Start(context.Context) error { return f.startErr }
func (f *fakeMonitor) Stop() error                 { return f.stopErr }
func (f *fakeMonitor) Running() bool               { return f.running }
func (f *fakeMonitor) Latest() *monitor.Snapshot   { return f.latest }

func (f *fakeMonitor) CollectNow(context.Context) (*monitor.Snapshot, error) {
	f.latest = &monitor.Snapshot{
		Opportunities: []domain.Opportunity{{Asset: "ETH", NetProfit: 190}},
		UpdatedAt:     time.Now(),
		Stats:         monitor.CycleStats{QuotesCollected: 4, Candidates: 1, Accepted: 1},
	}
	return f.latest, nil
}

func newHandler(f *fakeMonitor) *MonitorHandler {
	return NewMonitorHandler(f, context.Background(), slog.Default())
}

func TestGetOpportunities_EmptyBeforeFirstCycle(t *testing.T) {
	h := newHandler(&fakeMonitor{})

	rec := httptest.NewRecorder()
	h.GetOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap monitor.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Empty(t, snap.Opportunities)
}

func TestGetOpportunities_ServesLatestSnapshot(t *testing.T) {
	f := &fakeMonitor{latest: &monitor.Snapshot{
		Opportunities: []domain.Opportunity{{Asset: "BTC", NetProfit: 120}},
		UpdatedAt:     time.Now(),
	}}
	h := newHandler(f)

	rec := httptest.NewRecorder()
	h.GetOpportunities(rec, httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap monitor.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Opportunities, 1)
	assert.Equal(t, "BTC", snap.Opportunities[0].Asset)
}

func TestGetStatus(t *testing.T) {
	f := &fakeMonitor{
		running: true,
		latest: &monitor.Snapshot{
			UpdatedAt: time.Now(),
			Stats:     monitor.CycleStats{Accepted: 3},
		},
	}
	h := newHandler(f)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Running bool               `json:"running"`
		Stats   monitor.CycleStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Running)
	assert.Equal(t, 3, status.Stats.Accepted)
}

func TestStartMonitor_ConflictWhenRunning(t *testing.T) {
	h := newHandler(&fakeMonitor{startErr: domain.ErrMonitorRunning})

	rec := httptest.NewRecorder()
	h.StartMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/v1/monitor/start", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestStartStop_OK(t *testing.T) {
	h := newHandler(&fakeMonitor{})

	rec := httptest.NewRecorder()
	h.StartMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/v1/monitor/start", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.StopMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/v1/monitor/stop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStopMonitor_ConflictWhenStopped(t *testing.T) {
	h := newHandler(&fakeMonitor{stopErr: domain.ErrMonitorStopped})

	rec := httptest.NewRecorder()
	h.StopMonitor(rec, httptest.NewRequest(http.MethodPost, "/api/v1/monitor/stop", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCollect_ReturnsFreshSnapshot(t *testing.T) {
	h := newHandler(&fakeMonitor{})

	rec := httptest.NewRecorder()
	h.Collect(rec, httptest.NewRequest(http.MethodPost, "/api/v1/collect", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap monitor.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.Opportunities, 1)
	assert.Equal(t, 4, snap.Stats.QuotesCollected)
}
