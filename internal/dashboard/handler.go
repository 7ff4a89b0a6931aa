package dashboard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/netsentry/netsentry/internal/repo"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	agg  *Aggregator
	repo repo.Repository
	mux  *http.ServeMux
}

// NewHandler registers all dashboard routes against the given aggregator and
// repository.
func NewHandler(agg *Aggregator, r repo.Repository) http.Handler {
	h := &Handler{agg: agg, repo: r, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/dashboard", h.dashboard)
	h.mux.HandleFunc("/api/v1/devices", h.listDevices)
	h.mux.HandleFunc("/api/v1/devices/", h.getDevice) // subtree: extracts {id}
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)
	h.mux.HandleFunc("/api/v1/alerts/", h.acknowledgeAlert) // subtree: {id}/acknowledge
	h.mux.HandleFunc("/api/v1/score/diagnostics", h.diagnostics)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// dashboard returns GET /api/v1/dashboard: runs a full evaluation and
// returns the summary.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sum, err := h.agg.Summary(r.Context())
	if err != nil {
		slog.Error("api: dashboard evaluation failed", "err", err)
		jsonErr(w, http.StatusServiceUnavailable, "evaluation failed")
		return
	}
	jsonResp(w, http.StatusOK, sum)
}

// listDevices returns GET /api/v1/devices: the full device inventory.
func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	devices, err := h.repo.ListDevices(r.Context())
	if err != nil {
		slog.Error("api: list devices failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to list devices")
		return
	}
	jsonResp(w, http.StatusOK, devices)
}

// getDevice returns GET /api/v1/devices/{id}: one device with its alerts.
func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/devices/")
	if id == "" || strings.Contains(id, "/") {
		jsonErr(w, http.StatusBadRequest, "invalid device id")
		return
	}

	d, err := h.repo.GetDevice(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, "device not found")
		return
	}
	if err != nil {
		slog.Error("api: get device failed", "id", id, "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to load device")
		return
	}
	jsonResp(w, http.StatusOK, d)
}

// alerts returns GET /api/v1/alerts: the system device's alert list.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sys, err := h.repo.FindSystemDevice(r.Context())
	if errors.Is(err, repo.ErrNotFound) {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	if err != nil {
		slog.Error("api: resolve system device failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to load alerts")
		return
	}
	jsonResp(w, http.StatusOK, sys.Alerts)
}

// acknowledgeAlert handles POST /api/v1/alerts/{id}/acknowledge, flipping the
// acknowledged flag on one of the system device's alerts. Acknowledged alerts
// stop suppressing new emissions and stop counting against the score.
func (h *Handler) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	id, ok := strings.CutSuffix(rest, "/acknowledge")
	if !ok || id == "" || strings.Contains(id, "/") {
		jsonErr(w, http.StatusBadRequest, "invalid alert path")
		return
	}

	sys, err := h.repo.FindSystemDevice(r.Context())
	if errors.Is(err, repo.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		slog.Error("api: resolve system device failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to acknowledge alert")
		return
	}

	err = h.repo.AcknowledgeAlert(r.Context(), sys.ID, id)
	if errors.Is(err, repo.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, "alert not found")
		return
	}
	if err != nil {
		slog.Error("api: acknowledge alert failed", "id", id, "err", err)
		jsonErr(w, http.StatusInternalServerError, "failed to acknowledge alert")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// diagnostics returns GET /api/v1/score/diagnostics: the structured
// sub-score breakdown and hints of the most recent evaluation.
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	bd, ok := h.agg.LastBreakdown()
	if !ok {
		jsonErr(w, http.StatusNotFound, "no evaluation has run yet")
		return
	}
	jsonResp(w, http.StatusOK, diagnosticsResponse{
		ScoreBreakdown: bd,
		Hints:          computeHints(bd),
	})
}

type diagnosticsResponse struct {
	ScoreBreakdown
	Hints []Hint `json:"hints"`
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	jsonResp(w, status, map[string]string{"error": msg})
}
