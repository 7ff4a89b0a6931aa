package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/netsentry/netsentry/internal/alerts"
	"github.com/netsentry/netsentry/internal/health"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/repo"
)

// Summary is the dashboard data contract: aggregate counts plus the smoothed
// network health score. It is never returned partially populated.
type Summary struct {
	TotalDevices    int `json:"totalDevices"`
	OnlineDevices   int `json:"onlineDevices"`
	OfflineDevices  int `json:"offlineDevices"`
	DiscoveredToday int `json:"discoveredToday"`
	AlertCount      int `json:"alertCount"`
	NetworkHealth   int `json:"networkHealth"`
}

// ScoreBreakdown is the diagnostics record of the most recent evaluation.
type ScoreBreakdown struct {
	Raw         int                `json:"raw"`
	Capped      int                `json:"capped"`
	Final       int                `json:"final"`
	Diagnostics health.Diagnostics `json:"diagnostics"`
	History     []int              `json:"history"`
	EvaluatedAt time.Time          `json:"evaluatedAt"`
}

// Aggregator orchestrates one health evaluation: repository reads, the
// score→override→smooth pipeline, and best-effort alert emission.
//
// Evaluations are serialized under an internal mutex: the smoothing history
// is read-modify-write state and the emission dedup check is a read-then-
// append against the repository, so overlapping evaluations would race.
type Aggregator struct {
	repo    repo.Repository
	history *health.History
	emitter *alerts.Emitter // nil disables emission

	mu       sync.Mutex
	timeout  time.Duration
	lastEval *ScoreBreakdown

	now func() time.Time // injectable for deterministic tests
}

// New creates an Aggregator. emitter may be nil (scoring without alerting).
func New(r repo.Repository, hist *health.History, emitter *alerts.Emitter, timeout time.Duration) *Aggregator {
	return &Aggregator{
		repo:    r,
		history: hist,
		emitter: emitter,
		timeout: timeout,
		now:     time.Now,
	}
}

// SetTimeout applies a hot-reloaded evaluation timeout.
func (a *Aggregator) SetTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d > 0 {
		a.timeout = d
	}
}

// Summary runs one full evaluation and returns the dashboard summary.
//
// Any repository read failure (including timeout expiry) aborts the whole
// call; no partial or stale summary is returned. Alert emission failures are
// observed and counted but never surfaced.
func (a *Aggregator) Summary(ctx context.Context) (Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	now := a.now()

	total, err := a.repo.CountDevices(ctx)
	if err != nil {
		return a.readFailed("count devices", err)
	}
	online, err := a.repo.CountOnline(ctx)
	if err != nil {
		return a.readFailed("count online devices", err)
	}
	devices, err := a.repo.ListDevices(ctx)
	if err != nil {
		return a.readFailed("list devices", err)
	}
	alertCount, err := a.repo.CountUnacknowledgedAlerts(ctx)
	if err != nil {
		return a.readFailed("count alerts", err)
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	discovered, err := a.repo.CountDiscoveredSince(ctx, midnight)
	if err != nil {
		return a.readFailed("count discovered today", err)
	}

	input := health.Input{
		TotalDevices:  total,
		OnlineDevices: online,
		AlertCount:    alertCount,
		Devices:       devices,
	}

	raw, diag := health.ComputeRawScore(input)
	capped := health.ApplyOverrides(raw, input, diag)
	final := a.history.Smooth(capped)

	metrics.EvaluationsTotal.Inc()
	metrics.NetworkHealthScore.WithLabelValues("raw").Set(float64(raw))
	metrics.NetworkHealthScore.WithLabelValues("capped").Set(float64(capped))
	metrics.NetworkHealthScore.WithLabelValues("final").Set(float64(final))

	a.lastEval = &ScoreBreakdown{
		Raw:         raw,
		Capped:      capped,
		Final:       final,
		Diagnostics: diag,
		History:     a.history.Scores(),
		EvaluatedAt: now,
	}

	// Zero devices also means no alert: a 0 score before discovery has run
	// is a cold start, not an outage.
	if a.emitter != nil && total > 0 {
		a.emit(ctx, final)
	}

	return Summary{
		TotalDevices:    total,
		OnlineDevices:   online,
		OfflineDevices:  total - online,
		DiscoveredToday: discovered,
		AlertCount:      alertCount,
		NetworkHealth:   final,
	}, nil
}

// LastBreakdown returns the diagnostics of the most recent evaluation, or
// false when none has run yet.
func (a *Aggregator) LastBreakdown() (ScoreBreakdown, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastEval == nil {
		return ScoreBreakdown{}, false
	}
	return *a.lastEval, true
}

// emit invokes the alert emission rule and observes its outcome without ever
// propagating a failure into the evaluation.
func (a *Aggregator) emit(ctx context.Context, score int) {
	out, err := a.emitter.MaybeEmit(ctx, score)
	if err != nil {
		metrics.AlertEmissionErrors.Inc()
		slog.Error("dashboard: alert emission failed", "score", score, "err", err)
		return
	}
	if out.Emitted {
		metrics.AlertsEmitted.WithLabelValues(out.Severity).Inc()
	}
}

func (a *Aggregator) readFailed(what string, err error) (Summary, error) {
	metrics.EvaluationErrors.Inc()
	return Summary{}, fmt.Errorf("dashboard: %s: %w", what, err)
}
