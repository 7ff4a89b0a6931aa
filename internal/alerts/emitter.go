package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/model"
	"github.com/netsentry/netsentry/internal/repo"
)

// Score thresholds for alert emission. A score at or below the critical
// threshold emits a critical alert; at or below the warning threshold, a
// warning. Above both, nothing.
const (
	CriticalThreshold = 30
	WarningThreshold  = 60
)

// Outcome describes what one MaybeEmit call did. It is reported back to the
// aggregator for logging and metrics but never influences the score.
type Outcome struct {
	Emitted bool

	// Suppressed is true when emission was skipped by the dedup window or
	// the distributed guard.
	Suppressed bool

	Severity  string
	Threshold int
}

// Emitter implements the alert emission rule: threshold check, system device
// resolution, dedup window, append. All of it is best-effort relative to scoring.
//
// Emitter is safe for concurrent use.
type Emitter struct {
	repo  repo.Repository
	guard *RedisGuard // nil when not configured

	mu       sync.Mutex
	window   time.Duration
	webhooks []config.WebhookConfig

	client *http.Client
	now    func() time.Time // injectable for deterministic tests
}

// NewEmitter creates an Emitter writing through r. guard may be nil.
func NewEmitter(r repo.Repository, cfg config.AlertsConfig, guard *RedisGuard) *Emitter {
	window := cfg.DedupWindow
	if window <= 0 {
		window = config.DefaultDedupWindow
	}
	return &Emitter{
		repo:     r,
		guard:    guard,
		window:   window,
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
		now:      time.Now,
	}
}

// Reconfigure applies hot-reloaded alert settings.
func (e *Emitter) Reconfigure(cfg config.AlertsConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.DedupWindow > 0 {
		e.window = cfg.DedupWindow
	}
	e.webhooks = cfg.Webhooks
}

// MaybeEmit appends a health alert to the system device when score crosses a
// threshold and no unacknowledged alert of the same type exists within the
// dedup window. Zero known devices or a missing system device skip silently.
//
// Errors are returned for the caller to observe (log, count); the caller must
// not let them fail the evaluation that produced score.
func (e *Emitter) MaybeEmit(ctx context.Context, score int) (Outcome, error) {
	if score > WarningThreshold {
		return Outcome{}, nil
	}

	severity, threshold := model.SeverityWarning, WarningThreshold
	if score <= CriticalThreshold {
		severity, threshold = model.SeverityCritical, CriticalThreshold
	}
	out := Outcome{Severity: severity, Threshold: threshold}

	total, err := e.repo.CountDevices(ctx)
	if err != nil {
		return out, fmt.Errorf("alerts: count devices: %w", err)
	}
	if total == 0 {
		// Cold start: no inventory yet, a low score is expected noise.
		return out, nil
	}

	sys, err := e.repo.FindSystemDevice(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		slog.Debug("alerts: no system device registered, skipping emission")
		return out, nil
	}
	if err != nil {
		return out, fmt.Errorf("alerts: resolve system device: %w", err)
	}

	now := e.now()
	e.mu.Lock()
	window := e.window
	webhooks := e.webhooks
	e.mu.Unlock()

	cutoff := now.Add(-window)
	for _, a := range sys.Alerts {
		if a.Type == model.AlertTypeNetworkHealth && !a.Acknowledged && a.Timestamp.After(cutoff) {
			out.Suppressed = true
			return out, nil
		}
	}

	if e.guard != nil {
		acquired, err := e.guard.Acquire(ctx, model.AlertTypeNetworkHealth, window)
		if err != nil {
			// Guard unavailability degrades to local dedup only.
			slog.Warn("alerts: dedup guard unavailable, relying on local window", "err", err)
		} else if !acquired {
			out.Suppressed = true
			return out, nil
		}
	}

	alert := model.HealthAlert{
		ID:        uuid.NewString(),
		Type:      model.AlertTypeNetworkHealth,
		Severity:  severity,
		Message:   fmt.Sprintf("Network health degraded to %d (threshold %d)", score, threshold),
		Timestamp: now,
		Value:     score,
		Threshold: threshold,
	}
	if err := e.repo.AppendAlert(ctx, sys.ID, alert); err != nil {
		return out, fmt.Errorf("alerts: append alert: %w", err)
	}
	out.Emitted = true

	slog.Warn("alert emitted",
		"severity", severity,
		"value", score,
		"threshold", threshold,
		"device", sys.ID,
	)
	go e.deliver(&alert, webhooks)

	return out, nil
}
