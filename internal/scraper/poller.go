package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/netsentry/netsentry/internal/config"
	"github.com/netsentry/netsentry/internal/metrics"
	"github.com/netsentry/netsentry/internal/model"
	"github.com/netsentry/netsentry/internal/repo"
)

// Poller periodically probes every device in the repository and writes the
// outcome back: fresh metrics and "online" on success, "offline" on failure.
type Poller struct {
	repo   repo.Repository
	client *http.Client

	mu          sync.Mutex
	interval    time.Duration
	metricsPort int
}

// NewPoller creates a Poller with the given scrape settings.
func NewPoller(r repo.Repository, cfg config.ScrapeConfig) *Poller {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultScrapeTimeout
	}
	return &Poller{
		repo:        r,
		client:      &http.Client{Timeout: timeout},
		interval:    cfg.Interval,
		metricsPort: cfg.MetricsPort,
	}
}

// Reconfigure applies hot-reloaded scrape settings. The new interval takes
// effect after the current tick.
func (p *Poller) Reconfigure(cfg config.ScrapeConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cfg.Interval > 0 {
		p.interval = cfg.Interval
	}
	if cfg.MetricsPort > 0 {
		p.metricsPort = cfg.MetricsPort
	}
}

// Run probes all devices once per interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		p.mu.Lock()
		interval := p.interval
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
			p.pollAll(ctx)
		}
	}
}

// pollAll probes every pollable device concurrently and waits for the batch.
func (p *Poller) pollAll(ctx context.Context) {
	devices, err := p.repo.ListDevices(ctx)
	if err != nil {
		slog.Error("scraper: list devices failed", "err", err)
		return
	}

	var wg sync.WaitGroup
	for _, d := range devices {
		if d.Address == "" || d.Address == model.SystemDeviceAddress {
			continue
		}
		wg.Add(1)
		go func(d model.Device) {
			defer wg.Done()
			p.pollOne(ctx, d)
		}(d)
	}
	wg.Wait()
}

func (p *Poller) pollOne(ctx context.Context, d model.Device) {
	p.mu.Lock()
	port := p.metricsPort
	p.mu.Unlock()

	url := fmt.Sprintf("http://%s/metrics", net.JoinHostPort(d.Address, strconv.Itoa(port)))

	start := time.Now()
	m, err := Probe(ctx, p.client, url)
	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())

	now := time.Now()
	if err != nil {
		metrics.ScrapeFailures.Inc()
		slog.Warn("scraper: probe failed, marking device offline",
			"device", d.ID, "address", d.Address, "err", err)
		if uerr := p.repo.UpdateDeviceState(ctx, d.ID, model.StatusOffline, nil, now); uerr != nil {
			slog.Error("scraper: update device state failed", "device", d.ID, "err", uerr)
		}
		return
	}

	if err := p.repo.UpdateDeviceState(ctx, d.ID, model.StatusOnline, m, now); err != nil {
		slog.Error("scraper: update device state failed", "device", d.ID, "err", err)
	}
}
