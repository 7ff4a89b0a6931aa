package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/netsentry/netsentry/internal/model"
)

// Metric names device exporters expose. Utilization and error-rate series are
// per-interface gauges; traffic rate is summed across interfaces.
const (
	metricTrafficRate = "device_traffic_rate_bps"
	metricUtilization = "device_interface_utilization_percent"
	metricErrorRate   = "device_interface_error_rate_percent"
)

// Probe fetches one device's metrics endpoint and returns the measured
// response time together with any congestion stats found in the exposition.
//
// The HTTP round-trip is the responseTimeMs measurement, so even devices
// exposing an empty metrics page contribute latency data. A device without
// the congestion series returns Congestion == nil.
func Probe(ctx context.Context, client *http.Client, url string) (*model.DeviceMetrics, error) {
	start := time.Now()
	mfs, err := fetchMetrics(ctx, client, url)
	if err != nil {
		return nil, err
	}
	rtt := float64(time.Since(start).Microseconds()) / 1000

	m := &model.DeviceMetrics{ResponseTimeMs: rtt}
	if c := congestionFrom(mfs); c != nil {
		m.Congestion = c
	}
	return m, nil
}

// congestionFrom extracts congestion stats from parsed metric families.
// Returns nil when the device exposes no utilization series.
func congestionFrom(mfs map[string]*dto.MetricFamily) *model.CongestionStats {
	util := mfs[metricUtilization]
	if util == nil || len(util.GetMetric()) == 0 {
		return nil
	}

	var sum, max float64
	for _, m := range util.GetMetric() {
		v := gaugeValue(m)
		sum += v
		if v > max {
			max = v
		}
	}
	n := float64(len(util.GetMetric()))

	return &model.CongestionStats{
		TotalTrafficRate: sumFamily(mfs[metricTrafficRate]),
		AvgUtilization:   sum / n,
		MaxUtilization:   max,
		ErrorRatePercent: avgFamily(mfs[metricErrorRate]),
	}
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r into metric
// families. A partial result with a non-fatal parse warning is still returned
// successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a MetricFamily.
// Returns 0 if mf is nil (metric not present in the scrape).
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}

// avgFamily returns the mean of all values in a MetricFamily, or 0 when the
// family is absent or empty.
func avgFamily(mf *dto.MetricFamily) float64 {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0
	}
	return sumFamily(mf) / float64(len(mf.GetMetric()))
}

func gaugeValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}
