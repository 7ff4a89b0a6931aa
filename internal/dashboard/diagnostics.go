package dashboard

import (
	"fmt"

	"github.com/netsentry/netsentry/internal/alerts"
)

// Hint is one human-readable insight about the network's health, derived
// from the sub-score breakdown of the latest evaluation.
type Hint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label (≤ 5 words).
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeHints derives diagnostic hints from a score breakdown.
// Hints are ordered: critical first, then warnings, then info.
func computeHints(bd ScoreBreakdown) []Hint {
	var hints []Hint
	d := bd.Diagnostics

	if bd.Capped < bd.Raw {
		v := float64(bd.Capped)
		hints = append(hints, Hint{
			Key:   "critical_override",
			Level: "critical",
			Title: "Score capped",
			Detail: fmt.Sprintf(
				"The weighted score was %d but a critical condition capped it at %d. "+
					"Either a router or gateway is unreachable, or average latency "+
					"exceeds one second. Fix the underlying outage first; no amount "+
					"of healthy edge devices lifts a capped score.", bd.Raw, bd.Capped),
			Value: &v,
		})
	}

	if d.Availability > 0 && d.Availability < 100 {
		v := d.Availability
		level := "warning"
		if d.Availability < 50 {
			level = "critical"
		}
		hints = append(hints, Hint{
			Key:   "devices_offline",
			Level: level,
			Title: "Devices offline",
			Detail: fmt.Sprintf(
				"Only %.0f%% of discovered devices are reachable. Offline devices "+
					"drag the availability sub-score, which carries half the total weight.",
				d.Availability),
			Value: &v,
		})
	}

	if !d.AvgResponseValid && d.Availability > 0 {
		hints = append(hints, Hint{
			Key:   "no_live_metrics",
			Level: "info",
			Title: "No live metrics",
			Detail: "No online device is reporting response times, so the performance " +
				"sub-score falls back to its known-unknown default of 30. Enable the " +
				"metrics poller or check device exporters to restore visibility.",
		})
	}

	if d.AvgResponseValid && d.LatencyScore <= 50 {
		v := d.AvgResponseMs
		hints = append(hints, Hint{
			Key:   "high_latency",
			Level: "warning",
			Title: "High latency",
			Detail: fmt.Sprintf(
				"Average response time across reporting devices is %.0f ms. "+
					"Scores degrade sharply past 100 ms and a sustained average above "+
					"1000 ms caps the overall score at 40.", d.AvgResponseMs),
			Value: &v,
		})
	}

	if d.CongestedReporting > 0 && d.CongestionScore < 60 {
		v := d.CongestionScore
		hints = append(hints, Hint{
			Key:   "congestion",
			Level: "warning",
			Title: "Link congestion",
			Detail: fmt.Sprintf(
				"%d device(s) report congested interfaces; the congestion sub-score "+
					"is %.0f. High utilization or interface error rates multiply the "+
					"penalty; inspect the busiest links first.",
				d.CongestedReporting, d.CongestionScore),
			Value: &v,
		})
	}

	if d.AlertImpact < 100 && d.Availability > 0 {
		v := d.AlertImpact
		hints = append(hints, Hint{
			Key:   "open_alerts",
			Level: "info",
			Title: "Unacknowledged alerts",
			Detail: fmt.Sprintf(
				"Open alerts reduce the alert-impact sub-score to %.0f "+
					"(each costs a flat 20 points). Acknowledge resolved alerts to "+
					"recover this component.", d.AlertImpact),
			Value: &v,
		})
	}

	if bd.Final <= alerts.WarningThreshold && len(hints) == 0 {
		hints = append(hints, Hint{
			Key:   "low_score",
			Level: "warning",
			Title: "Health degraded",
			Detail: "The smoothed score is in alerting territory but no single " +
				"sub-score stands out. Check the breakdown values for the weakest component.",
		})
	}

	return hints
}
