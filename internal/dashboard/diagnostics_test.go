package dashboard

import (
	"testing"

	"github.com/netsentry/netsentry/internal/health"
)

func hintKeys(hints []Hint) []string {
	keys := make([]string, len(hints))
	for i, h := range hints {
		keys[i] = h.Key
	}
	return keys
}

func hasHint(hints []Hint, key string) bool {
	for _, h := range hints {
		if h.Key == key {
			return true
		}
	}
	return false
}

func TestComputeHints_HealthyNetwork(t *testing.T) {
	bd := ScoreBreakdown{
		Raw: 98, Capped: 98, Final: 98,
		Diagnostics: health.Diagnostics{
			Availability: 100, Performance: 100, Infrastructure: 85, AlertImpact: 100,
			LatencyScore: 100, CongestionScore: 100,
			AvgResponseMs: 5, AvgResponseValid: true, ReportingDevices: 4,
		},
	}
	if hints := computeHints(bd); len(hints) != 0 {
		t.Errorf("hints = %v, want none for a healthy breakdown", hintKeys(hints))
	}
}

func TestComputeHints_CappedScoreLeadsWithOverride(t *testing.T) {
	bd := ScoreBreakdown{
		Raw: 47, Capped: 20, Final: 20,
		Diagnostics: health.Diagnostics{Availability: 50, Performance: 30, AlertImpact: 100},
	}
	hints := computeHints(bd)
	if len(hints) == 0 || hints[0].Key != "critical_override" {
		t.Fatalf("hints = %v, want critical_override first", hintKeys(hints))
	}
	if !hasHint(hints, "devices_offline") {
		t.Errorf("hints = %v, want devices_offline for 50%% availability", hintKeys(hints))
	}
	if !hasHint(hints, "no_live_metrics") {
		t.Errorf("hints = %v, want no_live_metrics when nothing reports", hintKeys(hints))
	}
}

func TestComputeHints_LatencyAndCongestion(t *testing.T) {
	bd := ScoreBreakdown{
		Raw: 55, Capped: 55, Final: 55,
		Diagnostics: health.Diagnostics{
			Availability: 100, AlertImpact: 100,
			AvgResponseMs: 250, AvgResponseValid: true,
			LatencyScore: 25, CongestionScore: 48, CongestedReporting: 2,
		},
	}
	hints := computeHints(bd)
	if !hasHint(hints, "high_latency") {
		t.Errorf("hints = %v, want high_latency at 250 ms", hintKeys(hints))
	}
	if !hasHint(hints, "congestion") {
		t.Errorf("hints = %v, want congestion with sub-score 48", hintKeys(hints))
	}
}

func TestComputeHints_LowScoreFallback(t *testing.T) {
	// Alerting-territory score where no individual sub-score triggers a hint.
	bd := ScoreBreakdown{
		Raw: 58, Capped: 58, Final: 58,
		Diagnostics: health.Diagnostics{
			Availability: 100, AlertImpact: 100,
			AvgResponseMs: 60, AvgResponseValid: true,
			LatencyScore: 70, CongestionScore: 100,
		},
	}
	hints := computeHints(bd)
	if len(hints) != 1 || hints[0].Key != "low_score" {
		t.Errorf("hints = %v, want only low_score", hintKeys(hints))
	}
}
