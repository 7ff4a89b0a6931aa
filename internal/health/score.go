package health

import (
	"math"

	"github.com/netsentry/netsentry/internal/model"
)

// Weight constants for the network health formula.
// They must sum to 1.0.
const (
	weightAvailability   = 0.50
	weightPerformance    = 0.30
	weightInfrastructure = 0.15
	weightAlertImpact    = 0.05
)

// The performance sub-score blends latency and congestion.
const (
	perfLatencyShare    = 0.7
	perfCongestionShare = 0.3
)

// defaultPerformanceScore is used when no online device reports a response
// time. Missing visibility is penalized rather than assumed healthy.
const defaultPerformanceScore = 30

// Infrastructure scoring: a base for having any devices at all, plus a bonus
// per device type present. The bonuses are independent and additive; the
// accumulated value is scaled by the online ratio of critical infrastructure
// and clamped to [0,100].
const (
	infraBase         = 40
	infraBonusRouter  = 25
	infraBonusSwitch  = 20
	infraBonusGateway = 15
	infraBonusServer  = 10
)

// alertPenalty is the flat cost of each unacknowledged alert.
const alertPenalty = 20

// Input holds everything the score calculator needs for one evaluation.
// It is built fresh from repository reads on every invocation.
type Input struct {
	TotalDevices  int
	OnlineDevices int

	// AlertCount is the number of unacknowledged alerts across all devices.
	AlertCount int

	Devices []model.Device
}

// Diagnostics is the structured sub-score breakdown for one evaluation,
// returned alongside the raw score so callers and tests can assert on
// component values instead of parsing log output.
type Diagnostics struct {
	Availability   float64 `json:"availability"`
	Performance    float64 `json:"performance"`
	Infrastructure float64 `json:"infrastructure"`
	AlertImpact    float64 `json:"alertImpact"`

	LatencyScore    float64 `json:"latencyScore"`
	CongestionScore float64 `json:"congestionScore"`

	// AvgResponseMs is the mean response time over online devices that
	// reported one. Valid is false when no device did.
	AvgResponseMs      float64 `json:"avgResponseMs"`
	AvgResponseValid   bool    `json:"avgResponseValid"`
	ReportingDevices   int     `json:"reportingDevices"`
	CongestedReporting int     `json:"congestedReporting"`
}

// ComputeRawScore maps an Input to a raw 0–100 health score.
//
// Zero discovered devices short-circuits to 0; no infrastructure means no
// health claim can be made. Otherwise the score is the rounded weighted sum
// of four sub-scores: availability 50%, performance 30%, infrastructure 15%,
// alert impact 5%.
func ComputeRawScore(in Input) (int, Diagnostics) {
	if in.TotalDevices == 0 {
		return 0, Diagnostics{}
	}

	var d Diagnostics

	d.Availability = float64(in.OnlineDevices) / float64(in.TotalDevices) * 100

	d.Performance = performanceScore(in.Devices, &d)
	d.Infrastructure = infrastructureScore(in.Devices)

	d.AlertImpact = 100 - float64(in.AlertCount)*alertPenalty
	if d.AlertImpact < 0 {
		d.AlertImpact = 0
	}

	raw := math.Round(d.Availability*weightAvailability +
		d.Performance*weightPerformance +
		d.Infrastructure*weightInfrastructure +
		d.AlertImpact*weightAlertImpact)

	return clampScore(int(raw)), d
}

// performanceScore derives the performance sub-score from online devices that
// report live metrics. It fills the latency/congestion fields of d.
func performanceScore(devices []model.Device, d *Diagnostics) float64 {
	var sum float64
	var reporting int
	for _, dev := range devices {
		if !model.Online(dev.Status) || dev.Metrics == nil || dev.Metrics.ResponseTimeMs <= 0 {
			continue
		}
		sum += dev.Metrics.ResponseTimeMs
		reporting++
	}
	d.ReportingDevices = reporting

	if reporting == 0 {
		return defaultPerformanceScore
	}

	d.AvgResponseMs = sum / float64(reporting)
	d.AvgResponseValid = true
	d.LatencyScore = latencyScore(d.AvgResponseMs)
	d.CongestionScore = congestionScore(devices, d)

	return perfLatencyShare*d.LatencyScore + perfCongestionShare*d.CongestionScore
}

// latencyScore maps an average response time to a score bucket.
func latencyScore(avgMs float64) float64 {
	switch {
	case avgMs <= 10:
		return 100
	case avgMs <= 25:
		return 95
	case avgMs <= 50:
		return 85
	case avgMs <= 100:
		return 70
	case avgMs <= 200:
		return 50
	case avgMs <= 500:
		return 25
	default:
		return 10
	}
}

// congestionScore scores traffic pressure from devices reporting congestion
// stats. The bucket is chosen by the worst max-utilization seen; the mean
// error rate applies a multiplicative penalty on top. With no congestion data
// the sub-score stays at 100.
func congestionScore(devices []model.Device, d *Diagnostics) float64 {
	var worstUtil, errSum float64
	var reporting int
	for _, dev := range devices {
		if dev.Metrics == nil || dev.Metrics.Congestion == nil {
			continue
		}
		c := dev.Metrics.Congestion
		if c.MaxUtilization > worstUtil {
			worstUtil = c.MaxUtilization
		}
		errSum += c.ErrorRatePercent
		reporting++
	}
	d.CongestedReporting = reporting

	if reporting == 0 {
		return 100
	}

	var score float64
	switch {
	case worstUtil < 25:
		score = 100
	case worstUtil < 50:
		score = 85
	case worstUtil < 75:
		score = 60
	case worstUtil < 90:
		score = 30
	default:
		score = 10
	}

	avgErr := errSum / float64(reporting)
	switch {
	case avgErr > 5:
		score *= 0.5
	case avgErr > 1:
		score *= 0.8
	}
	return score
}

// infrastructureScore rewards device-type diversity and scales by how much of
// the critical infrastructure (routers, switches, gateways) is reachable.
func infrastructureScore(devices []model.Device) float64 {
	seen := map[string]bool{}
	var criticalTotal, criticalOnline int
	for _, dev := range devices {
		seen[dev.Type] = true
		if model.CriticalInfrastructure(dev.Type) {
			criticalTotal++
			if model.Online(dev.Status) {
				criticalOnline++
			}
		}
	}

	score := float64(infraBase)
	if seen[model.TypeRouter] {
		score += infraBonusRouter
	}
	if seen[model.TypeSwitch] {
		score += infraBonusSwitch
	}
	if seen[model.TypeGateway] {
		score += infraBonusGateway
	}
	if seen[model.TypeServer] {
		score += infraBonusServer
	}

	if criticalTotal > 0 {
		score *= float64(criticalOnline) / float64(criticalTotal)
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// clampScore restricts a score to the range [0, 100].
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
