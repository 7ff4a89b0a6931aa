package health

import "github.com/netsentry/netsentry/internal/model"

// Hard caps applied after the weighted score. A routing or gateway outage
// dominates every other signal; severe latency caps the score independently.
const (
	capCoreInfraDown = 20
	capSevereLatency = 40
	severeLatencyMs  = 1000
)

// ApplyOverrides post-processes a raw score with the critical-condition caps.
// Both caps are expressed as min, so whichever is tighter wins when both
// apply. The result is clamped to [0,100].
func ApplyOverrides(raw int, in Input, d Diagnostics) int {
	score := raw

	for _, dev := range in.Devices {
		if dev.Type != model.TypeRouter && dev.Type != model.TypeGateway {
			continue
		}
		if !model.Online(dev.Status) {
			if score > capCoreInfraDown {
				score = capCoreInfraDown
			}
			break
		}
	}

	if d.AvgResponseValid && d.AvgResponseMs > severeLatencyMs && score > capSevereLatency {
		score = capSevereLatency
	}

	return clampScore(score)
}
