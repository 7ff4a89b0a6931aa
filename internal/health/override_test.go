package health

import (
	"testing"

	"github.com/netsentry/netsentry/internal/model"
)

func TestApplyOverrides(t *testing.T) {
	routerDown := Input{Devices: []model.Device{dev(model.TypeRouter, model.StatusOffline)}}
	gatewayDown := Input{Devices: []model.Device{dev(model.TypeGateway, model.StatusDown)}}
	switchDown := Input{Devices: []model.Device{dev(model.TypeSwitch, model.StatusOffline)}}
	healthy := Input{Devices: []model.Device{
		dev(model.TypeRouter, model.StatusOnline),
		dev(model.TypeGateway, model.StatusUp),
	}}

	slowDiag := Diagnostics{AvgResponseValid: true, AvgResponseMs: 1500}
	okDiag := Diagnostics{AvgResponseValid: true, AvgResponseMs: 800}

	tests := []struct {
		name string
		raw  int
		in   Input
		diag Diagnostics
		want int
	}{
		{"router offline caps at 20", 85, routerDown, Diagnostics{}, 20},
		{"gateway down caps at 20", 47, gatewayDown, Diagnostics{}, 20},
		{"raw below cap unchanged", 12, gatewayDown, Diagnostics{}, 12},
		{"switch outage is not a core outage", 85, switchDown, Diagnostics{}, 85},
		{"up status is online", 85, healthy, Diagnostics{}, 85},
		{"severe latency caps at 40", 90, healthy, slowDiag, 40},
		{"sub-second latency passes", 90, healthy, okDiag, 90},
		{"both caps, tighter wins", 90, routerDown, slowDiag, 20},
		{"no avg latency, cap skipped", 90, healthy, Diagnostics{AvgResponseMs: 1500}, 90},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ApplyOverrides(tc.raw, tc.in, tc.diag); got != tc.want {
				t.Errorf("ApplyOverrides(%d) = %d, want %d", tc.raw, got, tc.want)
			}
		})
	}
}

func TestApplyOverrides_CriticalProperty(t *testing.T) {
	// For any input containing an unreachable router or gateway, the capped
	// score is ≤ 20 regardless of the raw value.
	in := Input{Devices: []model.Device{
		devRT(model.TypeRouter, model.StatusOnline, 5),
		dev(model.TypeGateway, model.StatusUnknown),
	}}
	for raw := 0; raw <= 100; raw += 10 {
		if got := ApplyOverrides(raw, in, Diagnostics{}); got > 20 {
			t.Fatalf("raw %d: capped = %d, want ≤ 20", raw, got)
		}
	}
}
