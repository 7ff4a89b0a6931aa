package model

import "time"

// Device status values as reported by discovery and the metrics poller.
const (
	StatusOnline  = "online"
	StatusUp      = "up"
	StatusOffline = "offline"
	StatusDown    = "down"
	StatusUnknown = "unknown"
)

// Device type values. Router, switch and gateway count as critical
// infrastructure for health scoring.
const (
	TypeRouter  = "router"
	TypeSwitch  = "switch"
	TypeGateway = "gateway"
	TypeServer  = "server"
)

// The system device is the well-known record health alerts are attached to.
// Lookup is by address first, then by name.
const (
	SystemDeviceAddress = "0.0.0.0"
	SystemDeviceName    = "network-controller"
)

// Device is one monitored network device together with its embedded alert list.
type Device struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Address   string         `json:"address"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	FirstSeen time.Time      `json:"firstSeen"`
	LastSeen  time.Time      `json:"lastSeen,omitempty"`
	Metrics   *DeviceMetrics `json:"metrics,omitempty"`
	Alerts    []HealthAlert  `json:"alerts,omitempty"`
}

// DeviceMetrics holds the most recent poll results for a device.
type DeviceMetrics struct {
	// ResponseTimeMs is the measured probe round-trip in milliseconds.
	// Zero means no successful measurement yet.
	ResponseTimeMs float64 `json:"responseTimeMs,omitempty"`

	Congestion *CongestionStats `json:"congestion,omitempty"`
}

// CongestionStats summarises interface traffic pressure on a device.
// Utilization and error-rate fields are percentages in the range 0–100.
type CongestionStats struct {
	TotalTrafficRate float64 `json:"totalTrafficRate"`
	AvgUtilization   float64 `json:"avgUtilization"`
	MaxUtilization   float64 `json:"maxUtilization"`
	ErrorRatePercent float64 `json:"errorRatePercent"`
}

// Online reports whether status counts as reachable. Both "online" and "up"
// are accepted; discovery and the poller use "online", imported inventories
// may carry "up".
func Online(status string) bool {
	return status == StatusOnline || status == StatusUp
}

// CriticalInfrastructure reports whether a device type carries routing or
// switching duty for the network.
func CriticalInfrastructure(deviceType string) bool {
	switch deviceType {
	case TypeRouter, TypeSwitch, TypeGateway:
		return true
	default:
		return false
	}
}
