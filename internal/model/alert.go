package model

import "time"

// AlertTypeNetworkHealth is the alert type emitted by the health engine and
// the deduplication key for repeated emissions.
const AlertTypeNetworkHealth = "Network Health Alert"

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// HealthAlert is one alert appended to a device's alert list.
// Acknowledged starts false and is flipped by operator workflows.
type HealthAlert struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`

	// Value is the health score that triggered the alert; Threshold is the
	// boundary it crossed.
	Value     int `json:"value"`
	Threshold int `json:"threshold"`
}
