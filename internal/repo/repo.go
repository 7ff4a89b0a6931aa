package repo

import (
	"context"
	"errors"
	"time"

	"github.com/netsentry/netsentry/internal/model"
)

// ErrNotFound is returned when a device or alert lookup matches nothing.
var ErrNotFound = errors.New("repo: not found")

// Repository is the device inventory the health engine reads from and appends
// alerts to. All methods honor context cancellation; callers bound calls with
// a timeout and treat expiry as a repository failure.
type Repository interface {
	// UpsertDevice inserts or replaces a device record, preserving FirstSeen
	// and the embedded alert list of an existing record.
	UpsertDevice(ctx context.Context, d model.Device) error

	// GetDevice returns one device by ID, or ErrNotFound.
	GetDevice(ctx context.Context, id string) (model.Device, error)

	// ListDevices returns all devices with their current metrics.
	ListDevices(ctx context.Context) ([]model.Device, error)

	// CountDevices returns the total number of known devices.
	CountDevices(ctx context.Context) (int, error)

	// CountOnline returns the number of devices whose status is online or up.
	CountOnline(ctx context.Context) (int, error)

	// CountDiscoveredSince returns the number of devices first seen at or
	// after t.
	CountDiscoveredSince(ctx context.Context, t time.Time) (int, error)

	// CountUnacknowledgedAlerts returns the number of unacknowledged alerts
	// across all devices' alert lists.
	CountUnacknowledgedAlerts(ctx context.Context) (int, error)

	// UpdateDeviceState records the latest poll outcome for a device.
	// Metrics may be nil when the probe failed.
	UpdateDeviceState(ctx context.Context, id, status string, m *model.DeviceMetrics, seen time.Time) error

	// FindSystemDevice resolves the designated system device by its
	// well-known address, falling back to its well-known name. Returns
	// ErrNotFound when neither exists.
	FindSystemDevice(ctx context.Context) (model.Device, error)

	// AppendAlert appends an alert to the given device's alert list.
	AppendAlert(ctx context.Context, deviceID string, a model.HealthAlert) error

	// ListAlerts returns the alert list of one device, newest last.
	ListAlerts(ctx context.Context, deviceID string) ([]model.HealthAlert, error)

	// AcknowledgeAlert flips the acknowledged flag of one alert.
	AcknowledgeAlert(ctx context.Context, deviceID, alertID string) error
}
