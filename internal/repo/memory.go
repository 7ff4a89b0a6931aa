package repo

import (
	"context"
	"sync"
	"time"

	"github.com/netsentry/netsentry/internal/model"
)

// Memory is a thread-safe in-memory Repository, used for dev deployments and
// as the reference implementation in tests.
type Memory struct {
	mu      sync.RWMutex
	devices map[string]*model.Device
	order   []string // insertion order, for stable listings
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{devices: make(map[string]*model.Device)}
}

func (m *Memory) UpsertDevice(_ context.Context, d model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.devices[d.ID]; ok {
		d.FirstSeen = existing.FirstSeen
		d.Alerts = existing.Alerts
	} else {
		if d.FirstSeen.IsZero() {
			d.FirstSeen = time.Now()
		}
		m.order = append(m.order, d.ID)
	}
	cp := d
	m.devices[d.ID] = &cp
	return nil
}

func (m *Memory) GetDevice(_ context.Context, id string) (model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return model.Device{}, ErrNotFound
	}
	return copyDevice(d), nil
}

func (m *Memory) ListDevices(_ context.Context) ([]model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Device, 0, len(m.devices))
	for _, id := range m.order {
		out = append(out, copyDevice(m.devices[id]))
	}
	return out, nil
}

func (m *Memory) CountDevices(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.devices), nil
}

func (m *Memory) CountOnline(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, d := range m.devices {
		if model.Online(d.Status) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountDiscoveredSince(_ context.Context, t time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, d := range m.devices {
		if !d.FirstSeen.Before(t) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountUnacknowledgedAlerts(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int
	for _, d := range m.devices {
		for _, a := range d.Alerts {
			if !a.Acknowledged {
				n++
			}
		}
	}
	return n, nil
}

func (m *Memory) UpdateDeviceState(_ context.Context, id, status string, metrics *model.DeviceMetrics, seen time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	d.LastSeen = seen
	if metrics != nil {
		cp := *metrics
		d.Metrics = &cp
	}
	return nil
}

func (m *Memory) FindSystemDevice(_ context.Context) (model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if m.devices[id].Address == model.SystemDeviceAddress {
			return copyDevice(m.devices[id]), nil
		}
	}
	for _, id := range m.order {
		if m.devices[id].Name == model.SystemDeviceName {
			return copyDevice(m.devices[id]), nil
		}
	}
	return model.Device{}, ErrNotFound
}

func (m *Memory) AppendAlert(_ context.Context, deviceID string, a model.HealthAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return ErrNotFound
	}
	d.Alerts = append(d.Alerts, a)
	return nil
}

func (m *Memory) ListAlerts(_ context.Context, deviceID string) ([]model.HealthAlert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]model.HealthAlert(nil), d.Alerts...), nil
}

func (m *Memory) AcknowledgeAlert(_ context.Context, deviceID, alertID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[deviceID]
	if !ok {
		return ErrNotFound
	}
	for i := range d.Alerts {
		if d.Alerts[i].ID == alertID {
			d.Alerts[i].Acknowledged = true
			return nil
		}
	}
	return ErrNotFound
}

// copyDevice deep-copies a device so callers cannot mutate stored state.
func copyDevice(d *model.Device) model.Device {
	cp := *d
	if d.Metrics != nil {
		mcp := *d.Metrics
		if d.Metrics.Congestion != nil {
			ccp := *d.Metrics.Congestion
			mcp.Congestion = &ccp
		}
		cp.Metrics = &mcp
	}
	cp.Alerts = append([]model.HealthAlert(nil), d.Alerts...)
	return cp
}
