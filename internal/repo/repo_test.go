package repo_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsentry/netsentry/internal/model"
	"github.com/netsentry/netsentry/internal/repo"
)

// runRepositoryTests exercises the Repository contract against a backend.
// Both implementations must behave identically, so every case runs twice.
func runRepositoryTests(t *testing.T, open func(t *testing.T) repo.Repository) {
	ctx := context.Background()

	device := func(id, addr, typ, status string) model.Device {
		return model.Device{ID: id, Name: "dev-" + id, Address: addr, Type: typ, Status: status}
	}

	t.Run("get missing device", func(t *testing.T) {
		r := open(t)
		_, err := r.GetDevice(ctx, "nope")
		require.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("upsert and get", func(t *testing.T) {
		r := open(t)
		d := device("r1", "10.0.0.1", model.TypeRouter, model.StatusOnline)
		d.Metrics = &model.DeviceMetrics{
			ResponseTimeMs: 12.5,
			Congestion:     &model.CongestionStats{MaxUtilization: 44, ErrorRatePercent: 0.5},
		}
		require.NoError(t, r.UpsertDevice(ctx, d))

		got, err := r.GetDevice(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "dev-r1", got.Name)
		assert.Equal(t, model.TypeRouter, got.Type)
		require.NotNil(t, got.Metrics)
		assert.InDelta(t, 12.5, got.Metrics.ResponseTimeMs, 0.001)
		require.NotNil(t, got.Metrics.Congestion)
		assert.InDelta(t, 44, got.Metrics.Congestion.MaxUtilization, 0.001)
		assert.False(t, got.FirstSeen.IsZero(), "first seen should default to now")
	})

	t.Run("upsert preserves first seen", func(t *testing.T) {
		r := open(t)
		require.NoError(t, r.UpsertDevice(ctx, device("r1", "10.0.0.1", model.TypeRouter, model.StatusOnline)))
		before, err := r.GetDevice(ctx, "r1")
		require.NoError(t, err)

		updated := device("r1", "10.0.0.99", model.TypeRouter, model.StatusOffline)
		require.NoError(t, r.UpsertDevice(ctx, updated))

		after, err := r.GetDevice(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.99", after.Address)
		assert.Equal(t, model.StatusOffline, after.Status)
		assert.Equal(t, before.FirstSeen.UnixMilli(), after.FirstSeen.UnixMilli())
	})

	t.Run("counts", func(t *testing.T) {
		r := open(t)
		require.NoError(t, r.UpsertDevice(ctx, device("a", "10.0.0.1", model.TypeRouter, model.StatusOnline)))
		require.NoError(t, r.UpsertDevice(ctx, device("b", "10.0.0.2", model.TypeSwitch, model.StatusUp)))
		require.NoError(t, r.UpsertDevice(ctx, device("c", "10.0.0.3", model.TypeServer, model.StatusOffline)))

		total, err := r.CountDevices(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, total)

		online, err := r.CountOnline(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, online, `both "online" and "up" count as online`)
	})

	t.Run("discovered since", func(t *testing.T) {
		r := open(t)
		old := device("old", "10.0.0.1", model.TypeRouter, model.StatusOnline)
		old.FirstSeen = time.Now().Add(-48 * time.Hour)
		require.NoError(t, r.UpsertDevice(ctx, old))
		require.NoError(t, r.UpsertDevice(ctx, device("new", "10.0.0.2", model.TypeSwitch, model.StatusOnline)))

		n, err := r.CountDiscoveredSince(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("update device state", func(t *testing.T) {
		r := open(t)
		require.NoError(t, r.UpsertDevice(ctx, device("r1", "10.0.0.1", model.TypeRouter, model.StatusOnline)))

		seen := time.Now()
		m := &model.DeviceMetrics{ResponseTimeMs: 42}
		require.NoError(t, r.UpdateDeviceState(ctx, "r1", model.StatusOffline, m, seen))

		got, err := r.GetDevice(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusOffline, got.Status)
		require.NotNil(t, got.Metrics)
		assert.InDelta(t, 42, got.Metrics.ResponseTimeMs, 0.001)
		assert.Equal(t, seen.UnixMilli(), got.LastSeen.UnixMilli())

		// nil metrics leaves the stored metrics untouched
		require.NoError(t, r.UpdateDeviceState(ctx, "r1", model.StatusOnline, nil, seen))
		got, err = r.GetDevice(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got.Metrics)

		err = r.UpdateDeviceState(ctx, "missing", model.StatusOnline, nil, seen)
		require.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("system device lookup", func(t *testing.T) {
		r := open(t)
		_, err := r.FindSystemDevice(ctx)
		require.ErrorIs(t, err, repo.ErrNotFound)

		// name fallback
		byName := model.Device{ID: "n1", Name: model.SystemDeviceName,
			Address: "192.168.1.5", Type: model.TypeServer, Status: model.StatusOnline}
		require.NoError(t, r.UpsertDevice(ctx, byName))
		sys, err := r.FindSystemDevice(ctx)
		require.NoError(t, err)
		assert.Equal(t, "n1", sys.ID)

		// address sentinel wins over name
		byAddr := model.Device{ID: "a1", Name: "controller-vm",
			Address: model.SystemDeviceAddress, Type: model.TypeServer, Status: model.StatusOnline}
		require.NoError(t, r.UpsertDevice(ctx, byAddr))
		sys, err = r.FindSystemDevice(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a1", sys.ID)
	})

	t.Run("alert lifecycle", func(t *testing.T) {
		r := open(t)
		require.NoError(t, r.UpsertDevice(ctx, device("sys", model.SystemDeviceAddress, model.TypeServer, model.StatusOnline)))

		a := model.HealthAlert{
			ID: "al-1", Type: model.AlertTypeNetworkHealth, Severity: model.SeverityCritical,
			Message: "network health critical", Timestamp: time.Now(), Value: 25, Threshold: 30,
		}
		require.NoError(t, r.AppendAlert(ctx, "sys", a))

		n, err := r.CountUnacknowledgedAlerts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := r.ListAlerts(ctx, "sys")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.SeverityCritical, got[0].Severity)
		assert.Equal(t, 25, got[0].Value)
		assert.False(t, got[0].Acknowledged)

		require.NoError(t, r.AcknowledgeAlert(ctx, "sys", "al-1"))
		n, err = r.CountUnacknowledgedAlerts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		err = r.AcknowledgeAlert(ctx, "sys", "no-such-alert")
		require.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("list ordering is stable", func(t *testing.T) {
		r := open(t)
		first := device("z", "10.0.0.1", model.TypeRouter, model.StatusOnline)
		first.FirstSeen = time.Now().Add(-time.Minute)
		require.NoError(t, r.UpsertDevice(ctx, first))
		require.NoError(t, r.UpsertDevice(ctx, device("a", "10.0.0.2", model.TypeSwitch, model.StatusOnline)))

		devices, err := r.ListDevices(ctx)
		require.NoError(t, err)
		require.Len(t, devices, 2)
		assert.Equal(t, "z", devices[0].ID, "insertion order, not lexical")
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) repo.Repository {
		return repo.NewMemory()
	})
}

func TestSQLiteRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) repo.Repository {
		s, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "netsentry.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestMemoryCopiesAreIsolated(t *testing.T) {
	ctx := context.Background()
	m := repo.NewMemory()
	d := model.Device{ID: "r1", Name: "edge", Address: "10.0.0.1",
		Type: model.TypeRouter, Status: model.StatusOnline,
		Metrics: &model.DeviceMetrics{ResponseTimeMs: 10}}
	require.NoError(t, m.UpsertDevice(ctx, d))

	got, err := m.GetDevice(ctx, "r1")
	require.NoError(t, err)
	got.Metrics.ResponseTimeMs = 999
	got.Status = model.StatusOffline

	again, err := m.GetDevice(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 10, again.Metrics.ResponseTimeMs, 0.001, "stored state must not alias returned copies")
	assert.Equal(t, model.StatusOnline, again.Status)
}
