package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/netsentry/netsentry/internal/model"
)

// SQLite is a Repository backed by a local SQLite database, so device
// inventory and alert history survive process restarts.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS devices (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL,
	type       TEXT NOT NULL,
	status     TEXT NOT NULL,
	first_seen INTEGER NOT NULL,
	last_seen  INTEGER NOT NULL DEFAULT 0,
	metrics    TEXT
);
CREATE TABLE IF NOT EXISTS alerts (
	id           TEXT PRIMARY KEY,
	device_id    TEXT NOT NULL REFERENCES devices(id),
	type         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	message      TEXT NOT NULL,
	timestamp    INTEGER NOT NULL,
	acknowledged INTEGER NOT NULL DEFAULT 0,
	value        INTEGER NOT NULL,
	threshold    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_device ON alerts(device_id, timestamp);
`

// OpenSQLite opens (creating if needed) the database at path and runs the
// schema migration. The file's directory is created if missing.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("repo: mkdir %q: %w", filepath.Dir(path), err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000&_pragma=journal_mode=WAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("repo: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repo: migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) UpsertDevice(ctx context.Context, d model.Device) error {
	if d.FirstSeen.IsZero() {
		d.FirstSeen = time.Now()
	}
	metrics, err := marshalMetrics(d.Metrics)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO devices (id, name, address, type, status, first_seen, last_seen, metrics)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			type = excluded.type,
			status = excluded.status,
			last_seen = excluded.last_seen,
			metrics = excluded.metrics`,
		d.ID, d.Name, d.Address, d.Type, d.Status,
		d.FirstSeen.UnixMilli(), d.LastSeen.UnixMilli(), metrics)
	if err != nil {
		return fmt.Errorf("repo: upsert device %q: %w", d.ID, err)
	}
	return nil
}

func (s *SQLite) GetDevice(ctx context.Context, id string) (model.Device, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, type, status, first_seen, last_seen, metrics
		 FROM devices WHERE id = ?`, id)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return model.Device{}, ErrNotFound
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("repo: get device %q: %w", id, err)
	}
	d.Alerts, err = s.ListAlerts(ctx, id)
	if err != nil {
		return model.Device{}, err
	}
	return d, nil
}

func (s *SQLite) ListDevices(ctx context.Context) ([]model.Device, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, type, status, first_seen, last_seen, metrics
		 FROM devices ORDER BY first_seen, id`)
	if err != nil {
		return nil, fmt.Errorf("repo: list devices: %w", err)
	}
	defer rows.Close()

	var out []model.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("repo: scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) CountDevices(ctx context.Context) (int, error) {
	return s.countRow(ctx, `SELECT COUNT(*) FROM devices`)
}

func (s *SQLite) CountOnline(ctx context.Context) (int, error) {
	return s.countRow(ctx,
		`SELECT COUNT(*) FROM devices WHERE status IN (?, ?)`,
		model.StatusOnline, model.StatusUp)
}

func (s *SQLite) CountDiscoveredSince(ctx context.Context, t time.Time) (int, error) {
	return s.countRow(ctx,
		`SELECT COUNT(*) FROM devices WHERE first_seen >= ?`, t.UnixMilli())
}

func (s *SQLite) CountUnacknowledgedAlerts(ctx context.Context) (int, error) {
	return s.countRow(ctx, `SELECT COUNT(*) FROM alerts WHERE acknowledged = 0`)
}

func (s *SQLite) UpdateDeviceState(ctx context.Context, id, status string, m *model.DeviceMetrics, seen time.Time) error {
	metrics, err := marshalMetrics(m)
	if err != nil {
		return err
	}
	var res sql.Result
	if m == nil {
		res, err = s.db.ExecContext(ctx,
			`UPDATE devices SET status = ?, last_seen = ? WHERE id = ?`,
			status, seen.UnixMilli(), id)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE devices SET status = ?, last_seen = ?, metrics = ? WHERE id = ?`,
			status, seen.UnixMilli(), metrics, id)
	}
	if err != nil {
		return fmt.Errorf("repo: update device state %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) FindSystemDevice(ctx context.Context) (model.Device, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, type, status, first_seen, last_seen, metrics
		FROM devices WHERE address = ? OR name = ?
		ORDER BY CASE WHEN address = ? THEN 0 ELSE 1 END
		LIMIT 1`,
		model.SystemDeviceAddress, model.SystemDeviceName, model.SystemDeviceAddress)
	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return model.Device{}, ErrNotFound
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("repo: find system device: %w", err)
	}
	d.Alerts, err = s.ListAlerts(ctx, d.ID)
	if err != nil {
		return model.Device{}, err
	}
	return d, nil
}

func (s *SQLite) AppendAlert(ctx context.Context, deviceID string, a model.HealthAlert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, device_id, type, severity, message, timestamp, acknowledged, value, threshold)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, deviceID, a.Type, a.Severity, a.Message,
		a.Timestamp.UnixMilli(), boolInt(a.Acknowledged), a.Value, a.Threshold)
	if err != nil {
		return fmt.Errorf("repo: append alert to %q: %w", deviceID, err)
	}
	return nil
}

func (s *SQLite) ListAlerts(ctx context.Context, deviceID string) ([]model.HealthAlert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, severity, message, timestamp, acknowledged, value, threshold
		FROM alerts WHERE device_id = ? ORDER BY timestamp, id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("repo: list alerts for %q: %w", deviceID, err)
	}
	defer rows.Close()

	var out []model.HealthAlert
	for rows.Next() {
		var a model.HealthAlert
		var ts int64
		var ack int
		if err := rows.Scan(&a.ID, &a.Type, &a.Severity, &a.Message, &ts, &ack, &a.Value, &a.Threshold); err != nil {
			return nil, fmt.Errorf("repo: scan alert: %w", err)
		}
		a.Timestamp = time.UnixMilli(ts)
		a.Acknowledged = ack != 0
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) AcknowledgeAlert(ctx context.Context, deviceID, alertID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE alerts SET acknowledged = 1 WHERE device_id = ? AND id = ?`,
		deviceID, alertID)
	if err != nil {
		return fmt.Errorf("repo: acknowledge alert %q: %w", alertID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) countRow(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo: count: %w", err)
	}
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (model.Device, error) {
	var d model.Device
	var firstSeen, lastSeen int64
	var metrics sql.NullString
	err := row.Scan(&d.ID, &d.Name, &d.Address, &d.Type, &d.Status, &firstSeen, &lastSeen, &metrics)
	if err != nil {
		return model.Device{}, err
	}
	d.FirstSeen = time.UnixMilli(firstSeen)
	if lastSeen > 0 {
		d.LastSeen = time.UnixMilli(lastSeen)
	}
	if metrics.Valid && metrics.String != "" {
		var m model.DeviceMetrics
		if err := json.Unmarshal([]byte(metrics.String), &m); err != nil {
			return model.Device{}, fmt.Errorf("decode metrics: %w", err)
		}
		d.Metrics = &m
	}
	return d, nil
}

func marshalMetrics(m *model.DeviceMetrics) (sql.NullString, error) {
	if m == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("repo: encode metrics: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
