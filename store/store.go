package store

import (
	"context"
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// Store is the persistence surface the poll pipeline depends on.
type Store interface {
	// Devices returns every configured OLT as a per-cycle config view.
	Devices(ctx context.Context) ([]types.DeviceConfig, error)

	// Device returns one OLT by id.
	Device(ctx context.Context, id int64) (types.DeviceConfig, error)

	// ONUsForDevice returns every persisted record for a device.
	ONUsForDevice(ctx context.Context, deviceID int64) ([]*types.ONURecord, error)

	// UpsertONU writes one record; a zero ID inserts, otherwise the
	// existing row is updated. The record's ID is filled on insert.
	UpsertONU(ctx context.Context, r *types.ONURecord) error

	// DeleteONUs removes rows by id.
	DeleteONUs(ctx context.Context, ids []int64) error

	InsertAlert(ctx context.Context, a *types.Alert) error
	InsertPowerReading(ctx context.Context, p *types.PowerReading) error

	// InsertPollDebugLog appends a debug entry and trims the device's
	// history to the newest debugLogKeep entries.
	InsertPollDebugLog(ctx context.Context, l *types.PollDebugLog) error

	// RecentAlerts returns alerts of one type for a device created at
	// or after since, newest first.
	RecentAlerts(ctx context.Context, deviceID int64, alertType string, since time.Time) ([]types.Alert, error)

	// UpdateDeviceStatus writes the post-poll device summary.
	UpdateDeviceStatus(ctx context.Context, deviceID int64, status string, lastPolled time.Time, activePorts int) error
}

// debugLogKeep is the per-device poll history depth.
const debugLogKeep = 10
