package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nanoncore/nano-fleetmon/types"
)

// GormStore implements Store on a gorm DB handle.
type GormStore struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(Tables()...); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// NewGormStore wraps an existing handle, used by tests with sqlite or a
// transaction-scoped DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Devices(ctx context.Context) ([]types.DeviceConfig, error) {
	var rows []Device
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	configs := make([]types.DeviceConfig, 0, len(rows))
	for i := range rows {
		configs = append(configs, rows[i].Config())
	}
	return configs, nil
}

func (s *GormStore) Device(ctx context.Context, id int64) (types.DeviceConfig, error) {
	var row Device
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return types.DeviceConfig{}, fmt.Errorf("device %d not found", id)
		}
		return types.DeviceConfig{}, err
	}
	return row.Config(), nil
}

func (s *GormStore) ONUsForDevice(ctx context.Context, deviceID int64) ([]*types.ONURecord, error) {
	var rows []ONU
	err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("pon_port, onu_index, updated_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]*types.ONURecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (s *GormStore) UpsertONU(ctx context.Context, r *types.ONURecord) error {
	row := onuFromRecord(r)
	var err error
	if row.ID == 0 {
		err = s.db.WithContext(ctx).Create(row).Error
	} else {
		err = s.db.WithContext(ctx).Save(row).Error
	}
	if err != nil {
		return &types.PersistenceError{Key: r.Key(), Err: err}
	}
	r.ID = row.ID
	r.UpdatedAt = row.UpdatedAt
	return nil
}

func (s *GormStore) DeleteONUs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Delete(&ONU{}, ids).Error
}

func (s *GormStore) InsertAlert(ctx context.Context, a *types.Alert) error {
	row := &Alert{
		DeviceID:  a.DeviceID,
		Type:      a.Type,
		Severity:  a.Severity,
		Message:   a.Message,
		CreatedAt: a.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	return nil
}

func (s *GormStore) InsertPowerReading(ctx context.Context, p *types.PowerReading) error {
	row := &PowerReading{
		ONUID:   p.ONUID,
		RxPower: p.RxPower,
		TxPower: p.TxPower,
		TakenAt: p.TakenAt,
	}
	if row.TakenAt.IsZero() {
		row.TakenAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	p.ID = row.ID
	return nil
}

func (s *GormStore) InsertPollDebugLog(ctx context.Context, l *types.PollDebugLog) error {
	row := &PollDebugLog{
		DeviceID:         l.DeviceID,
		RawOutput:        l.RawOutput,
		ParsedCount:      l.ParsedCount,
		ConnectionMethod: l.ConnectionMethod,
		Error:            l.Error,
		DurationMs:       l.Duration.Milliseconds(),
		CreatedAt:        l.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	db := s.db.WithContext(ctx)
	if err := db.Create(row).Error; err != nil {
		return err
	}
	l.ID = row.ID

	// Trim the ring: keep the newest debugLogKeep rows per device.
	var keep []int64
	err := db.Model(&PollDebugLog{}).
		Where("device_id = ?", l.DeviceID).
		Order("created_at desc, id desc").
		Limit(debugLogKeep).
		Pluck("id", &keep).Error
	if err != nil {
		return err
	}
	return db.
		Where("device_id = ? AND id NOT IN ?", l.DeviceID, keep).
		Delete(&PollDebugLog{}).Error
}

func (s *GormStore) RecentAlerts(ctx context.Context, deviceID int64, alertType string, since time.Time) ([]types.Alert, error) {
	var rows []Alert
	err := s.db.WithContext(ctx).
		Where("device_id = ? AND type = ? AND created_at >= ?", deviceID, alertType, since).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	alerts := make([]types.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, types.Alert{
			ID:        row.ID,
			DeviceID:  row.DeviceID,
			Type:      row.Type,
			Severity:  row.Severity,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
		})
	}
	return alerts, nil
}

func (s *GormStore) UpdateDeviceStatus(ctx context.Context, deviceID int64, status string, lastPolled time.Time, activePorts int) error {
	return s.db.WithContext(ctx).Model(&Device{}).
		Where("id = ?", deviceID).
		Updates(map[string]any{
			"status":            status,
			"last_polled_at":    lastPolled,
			"active_port_count": activePorts,
		}).Error
}
