package store

import (
	"context"
	"strconv"
	"time"

	"github.com/nanoncore/nano-fleetmon/cache"
	"github.com/nanoncore/nano-fleetmon/types"
)

// Setting keys.
const (
	settingOfflineDelay = "alert.offline_delay_minutes"
	settingRxThreshold  = "alert.rx_power_threshold"
	settingAlertWindow  = "alert.window_minutes"
)

// Defaults applied when a settings row is absent.
var defaultAlertSettings = types.AlertSettings{
	OfflineDelayMinutes: 5,
	RxPowerThreshold:    -27.0,
	AlertWindow:         6 * time.Hour,
}

const settingsCacheKey = "alert-settings"

// SettingsProvider reads operator-tunable settings with a short TTL
// cache so per-device polls do not hammer the settings table.
type SettingsProvider struct {
	store *GormStore
	cache *cache.TTL[types.AlertSettings]
	ttl   time.Duration
}

func NewSettingsProvider(s *GormStore, ttl time.Duration) *SettingsProvider {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SettingsProvider{
		store: s,
		cache: cache.New[types.AlertSettings](),
		ttl:   ttl,
	}
}

// Alerts returns the current alert settings. A database failure falls
// back to defaults rather than blocking the poll.
func (p *SettingsProvider) Alerts(ctx context.Context) types.AlertSettings {
	if cached, ok := p.cache.Get(settingsCacheKey); ok {
		return cached
	}

	settings := defaultAlertSettings
	var rows []Setting
	if err := p.store.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return settings
	}
	for _, row := range rows {
		switch row.Name {
		case settingOfflineDelay:
			if v, err := strconv.Atoi(row.Value); err == nil && v >= 0 {
				settings.OfflineDelayMinutes = v
			}
		case settingRxThreshold:
			if v, err := strconv.ParseFloat(row.Value, 64); err == nil {
				settings.RxPowerThreshold = v
			}
		case settingAlertWindow:
			if v, err := strconv.Atoi(row.Value); err == nil && v > 0 {
				settings.AlertWindow = time.Duration(v) * time.Minute
			}
		}
	}

	p.cache.Put(settingsCacheKey, settings, p.ttl)
	return settings
}

// Invalidate drops the cached settings, used by the control surface
// after a settings write.
func (p *SettingsProvider) Invalidate() {
	p.cache.Delete(settingsCacheKey)
}
