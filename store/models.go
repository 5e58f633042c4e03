// Package store persists fleet state. The schema is owned by this
// package; callers exchange types.* values and never see gorm rows.
package store

import (
	"time"

	"github.com/nanoncore/nano-fleetmon/types"
)

// Device is one configured OLT row.
type Device struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	Name          string `gorm:"index" json:"name"`
	Brand         string `json:"brand"`
	Mode          string `json:"mode"`
	Address       string `json:"address"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"-"`
	SNMPCommunity string `json:"snmp_community"`
	TimeoutSec    int    `json:"timeout_sec"`

	RouterName     string `json:"router_name"`
	RouterAddress  string `json:"router_address"`
	RouterPort     int    `json:"router_port"`
	RouterUsername string `json:"router_username"`
	RouterPassword string `json:"-"`
	RouterTLS      bool   `json:"router_tls"`

	Status          string     `gorm:"index" json:"status"`
	ActivePortCount int        `json:"active_port_count"`
	LastPolledAt    *time.Time `json:"last_polled_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Config converts a device row into the immutable per-cycle view the
// pipeline consumes.
func (d *Device) Config() types.DeviceConfig {
	cfg := types.DeviceConfig{
		ID:            d.ID,
		Name:          d.Name,
		Brand:         types.Brand(d.Brand),
		Mode:          types.Mode(d.Mode),
		Address:       d.Address,
		Port:          d.Port,
		Username:      d.Username,
		Password:      d.Password,
		SNMPCommunity: d.SNMPCommunity,
		Timeout:       time.Duration(d.TimeoutSec) * time.Second,
	}
	if d.RouterAddress != "" {
		cfg.Router = &types.RouterConfig{
			Name:     d.RouterName,
			Address:  d.RouterAddress,
			Port:     d.RouterPort,
			Username: d.RouterUsername,
			Password: d.RouterPassword,
			UseTLS:   d.RouterTLS,
		}
	}
	return cfg
}

// ONU is one persisted terminal row. The composite index backs both
// upsert lookups and the duplicate-repair grouping.
type ONU struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	DeviceID int64  `gorm:"index:idx_onu_key" json:"device_id"`
	PONPort  string `gorm:"index:idx_onu_key" json:"pon_port"`
	ONUIndex int    `gorm:"index:idx_onu_key" json:"onu_index"`

	Name         string `json:"name"`
	Status       string `gorm:"index" json:"status"`
	SerialNumber string `gorm:"index" json:"serial_number"`
	MACAddress   string `json:"mac_address"`

	RxPower     *float64 `json:"rx_power"`
	TxPower     *float64 `json:"tx_power"`
	Temperature *float64 `json:"temperature"`
	DistanceM   *int     `json:"distance_m"`

	OfflineReason string     `json:"offline_reason"`
	LastOnlineAt  *time.Time `json:"last_online_at"`
	LastOfflineAt *time.Time `json:"last_offline_at"`

	RouterName    string `json:"router_name"`
	RouterMAC     string `json:"router_mac"`
	PPPoEUsername string `json:"pppoe_username"`
	MatchMethod   string `json:"match_method"`

	Vendor    string    `json:"vendor"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (o *ONU) record() *types.ONURecord {
	return &types.ONURecord{
		ID:            o.ID,
		DeviceID:      o.DeviceID,
		PONPort:       o.PONPort,
		ONUIndex:      o.ONUIndex,
		Name:          o.Name,
		Status:        types.ONUStatus(o.Status),
		SerialNumber:  o.SerialNumber,
		MACAddress:    o.MACAddress,
		RxPower:       o.RxPower,
		TxPower:       o.TxPower,
		Temperature:   o.Temperature,
		DistanceM:     o.DistanceM,
		OfflineReason: o.OfflineReason,
		LastOnlineAt:  o.LastOnlineAt,
		LastOfflineAt: o.LastOfflineAt,
		RouterName:    o.RouterName,
		RouterMAC:     o.RouterMAC,
		PPPoEUsername: o.PPPoEUsername,
		MatchMethod:   o.MatchMethod,
		Vendor:        o.Vendor,
		Model:         o.Model,
		UpdatedAt:     o.UpdatedAt,
	}
}

func onuFromRecord(r *types.ONURecord) *ONU {
	return &ONU{
		ID:            r.ID,
		DeviceID:      r.DeviceID,
		PONPort:       r.PONPort,
		ONUIndex:      r.ONUIndex,
		Name:          r.Name,
		Status:        string(r.Status),
		SerialNumber:  r.SerialNumber,
		MACAddress:    r.MACAddress,
		RxPower:       r.RxPower,
		TxPower:       r.TxPower,
		Temperature:   r.Temperature,
		DistanceM:     r.DistanceM,
		OfflineReason: r.OfflineReason,
		LastOnlineAt:  r.LastOnlineAt,
		LastOfflineAt: r.LastOfflineAt,
		RouterName:    r.RouterName,
		RouterMAC:     r.RouterMAC,
		PPPoEUsername: r.PPPoEUsername,
		MatchMethod:   r.MatchMethod,
		Vendor:        r.Vendor,
		Model:         r.Model,
	}
}

// Alert is one persisted alert event.
type Alert struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	DeviceID  int64     `gorm:"index:idx_alert_dedupe" json:"device_id"`
	Type      string    `gorm:"index:idx_alert_dedupe" json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `gorm:"index:idx_alert_dedupe" json:"created_at"`
}

// PowerReading is one optical sample, kept as a time series.
type PowerReading struct {
	ID      int64     `gorm:"primaryKey" json:"id"`
	ONUID   int64     `gorm:"index" json:"onu_id"`
	RxPower float64   `json:"rx_power"`
	TxPower float64   `json:"tx_power"`
	TakenAt time.Time `gorm:"index" json:"taken_at"`
}

// PollDebugLog is one poll attempt record, ring-capped per device.
type PollDebugLog struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	DeviceID         int64     `gorm:"index" json:"device_id"`
	RawOutput        string    `json:"raw_output"`
	ParsedCount      int       `json:"parsed_count"`
	ConnectionMethod string    `json:"connection_method"`
	Error            string    `json:"error"`
	DurationMs       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// Setting is one settings row, key/value with typed readers on the
// provider side.
type Setting struct {
	Name  string `gorm:"primaryKey" json:"name"`
	Value string `json:"value"`
}

// Tables lists every model for automigrate.
func Tables() []any {
	return []any{&Device{}, &ONU{}, &Alert{}, &PowerReading{}, &PollDebugLog{}, &Setting{}}
}
