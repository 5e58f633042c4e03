package types

import (
	"fmt"
	"strings"
	"time"
)

// ONURecord is the normalized state of one optical terminal.
// The composite key (DeviceID, PONPort, ONUIndex) is unique and never
// reused across devices.
type ONURecord struct {
	ID       int64
	DeviceID int64

	// PONPort is the OLT fiber port, e.g. "0/1" or "0/1/1"
	PONPort string

	// ONUIndex is the terminal index on the PON port
	ONUIndex int

	Name         string
	Status       ONUStatus
	SerialNumber string
	MACAddress   string

	// Optical diagnostics. Rx is always <= 0 dBm when present.
	RxPower     *float64
	TxPower     *float64
	Temperature *float64

	// DistanceM is the estimated fiber distance in meters
	DistanceM *int

	OfflineReason string
	LastOnlineAt  *time.Time
	LastOfflineAt *time.Time

	// Router-side attribution, filled by enrichment
	RouterName    string
	RouterMAC     string
	PPPoEUsername string
	MatchMethod   string

	Vendor    string
	Model     string
	UpdatedAt time.Time
}

// Key returns the per-device accumulator key "ponPort:onuIndex"
func (r *ONURecord) Key() string {
	return fmt.Sprintf("%s:%d", r.PONPort, r.ONUIndex)
}

// PlaceholderSerial synthesizes a serial for records the parser could not
// extract one for, derived from the composite key.
func PlaceholderSerial(ponPort string, onuIndex int) string {
	flat := strings.NewReplacer("/", "-", ":", "-").Replace(ponPort)
	return fmt.Sprintf("ONU-%s-%d", flat, onuIndex)
}

// IsPlaceholderName reports whether a display name was synthesized rather
// than read from the device. Enrichment must not fuzzy-match on these.
func IsPlaceholderName(name string) bool {
	return name == "" || strings.HasPrefix(name, "ONU-")
}

// Merge copies every non-empty field of other into r. A non-null field of
// r is never overwritten with null; a non-null field of other wins over a
// non-null field of r (later data is more authoritative).
func (r *ONURecord) Merge(other *ONURecord) {
	if other == nil {
		return
	}
	if other.Name != "" && !IsPlaceholderName(other.Name) {
		r.Name = other.Name
	}
	if other.Status != "" && other.Status != StatusUnknown {
		r.Status = other.Status
	}
	if other.SerialNumber != "" && !strings.HasPrefix(other.SerialNumber, "ONU-") {
		r.SerialNumber = other.SerialNumber
	}
	if other.MACAddress != "" {
		r.MACAddress = other.MACAddress
	}
	if other.RxPower != nil {
		r.RxPower = other.RxPower
	}
	if other.TxPower != nil {
		r.TxPower = other.TxPower
	}
	if other.Temperature != nil {
		r.Temperature = other.Temperature
	}
	if other.DistanceM != nil {
		r.DistanceM = other.DistanceM
	}
	if other.OfflineReason != "" {
		r.OfflineReason = other.OfflineReason
	}
	if other.LastOnlineAt != nil {
		r.LastOnlineAt = other.LastOnlineAt
	}
	if other.LastOfflineAt != nil {
		r.LastOfflineAt = other.LastOfflineAt
	}
	if other.RouterName != "" {
		r.RouterName = other.RouterName
	}
	if other.RouterMAC != "" {
		r.RouterMAC = other.RouterMAC
	}
	if other.PPPoEUsername != "" {
		r.PPPoEUsername = other.PPPoEUsername
	}
	if other.MatchMethod != "" {
		r.MatchMethod = other.MatchMethod
	}
	if other.Vendor != "" {
		r.Vendor = other.Vendor
	}
	if other.Model != "" {
		r.Model = other.Model
	}
}

// Float64Ptr is a convenience for building optional optical fields
func Float64Ptr(v float64) *float64 { return &v }

// IntPtr is a convenience for building optional integer fields
func IntPtr(v int) *int { return &v }
