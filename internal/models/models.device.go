// FilePath: internal/models/models.device.go
package models

import "time"

type DeviceClass string

const (
	DeviceClassAir  DeviceClass = "AIR"
	DeviceClassSoil DeviceClass = "SOIL"
)

// Device represents one physical sensor unit. PublicID is the identifier the
// firmware presents (MAC address or QR-encoded string) and is globally unique;
// ID is the internal storage key.
type Device struct {
	ID        string      `json:"id" db:"id"`
	PublicID  string      `json:"public_id" db:"public_id"`
	Name      string      `json:"name" db:"name"`
	Class     DeviceClass `json:"class" db:"class"`
	CropType  string      `json:"crop_type,omitempty" db:"crop_type"`
	OwnerID   string      `json:"owner_id" db:"owner_id"`
	Favorite  bool        `json:"favorite" db:"favorite"`
	LastSeen  *time.Time  `json:"last_seen,omitempty" db:"last_seen"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// DeviceValidation is the live-feedback result for a candidate public
// identifier typed or scanned in the dashboard.
type DeviceValidation struct {
	IsValid     bool   `json:"isValid"`
	IsUsed      bool   `json:"isUsed"`
	CanonicalID string `json:"canonicalId"`
	MACAddress  string `json:"macAddress,omitempty"`
}

// ProvisionResult carries a freshly registered device together with its
// credential. The token is revealed exactly once and is not stored server-side.
type ProvisionResult struct {
	Token  string  `json:"token"`
	Device *Device `json:"device"`
}

// DeviceStatus is the composite detail view for one device: the directory row,
// its most recent reading (tier-redacted like the read gateway) and an online
// classification derived from the last ingest.
type DeviceStatus struct {
	Device       *Device    `json:"device"`
	LastReading  *Reading   `json:"last_reading,omitempty"`
	OnlineStatus string     `json:"online_status"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}
