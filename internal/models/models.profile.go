// FilePath: internal/models/models.profile.go
package models

import "time"

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPremium SubscriptionTier = "premium"
)

// UserProfile mirrors one authenticated dashboard user. The tier drives
// read-side field redaction; DeletedAt is a soft-deletion marker.
type UserProfile struct {
	ID        string           `json:"id" db:"id"`
	Tier      SubscriptionTier `json:"tier" db:"tier"`
	DeletedAt *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}

// NotificationSetting configures threshold alerting for one reading type of
// one user. Nil thresholds mean "no bound on that side".
type NotificationSetting struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	ReadingType string    `json:"reading_type" db:"reading_type"`
	Enabled     bool      `json:"enabled" db:"enabled"`
	MinValue    *float64  `json:"min_value" db:"min_value"`
	MaxValue    *float64  `json:"max_value" db:"max_value"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Notification is one raised threshold alert.
type Notification struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	DeviceID    string    `json:"device_id" db:"device_id"`
	ReadingType string    `json:"reading_type" db:"reading_type"`
	Message     string    `json:"message" db:"message"`
	Value       float64   `json:"value" db:"value"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
