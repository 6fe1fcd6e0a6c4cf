// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
)

// DeviceRepository defines the interface for device directory operations
type DeviceRepository interface {
	database.Repository
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, id string) (*models.Device, error)
	GetByPublicID(ctx context.Context, publicID string) (*models.Device, error)
	ExistsByPublicID(ctx context.Context, publicID string) (bool, error)
	Update(ctx context.Context, device *models.Device) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Device, error)
	UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error
}

// ReadingRepository defines the interface for persisted measurement rows
type ReadingRepository interface {
	database.Repository
	Insert(ctx context.Context, reading *models.Reading) error
	GetRange(ctx context.Context, deviceIDs []string, start, end time.Time, limit int) ([]*models.Reading, error)
	GetLatestByDevice(ctx context.Context, deviceID string) (*models.Reading, error)
	DeleteByDeviceID(ctx context.Context, deviceID string, tx database.Transaction) error
	DeleteOldData(ctx context.Context, before time.Time) error
}

// ProfileRepository defines the interface for user profile lookups
type ProfileRepository interface {
	database.Repository
	Get(ctx context.Context, userID string) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) error
}

// NotificationSettingRepository manages per-user threshold settings
type NotificationSettingRepository interface {
	database.Repository
	ListByUser(ctx context.Context, userID string) ([]*models.NotificationSetting, error)
	Upsert(ctx context.Context, setting *models.NotificationSetting) error
	Delete(ctx context.Context, userID, readingType string) error
}

// NotificationRepository manages raised alerts
type NotificationRepository interface {
	database.Repository
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
