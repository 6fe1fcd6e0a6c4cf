package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/terrasense/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService coordinates hard deletion of a device and its readings.
// Readings live in TimescaleDB and devices in the app database, so the two
// deletes cannot share a transaction; readings go first so a partial failure
// leaves an orphaned device row rather than orphaned data.
type CleanupService struct {
	devices  repository.DeviceRepository
	readings repository.ReadingRepository
	events   *nuts.EventEmitter
}

// New creates a new CleanupService
func New(
	devices repository.DeviceRepository,
	readings repository.ReadingRepository,
) *CleanupService {
	return &CleanupService{
		devices:  devices,
		readings: readings,
		events:   nuts.NewEventEmitter(),
	}
}

// DeleteDevice deletes a device and all its readings
func (s *CleanupService) DeleteDevice(ctx context.Context, deviceID string) error {
	tx, err := s.readings.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Will be ignored if transaction is committed

	if err := s.readings.DeleteByDeviceID(ctx, deviceID, tx); err != nil {
		return fmt.Errorf("failed to delete readings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.events.Emit("readings.deleted", deviceID)

	if err := s.devices.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	s.events.Emit("device.deleted", deviceID)
	return nil
}

// PurgeOldReadings drops every reading older than maxAge across all devices.
// Runs periodically from the server's retention loop; device rows are never
// touched, only their history shrinks.
func (s *CleanupService) PurgeOldReadings(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().UTC().Add(-maxAge)
	if err := s.readings.DeleteOldData(ctx, cutoff); err != nil {
		return fmt.Errorf("failed to purge old readings: %w", err)
	}

	nuts.L.Infof("[Cleanup] Purged readings older than %s", cutoff.Format(time.RFC3339))
	s.events.Emit("readings.purged", cutoff.Format(time.RFC3339))
	return nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
