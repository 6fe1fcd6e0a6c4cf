// FilePath: internal/hubservice/hubservice.notifications.go
package hubservice

import (
	"context"
	"fmt"
	"time"

	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// ListNotificationSettings returns the caller's threshold settings.
func (s *HubService) ListNotificationSettings(ctx context.Context, userID string) ([]*models.NotificationSetting, error) {
	return s.Settings.ListByUser(ctx, userID)
}

// UpsertNotificationSetting creates or replaces the setting for one reading
// type of the caller. On replace the stored row keeps its id, so the response
// reuses the existing identity instead of minting a fresh one.
func (s *HubService) UpsertNotificationSetting(ctx context.Context, userID string, setting *models.NotificationSetting) (*models.NotificationSetting, error) {
	if setting.ReadingType == "" {
		return nil, errors.NewValidationError("reading type is required", nil)
	}
	if setting.MinValue != nil && setting.MaxValue != nil && *setting.MinValue > *setting.MaxValue {
		return nil, errors.NewValidationError("min threshold exceeds max threshold", nil)
	}

	now := time.Now().UTC()
	setting.ID = nuts.NID("nts", 12)
	setting.UserID = userID
	setting.CreatedAt = now
	setting.UpdatedAt = now

	existing, err := s.Settings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, prior := range existing {
		if prior.ReadingType == setting.ReadingType {
			setting.ID = prior.ID
			setting.CreatedAt = prior.CreatedAt
			break
		}
	}

	if err := s.Settings.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	return setting, nil
}

// DeleteNotificationSetting removes the setting for one reading type.
func (s *HubService) DeleteNotificationSetting(ctx context.Context, userID, readingType string) error {
	return s.Settings.Delete(ctx, userID, readingType)
}

// ListNotifications returns the caller's raised alerts, newest first.
func (s *HubService) ListNotifications(ctx context.Context, userID string, offset, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Notifications.ListByUser(ctx, userID, offset, limit)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func (s *HubService) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return s.Notifications.MarkRead(ctx, userID, id)
}

// evaluateThresholds checks a freshly stored reading against the owner's
// notification settings and raises alerts for breached thresholds. Runs
// best-effort after persistence; a failure here never fails the ingest.
func (s *HubService) evaluateThresholds(ctx context.Context, device *models.Device, reading *models.Reading) {
	settings, err := s.Settings.ListByUser(ctx, device.OwnerID)
	if err != nil {
		nuts.L.Warnf("[Notifications] Failed to load settings for user %s: %v", device.OwnerID, err)
		return
	}
	if len(settings) == 0 {
		return
	}

	values := readingValues(reading)
	for _, setting := range settings {
		if !setting.Enabled {
			continue
		}
		value, present := values[setting.ReadingType]
		if !present {
			continue
		}

		var message string
		switch {
		case setting.MinValue != nil && value < *setting.MinValue:
			message = fmt.Sprintf("%s on %s dropped to %.2f (below %.2f)", setting.ReadingType, device.Name, value, *setting.MinValue)
		case setting.MaxValue != nil && value > *setting.MaxValue:
			message = fmt.Sprintf("%s on %s rose to %.2f (above %.2f)", setting.ReadingType, device.Name, value, *setting.MaxValue)
		default:
			continue
		}

		notification := &models.Notification{
			ID:          nuts.NID("ntf", 12),
			UserID:      device.OwnerID,
			DeviceID:    device.ID,
			ReadingType: setting.ReadingType,
			Message:     message,
			Value:       value,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.Notifications.Create(ctx, notification); err != nil {
			nuts.L.Warnf("[Notifications] Failed to create notification for user %s: %v", device.OwnerID, err)
		}
	}
}

// readingValues maps setting reading types onto the scalar fields present in
// a reading.
func readingValues(reading *models.Reading) map[string]float64 {
	values := make(map[string]float64)
	put := func(name string, v *float64) {
		if v != nil {
			values[name] = *v
		}
	}

	put("temperature", reading.Temperature)
	put("humidity", reading.Humidity)
	put("pressure", reading.Pressure)
	put("co2", reading.CO2)
	put("dew_point", reading.DewPoint)
	put("heat_index", reading.HeatIndex)
	put("vpd", reading.VPD)
	put("absolute_humidity", reading.AbsoluteHumidity)
	put("par", reading.PAR)
	put("soil_moisture", reading.SoilMoisture)
	put("battery_percentage", reading.BatteryPercentage)
	put("battery_health", reading.BatteryHealth)

	return values
}
