// FilePath: internal/hubservice/hubservice.readings.go
package hubservice

import (
	"context"
	"time"

	"github.com/itsatony/struccy"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	defaultReadingsLimit = 500
	maxReadingsLimit     = 5000
)

var timeRangePresets = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ResolveTier returns the caller's subscription tier, consulting the redis
// cache first. A missing or soft-deleted profile deliberately defaults to
// free rather than failing the request.
func (s *HubService) ResolveTier(ctx context.Context, userID string) models.SubscriptionTier {
	if s.Tiers != nil {
		tier, found, err := s.Tiers.Get(ctx, userID)
		if err != nil {
			nuts.L.Warnf("[ReadingsService] Tier cache lookup failed for %s: %v", userID, err)
		} else if found {
			return tier
		}
	}

	tier := models.TierFree
	profile, err := s.Profiles.Get(ctx, userID)
	if err == nil {
		tier = profile.Tier
	} else if !errors.IsNotFound(err) {
		nuts.L.Warnf("[ReadingsService] Profile lookup failed for %s: %v", userID, err)
	}

	if s.Tiers != nil {
		if err := s.Tiers.Set(ctx, userID, tier); err != nil {
			nuts.L.Warnf("[ReadingsService] Tier cache store failed for %s: %v", userID, err)
		}
	}
	return tier
}

// GetReadings serves the tiered read gateway: time-ranged rows for the
// caller's devices with premium fields blanked for free-tier callers.
// Redaction is purely read-side; stored rows always carry the full data, so
// upgrading a subscription retroactively reveals history.
func (s *HubService) GetReadings(ctx context.Context, callerID string, roles []string, query models.ReadingsQuery) ([]*models.Reading, error) {
	start, end, err := resolveTimeRange(query)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultReadingsLimit
	}
	if limit > maxReadingsLimit {
		limit = maxReadingsLimit
	}

	deviceIDs, err := s.resolveDeviceFilter(ctx, callerID, roles, query.DeviceID)
	if err != nil {
		return nil, err
	}
	if len(deviceIDs) == 0 {
		return []*models.Reading{}, nil
	}

	readings, err := s.Readings.GetRange(ctx, deviceIDs, start, end, limit)
	if err != nil {
		return nil, err
	}

	tier := s.ResolveTier(ctx, callerID)
	if tier == models.TierPremium || hasRole(roles, RoleAdmin) {
		return readings, nil
	}
	return redactReadings(readings, tier), nil
}

func (s *HubService) resolveDeviceFilter(ctx context.Context, callerID string, roles []string, deviceID string) ([]string, error) {
	if deviceID == "" || deviceID == "all" {
		devices, err := s.Devices.ListByOwner(ctx, callerID, 0, 100)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(devices))
		for _, device := range devices {
			ids = append(ids, device.ID)
		}
		return ids, nil
	}

	device, err := s.GetDevice(ctx, callerID, roles, deviceID)
	if err != nil {
		return nil, err
	}
	return []string{device.ID}, nil
}

func resolveTimeRange(query models.ReadingsQuery) (time.Time, time.Time, error) {
	now := time.Now().UTC()

	if query.TimeRange == "custom" {
		start, err := time.Parse(time.RFC3339, query.Start)
		if err != nil {
			return time.Time{}, time.Time{}, errors.NewValidationError("invalid start timestamp", err)
		}
		end := now
		if query.End != "" {
			end, err = time.Parse(time.RFC3339, query.End)
			if err != nil {
				return time.Time{}, time.Time{}, errors.NewValidationError("invalid end timestamp", err)
			}
		}
		if end.Before(start) {
			return time.Time{}, time.Time{}, errors.NewValidationError("end precedes start", nil)
		}
		return start, end, nil
	}

	duration, ok := timeRangePresets[query.TimeRange]
	if !ok {
		if query.TimeRange != "" {
			return time.Time{}, time.Time{}, errors.NewValidationError("unknown time range preset", nil)
		}
		duration = 24 * time.Hour
	}
	return now.Add(-duration), now, nil
}

// redactReadings blanks every field the tier is not entitled to, using the
// readxs tags on the Reading struct. Redacted pointer fields come back nil
// and serialize as JSON null.
func redactReadings(readings []*models.Reading, tier models.SubscriptionTier) []*models.Reading {
	roles := []string{string(tier)}
	redacted := make([]*models.Reading, 0, len(readings))

	for _, reading := range readings {
		filteredMap, err := struccy.StructToMapFieldsWithReadXS(reading, roles)
		if err != nil {
			nuts.L.Warnf("[ReadingsService] Failed to filter reading %s: %v", reading.ID, err)
			continue
		}
		filtered := &models.Reading{}
		_, err = struccy.MergeMapStringFieldsToStruct(filtered, filteredMap, roles)
		if err != nil {
			nuts.L.Warnf("[ReadingsService] Failed to map filtered fields for reading %s: %v", reading.ID, err)
			continue
		}
		redacted = append(redacted, filtered)
	}

	return redacted
}
