// FilePath: internal/hubservice/hubservice.device.go
package hubservice

import (
	"context"
	"time"

	"github.com/terrasense/hub/internal/deviceid"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// RegisterDevice creates a device row owned by ownerID and mints its
// credential. The token is returned exactly once and never persisted; losing
// it means re-provisioning the device.
func (s *HubService) RegisterDevice(ctx context.Context, ownerID, publicID, name string, class models.DeviceClass) (*models.ProvisionResult, error) {
	if ownerID == "" {
		return nil, errors.NewAuthError("no authenticated user", nil)
	}
	if name == "" {
		return nil, errors.NewValidationError("device name is required", nil)
	}

	canonicalID, _, ok := deviceid.Canonicalize(publicID)
	if !ok {
		return nil, errors.NewValidationError("unrecognized device identifier format", nil)
	}

	if class == "" {
		class = models.DeviceClassAir
	}
	if class != models.DeviceClassAir && class != models.DeviceClassSoil {
		return nil, errors.NewValidationError("unknown device class", nil)
	}

	now := time.Now().UTC()
	device := &models.Device{
		ID:        nuts.NID("dev", 12),
		PublicID:  canonicalID,
		Name:      name,
		Class:     class,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The unique constraint on public_id is the source of truth for
	// duplicates; a racing registration surfaces as a conflict here.
	if err := s.Devices.Create(ctx, device); err != nil {
		return nil, err
	}

	token, err := s.Signer.Mint(canonicalID, ownerID)
	if err != nil {
		return nil, err
	}

	nuts.L.Infof("[DeviceService] Registered device %s (%s) for user %s", device.ID, canonicalID, ownerID)
	return &models.ProvisionResult{Token: token, Device: device}, nil
}

// ValidateIdentifier gives the dashboard live feedback on a candidate public
// identifier: format validity and whether it is already registered. Read-only.
func (s *HubService) ValidateIdentifier(ctx context.Context, raw string) (*models.DeviceValidation, error) {
	canonicalID, isMAC, ok := deviceid.Canonicalize(raw)
	if !ok {
		return &models.DeviceValidation{IsValid: false}, nil
	}

	used, err := s.Devices.ExistsByPublicID(ctx, canonicalID)
	if err != nil {
		return nil, err
	}

	result := &models.DeviceValidation{
		IsValid:     true,
		IsUsed:      used,
		CanonicalID: canonicalID,
	}
	if isMAC {
		result.MACAddress = canonicalID
	}
	return result, nil
}

// GetDevice returns a device the caller owns (or any device for admins).
func (s *HubService) GetDevice(ctx context.Context, callerID string, roles []string, id string) (*models.Device, error) {
	device, err := s.Devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != callerID && !hasRole(roles, RoleAdmin) {
		return nil, errors.NewAuthorizationError("device belongs to another user", nil)
	}
	return device, nil
}

// ListDevices returns the caller's devices, favorites first.
func (s *HubService) ListDevices(ctx context.Context, callerID string, offset, limit int) ([]*models.Device, error) {
	if limit <= 0 || limit > 100 {
		limit = 50 // Default limit
	}
	if offset < 0 {
		offset = 0
	}
	return s.Devices.ListByOwner(ctx, callerID, offset, limit)
}

// UpdateDevice applies owner-editable fields: name, class, crop type,
// favorite. The public identifier and owner are immutable.
func (s *HubService) UpdateDevice(ctx context.Context, callerID string, roles []string, update *models.Device) (*models.Device, error) {
	existing, err := s.GetDevice(ctx, callerID, roles, update.ID)
	if err != nil {
		return nil, err
	}

	if update.Name != "" {
		existing.Name = update.Name
	}
	if update.Class != "" {
		if update.Class != models.DeviceClassAir && update.Class != models.DeviceClassSoil {
			return nil, errors.NewValidationError("unknown device class", nil)
		}
		existing.Class = update.Class
	}
	existing.CropType = update.CropType
	existing.Favorite = update.Favorite
	existing.UpdatedAt = time.Now().UTC()

	if err := s.Devices.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetDeviceStatus returns the composite detail view for one device: the
// directory row, the most recent reading and an online classification from
// the last ingest. The latest reading passes through the same tier redaction
// as the read gateway; a device with no readings yet simply has none.
func (s *HubService) GetDeviceStatus(ctx context.Context, callerID string, roles []string, id string) (*models.DeviceStatus, error) {
	device, err := s.GetDevice(ctx, callerID, roles, id)
	if err != nil {
		return nil, err
	}

	var latest *models.Reading
	latest, err = s.Readings.GetLatestByDevice(ctx, device.ID)
	if err != nil {
		if !errors.IsNotFound(err) {
			nuts.L.Warnf("[DeviceService] Failed to load latest reading for device %s: %v", device.ID, err)
		}
		latest = nil
	}

	if latest != nil {
		tier := s.ResolveTier(ctx, callerID)
		if tier != models.TierPremium && !hasRole(roles, RoleAdmin) {
			redacted := redactReadings([]*models.Reading{latest}, tier)
			if len(redacted) == 1 {
				latest = redacted[0]
			}
		}
	}

	return &models.DeviceStatus{
		Device:       device,
		LastReading:  latest,
		OnlineStatus: determineOnlineStatus(device.LastSeen),
		LastActivity: device.LastSeen,
	}, nil
}

// determineOnlineStatus classifies a device by how recently it reported.
func determineOnlineStatus(lastSeen *time.Time) string {
	if lastSeen == nil {
		return "offline"
	}
	switch elapsed := time.Since(*lastSeen); {
	case elapsed < 5*time.Minute:
		return "online"
	case elapsed < 15*time.Minute:
		return "away"
	default:
		return "offline"
	}
}

// DeleteDevice removes a device and all of its readings. Deletion is hard;
// the issued credential becomes useless because ingestion re-resolves the
// directory row on every submission.
func (s *HubService) DeleteDevice(ctx context.Context, callerID string, roles []string, id string) error {
	if _, err := s.GetDevice(ctx, callerID, roles, id); err != nil {
		return err
	}

	nuts.L.Infof("[DeviceService] Deleting device %s and its readings", id)
	return s.Cleanup.DeleteDevice(ctx, id)
}
