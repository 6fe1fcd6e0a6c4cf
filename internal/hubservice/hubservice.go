package hubservice

import (
	"context"

	"github.com/terrasense/hub/internal/cleanup"
	"github.com/terrasense/hub/internal/deviceauth"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/metrics"
	"github.com/terrasense/hub/internal/models"
	"github.com/terrasense/hub/internal/repository"
)

// RoleAdmin marks operators who may act on any device and always see
// unredacted readings.
const RoleAdmin = "admin"

// TierCache caches resolved subscription tiers between requests.
type TierCache interface {
	Get(ctx context.Context, userID string) (models.SubscriptionTier, bool, error)
	Set(ctx context.Context, userID string, tier models.SubscriptionTier) error
	Invalidate(ctx context.Context, userID string) error
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Devices       repository.DeviceRepository
	Readings      repository.ReadingRepository
	Profiles      repository.ProfileRepository
	Settings      repository.NotificationSettingRepository
	Notifications repository.NotificationRepository
	Tiers         TierCache
	Signer        *deviceauth.Signer
	SoilCal       metrics.SoilCalibration
	Cleanup       *cleanup.CleanupService
}

// New creates a new HubService instance
func New(
	devices repository.DeviceRepository,
	readings repository.ReadingRepository,
	profiles repository.ProfileRepository,
	settings repository.NotificationSettingRepository,
	notifications repository.NotificationRepository,
	tiers TierCache,
	signer *deviceauth.Signer,
	soilCal metrics.SoilCalibration,
) *HubService {
	svc := &HubService{
		Devices:       devices,
		Readings:      readings,
		Profiles:      profiles,
		Settings:      settings,
		Notifications: notifications,
		Tiers:         tiers,
		Signer:        signer,
		SoilCal:       soilCal,
	}
	svc.Cleanup = cleanup.New(devices, readings)
	return svc
}

// Validate checks if all required dependencies are initialized
func (s *HubService) Validate() error {
	if s.Devices == nil {
		return ErrMissingDependency("devices")
	}
	if s.Readings == nil {
		return ErrMissingDependency("readings")
	}
	if s.Profiles == nil {
		return ErrMissingDependency("profiles")
	}
	if s.Settings == nil {
		return ErrMissingDependency("settings")
	}
	if s.Notifications == nil {
		return ErrMissingDependency("notifications")
	}
	if s.Signer == nil {
		return ErrMissingDependency("signer")
	}
	return nil
}

func ErrMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
