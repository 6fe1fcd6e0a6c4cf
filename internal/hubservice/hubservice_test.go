// FilePath: internal/hubservice/hubservice_test.go
package hubservice

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/deviceauth"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/metrics"
	"github.com/terrasense/hub/internal/models"
)

// In-memory repository fakes. They mirror the error semantics of the real
// postgres/timescale implementations so service tests exercise the same
// branches handlers see in production.

type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
func (fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

type fakeDeviceRepo struct {
	mu      sync.Mutex
	devices map[string]*models.Device
}

func newFakeDeviceRepo() *fakeDeviceRepo {
	return &fakeDeviceRepo{devices: make(map[string]*models.Device)}
}

func (r *fakeDeviceRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeDeviceRepo) Create(ctx context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.PublicID == device.PublicID {
			return errors.NewConflictError("device identifier already registered", nil)
		}
	}
	clone := *device
	r.devices[device.ID] = &clone
	return nil
}

func (r *fakeDeviceRepo) Get(ctx context.Context, id string) (*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[id]
	if !ok {
		return nil, errors.NewNotFoundError("device not found", nil)
	}
	clone := *device
	return &clone, nil
}

func (r *fakeDeviceRepo) GetByPublicID(ctx context.Context, publicID string) (*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.PublicID == publicID {
			clone := *d
			return &clone, nil
		}
	}
	return nil, errors.NewNotFoundError("device not registered", nil)
}

func (r *fakeDeviceRepo) ExistsByPublicID(ctx context.Context, publicID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.devices {
		if d.PublicID == publicID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeDeviceRepo) Update(ctx context.Context, device *models.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[device.ID]; !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	clone := *device
	r.devices[device.ID] = &clone
	return nil
}

func (r *fakeDeviceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[id]; !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	delete(r.devices, id)
	return nil
}

func (r *fakeDeviceRepo) ListByOwner(ctx context.Context, ownerID string, offset, limit int) ([]*models.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned := []*models.Device{}
	for _, d := range r.devices {
		if d.OwnerID == ownerID {
			clone := *d
			owned = append(owned, &clone)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].Favorite != owned[j].Favorite {
			return owned[i].Favorite
		}
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	if offset >= len(owned) {
		return []*models.Device{}, nil
	}
	owned = owned[offset:]
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (r *fakeDeviceRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[id]
	if !ok {
		return errors.NewNotFoundError("device not found", nil)
	}
	ts := lastSeen
	device.LastSeen = &ts
	return nil
}

type fakeReadingRepo struct {
	mu       sync.Mutex
	readings []*models.Reading
}

func newFakeReadingRepo() *fakeReadingRepo {
	return &fakeReadingRepo{}
}

func (r *fakeReadingRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *reading
	r.readings = append(r.readings, &clone)
	return nil
}

func (r *fakeReadingRepo) GetRange(ctx context.Context, deviceIDs []string, start, end time.Time, limit int) ([]*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(deviceIDs))
	for _, id := range deviceIDs {
		wanted[id] = true
	}
	out := []*models.Reading{}
	for _, reading := range r.readings {
		if !wanted[reading.DeviceID] {
			continue
		}
		if reading.Timestamp.Before(start) || reading.Timestamp.After(end) {
			continue
		}
		clone := *reading
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeReadingRepo) GetLatestByDevice(ctx context.Context, deviceID string) (*models.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.Reading
	for _, reading := range r.readings {
		if reading.DeviceID != deviceID {
			continue
		}
		if latest == nil || reading.Timestamp.After(latest.Timestamp) {
			latest = reading
		}
	}
	if latest == nil {
		return nil, errors.NewNotFoundError("no readings for device", nil)
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeReadingRepo) DeleteByDeviceID(ctx context.Context, deviceID string, tx database.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.readings[:0]
	for _, reading := range r.readings {
		if reading.DeviceID != deviceID {
			kept = append(kept, reading)
		}
	}
	r.readings = kept
	return nil
}

func (r *fakeReadingRepo) DeleteOldData(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.readings[:0]
	for _, reading := range r.readings {
		if !reading.Timestamp.Before(before) {
			kept = append(kept, reading)
		}
	}
	r.readings = kept
	return nil
}

func (r *fakeReadingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.readings)
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.UserProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[string]*models.UserProfile)}
}

func (r *fakeProfileRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeProfileRepo) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok || profile.DeletedAt != nil {
		return nil, errors.NewNotFoundError("profile not found", nil)
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeProfileRepo) Upsert(ctx context.Context, profile *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *profile
	r.profiles[profile.ID] = &clone
	return nil
}

type fakeSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*models.NotificationSetting
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: make(map[string]*models.NotificationSetting)}
}

func settingKey(userID, readingType string) string {
	return userID + "|" + readingType
}

func (r *fakeSettingRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeSettingRepo) ListByUser(ctx context.Context, userID string) ([]*models.NotificationSetting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.NotificationSetting{}
	for _, setting := range r.settings {
		if setting.UserID == userID {
			clone := *setting
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSettingRepo) Upsert(ctx context.Context, setting *models.NotificationSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *setting
	r.settings[settingKey(setting.UserID, setting.ReadingType)] = &clone
	return nil
}

func (r *fakeSettingRepo) Delete(ctx context.Context, userID, readingType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.settings, settingKey(userID, readingType))
	return nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) BeginTx(ctx context.Context) (database.Transaction, error) {
	return fakeTx{}, nil
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *notification
	r.notifications = append(r.notifications, &clone)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Notification{}
	for _, n := range r.notifications {
		if n.UserID == userID {
			clone := *n
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []*models.Notification{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			return nil
		}
	}
	return errors.NewNotFoundError("notification not found", nil)
}

type fakeTierCache struct {
	mu    sync.Mutex
	tiers map[string]models.SubscriptionTier
}

func newFakeTierCache() *fakeTierCache {
	return &fakeTierCache{tiers: make(map[string]models.SubscriptionTier)}
}

func (c *fakeTierCache) Get(ctx context.Context, userID string) (models.SubscriptionTier, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tier, ok := c.tiers[userID]
	return tier, ok, nil
}

func (c *fakeTierCache) Set(ctx context.Context, userID string, tier models.SubscriptionTier) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tiers[userID] = tier
	return nil
}

func (c *fakeTierCache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tiers, userID)
	return nil
}

type testEnv struct {
	svc           *HubService
	devices       *fakeDeviceRepo
	readings      *fakeReadingRepo
	profiles      *fakeProfileRepo
	settings      *fakeSettingRepo
	notifications *fakeNotificationRepo
	tiers         *fakeTierCache
}

func newTestEnv() *testEnv {
	devices := newFakeDeviceRepo()
	readings := newFakeReadingRepo()
	profiles := newFakeProfileRepo()
	settings := newFakeSettingRepo()
	notifications := newFakeNotificationRepo()
	tiers := newFakeTierCache()

	signer := deviceauth.NewSigner("test-signing-secret", "terrasense-hub", 0)
	svc := New(devices, readings, profiles, settings, notifications, tiers, signer, metrics.DefaultSoilCalibration)

	return &testEnv{
		svc:           svc,
		devices:       devices,
		readings:      readings,
		profiles:      profiles,
		settings:      settings,
		notifications: notifications,
		tiers:         tiers,
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
