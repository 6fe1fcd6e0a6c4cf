// FilePath: internal/hubservice/hubservice.device_test.go
package hubservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
)

func TestRegisterDeviceCanonicalizesIdentifier(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.RegisterDevice(ctx, "user-1", "aa-bb-cc-dd-ee-ff", "field sensor", "")
	require.NoError(t, err)

	assert.Equal(t, "AA:BB:CC:DD:EE:FF", result.Device.PublicID)
	assert.Equal(t, models.DeviceClassAir, result.Device.Class) // default class
	assert.Equal(t, "user-1", result.Device.OwnerID)
	require.NotEmpty(t, result.Token)

	// The credential is bound to the canonical identifier, not the raw input.
	claims, err := env.svc.Signer.Verify(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", claims.DeviceID)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestRegisterDeviceQRCodeIdentifier(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.RegisterDevice(ctx, "user-1", "ts-a1b2c3d4", "soil probe", models.DeviceClassSoil)
	require.NoError(t, err)
	assert.Equal(t, "TS-A1B2C3D4", result.Device.PublicID)
	assert.Equal(t, models.DeviceClassSoil, result.Device.Class)
}

func TestRegisterDeviceDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.RegisterDevice(ctx, "user-1", "AA:BB:CC:DD:EE:FF", "first", "")
	require.NoError(t, err)

	// Same physical device in a different notation, even for another user.
	_, err = env.svc.RegisterDevice(ctx, "user-2", "aabbccddeeff", "second", "")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
}

func TestRegisterDeviceValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.RegisterDevice(ctx, "user-1", "not-an-identifier", "x", "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = env.svc.RegisterDevice(ctx, "user-1", "AA:BB:CC:DD:EE:FF", "", "")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = env.svc.RegisterDevice(ctx, "user-1", "AA:BB:CC:DD:EE:FF", "x", "WATER")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = env.svc.RegisterDevice(ctx, "", "AA:BB:CC:DD:EE:FF", "x", "")
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
}

func TestValidateIdentifier(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.ValidateIdentifier(ctx, "aa:bb:cc:dd:ee:ff")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.False(t, result.IsUsed)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", result.CanonicalID)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", result.MACAddress)

	_, err = env.svc.RegisterDevice(ctx, "user-1", "AA:BB:CC:DD:EE:FF", "taken", "")
	require.NoError(t, err)

	result, err = env.svc.ValidateIdentifier(ctx, "aabbccddeeff")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.True(t, result.IsUsed)

	result, err = env.svc.ValidateIdentifier(ctx, "garbage")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Empty(t, result.CanonicalID)

	result, err = env.svc.ValidateIdentifier(ctx, "TS-A1B2C3D4")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.MACAddress) // QR identifiers carry no MAC
}

func TestGetDeviceOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	_, err := env.svc.GetDevice(ctx, "user-2", nil, provisioned.Device.ID)
	require.Error(t, err)
	assert.True(t, errors.IsAuthorization(err))

	// Admins may act on any device.
	device, err := env.svc.GetDevice(ctx, "user-2", []string{RoleAdmin}, provisioned.Device.ID)
	require.NoError(t, err)
	assert.Equal(t, provisioned.Device.ID, device.ID)

	_, err = env.svc.GetDevice(ctx, "user-1", nil, "dev_missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateDeviceKeepsImmutableFields(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	updated, err := env.svc.UpdateDevice(ctx, "user-1", nil, &models.Device{
		ID:       provisioned.Device.ID,
		Name:     "renamed",
		CropType: "tomato",
		Favorite: true,
		PublicID: "11:22:33:44:55:66", // must be ignored
		OwnerID:  "user-2",            // must be ignored
	})
	require.NoError(t, err)

	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "tomato", updated.CropType)
	assert.True(t, updated.Favorite)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", updated.PublicID)
	assert.Equal(t, "user-1", updated.OwnerID)
}

func TestListDevicesFavoritesFirst(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:01")
	second := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:02")
	registerTestDevice(t, env, "user-2", "AA:BB:CC:DD:EE:03")

	_, err := env.svc.UpdateDevice(ctx, "user-1", nil, &models.Device{
		ID:       second.Device.ID,
		Favorite: true,
	})
	require.NoError(t, err)

	devices, err := env.svc.ListDevices(ctx, "user-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, second.Device.ID, devices[0].ID)
}

func TestDeleteDeviceCascades(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	_, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.NoError(t, err)
	require.Equal(t, 1, env.readings.count())

	require.NoError(t, env.svc.DeleteDevice(ctx, "user-1", nil, provisioned.Device.ID))

	assert.Equal(t, 0, env.readings.count())
	_, err = env.devices.Get(ctx, provisioned.Device.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeleteDeviceOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	err := env.svc.DeleteDevice(ctx, "user-2", nil, provisioned.Device.ID)
	require.Error(t, err)
	assert.True(t, errors.IsAuthorization(err))

	// Still there.
	_, err = env.devices.Get(ctx, provisioned.Device.ID)
	require.NoError(t, err)
}

func TestGetDeviceStatusWithLatestReading(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")
	setTier(t, env, "user-1", models.TierFree)
	ingestTestReading(t, env, provisioned.Token)

	status, err := env.svc.GetDeviceStatus(ctx, "user-1", nil, provisioned.Device.ID)
	require.NoError(t, err)

	assert.Equal(t, provisioned.Device.ID, status.Device.ID)
	assert.Equal(t, "online", status.OnlineStatus)
	require.NotNil(t, status.LastActivity)

	// The latest reading goes through the same tier redaction as the read
	// gateway: free fields survive, premium fields are blanked.
	require.NotNil(t, status.LastReading)
	require.NotNil(t, status.LastReading.Temperature)
	assert.Equal(t, 22.5, *status.LastReading.Temperature)
	assert.Nil(t, status.LastReading.LightVEML7700)
}

func TestGetDeviceStatusPremiumSeesFullReading(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")
	setTier(t, env, "user-1", models.TierPremium)
	ingestTestReading(t, env, provisioned.Token)

	status, err := env.svc.GetDeviceStatus(ctx, "user-1", nil, provisioned.Device.ID)
	require.NoError(t, err)
	require.NotNil(t, status.LastReading)
	require.NotNil(t, status.LastReading.LightVEML7700)
}

func TestGetDeviceStatusNoReadings(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	status, err := env.svc.GetDeviceStatus(ctx, "user-1", nil, provisioned.Device.ID)
	require.NoError(t, err)

	assert.Nil(t, status.LastReading)
	assert.Nil(t, status.LastActivity)
	assert.Equal(t, "offline", status.OnlineStatus)
}

func TestGetDeviceStatusOwnership(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	_, err := env.svc.GetDeviceStatus(ctx, "user-2", nil, provisioned.Device.ID)
	require.Error(t, err)
	assert.True(t, errors.IsAuthorization(err))
}

func TestDetermineOnlineStatus(t *testing.T) {
	now := time.Now().UTC()
	fresh := now.Add(-time.Minute)
	away := now.Add(-10 * time.Minute)
	stale := now.Add(-time.Hour)

	assert.Equal(t, "offline", determineOnlineStatus(nil))
	assert.Equal(t, "online", determineOnlineStatus(&fresh))
	assert.Equal(t, "away", determineOnlineStatus(&away))
	assert.Equal(t, "offline", determineOnlineStatus(&stale))
}
