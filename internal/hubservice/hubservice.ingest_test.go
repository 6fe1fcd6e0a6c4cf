// FilePath: internal/hubservice/hubservice.ingest_test.go
package hubservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terrasense/hub/internal/deviceauth"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
)

func registerTestDevice(t *testing.T, env *testEnv, ownerID, publicID string) *models.ProvisionResult {
	t.Helper()
	result, err := env.svc.RegisterDevice(context.Background(), ownerID, publicID, "greenhouse-1", models.DeviceClassAir)
	require.NoError(t, err)
	return result
}

func TestIngestReadingRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	reading, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "aa-bb-cc-dd-ee-ff", // different notation than registration
		Raw: &models.RawReadings{
			Temperature: floatPtr(22.5),
			Humidity:    floatPtr(60),
			CO2:         floatPtr(450),
		},
	})
	require.NoError(t, err)
	require.NotNil(t, reading)

	assert.Equal(t, provisioned.Device.ID, reading.DeviceID)
	assert.Equal(t, 1, env.readings.count())

	require.NotNil(t, reading.DewPoint)
	assert.InDelta(t, 14.3, *reading.DewPoint, 0.5)
	require.NotNil(t, reading.VPD)
	assert.Greater(t, *reading.VPD, 0.0)
	require.NotNil(t, reading.AbsoluteHumidity)
	require.NotNil(t, reading.HeatIndex)

	// Inputs the device never sent stay nil, not zero.
	assert.Nil(t, reading.Pressure)
	assert.Nil(t, reading.PAR)
	assert.Nil(t, reading.SoilMoisture)
	assert.Nil(t, reading.ShockDetected)
}

func TestIngestReadingWrongSignature(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	rogue := deviceauth.NewSigner("some-other-secret", "terrasense-hub", 0)
	forged, err := rogue.Mint("AA:BB:CC:DD:EE:FF", "user-1")
	require.NoError(t, err)

	_, err = env.svc.IngestReading(ctx, forged, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuth(err))
	assert.Equal(t, 0, env.readings.count())
}

func TestIngestReadingIdentifierMismatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	first := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")
	registerTestDevice(t, env, "user-1", "11:22:33:44:55:66")

	// Credential of the first device presented with the second's identifier.
	_, err := env.svc.IngestReading(ctx, first.Token, &models.IngestPayload{
		DeviceID: "11:22:33:44:55:66",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuthorization(err))
	assert.Equal(t, 0, env.readings.count())
}

func TestIngestReadingDeletedDevice(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	require.NoError(t, env.svc.DeleteDevice(ctx, "user-1", nil, provisioned.Device.ID))

	// The credential still verifies, but the directory row is gone.
	_, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 0, env.readings.count())
}

func TestIngestReadingDuplicateSubmissions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	payload := &models.IngestPayload{
		DeviceID:  "AA:BB:CC:DD:EE:FF",
		Timestamp: &ts,
		Raw:       &models.RawReadings{Temperature: floatPtr(21), Humidity: floatPtr(55)},
	}

	first, err := env.svc.IngestReading(ctx, provisioned.Token, payload)
	require.NoError(t, err)
	second, err := env.svc.IngestReading(ctx, provisioned.Token, payload)
	require.NoError(t, err)

	// No dedupe key: an identical resubmission is a second row.
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, env.readings.count())
}

func TestIngestReadingDeviceCalculatedWins(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	reading, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
		Raw: &models.RawReadings{
			Temperature: floatPtr(22.5),
			Humidity:    floatPtr(60),
		},
		Calculated: &models.CalculatedReadings{
			DewPoint: floatPtr(99),
			WetBulb:  floatPtr(18.2),
		},
	})
	require.NoError(t, err)

	// Device-supplied values win per field; fields it did not supply keep the
	// server computation.
	require.NotNil(t, reading.DewPoint)
	assert.Equal(t, 99.0, *reading.DewPoint)
	require.NotNil(t, reading.WetBulb)
	assert.Equal(t, 18.2, *reading.WetBulb)
	require.NotNil(t, reading.VPD)
	assert.Greater(t, *reading.VPD, 0.0)
}

func TestIngestReadingTimestampFallback(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	before := time.Now().UTC()
	reading, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.NoError(t, err)

	assert.False(t, reading.Timestamp.Before(before))
	assert.False(t, reading.Timestamp.After(time.Now().UTC()))
}

func TestIngestReadingUpdatesLastSeen(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID:  "AA:BB:CC:DD:EE:FF",
		Timestamp: &ts,
		Raw:       &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.NoError(t, err)

	device, err := env.devices.Get(ctx, provisioned.Device.ID)
	require.NoError(t, err)
	require.NotNil(t, device.LastSeen)
	assert.Equal(t, ts, *device.LastSeen)
}

func TestIngestReadingValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	provisioned := registerTestDevice(t, env, "user-1", "AA:BB:CC:DD:EE:FF")

	_, err := env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "AA:BB:CC:DD:EE:FF",
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = env.svc.IngestReading(ctx, provisioned.Token, &models.IngestPayload{
		DeviceID: "not a device id",
		Raw:      &models.RawReadings{Temperature: floatPtr(20)},
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = env.svc.IngestReading(ctx, provisioned.Token, nil)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestComputeDerivedSaturatedAir(t *testing.T) {
	env := newTestEnv()

	derived := env.svc.computeDerived(&models.RawReadings{
		Temperature: floatPtr(20),
		Humidity:    floatPtr(100),
	})

	require.NotNil(t, derived.DewPoint)
	assert.InDelta(t, 20.0, *derived.DewPoint, 0.1)
	require.NotNil(t, derived.VPD)
	assert.InDelta(t, 0.0, *derived.VPD, 0.001)
}

func TestComputeDerivedLightChannelPreference(t *testing.T) {
	env := newTestEnv()

	// VEML7700 is the reference channel when both are present.
	derived := env.svc.computeDerived(&models.RawReadings{
		LightVEML7700: floatPtr(1000),
		LightTSL2591:  floatPtr(2000),
	})
	require.NotNil(t, derived.PAR)
	assert.InDelta(t, 18.5, *derived.PAR, 0.001)

	derived = env.svc.computeDerived(&models.RawReadings{
		LightTSL2591: floatPtr(2000),
	})
	require.NotNil(t, derived.PAR)
	assert.InDelta(t, 37.0, *derived.PAR, 0.001)
}

func TestComputeDerivedShock(t *testing.T) {
	env := newTestEnv()

	derived := env.svc.computeDerived(&models.RawReadings{
		AccelerationX: floatPtr(1.16),
		AccelerationY: floatPtr(1.16),
		AccelerationZ: floatPtr(1.16),
	})
	require.NotNil(t, derived.ShockDetected)
	assert.True(t, *derived.ShockDetected)

	derived = env.svc.computeDerived(&models.RawReadings{
		AccelerationX: floatPtr(0.1),
		AccelerationY: floatPtr(0.1),
		AccelerationZ: floatPtr(1.0),
	})
	require.NotNil(t, derived.ShockDetected)
	assert.False(t, *derived.ShockDetected)
}
