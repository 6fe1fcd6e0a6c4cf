// FilePath: internal/hubservice/hubservice.ingest.go
package hubservice

import (
	"context"
	"time"

	"github.com/terrasense/hub/internal/deviceid"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/metrics"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// IngestReading runs the ingestion pipeline for one device submission:
// credential verification, directory resolution, derived-metric computation,
// persistence. Each call is an independent unit of work; there is no dedupe
// key, so resubmitting an identical payload creates a second row.
func (s *HubService) IngestReading(ctx context.Context, bearerToken string, payload *models.IngestPayload) (*models.Reading, error) {
	if payload == nil || payload.DeviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}
	if payload.Raw == nil {
		return nil, errors.NewValidationError("raw readings are required", nil)
	}

	canonicalID, _, ok := deviceid.Canonicalize(payload.DeviceID)
	if !ok {
		return nil, errors.NewValidationError("unrecognized device identifier format", nil)
	}

	claims, err := s.Signer.Verify(bearerToken)
	if err != nil {
		return nil, err
	}

	// A valid signature with a different embedded identifier means the
	// credential was issued for another device: credential reuse or a
	// misconfigured firmware image, not a bad token.
	if claims.DeviceID != canonicalID {
		return nil, errors.NewAuthorizationError("credential does not match device identifier", nil)
	}

	// The directory row is resolved after signature verification, so deleting
	// a device revokes its credential for ingestion.
	device, err := s.Devices.GetByPublicID(ctx, canonicalID)
	if err != nil {
		return nil, err
	}

	derived := s.computeDerived(payload.Raw)
	merged := mergeCalculated(derived, payload.Calculated)

	timestamp := time.Now().UTC()
	if payload.Timestamp != nil {
		timestamp = payload.Timestamp.UTC()
	}

	reading := buildReading(device.ID, timestamp, payload.Raw, merged)
	if err := s.Readings.Insert(ctx, reading); err != nil {
		return nil, err
	}

	if err := s.Devices.UpdateLastSeen(ctx, device.ID, timestamp); err != nil {
		nuts.L.Warnf("[Ingest] Failed to update last seen for device %s: %v", device.ID, err)
	}

	s.evaluateThresholds(ctx, device, reading)

	nuts.L.Infof("[Ingest] Stored reading %s for device %s", reading.ID, device.ID)
	return reading, nil
}

// computeDerived runs the metrics engine over whichever raw fields are
// present. Absent inputs leave the corresponding derived field nil; nothing
// is zero-filled.
func (s *HubService) computeDerived(raw *models.RawReadings) *models.CalculatedReadings {
	out := &models.CalculatedReadings{}

	if raw.Temperature != nil && raw.Humidity != nil {
		t, rh := *raw.Temperature, *raw.Humidity
		// Magnus is undefined at rh=0; skip rather than emit NaN.
		if rh > 0 && rh <= 100 {
			dp := metrics.DewPoint(t, rh)
			out.DewPoint = &dp
		}
		if rh >= 0 && rh <= 100 {
			hi := metrics.HeatIndex(t, rh)
			out.HeatIndex = &hi
			vpd := metrics.VPD(t, rh)
			out.VPD = &vpd
			ah := metrics.AbsoluteHumidity(t, rh)
			out.AbsoluteHumidity = &ah
		}
	}

	// Two light channels exist; VEML7700 is the reference, TSL2591 the
	// fallback. They are never averaged.
	if raw.LightVEML7700 != nil {
		par := metrics.PAR(*raw.LightVEML7700)
		out.PAR = &par
	} else if raw.LightTSL2591 != nil {
		par := metrics.PAR(*raw.LightTSL2591)
		out.PAR = &par
	}

	if raw.SoilCapacitance != nil {
		sm := metrics.SoilMoisturePercent(*raw.SoilCapacitance, s.SoilCal)
		out.SoilMoisture = &sm
	}

	if raw.BatteryVoltage != nil && raw.BatteryPercentage != nil {
		bh := metrics.BatteryHealth(*raw.BatteryVoltage, *raw.BatteryPercentage)
		out.BatteryHealth = &bh
	}

	if raw.AccelerationX != nil && raw.AccelerationY != nil && raw.AccelerationZ != nil {
		sd := metrics.ShockDetected(*raw.AccelerationX, *raw.AccelerationY, *raw.AccelerationZ)
		out.ShockDetected = &sd
	}

	return out
}

// mergeCalculated combines server-computed values with device-supplied ones.
// The device wins per field: firmware that computed a value itself knows more
// about its sensors than the server formula does.
func mergeCalculated(server, device *models.CalculatedReadings) *models.CalculatedReadings {
	if device == nil {
		return server
	}
	merged := *server
	if device.DewPoint != nil {
		merged.DewPoint = device.DewPoint
	}
	if device.HeatIndex != nil {
		merged.HeatIndex = device.HeatIndex
	}
	if device.VPD != nil {
		merged.VPD = device.VPD
	}
	if device.AbsoluteHumidity != nil {
		merged.AbsoluteHumidity = device.AbsoluteHumidity
	}
	if device.PAR != nil {
		merged.PAR = device.PAR
	}
	if device.SoilMoisture != nil {
		merged.SoilMoisture = device.SoilMoisture
	}
	if device.BatteryHealth != nil {
		merged.BatteryHealth = device.BatteryHealth
	}
	if device.ShockDetected != nil {
		merged.ShockDetected = device.ShockDetected
	}
	if device.WetBulb != nil {
		merged.WetBulb = device.WetBulb
	}
	if device.Altitude != nil {
		merged.Altitude = device.Altitude
	}
	if device.WeatherTrend != nil {
		merged.WeatherTrend = device.WeatherTrend
	}
	return &merged
}

func buildReading(deviceID string, timestamp time.Time, raw *models.RawReadings, calc *models.CalculatedReadings) *models.Reading {
	return &models.Reading{
		ID:        nuts.NID("rdg", 12),
		DeviceID:  deviceID,
		Timestamp: timestamp,

		Temperature:       raw.Temperature,
		Humidity:          raw.Humidity,
		Pressure:          raw.Pressure,
		CO2:               raw.CO2,
		LightVEML7700:     raw.LightVEML7700,
		LightTSL2591:      raw.LightTSL2591,
		AccelerationX:     raw.AccelerationX,
		AccelerationY:     raw.AccelerationY,
		AccelerationZ:     raw.AccelerationZ,
		SoilCapacitance:   raw.SoilCapacitance,
		BatteryVoltage:    raw.BatteryVoltage,
		BatteryPercentage: raw.BatteryPercentage,

		DewPoint:         calc.DewPoint,
		HeatIndex:        calc.HeatIndex,
		VPD:              calc.VPD,
		AbsoluteHumidity: calc.AbsoluteHumidity,
		PAR:              calc.PAR,
		SoilMoisture:     calc.SoilMoisture,
		BatteryHealth:    calc.BatteryHealth,
		ShockDetected:    calc.ShockDetected,
		WetBulb:          calc.WetBulb,
		Altitude:         calc.Altitude,
		WeatherTrend:     calc.WeatherTrend,

		CreatedAt: time.Now().UTC(),
	}
}
