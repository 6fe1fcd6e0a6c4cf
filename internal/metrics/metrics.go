// FilePath: internal/metrics/metrics.go

// Package metrics computes derived environmental quantities from raw sensor
// values. All functions are pure and replayable: a stored raw row can always
// be recomputed, so a formula fix never needs a data backfill.
package metrics

import "math"

// Magnus formula coefficients for saturation vapor pressure over water.
const (
	magnusA = 17.625
	magnusB = 243.04 // °C
)

const (
	// ParConversionFactor converts lux to µmol·m⁻²·s⁻¹ for daylight-ish
	// spectra. Linear approximation, not a photometric truth.
	ParConversionFactor = 0.0185

	// ShockThreshold is the acceleration vector magnitude above which a
	// reading counts as a shock, in the unit the firmware reports (g).
	ShockThreshold = 2.0

	// Single-cell LiPo discharge curve endpoints.
	batteryEmptyVoltage = 3.3
	batteryFullVoltage  = 4.2
)

// SoilCalibration holds the capacitance counts measured at the dry and wet
// calibration points. The constants are sensor-model specific, so they are
// configuration rather than package constants.
type SoilCalibration struct {
	DryCount float64
	WetCount float64
}

// DefaultSoilCalibration matches the stock capacitive probe.
var DefaultSoilCalibration = SoilCalibration{DryCount: 1000, WetCount: 3000}

// DewPoint returns the dew point in °C for a given air temperature (°C) and
// relative humidity (%), using the Magnus approximation. The formula is
// undefined at rhPercent <= 0; callers must guard and skip computation
// rather than emit NaN.
func DewPoint(tempC, rhPercent float64) float64 {
	gamma := math.Log(rhPercent/100.0) + magnusA*tempC/(magnusB+tempC)
	return magnusB * gamma / (magnusA - gamma)
}

// HeatIndex returns the NOAA heat index in °C. The regression operates in
// Fahrenheit internally. It is fitted for warm, humid conditions; outside
// roughly 27-45 °C and 40-100 %RH the result is an extrapolation and may be
// poor.
func HeatIndex(tempC, rhPercent float64) float64 {
	t := tempC*9.0/5.0 + 32.0
	rh := rhPercent

	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		0.00683783*t*t -
		0.05481717*rh*rh +
		0.00122874*t*t*rh +
		0.00085282*t*rh*rh -
		0.00000199*t*t*rh*rh

	return (hi - 32.0) * 5.0 / 9.0
}

// VPD returns the vapor-pressure deficit in kPa: saturation vapor pressure
// (Tetens) minus actual vapor pressure.
func VPD(tempC, rhPercent float64) float64 {
	satVP := 0.6108 * math.Exp(17.27*tempC/(tempC+237.3))
	return satVP * (1.0 - rhPercent/100.0)
}

// AbsoluteHumidity returns the water vapor density in g/m³ via the ideal gas
// law applied to the actual vapor pressure.
func AbsoluteHumidity(tempC, rhPercent float64) float64 {
	// Actual vapor pressure in hPa, then mass density of water vapor.
	vp := 6.112 * math.Exp(17.67*tempC/(tempC+243.5)) * rhPercent / 100.0
	return vp * 2.1674 / (273.15 + tempC) * 100.0
}

// PAR estimates photosynthetically active radiation in µmol·m⁻²·s⁻¹ from an
// illuminance measurement in lux.
func PAR(lux float64) float64 {
	return lux * ParConversionFactor
}

// SoilMoisturePercent maps a capacitance count onto [0,100] by linear
// interpolation between the calibration points, clamped at both ends.
func SoilMoisturePercent(capacitance float64, cal SoilCalibration) float64 {
	if cal.WetCount == cal.DryCount {
		return 0
	}
	pct := (capacitance - cal.DryCount) / (cal.WetCount - cal.DryCount) * 100.0
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// BatteryHealth compares the measured voltage against the voltage implied by
// the reported charge percentage on a linear 3.3-4.2 V curve. Health is 100
// minus the deviation scaled over the full curve span, floored at 0.
func BatteryHealth(voltage, percentage float64) float64 {
	expected := batteryEmptyVoltage + percentage/100.0*(batteryFullVoltage-batteryEmptyVoltage)
	deviation := math.Abs(voltage - expected)
	health := 100.0 - deviation/(batteryFullVoltage-batteryEmptyVoltage)*100.0
	if health < 0 {
		return 0
	}
	if health > 100 {
		return 100
	}
	return health
}

// ShockDetected reports whether the acceleration vector magnitude exceeds
// ShockThreshold.
func ShockDetected(ax, ay, az float64) bool {
	return math.Sqrt(ax*ax+ay*ay+az*az) > ShockThreshold
}
