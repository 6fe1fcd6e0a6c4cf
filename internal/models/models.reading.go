// FilePath: internal/models/models.reading.go
package models

import "time"

// Reading is one normalized measurement row. Optional scalars are pointers:
// nil means the device never reported the value (or the caller's tier does not
// entitle them to it); JSON serializes both as explicit null.
//
// Identity and free-tier fields carry readxs:"*" and come back for every
// role. Premium-only fields carry readxs:"premium,admin" and are blanked by
// the read gateway for free-tier callers; the stored row always keeps the
// full data.
type Reading struct {
	ID        string    `json:"id" db:"id" readxs:"*"`
	DeviceID  string    `json:"device_id" db:"device_id" readxs:"*"`
	Timestamp time.Time `json:"timestamp" db:"timestamp" readxs:"*"`

	// Raw sensor fields
	Temperature       *float64 `json:"temperature" db:"temperature" readxs:"*"`
	Humidity          *float64 `json:"humidity" db:"humidity" readxs:"*"`
	Pressure          *float64 `json:"pressure" db:"pressure" readxs:"*"`
	CO2               *float64 `json:"co2" db:"co2" readxs:"*"`
	LightVEML7700     *float64 `json:"light_veml7700" db:"light_veml7700" readxs:"premium,admin"`
	LightTSL2591      *float64 `json:"light_tsl2591" db:"light_tsl2591" readxs:"premium,admin"`
	AccelerationX     *float64 `json:"acceleration_x" db:"acceleration_x" readxs:"premium,admin"`
	AccelerationY     *float64 `json:"acceleration_y" db:"acceleration_y" readxs:"premium,admin"`
	AccelerationZ     *float64 `json:"acceleration_z" db:"acceleration_z" readxs:"premium,admin"`
	SoilCapacitance   *float64 `json:"soil_capacitance" db:"soil_capacitance" readxs:"premium,admin"`
	BatteryVoltage    *float64 `json:"battery_voltage" db:"battery_voltage" readxs:"premium,admin"`
	BatteryPercentage *float64 `json:"battery_percentage" db:"battery_percentage" readxs:"premium,admin"`

	// Derived fields, server-computed unless the device supplied them
	DewPoint         *float64 `json:"dew_point" db:"dew_point" readxs:"*"`
	HeatIndex        *float64 `json:"heat_index" db:"heat_index" readxs:"premium,admin"`
	VPD              *float64 `json:"vpd" db:"vpd" readxs:"premium,admin"`
	AbsoluteHumidity *float64 `json:"absolute_humidity" db:"absolute_humidity" readxs:"premium,admin"`
	PAR              *float64 `json:"par" db:"par" readxs:"premium,admin"`
	SoilMoisture     *float64 `json:"soil_moisture" db:"soil_moisture" readxs:"premium,admin"`
	BatteryHealth    *float64 `json:"battery_health" db:"battery_health" readxs:"premium,admin"`
	ShockDetected    *bool    `json:"shock_detected" db:"shock_detected" readxs:"premium,admin"`

	// Device-supplied only, never computed server-side
	WetBulb      *float64 `json:"wet_bulb" db:"wet_bulb" readxs:"premium,admin"`
	Altitude     *float64 `json:"altitude" db:"altitude" readxs:"premium,admin"`
	WeatherTrend *string  `json:"weather_trend" db:"weather_trend" readxs:"premium,admin"`

	CreatedAt time.Time `json:"created_at" db:"created_at" readxs:"*"`
}

// RawReadings is the raw-sensor block of an ingest submission.
type RawReadings struct {
	Temperature       *float64 `json:"temperature"`
	Humidity          *float64 `json:"humidity"`
	Pressure          *float64 `json:"pressure"`
	CO2               *float64 `json:"co2"`
	LightVEML7700     *float64 `json:"light_veml7700"`
	LightTSL2591      *float64 `json:"light_tsl2591"`
	AccelerationX     *float64 `json:"acceleration_x"`
	AccelerationY     *float64 `json:"acceleration_y"`
	AccelerationZ     *float64 `json:"acceleration_z"`
	SoilCapacitance   *float64 `json:"soil_capacitance"`
	BatteryVoltage    *float64 `json:"battery_voltage"`
	BatteryPercentage *float64 `json:"battery_percentage"`
}

// CalculatedReadings are derived values the firmware computed itself. A
// device-supplied value takes precedence over the server computation for
// that field.
type CalculatedReadings struct {
	DewPoint         *float64 `json:"dew_point"`
	HeatIndex        *float64 `json:"heat_index"`
	VPD              *float64 `json:"vpd"`
	AbsoluteHumidity *float64 `json:"absolute_humidity"`
	PAR              *float64 `json:"par"`
	SoilMoisture     *float64 `json:"soil_moisture"`
	BatteryHealth    *float64 `json:"battery_health"`
	ShockDetected    *bool    `json:"shock_detected"`
	WetBulb          *float64 `json:"wet_bulb"`
	Altitude         *float64 `json:"altitude"`
	WeatherTrend     *string  `json:"weather_trend"`
}

// IngestPayload is the body a device POSTs to the ingestion endpoint.
type IngestPayload struct {
	DeviceID   string              `json:"device_id"`
	Timestamp  *time.Time          `json:"timestamp,omitempty"`
	Raw        *RawReadings        `json:"raw"`
	Calculated *CalculatedReadings `json:"calculated,omitempty"`
}

// ReadingsQuery captures the read-endpoint query string.
type ReadingsQuery struct {
	DeviceID  string `schema:"device_id"`
	TimeRange string `schema:"time_range"`
	Start     string `schema:"start"`
	End       string `schema:"end"`
	Limit     int    `schema:"limit"`
}
