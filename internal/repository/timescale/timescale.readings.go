// FilePath: internal/repository/timescale/timescale.readings.go
package timescale

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/errors"
	"github.com/terrasense/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	TimeScaleBaseRepo
}

// NewReadingRepository creates the TimescaleDB-backed reading store and makes
// sure the hypertable exists.
func NewReadingRepository(db database.DB) (*ReadingRepo, error) {
	repo := &ReadingRepo{TimeScaleBaseRepo: TimeScaleBaseRepo{db: db}}
	if err := repo.initializeSchema(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ReadingRepo) initializeSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			temperature DOUBLE PRECISION,
			humidity DOUBLE PRECISION,
			pressure DOUBLE PRECISION,
			co2 DOUBLE PRECISION,
			light_veml7700 DOUBLE PRECISION,
			light_tsl2591 DOUBLE PRECISION,
			acceleration_x DOUBLE PRECISION,
			acceleration_y DOUBLE PRECISION,
			acceleration_z DOUBLE PRECISION,
			soil_capacitance DOUBLE PRECISION,
			battery_voltage DOUBLE PRECISION,
			battery_percentage DOUBLE PRECISION,
			dew_point DOUBLE PRECISION,
			heat_index DOUBLE PRECISION,
			vpd DOUBLE PRECISION,
			absolute_humidity DOUBLE PRECISION,
			par DOUBLE PRECISION,
			soil_moisture DOUBLE PRECISION,
			battery_health DOUBLE PRECISION,
			shock_detected BOOLEAN,
			wet_bulb DOUBLE PRECISION,
			altitude DOUBLE PRECISION,
			weather_trend TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`SELECT create_hypertable('readings', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_device_time
			ON readings (device_id, timestamp DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().Exec(query); err != nil {
			return errors.NewDatabaseError("failed to initialize readings schema", err)
		}
	}
	return nil
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) error {
	query := `
		INSERT INTO readings (
			id, device_id, timestamp,
			temperature, humidity, pressure, co2,
			light_veml7700, light_tsl2591,
			acceleration_x, acceleration_y, acceleration_z,
			soil_capacitance, battery_voltage, battery_percentage,
			dew_point, heat_index, vpd, absolute_humidity, par,
			soil_moisture, battery_health, shock_detected,
			wet_bulb, altitude, weather_trend, created_at
		) VALUES (
			:id, :device_id, :timestamp,
			:temperature, :humidity, :pressure, :co2,
			:light_veml7700, :light_tsl2591,
			:acceleration_x, :acceleration_y, :acceleration_z,
			:soil_capacitance, :battery_voltage, :battery_percentage,
			:dew_point, :heat_index, :vpd, :absolute_humidity, :par,
			:soil_moisture, :battery_health, :shock_detected,
			:wet_bulb, :altitude, :weather_trend, :created_at
		)`

	_, err := r.db.GetDB().NamedExecContext(ctx, query, reading)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

func (r *ReadingRepo) GetRange(ctx context.Context, deviceIDs []string, start, end time.Time, limit int) ([]*models.Reading, error) {
	readings := []*models.Reading{}

	if len(deviceIDs) == 0 {
		return readings, nil
	}

	query, args, err := sqlx.In(`
		SELECT * FROM readings
		WHERE device_id IN (?)
		AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp DESC
		LIMIT ?`, deviceIDs, start, end, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to build readings query", err)
	}

	query = r.db.GetDB().Rebind(query)
	if err := r.db.GetDB().SelectContext(ctx, &readings, query, args...); err != nil {
		return nil, errors.NewDatabaseError("failed to get readings", err)
	}

	return readings, nil
}

func (r *ReadingRepo) GetLatestByDevice(ctx context.Context, deviceID string) (*models.Reading, error) {
	reading := &models.Reading{}
	query := `
		SELECT * FROM readings
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, reading, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("no readings for device", err)
		}
		return nil, errors.NewDatabaseError("failed to get latest reading", err)
	}
	return reading, nil
}

func (r *ReadingRepo) DeleteByDeviceID(ctx context.Context, deviceID string, tx database.Transaction) error {
	query := `DELETE FROM readings WHERE device_id = $1`

	result, err := tx.ExecContext(ctx, query, deviceID)
	if err != nil {
		return errors.NewDatabaseError("failed to delete readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings for device %s", rows, deviceID)
	return nil
}

func (r *ReadingRepo) DeleteOldData(ctx context.Context, before time.Time) error {
	query := `DELETE FROM readings WHERE timestamp < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, before)
	if err != nil {
		return errors.NewDatabaseError("failed to delete old readings", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[ReadingRepo] Deleted %d readings older than %v", rows, before)
	return nil
}
