package postgres

import (
	"context"

	"carecompanion/internal/domain"
)

// InsertVital stores a vital record.
func (d *DB) InsertVital(ctx context.Context, rec domain.VitalRecord) (*domain.VitalRecord, error) {
	if rec.ID == "" {
		rec.ID = newID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = d.now()
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO vitals
		(id, user_id, heart_rate, blood_pressure_systolic, blood_pressure_diastolic,
		 temperature, oxygen_saturation, sleep_hours, activity_minutes, notes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.UserID, rec.HeartRate, rec.BloodPressureSystolic, rec.BloodPressureDiastolic,
		rec.Temperature, rec.OxygenSaturation, rec.SleepHours, rec.ActivityMinutes, rec.Notes, rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindRecentVitals lists the user's newest vital records. Rows sharing a
// timestamp are ordered by insertion, latest first.
func (d *DB) FindRecentVitals(ctx context.Context, userID string, limit int) ([]domain.VitalRecord, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, user_id, heart_rate, blood_pressure_systolic,
		blood_pressure_diastolic, temperature, oxygen_saturation, sleep_hours, activity_minutes,
		notes, recorded_at
		FROM vitals WHERE user_id = $1 ORDER BY recorded_at DESC, seq DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.VitalRecord, 0)
	for rows.Next() {
		var v domain.VitalRecord
		if err := rows.Scan(&v.ID, &v.UserID, &v.HeartRate, &v.BloodPressureSystolic,
			&v.BloodPressureDiastolic, &v.Temperature, &v.OxygenSaturation, &v.SleepHours,
			&v.ActivityMinutes, &v.Notes, &v.Timestamp); err != nil {
			return nil, err
		}
		v.Timestamp = v.Timestamp.UTC()
		out = append(out, v)
	}
	return out, rows.Err()
}
