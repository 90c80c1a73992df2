package domain

import (
	"context"
	"time"
)

// VitalRecord is one observation for one user at one instant. Every
// measurement is optional; a nil pointer means "not measured".
type VitalRecord struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	HeartRate              *int      `json:"heart_rate"`
	BloodPressureSystolic  *int      `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int      `json:"blood_pressure_diastolic"`
	Temperature            *float64  `json:"temperature"`
	OxygenSaturation       *int      `json:"oxygen_saturation"`
	SleepHours             *float64  `json:"sleep_hours"`
	ActivityMinutes        *int      `json:"activity_minutes"`
	Notes                  *string   `json:"notes"`
	Timestamp              time.Time `json:"timestamp"`
}

// VitalRepository is the port for vital record persistence.
type VitalRepository interface {
	// InsertVital stores rec, assigning ID and Timestamp when they are empty.
	InsertVital(ctx context.Context, rec VitalRecord) (*VitalRecord, error)
	// FindRecentVitals returns up to limit records for userID, newest first.
	FindRecentVitals(ctx context.Context, userID string, limit int) ([]VitalRecord, error)
}
