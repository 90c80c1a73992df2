package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

// DefaultListLimit bounds vital and appointment listings.
const DefaultListLimit = 50

// VitalInput is the caller-supplied part of a vital record.
type VitalInput struct {
	HeartRate              *int     `json:"heart_rate"`
	BloodPressureSystolic  *int     `json:"blood_pressure_systolic"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic"`
	Temperature            *float64 `json:"temperature"`
	OxygenSaturation       *int     `json:"oxygen_saturation"`
	SleepHours             *float64 `json:"sleep_hours"`
	ActivityMinutes        *int     `json:"activity_minutes"`
	Notes                  *string  `json:"notes"`
}

func (in VitalInput) validate() error {
	counts := []struct {
		name string
		v    *int
	}{
		{"heart_rate", in.HeartRate},
		{"blood_pressure_systolic", in.BloodPressureSystolic},
		{"blood_pressure_diastolic", in.BloodPressureDiastolic},
		{"activity_minutes", in.ActivityMinutes},
	}
	for _, c := range counts {
		if c.v != nil && *c.v < 0 {
			return invalid(c.name + " must be >= 0")
		}
	}
	if in.Temperature != nil && *in.Temperature < 0 {
		return invalid("temperature must be >= 0")
	}
	if o := in.OxygenSaturation; o != nil && (*o < 0 || *o > 100) {
		return invalid("oxygen_saturation must be within [0, 100]")
	}
	if sl := in.SleepHours; sl != nil && (*sl < 0 || *sl > 24) {
		return invalid("sleep_hours must be within [0, 24]")
	}
	return nil
}

// VitalService records vital observations and keeps the risk log current.
type VitalService struct {
	vitals domain.VitalRepository
	risk   *RiskService
	log    *zap.Logger
}

// NewVitalService creates a VitalService.
func NewVitalService(vitals domain.VitalRepository, risk *RiskService, log *zap.Logger) *VitalService {
	return &VitalService{vitals: vitals, risk: risk, log: log.Named("vitals")}
}

// RecordVital stores a new observation and appends a fresh assessment
// computed from the user's newest records.
func (s *VitalService) RecordVital(ctx context.Context, userID string, in VitalInput) (*domain.VitalRecord, *domain.RiskAssessment, error) {
	if err := in.validate(); err != nil {
		return nil, nil, err
	}
	rec, err := s.vitals.InsertVital(ctx, domain.VitalRecord{
		UserID:                 userID,
		HeartRate:              in.HeartRate,
		BloodPressureSystolic:  in.BloodPressureSystolic,
		BloodPressureDiastolic: in.BloodPressureDiastolic,
		Temperature:            in.Temperature,
		OxygenSaturation:       in.OxygenSaturation,
		SleepHours:             in.SleepHours,
		ActivityMinutes:        in.ActivityMinutes,
		Notes:                  in.Notes,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("insert vital: %w", err)
	}
	s.log.Info("vital recorded", zap.String("user_id", userID), zap.String("vital_id", rec.ID))

	assessment, err := s.risk.Recompute(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return rec, assessment, nil
}

// ListRecent returns the user's newest vitals up to limit.
func (s *VitalService) ListRecent(ctx context.Context, userID string, limit int) ([]domain.VitalRecord, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.vitals.FindRecentVitals(ctx, userID, limit)
}
