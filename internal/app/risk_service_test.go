package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carecompanion/internal/app"
	"carecompanion/internal/domain"
)

func newRisk(vitals domain.VitalRepository, risks domain.RiskAssessmentRepository) *app.RiskService {
	return app.NewRiskService(vitals, risks, domain.NewScorer(domain.DefaultScoringConfig()), zap.NewNop())
}

func TestRecordVital_ScoresNewestSeven(t *testing.T) {
	var gotLimit int
	vitals := &mockVitalRepo{
		recentFn: func(_ context.Context, userID string, limit int) ([]domain.VitalRecord, error) {
			gotLimit = limit
			return []domain.VitalRecord{{UserID: userID, HeartRate: intp(110), OxygenSaturation: intp(90)}}, nil
		},
	}
	var inserted domain.RiskAssessment
	risks := &mockRiskRepo{
		insertFn: func(_ context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
			inserted = a
			a.ID = "risk-9"
			return &a, nil
		},
	}
	var levels []domain.RiskLevel
	risk := newRisk(vitals, risks)
	risk.OnScore(func(l domain.RiskLevel) { levels = append(levels, l) })
	svc := app.NewVitalService(vitals, risk, zap.NewNop())

	rec, assessment, err := svc.RecordVital(context.Background(), "u-1", app.VitalInput{HeartRate: intp(110), OxygenSaturation: intp(90)})
	require.NoError(t, err)

	assert.Equal(t, "u-1", rec.UserID)
	assert.Equal(t, domain.RecentWindow, gotLimit)
	assert.Equal(t, "risk-9", assessment.ID)
	assert.Equal(t, "u-1", inserted.UserID)
	assert.Equal(t, 45.0, inserted.Score)
	assert.Equal(t, domain.RiskMedium, inserted.RiskLevel)
	assert.Equal(t, []domain.RiskLevel{domain.RiskMedium}, levels)
}

func TestRecordVital_Validation(t *testing.T) {
	svc := app.NewVitalService(&mockVitalRepo{
		insertFn: func(context.Context, domain.VitalRecord) (*domain.VitalRecord, error) {
			t.Error("invalid input must not reach the store")
			return nil, errors.New("unexpected")
		},
	}, newRisk(&mockVitalRepo{}, &mockRiskRepo{}), zap.NewNop())

	tests := []struct {
		name string
		in   app.VitalInput
	}{
		{"negative heart rate", app.VitalInput{HeartRate: intp(-1)}},
		{"oxygen above 100", app.VitalInput{OxygenSaturation: intp(101)}},
		{"sleep above 24", app.VitalInput{SleepHours: floatp(25)}},
		{"negative temperature", app.VitalInput{Temperature: floatp(-3)}},
		{"negative activity", app.VitalInput{ActivityMinutes: intp(-10)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.RecordVital(context.Background(), "u-1", tc.in)
			var verr *app.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestRecordVital_StoreFailureIsFatal(t *testing.T) {
	risks := &mockRiskRepo{
		insertFn: func(context.Context, domain.RiskAssessment) (*domain.RiskAssessment, error) {
			t.Error("no assessment may be stored when vitals cannot be read")
			return nil, errors.New("unexpected")
		},
	}
	vitals := &mockVitalRepo{
		recentFn: func(context.Context, string, int) ([]domain.VitalRecord, error) {
			return nil, errors.New("db down")
		},
	}
	svc := app.NewVitalService(vitals, newRisk(vitals, risks), zap.NewNop())

	_, _, err := svc.RecordVital(context.Background(), "u-1", app.VitalInput{HeartRate: intp(80)})
	assert.Error(t, err)
}

func TestRiskLatest_ReturnsStored(t *testing.T) {
	stored := &domain.RiskAssessment{ID: "r-1", UserID: "u-1", RiskLevel: domain.RiskHigh}
	risks := &mockRiskRepo{
		latestFn: func(context.Context, string) (*domain.RiskAssessment, error) { return stored, nil },
		insertFn: func(context.Context, domain.RiskAssessment) (*domain.RiskAssessment, error) {
			t.Error("stored assessment must not be recomputed")
			return nil, errors.New("unexpected")
		},
	}
	svc := newRisk(&mockVitalRepo{}, risks)

	got, computed, err := svc.Latest(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, computed)
	assert.Same(t, stored, got)
}

func TestRiskLatest_ComputesLazily(t *testing.T) {
	inserts := 0
	risks := &mockRiskRepo{
		insertFn: func(_ context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
			inserts++
			return &a, nil
		},
	}
	svc := newRisk(&mockVitalRepo{}, risks)

	got, computed, err := svc.Latest(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, computed)
	assert.Equal(t, 1, inserts)
	assert.Equal(t, []string{"No vitals data available"}, got.Factors)
	assert.Equal(t, domain.RiskLow, got.RiskLevel)
}

func TestRiskLatest_LookupFailure(t *testing.T) {
	risks := &mockRiskRepo{
		latestFn: func(context.Context, string) (*domain.RiskAssessment, error) { return nil, errors.New("db down") },
	}
	_, _, err := newRisk(&mockVitalRepo{}, risks).Latest(context.Background(), "u-1")
	assert.Error(t, err)
}

func TestRiskHistory_ClampsLimit(t *testing.T) {
	var gotLimit int
	risks := &mockRiskRepo{
		listFn: func(_ context.Context, _ string, limit int) ([]domain.RiskAssessment, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	_, err := newRisk(&mockVitalRepo{}, risks).History(context.Background(), "u-1", 10_000)
	require.NoError(t, err)
	assert.Equal(t, app.DefaultListLimit, gotLimit)
}
