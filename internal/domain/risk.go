package domain

import (
	"context"
	"time"
)

// RiskLevel is the categorical classification of a risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders levels so that low < medium < high.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// RiskAssessment is a persisted snapshot of a scorer result.
type RiskAssessment struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Score           float64   `json:"score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
}

// RiskAssessmentRepository is the port for the append-only assessment log.
type RiskAssessmentRepository interface {
	InsertRiskAssessment(ctx context.Context, a RiskAssessment) (*RiskAssessment, error)
	// FindLatestRiskAssessment returns nil, nil when the user has none.
	FindLatestRiskAssessment(ctx context.Context, userID string) (*RiskAssessment, error)
	ListRiskAssessments(ctx context.Context, userID string, limit int) ([]RiskAssessment, error)
}
