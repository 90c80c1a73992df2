package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

// RiskService computes and serves risk assessments.
type RiskService struct {
	vitals  domain.VitalRepository
	risks   domain.RiskAssessmentRepository
	scorer  *domain.Scorer
	log     *zap.Logger
	onScore func(domain.RiskLevel)
}

// NewRiskService creates a RiskService using scorer.
func NewRiskService(vitals domain.VitalRepository, risks domain.RiskAssessmentRepository, scorer *domain.Scorer, log *zap.Logger) *RiskService {
	return &RiskService{vitals: vitals, risks: risks, scorer: scorer, log: log.Named("risk"), onScore: func(domain.RiskLevel) {}}
}

// OnScore registers a hook called with the level of every persisted
// assessment.
func (s *RiskService) OnScore(fn func(domain.RiskLevel)) {
	s.onScore = fn
}

// Recompute scores the user's newest vitals and appends the result.
func (s *RiskService) Recompute(ctx context.Context, userID string) (*domain.RiskAssessment, error) {
	recent, err := s.vitals.FindRecentVitals(ctx, userID, domain.RecentWindow)
	if err != nil {
		return nil, fmt.Errorf("find recent vitals: %w", err)
	}
	result := s.scorer.Compute(recent)

	stored, err := s.risks.InsertRiskAssessment(ctx, result.Assessment(userID))
	if err != nil {
		return nil, fmt.Errorf("insert risk assessment: %w", err)
	}
	s.onScore(stored.RiskLevel)
	s.log.Info("risk assessed",
		zap.String("user_id", userID),
		zap.Float64("score", stored.Score),
		zap.String("risk_level", string(stored.RiskLevel)),
	)
	return stored, nil
}

// Latest returns the newest stored assessment, computing and storing one
// when the user has none yet. computed reports which path was taken.
func (s *RiskService) Latest(ctx context.Context, userID string) (a *domain.RiskAssessment, computed bool, err error) {
	a, err = s.risks.FindLatestRiskAssessment(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("find latest risk assessment: %w", err)
	}
	if a != nil {
		return a, false, nil
	}
	a, err = s.Recompute(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}

// History returns the user's assessments, newest first.
func (s *RiskService) History(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.risks.ListRiskAssessments(ctx, userID, limit)
}
