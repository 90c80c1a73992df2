package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"carecompanion/internal/domain"
)

const riskColumns = "id, user_id, score, risk_level, factors, recommendations, assessed_at"

func scanRisk(row rowScanner) (*domain.RiskAssessment, error) {
	var a domain.RiskAssessment
	if err := row.Scan(&a.ID, &a.UserID, &a.Score, &a.RiskLevel,
		pq.Array(&a.Factors), pq.Array(&a.Recommendations), &a.Timestamp); err != nil {
		return nil, err
	}
	a.Timestamp = a.Timestamp.UTC()
	return &a, nil
}

// InsertRiskAssessment appends an assessment to the user's log.
func (d *DB) InsertRiskAssessment(ctx context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = d.now()
	}
	if a.Factors == nil {
		a.Factors = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO risk_assessments ("+riskColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
		a.ID, a.UserID, a.Score, a.RiskLevel, pq.Array(a.Factors), pq.Array(a.Recommendations), a.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindLatestRiskAssessment returns the user's newest assessment.
func (d *DB) FindLatestRiskAssessment(ctx context.Context, userID string) (*domain.RiskAssessment, error) {
	a, err := scanRisk(d.sql.QueryRowContext(ctx,
		"SELECT "+riskColumns+" FROM risk_assessments WHERE user_id = $1 ORDER BY assessed_at DESC, seq DESC LIMIT 1",
		userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListRiskAssessments lists the user's assessments, newest first.
func (d *DB) ListRiskAssessments(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+riskColumns+" FROM risk_assessments WHERE user_id = $1 ORDER BY assessed_at DESC, seq DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.RiskAssessment, 0)
	for rows.Next() {
		a, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
