package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carecompanion/internal/domain"
)

// SaveFitnessLink inserts or replaces the user's provider tokens.
func (d *DB) SaveFitnessLink(ctx context.Context, l domain.FitnessLink) error {
	expiry := sql.NullTime{Time: l.Expiry, Valid: !l.Expiry.IsZero()}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = d.now()
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO fitness_links
		(user_id, access_token, refresh_token, token_type, expiry, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token = '' THEN fitness_links.refresh_token ELSE EXCLUDED.refresh_token END,
			token_type = EXCLUDED.token_type,
			expiry = EXCLUDED.expiry,
			updated_at = EXCLUDED.updated_at`,
		l.UserID, l.AccessToken, l.RefreshToken, l.TokenType, expiry, l.UpdatedAt,
	)
	return err
}

// GetFitnessLink retrieves the user's provider tokens.
func (d *DB) GetFitnessLink(ctx context.Context, userID string) (*domain.FitnessLink, error) {
	var (
		l      domain.FitnessLink
		expiry sql.NullTime
	)
	err := d.sql.QueryRowContext(ctx,
		"SELECT user_id, access_token, refresh_token, token_type, expiry, updated_at FROM fitness_links WHERE user_id = $1",
		userID,
	).Scan(&l.UserID, &l.AccessToken, &l.RefreshToken, &l.TokenType, &expiry, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		l.Expiry = expiry.Time
	}
	return &l, nil
}
