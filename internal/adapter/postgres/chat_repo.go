package postgres

import (
	"context"

	"carecompanion/internal/domain"
)

// InsertChat stores a chat exchange.
func (d *DB) InsertChat(ctx context.Context, c domain.ChatExchange) (*domain.ChatExchange, error) {
	c.ID = newID()
	if c.Timestamp.IsZero() {
		c.Timestamp = d.now()
	}
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO chat_history (id, user_id, message, response, created_at) VALUES ($1, $2, $3, $4, $5)",
		c.ID, c.UserID, c.Message, c.Response, c.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChats lists the user's exchanges, newest first.
func (d *DB) ListChats(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, message, response, created_at FROM chat_history WHERE user_id = $1 ORDER BY created_at DESC, seq DESC LIMIT $2",
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.ChatExchange, 0)
	for rows.Next() {
		var c domain.ChatExchange
		if err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Response, &c.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
