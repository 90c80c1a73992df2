package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carecompanion/internal/domain"
)

const userColumns = "id, email, password_hash, full_name, role, age, specialization, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Age, &u.Specialization, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	u.ID = newID()
	u.CreatedAt = d.now()
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.Age, u.Specialization, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return nil, domain.ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByRole lists users with the given role, newest first.
func (d *DB) ListByRole(ctx context.Context, role domain.Role, limit int) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = $1 ORDER BY created_at DESC LIMIT $2",
		role, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}
