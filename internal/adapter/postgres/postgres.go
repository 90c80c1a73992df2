// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"carecompanion/internal/domain"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.VitalRepository = (*DB)(nil)
var _ domain.RiskAssessmentRepository = (*DB)(nil)
var _ domain.AppointmentRepository = (*DB)(nil)
var _ domain.FitnessLinkRepository = (*DB)(nil)
var _ domain.ChatRepository = (*DB)(nil)

// Open connects to PostgreSQL, pings, and applies pending migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	if err := MigrateUp(connStr); err != nil {
		_ = s.Close()
		return nil, err
	}
	return newDB(s), nil
}

func newDB(s *sql.DB) *DB {
	return &DB{sql: s, now: func() time.Time { return time.Now().UTC() }}
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func newID() string { return uuid.NewString() }

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
