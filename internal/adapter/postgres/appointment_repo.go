package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carecompanion/internal/domain"
)

const appointmentColumns = "id, patient_id, patient_name, doctor_id, doctor_name, scheduled_time, reason, status, created_at"

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName,
		&a.ScheduledTime, &a.Reason, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAppointment stores an appointment.
func (d *DB) CreateAppointment(ctx context.Context, a domain.Appointment) (*domain.Appointment, error) {
	a.ID = newID()
	a.CreatedAt = d.now()
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO appointments ("+appointmentColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)",
		a.ID, a.PatientID, a.PatientName, a.DoctorID, a.DoctorName, a.ScheduledTime, a.Reason, a.Status, a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAppointment retrieves an appointment by ID.
func (d *DB) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	a, err := scanAppointment(d.sql.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListAppointments lists appointments matching f, latest scheduled first.
func (d *DB) ListAppointments(ctx context.Context, f domain.AppointmentFilter, limit int) ([]domain.Appointment, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+appointmentColumns+` FROM appointments
		WHERE ($1 = '' OR patient_id = $1) AND ($2 = '' OR doctor_id = $2)
		ORDER BY scheduled_time DESC LIMIT $3`,
		f.PatientID, f.DoctorID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateAppointmentStatus sets the status of an appointment.
func (d *DB) UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE appointments SET status = $1 WHERE id = $2", status, id)
	return err
}
