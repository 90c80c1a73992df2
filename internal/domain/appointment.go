package domain

import (
	"context"
	"time"
)

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// CanTransition reports whether an appointment may move from s to next.
// Only scheduled appointments change state.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	return s == AppointmentScheduled && (next == AppointmentCompleted || next == AppointmentCancelled)
}

// Appointment is a booked slot between a patient and a doctor. Participant
// names are copied at booking time.
type Appointment struct {
	ID            string            `json:"id"`
	PatientID     string            `json:"patient_id"`
	PatientName   string            `json:"patient_name"`
	DoctorID      string            `json:"doctor_id"`
	DoctorName    string            `json:"doctor_name"`
	ScheduledTime time.Time         `json:"scheduled_time"`
	Reason        string            `json:"reason"`
	Status        AppointmentStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// AppointmentFilter narrows a listing to one participant. Empty fields match
// everything.
type AppointmentFilter struct {
	PatientID string
	DoctorID  string
}

// AppointmentRepository is the port for appointment persistence.
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointment(ctx context.Context, id string) (*Appointment, error)
	// ListAppointments orders by scheduled time, latest first.
	ListAppointments(ctx context.Context, f AppointmentFilter, limit int) ([]Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) error
}
