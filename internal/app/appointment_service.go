package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"carecompanion/internal/domain"
)

// AppointmentInput is the body of a booking request.
type AppointmentInput struct {
	PatientID     string `json:"patient_id"`
	DoctorID      string `json:"doctor_id"`
	ScheduledTime string `json:"scheduled_time"`
	Reason        string `json:"reason"`
}

// AppointmentService books and lists appointments.
type AppointmentService struct {
	users domain.UserRepository
	repo  domain.AppointmentRepository
	log   *zap.Logger
}

// NewAppointmentService creates an AppointmentService.
func NewAppointmentService(users domain.UserRepository, repo domain.AppointmentRepository, log *zap.Logger) *AppointmentService {
	return &AppointmentService{users: users, repo: repo, log: log.Named("appointments")}
}

// Create books an appointment. Patients may only book for themselves.
func (s *AppointmentService) Create(ctx context.Context, caller *domain.User, in AppointmentInput) (*domain.Appointment, error) {
	when, err := time.Parse(time.RFC3339, strings.TrimSpace(in.ScheduledTime))
	if err != nil {
		return nil, invalid("scheduled_time must be an RFC 3339 timestamp")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return nil, invalid("reason is required")
	}
	if caller.Role == domain.RolePatient && in.PatientID != caller.ID {
		return nil, ErrForbidden
	}

	patient, err := s.userWithRole(ctx, in.PatientID, domain.RolePatient)
	if err != nil {
		return nil, err
	}
	doctor, err := s.userWithRole(ctx, in.DoctorID, domain.RoleDoctor)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.CreateAppointment(ctx, domain.Appointment{
		PatientID:     patient.ID,
		PatientName:   patient.FullName,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.FullName,
		ScheduledTime: when.UTC(),
		Reason:        strings.TrimSpace(in.Reason),
		Status:        domain.AppointmentScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	s.log.Info("appointment booked", zap.String("appointment_id", appt.ID), zap.String("booked_by", caller.ID))
	return appt, nil
}

// List returns the caller's appointments, latest scheduled first.
func (s *AppointmentService) List(ctx context.Context, caller *domain.User) ([]domain.Appointment, error) {
	var f domain.AppointmentFilter
	switch caller.Role {
	case domain.RolePatient:
		f.PatientID = caller.ID
	case domain.RoleDoctor:
		f.DoctorID = caller.ID
	}
	return s.repo.ListAppointments(ctx, f, DefaultListLimit)
}

// UpdateStatus moves a scheduled appointment to completed or cancelled.
// Only the appointment's patient or doctor may change it.
func (s *AppointmentService) UpdateStatus(ctx context.Context, caller *domain.User, id string, status domain.AppointmentStatus) (*domain.Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, ErrNotFound
	}
	if appt.PatientID != caller.ID && appt.DoctorID != caller.ID {
		return nil, ErrForbidden
	}
	if !appt.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, status)
	}
	if err := s.repo.UpdateAppointmentStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	appt.Status = status
	return appt, nil
}

func (s *AppointmentService) userWithRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || u.Role != role {
		return nil, fmt.Errorf("%w: patient or doctor not found", ErrNotFound)
	}
	return u, nil
}
