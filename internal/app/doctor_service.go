package app

import (
	"context"
	"fmt"

	"carecompanion/internal/domain"
)

const patientListLimit = 100

// DoctorService serves the doctor-facing patient views.
type DoctorService struct {
	users  domain.UserRepository
	vitals domain.VitalRepository
	risk   *RiskService
}

// NewDoctorService creates a DoctorService.
func NewDoctorService(users domain.UserRepository, vitals domain.VitalRepository, risk *RiskService) *DoctorService {
	return &DoctorService{users: users, vitals: vitals, risk: risk}
}

// ListPatients returns every patient account.
func (s *DoctorService) ListPatients(ctx context.Context, caller *domain.User) ([]domain.User, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	return s.users.ListByRole(ctx, domain.RolePatient, patientListLimit)
}

// PatientVitals returns a patient's newest vitals.
func (s *DoctorService) PatientVitals(ctx context.Context, caller *domain.User, patientID string) (*domain.User, []domain.VitalRecord, error) {
	patient, err := s.patient(ctx, caller, patientID)
	if err != nil {
		return nil, nil, err
	}
	vitals, err := s.vitals.FindRecentVitals(ctx, patient.ID, DefaultListLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("find vitals: %w", err)
	}
	return patient, vitals, nil
}

// PatientRisk returns a patient's latest assessment.
func (s *DoctorService) PatientRisk(ctx context.Context, caller *domain.User, patientID string) (*domain.RiskAssessment, error) {
	patient, err := s.patient(ctx, caller, patientID)
	if err != nil {
		return nil, err
	}
	a, _, err := s.risk.Latest(ctx, patient.ID)
	return a, err
}

func (s *DoctorService) patient(ctx context.Context, caller *domain.User, patientID string) (*domain.User, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	p, err := s.users.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("lookup patient: %w", err)
	}
	if p == nil || p.Role != domain.RolePatient {
		return nil, ErrNotFound
	}
	return p, nil
}
