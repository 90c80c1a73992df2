package app_test

import (
	"context"
	"encoding/json"
	"time"

	"carecompanion/internal/domain"
)

type mockUserRepo struct {
	getByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn    func(ctx context.Context, id string) (*domain.User, error)
	createFn     func(ctx context.Context, u domain.User) (*domain.User, error)
	listFn       func(ctx context.Context, role domain.Role, limit int) ([]domain.User, error)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = "new-user"
	return &u, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role domain.Role, limit int) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, role, limit)
	}
	return nil, nil
}

type mockVitalRepo struct {
	insertFn func(ctx context.Context, rec domain.VitalRecord) (*domain.VitalRecord, error)
	recentFn func(ctx context.Context, userID string, limit int) ([]domain.VitalRecord, error)
}

func (m *mockVitalRepo) InsertVital(ctx context.Context, rec domain.VitalRecord) (*domain.VitalRecord, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, rec)
	}
	rec.ID = "vital-1"
	rec.Timestamp = time.Now().UTC()
	return &rec, nil
}

func (m *mockVitalRepo) FindRecentVitals(ctx context.Context, userID string, limit int) ([]domain.VitalRecord, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockRiskRepo struct {
	insertFn func(ctx context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error)
	latestFn func(ctx context.Context, userID string) (*domain.RiskAssessment, error)
	listFn   func(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error)
}

func (m *mockRiskRepo) InsertRiskAssessment(ctx context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
	if m.insertFn != nil {
		return m.insertFn(ctx, a)
	}
	a.ID = "risk-1"
	a.Timestamp = time.Now().UTC()
	return &a, nil
}

func (m *mockRiskRepo) FindLatestRiskAssessment(ctx context.Context, userID string) (*domain.RiskAssessment, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockRiskRepo) ListRiskAssessments(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, limit)
	}
	return nil, nil
}

type mockAppointmentRepo struct {
	createFn func(ctx context.Context, a domain.Appointment) (*domain.Appointment, error)
	getFn    func(ctx context.Context, id string) (*domain.Appointment, error)
	listFn   func(ctx context.Context, f domain.AppointmentFilter, limit int) ([]domain.Appointment, error)
	updateFn func(ctx context.Context, id string, status domain.AppointmentStatus) error
}

func (m *mockAppointmentRepo) CreateAppointment(ctx context.Context, a domain.Appointment) (*domain.Appointment, error) {
	if m.createFn != nil {
		return m.createFn(ctx, a)
	}
	a.ID = "appt-1"
	return &a, nil
}

func (m *mockAppointmentRepo) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) ListAppointments(ctx context.Context, f domain.AppointmentFilter, limit int) ([]domain.Appointment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f, limit)
	}
	return nil, nil
}

func (m *mockAppointmentRepo) UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, status)
	}
	return nil
}

type mockLinkRepo struct {
	links map[string]domain.FitnessLink
}

func (m *mockLinkRepo) SaveFitnessLink(_ context.Context, l domain.FitnessLink) error {
	if m.links == nil {
		m.links = map[string]domain.FitnessLink{}
	}
	m.links[l.UserID] = l
	return nil
}

func (m *mockLinkRepo) GetFitnessLink(_ context.Context, userID string) (*domain.FitnessLink, error) {
	l, ok := m.links[userID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

type mockProvider struct {
	exchangeFn  func(ctx context.Context, code string) (*domain.FitnessLink, error)
	aggregateFn func(ctx context.Context, link domain.FitnessLink, metric domain.FitnessMetric, start, end time.Time) (json.RawMessage, *domain.FitnessLink, error)
}

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://consent.example/auth?state=" + state
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (*domain.FitnessLink, error) {
	if m.exchangeFn != nil {
		return m.exchangeFn(ctx, code)
	}
	return &domain.FitnessLink{AccessToken: "access-" + code, RefreshToken: "refresh"}, nil
}

func (m *mockProvider) Aggregate(ctx context.Context, link domain.FitnessLink, metric domain.FitnessMetric, start, end time.Time) (json.RawMessage, *domain.FitnessLink, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, link, metric, start, end)
	}
	return json.RawMessage(`{"bucket":[]}`), nil, nil
}

type mockChatModel struct {
	generateFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, prompt)
	}
	return "ok", nil
}

type mockChatRepo struct {
	inserted []domain.ChatExchange
}

func (m *mockChatRepo) InsertChat(_ context.Context, c domain.ChatExchange) (*domain.ChatExchange, error) {
	c.ID = "chat-1"
	m.inserted = append(m.inserted, c)
	return &c, nil
}

func (m *mockChatRepo) ListChats(_ context.Context, _ string, limit int) ([]domain.ChatExchange, error) {
	if len(m.inserted) > limit {
		return m.inserted[:limit], nil
	}
	return m.inserted, nil
}

type failingChatRepo struct {
	err error
}

func (m *failingChatRepo) InsertChat(context.Context, domain.ChatExchange) (*domain.ChatExchange, error) {
	return nil, m.err
}

func (m *failingChatRepo) ListChats(context.Context, string, int) ([]domain.ChatExchange, error) {
	return nil, m.err
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
