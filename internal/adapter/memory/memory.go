// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"carecompanion/internal/domain"
)

// DB implements an in-memory database storage. Records are deep-copied on
// the way in and out, so callers never share memory with stored history.
type DB struct {
	mu           sync.Mutex
	users        []domain.User
	vitals       []domain.VitalRecord
	risks        []domain.RiskAssessment
	appointments []domain.Appointment
	links        map[string]domain.FitnessLink
	chats        []domain.ChatExchange

	now func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		links: make(map[string]domain.FitnessLink),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.VitalRepository = (*DB)(nil)
var _ domain.RiskAssessmentRepository = (*DB)(nil)
var _ domain.AppointmentRepository = (*DB)(nil)
var _ domain.FitnessLinkRepository = (*DB)(nil)
var _ domain.ChatRepository = (*DB)(nil)

// newest returns copies of the items matching keep, newest first. Items
// sharing a timestamp come back in reverse insertion order.
func newest[T any](items []T, ts func(T) time.Time, keep func(T) bool, clone func(T) T, limit int) []T {
	out := make([]T, 0)
	for i := len(items) - 1; i >= 0; i-- {
		if keep(items[i]) {
			out = append(out, clone(items[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return ts(out[i]).After(ts(out[j]))
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u domain.User) domain.User {
	u.Age = clonePtr(u.Age)
	u.Specialization = clonePtr(u.Specialization)
	return u
}

func cloneVital(v domain.VitalRecord) domain.VitalRecord {
	v.HeartRate = clonePtr(v.HeartRate)
	v.BloodPressureSystolic = clonePtr(v.BloodPressureSystolic)
	v.BloodPressureDiastolic = clonePtr(v.BloodPressureDiastolic)
	v.Temperature = clonePtr(v.Temperature)
	v.OxygenSaturation = clonePtr(v.OxygenSaturation)
	v.SleepHours = clonePtr(v.SleepHours)
	v.ActivityMinutes = clonePtr(v.ActivityMinutes)
	v.Notes = clonePtr(v.Notes)
	return v
}

func cloneRisk(a domain.RiskAssessment) domain.RiskAssessment {
	a.Factors = append([]string(nil), a.Factors...)
	a.Recommendations = append([]string(nil), a.Recommendations...)
	return a
}

func same[T any](v T) T { return v }

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if strings.EqualFold(u.Email, email) {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u = cloneUser(u)
			return &u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, domain.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = db.now()
	db.users = append(db.users, cloneUser(u))
	return &u, nil
}

// ListByRole lists users with the given role, newest first.
func (db *DB) ListByRole(ctx context.Context, role domain.Role, limit int) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return newest(db.users,
		func(u domain.User) time.Time { return u.CreatedAt },
		func(u domain.User) bool { return u.Role == role },
		cloneUser, limit), nil
}

// --- VitalRepository ---

// InsertVital stores a vital record.
func (db *DB) InsertVital(ctx context.Context, rec domain.VitalRecord) (*domain.VitalRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = db.now()
	}
	db.vitals = append(db.vitals, cloneVital(rec))
	return &rec, nil
}

// FindRecentVitals lists the user's newest vital records.
func (db *DB) FindRecentVitals(ctx context.Context, userID string, limit int) ([]domain.VitalRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return newest(db.vitals,
		func(v domain.VitalRecord) time.Time { return v.Timestamp },
		func(v domain.VitalRecord) bool { return v.UserID == userID },
		cloneVital, limit), nil
}

// --- RiskAssessmentRepository ---

// InsertRiskAssessment appends an assessment.
func (db *DB) InsertRiskAssessment(ctx context.Context, a domain.RiskAssessment) (*domain.RiskAssessment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = db.now()
	}
	db.risks = append(db.risks, cloneRisk(a))
	return &a, nil
}

// FindLatestRiskAssessment returns the user's newest assessment.
func (db *DB) FindLatestRiskAssessment(ctx context.Context, userID string) (*domain.RiskAssessment, error) {
	list, _ := db.ListRiskAssessments(ctx, userID, 1)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

// ListRiskAssessments lists the user's assessments, newest first.
func (db *DB) ListRiskAssessments(ctx context.Context, userID string, limit int) ([]domain.RiskAssessment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return newest(db.risks,
		func(a domain.RiskAssessment) time.Time { return a.Timestamp },
		func(a domain.RiskAssessment) bool { return a.UserID == userID },
		cloneRisk, limit), nil
}

// --- AppointmentRepository ---

// CreateAppointment stores an appointment.
func (db *DB) CreateAppointment(ctx context.Context, a domain.Appointment) (*domain.Appointment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	a.ID = uuid.NewString()
	a.CreatedAt = db.now()
	db.appointments = append(db.appointments, a)
	return &a, nil
}

// GetAppointment retrieves an appointment by ID.
func (db *DB) GetAppointment(ctx context.Context, id string) (*domain.Appointment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, a := range db.appointments {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

// ListAppointments lists appointments matching f, latest scheduled first.
func (db *DB) ListAppointments(ctx context.Context, f domain.AppointmentFilter, limit int) ([]domain.Appointment, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return newest(db.appointments,
		func(a domain.Appointment) time.Time { return a.ScheduledTime },
		func(a domain.Appointment) bool {
			return (f.PatientID == "" || a.PatientID == f.PatientID) &&
				(f.DoctorID == "" || a.DoctorID == f.DoctorID)
		},
		same[domain.Appointment], limit), nil
}

// UpdateAppointmentStatus sets the status of an appointment.
func (db *DB) UpdateAppointmentStatus(ctx context.Context, id string, status domain.AppointmentStatus) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := range db.appointments {
		if db.appointments[i].ID == id {
			db.appointments[i].Status = status
			return nil
		}
	}
	return nil
}

// --- FitnessLinkRepository ---

// SaveFitnessLink inserts or replaces the user's link.
func (db *DB) SaveFitnessLink(ctx context.Context, l domain.FitnessLink) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.links[l.UserID] = l
	return nil
}

// GetFitnessLink retrieves the user's link.
func (db *DB) GetFitnessLink(ctx context.Context, userID string) (*domain.FitnessLink, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if l, ok := db.links[userID]; ok {
		return &l, nil
	}
	return nil, nil
}

// --- ChatRepository ---

// InsertChat stores a chat exchange.
func (db *DB) InsertChat(ctx context.Context, c domain.ChatExchange) (*domain.ChatExchange, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	c.ID = uuid.NewString()
	if c.Timestamp.IsZero() {
		c.Timestamp = db.now()
	}
	db.chats = append(db.chats, c)
	return &c, nil
}

// ListChats lists the user's exchanges, newest first.
func (db *DB) ListChats(ctx context.Context, userID string, limit int) ([]domain.ChatExchange, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return newest(db.chats,
		func(c domain.ChatExchange) time.Time { return c.Timestamp },
		func(c domain.ChatExchange) bool { return c.UserID == userID },
		same[domain.ChatExchange], limit), nil
}
