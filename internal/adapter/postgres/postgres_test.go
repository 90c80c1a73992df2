package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carecompanion/internal/domain"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	s, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	db := newDB(s)
	db.now = func() time.Time { return fixedNow }
	return db, mock
}

func intp(v int) *int { return &v }

func TestCreateUser(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "a@example.com", "hash", "Alice", domain.RolePatient, sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := db.Create(context.Background(), domain.User{Email: "a@example.com", PasswordHash: "hash", FullName: "Alice", Role: domain.RolePatient})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, fixedNow, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := db.Create(context.Background(), domain.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestGetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	u, err := db.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGetByID(t *testing.T) {
	db, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "age", "specialization", "created_at"}).
		AddRow("d-1", "doc@example.com", "", "Dr. Who", "doctor", nil, "cardiology", fixedNow)
	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).WithArgs("d-1").WillReturnRows(rows)

	u, err := db.GetByID(context.Background(), "d-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, u.Role)
	assert.Nil(t, u.Age)
	require.NotNil(t, u.Specialization)
	assert.Equal(t, "cardiology", *u.Specialization)
}

func TestInsertVital(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO vitals`).
		WithArgs(sqlmock.AnyArg(), "u-1", 72, nil, nil, 36.6, nil, nil, nil, nil, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	temp := 36.6
	rec, err := db.InsertVital(context.Background(), domain.VitalRecord{UserID: "u-1", HeartRate: intp(72), Temperature: &temp})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, fixedNow, rec.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRecentVitals(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "user_id", "heart_rate", "blood_pressure_systolic", "blood_pressure_diastolic",
		"temperature", "oxygen_saturation", "sleep_hours", "activity_minutes", "notes", "recorded_at"}
	rows := sqlmock.NewRows(cols).
		AddRow("v-2", "u-1", 0, 150, 95, nil, nil, 4.0, nil, "after run", fixedNow).
		AddRow("v-1", "u-1", 70, nil, nil, 36.8, 98, nil, 30, nil, fixedNow.Add(-time.Hour))
	mock.ExpectQuery(`FROM vitals WHERE user_id = \$1 ORDER BY recorded_at DESC, seq DESC LIMIT \$2`).
		WithArgs("u-1", domain.RecentWindow).
		WillReturnRows(rows)

	got, err := db.FindRecentVitals(context.Background(), "u-1", domain.RecentWindow)
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].HeartRate, "a stored zero is a reading")
	assert.Equal(t, 0, *got[0].HeartRate)
	assert.Nil(t, got[0].Temperature)
	assert.Equal(t, 4.0, *got[0].SleepHours)
	assert.Equal(t, "after run", *got[0].Notes)
	assert.Equal(t, 98, *got[1].OxygenSaturation)
}

func TestRiskAssessments(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO risk_assessments`).
		WithArgs(sqlmock.AnyArg(), "u-1", 45.0, domain.RiskMedium, sqlmock.AnyArg(), sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	a, err := db.InsertRiskAssessment(context.Background(), domain.RiskAssessment{
		UserID: "u-1", Score: 45, RiskLevel: domain.RiskMedium,
		Factors: []string{"Abnormal heart rate: 110 bpm", "Low oxygen saturation: 90%"},
	})
	require.NoError(t, err)
	assert.NotNil(t, a.Recommendations)

	cols := []string{"id", "user_id", "score", "risk_level", "factors", "recommendations", "assessed_at"}
	mock.ExpectQuery(`FROM risk_assessments WHERE user_id = \$1 ORDER BY assessed_at DESC, seq DESC LIMIT 1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(a.ID, "u-1", 45.0, "medium",
			`{"Abnormal heart rate: 110 bpm","Low oxygen saturation: 90%"}`,
			`{"Monitor vitals closely","Consider scheduling a check-up"}`, fixedNow))

	latest, err := db.FindLatestRiskAssessment(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RiskMedium, latest.RiskLevel)
	assert.Equal(t, []string{"Abnormal heart rate: 110 bpm", "Low oxygen saturation: 90%"}, latest.Factors)
	assert.Len(t, latest.Recommendations, 2)

	mock.ExpectQuery(`FROM risk_assessments`).WithArgs("u-2").WillReturnRows(sqlmock.NewRows(cols))
	none, err := db.FindLatestRiskAssessment(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppointments_Filter(t *testing.T) {
	db, mock := newMock(t)
	cols := []string{"id", "patient_id", "patient_name", "doctor_id", "doctor_name", "scheduled_time", "reason", "status", "created_at"}
	mock.ExpectQuery(`FROM appointments`).
		WithArgs("", "d-1", 50).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("a-1", "p-1", "Pat", "d-1", "Doc", fixedNow, "checkup", "scheduled", fixedNow))

	got, err := db.ListAppointments(context.Background(), domain.AppointmentFilter{DoctorID: "d-1"}, 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.AppointmentScheduled, got[0].Status)
}

func TestSaveFitnessLink_Upsert(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`(?s)INSERT INTO fitness_links.*ON CONFLICT \(user_id\) DO UPDATE`).
		WithArgs("u-1", "access", "refresh", "Bearer", sqlmock.AnyArg(), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.SaveFitnessLink(context.Background(), domain.FitnessLink{UserID: "u-1", AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetFitnessLink_NullExpiry(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`FROM fitness_links WHERE user_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "access_token", "refresh_token", "token_type", "expiry", "updated_at"}).
			AddRow("u-1", "access", "", "Bearer", nil, fixedNow))

	l, err := db.GetFitnessLink(context.Background(), "u-1")
	require.NoError(t, err)
	assert.True(t, l.Expiry.IsZero())
	assert.Equal(t, "access", l.AccessToken)
}
