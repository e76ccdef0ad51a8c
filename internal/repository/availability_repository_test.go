package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

var availabilityRowColumns = []string{"id", "tutor_id", "day_of_week", "start_time", "end_time", "time_zone", "is_active", "created_at", "updated_at"}

func TestAvailabilityRepositoryListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	active := true
	now := time.Now()
	rows := sqlmock.NewRows(availabilityRowColumns).
		AddRow("av-1", "tutor-1", "MON", "09:00", "12:00", "UTC", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutor_availability WHERE tutor_id = $1 AND day_of_week = $2 AND is_active = $3 ORDER BY created_at DESC LIMIT 10 OFFSET 0")).
		WithArgs("tutor-1", timeutil.Monday, true).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tutor_availability WHERE tutor_id = $1")).
		WithArgs("tutor-1", timeutil.Monday, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	windows, total, err := repo.List(context.Background(), "tutor-1", models.AvailabilityFilter{DayOfWeek: timeutil.Monday, IsActive: &active})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, timeutil.Monday, windows[0].DayOfWeek)
	assert.Equal(t, "09:00", windows[0].StartTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListActiveByDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(availabilityRowColumns).
		AddRow("av-1", "tutor-1", "WED", "08:00", "10:00", "UTC", true, now, now).
		AddRow("av-2", "tutor-1", "WED", "13:00", "17:00", "UTC", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE tutor_id = $1 AND day_of_week = $2 AND is_active = TRUE")).
		WithArgs("tutor-1", timeutil.Wednesday).
		WillReturnRows(rows)

	windows, err := repo.ListActiveByDay(context.Background(), "tutor-1", timeutil.Wednesday)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tutor_availability")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	window := &models.TutorAvailability{TutorID: "tutor-1", DayOfWeek: timeutil.Monday, StartTime: "09:00", EndTime: "12:00", TimeZone: "UTC", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), window))
	assert.NotEmpty(t, window.ID)
	assert.False(t, window.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
