package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/models"
	"github.com/noah-isme/studymate-api/pkg/timeutil"
)

func TestClassRepositoryFindByIDScansTemplate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "tutor_id", "title", "type", "status", "start_date", "end_date", "days_of_week", "start_time", "duration_min", "capacity", "created_at", "updated_at"}).
		AddRow("class-1", "tutor-1", "Algebra", "GROUP", "ACTIVE", start, nil, "{MON,WED}", "16:00", 60, 10, start, start)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tuition_classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(rows)

	class, err := repo.FindByID(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"MON", "WED"}, class.DaysOfWeek)
	assert.Equal(t, []models.DayOfWeek{timeutil.Monday, timeutil.Wednesday}, class.Weekdays())
	assert.True(t, class.HasTemplate())
	assert.Nil(t, class.EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryActivateAndComplete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Date(2025, 1, 3, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tuition_classes SET status = $1")).
		WithArgs(models.ClassStatusActive, now, models.ClassStatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("end_date IS NOT NULL AND end_date < $2")).
		WithArgs(models.ClassStatusCompleted, now, models.ClassStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	activated, err := repo.Activate(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, activated)
	completed, err := repo.Complete(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, completed)
	require.NoError(t, mock.ExpectationsWereMet())
}
