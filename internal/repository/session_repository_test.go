package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/models"
)

var sessionRowColumns = []string{"id", "class_id", "tutor_id", "student_id", "date", "start_time", "duration_min", "session_type", "status", "created_by", "meeting_link", "created_at", "updated_at"}

func TestSessionRepositoryCreateDuplicateRegular(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "sessions_regular_class_date_uniq"})

	err := repo.Create(context.Background(), &models.Session{ClassID: "class-1", TutorID: "tutor-1", SessionType: models.SessionTypeRegular})
	assert.ErrorIs(t, err, ErrDuplicateSession)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryCreateOtherError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.Session{ClassID: "class-1", SessionType: models.SessionTypeExtra})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateSession))
}

func TestSessionRepositoryListByTutorDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("s-1", "class-1", "tutor-1", nil, date, "10:00", 60, "REGULAR", "SCHEDULED", "SYSTEM", nil, date, date)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE tutor_id = $1 AND date = $2 AND status = ANY($3)")).
		WithArgs("tutor-1", date, sqlmock.AnyArg()).
		WillReturnRows(rows)

	sessions, err := repo.ListByTutorDate(context.Background(), "tutor-1", date, models.ActiveSessionStatuses)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Nil(t, sessions[0].StudentID)
	assert.Equal(t, models.SessionStatusScheduled, sessions[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListPaginates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE 1=1 AND class_id = $1 AND session_type = $2 AND date >= $3 ORDER BY date ASC, start_time ASC LIMIT 5 OFFSET 5")).
		WithArgs("class-1", models.SessionTypeRegular, from).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1 AND class_id = $1")).
		WithArgs("class-1", models.SessionTypeRegular, from).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	_, total, err := repo.List(context.Background(), models.SessionFilter{ClassID: "class-1", SessionType: models.SessionTypeRegular, FromDate: &from, Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListRegularDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	from := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT date FROM sessions WHERE class_id = $1 AND session_type = $2")).
		WithArgs("class-1", models.SessionTypeRegular, models.CreatedBySystem, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"date"}).AddRow(from))

	dates, err := repo.ListRegularDates(context.Background(), "class-1", from, to)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.True(t, dates[0].Equal(from))
	require.NoError(t, mock.ExpectationsWereMet())
}
