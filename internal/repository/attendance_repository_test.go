package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studymate-api/internal/models"
)

var attendanceRowColumns = []string{"id", "session_id", "student_id", "status", "marked_by", "created_at", "updated_at"}

func TestAttendanceRepositoryUpsertManyCommits(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), "s-1", "stu-1", models.AttendanceStatusPresent, "tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("a-1", "s-1", "stu-1", "PRESENT", "tutor-1", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), "s-1", "stu-2", models.AttendanceStatusAbsent, "tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).AddRow("a-2", "s-1", "stu-2", "ABSENT", "tutor-1", now, now))
	mock.ExpectCommit()

	stored, err := repo.UpsertMany(context.Background(), []models.Attendance{
		{SessionID: "s-1", StudentID: "stu-1", Status: models.AttendanceStatusPresent, MarkedBy: "tutor-1"},
		{SessionID: "s-1", StudentID: "stu-2", Status: models.AttendanceStatusAbsent, MarkedBy: "tutor-1"},
	})
	require.NoError(t, err)
	assert.Len(t, stored, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertManyRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := repo.UpsertMany(context.Background(), []models.Attendance{{SessionID: "s-1", StudentID: "stu-1", Status: models.AttendanceStatusPresent}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
