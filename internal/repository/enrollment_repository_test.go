package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRepositoryIsEnrolled(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM class_enrollments WHERE class_id = $1 AND student_id = $2)")).
		WithArgs("class-1", "stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsEnrolled(context.Background(), "class-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListStudentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT student_id FROM class_enrollments WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow("stu-1").AddRow("stu-2"))

	ids, err := repo.ListStudentIDs(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-1", "stu-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
