package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestLeaveRepositoryListOverlappingUsesClosedBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 12, 23, 59, 59, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutor_leave WHERE tutor_id = $1 AND start_date <= $2 AND end_date >= $3")).
		WithArgs("tutor-1", end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tutor_id", "start_date", "end_date", "reason", "created_at"}).
			AddRow("lv-1", "tutor-1", start, end, nil, start))

	leaves, err := repo.ListOverlapping(context.Background(), "tutor-1", start, end)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
