package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
)

func TestTutorRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTutorRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "expertise", "slots", "workload_current", "workload_max", "status"}).
		AddRow("tut-1", "Minh", `{pointers,"recursion stack frames"}`, `[{"day":"Mon","time":"afternoon 14:00-16:00","mode":"online"}]`, 2, 10, "ACTIVE").
		AddRow("tut-2", "Thu", `{}`, `[]`, nil, nil, "ACTIVE")
	mock.ExpectQuery(regexp.QuoteMeta("FROM tutors WHERE status = $1 ORDER BY name, id LIMIT $2")).
		WithArgs("ACTIVE", 500).
		WillReturnRows(rows)

	tutors, err := repo.ListActive(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, tutors, 2)

	require.Equal(t, []string{"pointers", "recursion stack frames"}, tutors[0].Expertise)
	require.Equal(t, []models.AvailabilitySlot{{Day: "Mon", Time: "afternoon 14:00-16:00", Mode: models.SlotModeOnline}}, tutors[0].Slots)
	require.Equal(t, &models.Workload{Current: 2, Max: 10}, tutors[0].Workload)

	require.Empty(t, tutors[1].Expertise)
	require.Nil(t, tutors[1].Workload)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTutorRepositoryListActiveError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTutorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tutors")).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListActive(context.Background(), 20)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
