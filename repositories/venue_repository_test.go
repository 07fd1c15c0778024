package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/match-archive/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueRepository_Create_ClearsPreviousDefault(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE venues SET is_default = FALSE WHERE team_id = \\$1 AND is_default AND id <> \\$2").
		WithArgs(5, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("INSERT INTO venues").
		WithArgs(5, "Стадион Труд", nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))
	mock.ExpectCommit()

	venue := &models.Venue{TeamID: 5, Name: "Стадион Труд", IsDefault: true}
	err = NewPostgresVenueRepository(db).Create(context.Background(), venue)

	require.NoError(t, err)
	assert.Equal(t, 3, venue.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVenueRepository_Create_NotDefaultSkipsClear(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO venues").
		WithArgs(5, "Манеж", nil, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, time.Now()))
	mock.ExpectCommit()

	err = NewPostgresVenueRepository(db).Create(context.Background(), &models.Venue{TeamID: 5, Name: "Манеж"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVenueRepository_Update_DefaultSwitch(t *testing.T) {
	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "previous default cleared in the same transaction",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE venues SET is_default = FALSE").
					WithArgs(5, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec("UPDATE venues SET name = \\$1").
					WithArgs("Стадион Труд", nil, nil, true, 3).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "clearing fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE venues SET is_default = FALSE").
					WithArgs(5, 3).
					WillReturnError(errConnReset)
				mock.ExpectRollback()
			},
			wantErr: errConnReset,
		},
		{
			name: "concurrent default rolls back",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE venues SET is_default = FALSE").
					WithArgs(5, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("UPDATE venues SET name = \\$1").
					WithArgs("Стадион Труд", nil, nil, true, 3).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "venues_default_key"})
				mock.ExpectRollback()
			},
			wantErr: ErrVenueDefaultConflict,
		},
		{
			name: "venue deleted",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE venues SET is_default = FALSE").
					WithArgs(5, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("UPDATE venues SET name = \\$1").
					WithArgs("Стадион Труд", nil, nil, true, 3).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: ErrVenueNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			tt.expect(mock)

			venue := &models.Venue{ID: 3, TeamID: 5, Name: "Стадион Труд", IsDefault: true}
			err = NewPostgresVenueRepository(db).Update(context.Background(), venue)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

var errConnReset = errors.New("connection reset")
