package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/match-archive/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRepository_ReplaceForMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM match_records WHERE match_id = $1")).
		WithArgs(4).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO match_records")).
		WithArgs(4, 1, 2, 0, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(100, now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO match_records")).
		WithArgs(4, 2, 0, 1, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(101, now))
	mock.ExpectCommit()

	records := []models.MatchRecord{
		{MemberID: 1, Goals: 2, QuartersPlayed: 4},
		{MemberID: 2, Assists: 1, QuartersPlayed: 3},
	}
	require.NoError(t, NewPostgresRecordRepository(db).ReplaceForMatch(context.Background(), 4, records))
	assert.Equal(t, 100, records[0].ID)
	assert.Equal(t, 4, records[1].MatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ReplaceForMatch_RollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM match_records").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("INSERT INTO match_records").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "match_records_member_id_fkey"})
	mock.ExpectRollback()

	err = NewPostgresRecordRepository(db).ReplaceForMatch(context.Background(), 4, []models.MatchRecord{{MemberID: 77}})
	assert.ErrorIs(t, err, ErrRecordMemberInvalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_ListByMatches_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	records, err := NewPostgresRecordRepository(db).ListByMatches(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_TotalsByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM team_members tm").WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "count", "goals", "assists", "quarters"}).
			AddRow(1, "FC Sunday", 10, 6, 3, 32).
			AddRow(2, "Night Owls", 2, 0, 1, 8))

	totals, err := NewPostgresRecordRepository(db).TotalsByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, UserRecordTotals{TeamID: 1, TeamName: "FC Sunday", Appearances: 10, Goals: 6, Assists: 3, QuartersPlayed: 32}, totals[0])

	mock.ExpectQuery("FROM team_members tm").WillReturnError(errors.New("down"))
	_, err = NewPostgresRecordRepository(db).TotalsByUser(context.Background(), 7)
	assert.Error(t, err)
}
