package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortedAndNonEmpty(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	for _, m := range migrations {
		assert.NotEmpty(t, m.SQL, m.Version)
	}
}

func TestMigrate_AppliesPendingOnly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	migrations, err := loadMigrations()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(migrations[0].Version))

	for _, m := range migrations[1:] {
		mock.ExpectBegin()
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(m.Version).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(".*").WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()

	err = Migrate(context.Background(), db)
	assert.ErrorContains(t, err, "failed to apply migration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcedures_ReactivatedMemberLosesRole(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)

	var procedures string
	for _, m := range migrations {
		procedures += m.SQL
	}
	// Восстановленный через слияние участник не получает прежнюю роль менеджера.
	assert.Contains(t, procedures, "UPDATE team_members SET status = 'active', role = 'MEMBER'")
	assert.NotContains(t, procedures, "UPDATE team_members SET status = 'active'\n")
}

func TestProcedures_TeamMergePairsByKickoff(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)

	var procedures string
	for _, m := range migrations {
		procedures += m.SQL
	}
	// Порядок должен совпадать с предпросмотром слияния в сервисе.
	assert.Contains(t, procedures, "ORDER BY a.match_at, a.id, b.match_at, b.id")
}
