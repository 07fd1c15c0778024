package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dosada05/match-archive/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberRowColumns = []string{
	"id", "team_id", "user_id", "guest_name", "role", "status", "back_number", "position",
	"merged_into_member_id", "joined_at", "nickname", "avatar_key",
}

func TestMemberRepository_ListByTeam(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(memberRowColumns).
		AddRow(1, 5, 7, nil, "OWNER", "active", 10, "FW", nil, now, "striker", nil).
		AddRow(2, 5, nil, "Guest Kim", "MEMBER", "active", nil, nil, nil, now, nil, nil)

	mock.ExpectQuery("FROM team_members m").
		WithArgs(5, pq.Array([]string{"active"})).
		WillReturnRows(rows)

	members, err := NewPostgresMemberRepository(db).ListByTeam(context.Background(), 5, []models.MemberStatus{models.MemberStatusActive})
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.False(t, members[0].IsGuest())
	assert.Equal(t, "striker", members[0].DisplayName())
	assert.True(t, members[0].CanManage())
	assert.Equal(t, 10, *members[0].BackNumber)

	assert.True(t, members[1].IsGuest())
	assert.Equal(t, "Guest Kim", members[1].DisplayName())
	assert.Nil(t, members[1].User)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository_Create_BackNumberConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO team_members").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "team_members_back_number_key"})

	number := 9
	guest := "Guest Lee"
	err = NewPostgresMemberRepository(db).Create(context.Background(), &models.TeamMember{
		TeamID: 5, GuestName: &guest, Role: models.MemberRoleMember, Status: models.MemberStatusActive, BackNumber: &number,
	})
	assert.ErrorIs(t, err, ErrMemberBackNumberConflict)
}

func TestMemberRepository_UpdateStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE team_members").
		WithArgs(models.MemberStatusLeft, 99).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresMemberRepository(db).UpdateStatus(context.Background(), 99, models.MemberStatusLeft)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestMemberRepository_UpdateStatus_ResetsRoleOutsideActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`role = CASE WHEN \$1 = 'active' OR role = 'OWNER' THEN role ELSE 'MEMBER' END`).
		WithArgs(models.MemberStatusPending, 103).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresMemberRepository(db).UpdateStatus(context.Background(), 103, models.MemberStatusPending)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
