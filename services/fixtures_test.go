package services_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	repomocks "github.com/Dosada05/match-archive/repositories/mocks"
	"github.com/Dosada05/match-archive/services/mocks"
	"github.com/stretchr/testify/mock"
)

const (
	teamID      = 10
	managerID   = 1
	playerID    = 2
	outsiderID  = 3
	managerMID  = 100
	playerMID   = 101
	guestMID    = 102
	opponentTID = 20
)

var kickoff = time.Date(2026, time.May, 10, 10, 0, 0, 0, time.UTC)

type fixture struct {
	users         *repomocks.UserRepository
	teams         *repomocks.TeamRepository
	members       *repomocks.MemberRepository
	venues        *repomocks.VenueRepository
	matches       *repomocks.MatchRepository
	attendance    *repomocks.AttendanceRepository
	records       *repomocks.RecordRepository
	invites       *repomocks.InviteRepository
	notifications *repomocks.NotificationRepository
	recordMerges  *repomocks.RecordMergeRepository
	teamMerges    *repomocks.TeamMergeRepository
	notifier      *mocks.Notifier
	mailer        *mocks.Mailer
	uploader      *mocks.Uploader
	logger        *slog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:         &repomocks.UserRepository{},
		teams:         &repomocks.TeamRepository{},
		members:       &repomocks.MemberRepository{},
		venues:        &repomocks.VenueRepository{},
		matches:       &repomocks.MatchRepository{},
		attendance:    &repomocks.AttendanceRepository{},
		records:       &repomocks.RecordRepository{},
		invites:       &repomocks.InviteRepository{},
		notifications: &repomocks.NotificationRepository{},
		recordMerges:  &repomocks.RecordMergeRepository{},
		teamMerges:    &repomocks.TeamMergeRepository{},
		notifier:      &mocks.Notifier{},
		mailer:        &mocks.Mailer{},
		uploader:      &mocks.Uploader{},
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	t.Cleanup(func() {
		mock.AssertExpectationsForObjects(t,
			f.users, f.teams, f.members, f.venues, f.matches, f.attendance, f.records,
			f.invites, f.notifications, f.recordMerges, f.teamMerges,
			f.notifier, f.mailer, f.uploader)
	})
	return f
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func manager(tid, userID, memberID int) *models.TeamMember {
	return &models.TeamMember{
		ID:     memberID,
		TeamID: tid,
		UserID: intPtr(userID),
		Role:   models.MemberRoleManager,
		Status: models.MemberStatusActive,
	}
}

func player(tid, userID, memberID int) *models.TeamMember {
	return &models.TeamMember{
		ID:     memberID,
		TeamID: tid,
		UserID: intPtr(userID),
		Role:   models.MemberRoleMember,
		Status: models.MemberStatusActive,
	}
}

func guest(tid, memberID int, name string) *models.TeamMember {
	return &models.TeamMember{
		ID:        memberID,
		TeamID:    tid,
		GuestName: strPtr(name),
		Role:      models.MemberRoleMember,
		Status:    models.MemberStatusActive,
	}
}

func completedMatch(id, tid int, at time.Time, our, opp int) *models.Match {
	return &models.Match{
		ID:            id,
		TeamID:        tid,
		OpponentName:  "Rivals",
		MatchAt:       at,
		Quarters:      models.DefaultQuarters,
		Status:        models.MatchStatusCompleted,
		OurScore:      intPtr(our),
		OpponentScore: intPtr(opp),
	}
}

// expectMembership настраивает ответ GetByTeamAndUser.
func (f *fixture) expectMembership(tid, userID int, member *models.TeamMember) {
	if member == nil {
		f.members.On("GetByTeamAndUser", mock.Anything, tid, userID).Return(nil, repositories.ErrMemberNotFound)
		return
	}
	f.members.On("GetByTeamAndUser", mock.Anything, tid, userID).Return(member, nil)
}

func activeOnly() []models.MemberStatus {
	return []models.MemberStatus{models.MemberStatusActive}
}
