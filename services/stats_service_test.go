package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStatsService(f *fixture) services.StatsService {
	return services.NewStatsService(f.teams, f.members, f.matches, f.records, f.attendance,
		f.notifications, f.recordMerges, f.teamMerges, f.uploader, time.UTC)
}

func TestStatsService_TeamStats(t *testing.T) {
	f := newFixture(t)
	season := 2026
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)

	merged := guest(teamID, 105, "Old guest")
	merged.Status = models.MemberStatusMerged
	idle := player(teamID, 6, 106)
	idle.Status = models.MemberStatusLeft

	f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))
	f.matches.On("ListCompletedByTeam", mock.Anything, teamID, from, to).Return([]models.Match{
		*completedMatch(1, teamID, kickoff, 3, 1),
		*completedMatch(2, teamID, kickoff.AddDate(0, 0, 7), 0, 0),
		*completedMatch(3, teamID, kickoff.AddDate(0, 0, 14), 1, 2),
	}, nil)
	f.members.On("ListByTeam", mock.Anything, teamID, []models.MemberStatus(nil)).Return([]models.TeamMember{
		*manager(teamID, managerID, managerMID),
		*player(teamID, playerID, playerMID),
		*guest(teamID, guestMID, "Vasya"),
		*merged,
		*idle,
	}, nil)
	f.records.On("ListByMatches", mock.Anything, []int{1, 2, 3}).Return([]models.MatchRecord{
		{MatchID: 1, MemberID: playerMID, Goals: 2, QuartersPlayed: 4},
		{MatchID: 1, MemberID: guestMID, Goals: 1, Assists: 1, QuartersPlayed: 2},
		{MatchID: 3, MemberID: playerMID, Goals: 1, QuartersPlayed: 3},
		{MatchID: 3, MemberID: 105, Goals: 5},
	}, nil)
	f.attendance.On("CountAttendingByTeam", mock.Anything, teamID, []int{1, 2, 3}).Return([]repositories.AttendanceCount{
		{MemberID: playerMID, Attending: 3},
		{MemberID: guestMID, Attending: 1},
	}, nil)

	stats, err := newStatsService(f).TeamStats(context.Background(), teamID, playerID, &season)

	require.NoError(t, err)
	assert.Equal(t, models.TeamSummary{Played: 3, Wins: 1, Draws: 1, Losses: 1, GoalsFor: 4, GoalsAgainst: 3, CleanSheets: 1}, stats.Summary)
	assert.Equal(t, 1, stats.Summary.GoalDifference())

	// manager, player, guest; merged and idle former members are skipped
	require.Len(t, stats.Players, 3)
	require.Len(t, stats.TopScorers, 2)
	assert.Equal(t, playerMID, stats.TopScorers[0].MemberID)
	assert.Equal(t, 3, stats.TopScorers[0].Goals)
	assert.Equal(t, 7, stats.TopScorers[0].QuartersPlayed)
	assert.InDelta(t, 1.0, stats.TopScorers[0].AttendanceRate, 0.001)
	require.Len(t, stats.TopAssists, 1)
	assert.Equal(t, "Vasya", stats.TopAssists[0].Name)
}

func TestStatsService_TeamStats_RequiresMembership(t *testing.T) {
	f := newFixture(t)
	f.expectMembership(teamID, outsiderID, nil)

	_, err := newStatsService(f).TeamStats(context.Background(), teamID, outsiderID, nil)

	assert.ErrorIs(t, err, services.ErrNotTeamMember)
}

func TestStatsService_UserStats(t *testing.T) {
	f := newFixture(t)
	f.records.On("TotalsByUser", mock.Anything, playerID).Return([]repositories.UserRecordTotals{
		{TeamID: teamID, TeamName: "FC Sunday", Appearances: 10, Goals: 4, Assists: 2, QuartersPlayed: 30},
		{TeamID: opponentTID, TeamName: "Rivals", Appearances: 2, Goals: 1, QuartersPlayed: 8},
	}, nil)

	stats, err := newStatsService(f).UserStats(context.Background(), playerID)

	require.NoError(t, err)
	assert.Equal(t, 12, stats.Appearances)
	assert.Equal(t, 5, stats.Goals)
	assert.Equal(t, 38, stats.QuartersPlayed)
	assert.Len(t, stats.Teams, 2)
}

func TestStatsService_Dashboard(t *testing.T) {
	f := newFixture(t)
	now := kickoff.Add(-time.Hour)
	pending := models.RequestStatusPending

	f.matches.On("ListUpcomingForUser", mock.Anything, playerID, now, 5).Return([]models.Match{{ID: 1}}, nil)
	f.notifications.On("CountUnread", mock.Anything, playerID).Return(4, nil)
	f.recordMerges.On("ListForUser", mock.Anything, playerID, &pending).Return([]models.RecordMergeRequest{
		{ID: 1, Direction: models.MergeDirectionOffer, TargetUserID: playerID},
		{ID: 2, Direction: models.MergeDirectionClaim, TargetUserID: playerID, RequestedBy: playerID},
	}, nil)
	f.teamMerges.On("ListOpenForManager", mock.Anything, playerID).Return([]models.TeamMergeRequest(nil), nil)

	svc := newStatsService(f)
	services.SetClock(svc, func() time.Time { return now })
	dash, err := svc.Dashboard(context.Background(), playerID)

	require.NoError(t, err)
	assert.Len(t, dash.UpcomingMatches, 1)
	assert.Equal(t, 4, dash.UnreadNotifications)
	require.Len(t, dash.IncomingMergeRequests, 1)
	assert.Equal(t, 1, dash.IncomingMergeRequests[0].ID)
}

func TestStatsService_PublicTeamArchive_HidesRoster(t *testing.T) {
	f := newFixture(t)
	f.teams.On("GetByID", mock.Anything, teamID).Return(&models.Team{ID: teamID, Name: "FC Sunday"}, nil)
	f.matches.On("ListCompletedByTeam", mock.Anything, teamID, time.Time{}, time.Time{}).Return([]models.Match{*completedMatch(1, teamID, kickoff, 2, 0)}, nil)
	f.members.On("ListByTeam", mock.Anything, teamID, []models.MemberStatus(nil)).Return([]models.TeamMember{*player(teamID, playerID, playerMID)}, nil)
	f.records.On("ListByMatches", mock.Anything, []int{1}).Return([]models.MatchRecord{{MatchID: 1, MemberID: playerMID, Goals: 2}}, nil)
	f.attendance.On("CountAttendingByTeam", mock.Anything, teamID, []int{1}).Return([]repositories.AttendanceCount(nil), nil)

	archive, err := newStatsService(f).PublicTeamArchive(context.Background(), teamID)

	require.NoError(t, err)
	assert.Nil(t, archive.Stats.Players)
	assert.Len(t, archive.Stats.TopScorers, 1)
	assert.Len(t, archive.Matches, 1)
}
