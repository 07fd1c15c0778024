package services_test

import (
	"context"
	"testing"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRecordService_SaveRecords(t *testing.T) {
	roster := []models.TeamMember{
		*manager(teamID, managerID, managerMID),
		*player(teamID, playerID, playerMID),
		*guest(teamID, guestMID, "Vasya"),
	}

	tests := []struct {
		name        string
		match       *models.Match
		input       []services.RecordInput
		wantErr     error
		wantFields  []string
		expectWrite bool
	}{
		{
			name:  "saves valid records",
			match: completedMatch(5, teamID, kickoff, 3, 1),
			input: []services.RecordInput{
				{MemberID: playerMID, Goals: 2, Assists: 0, QuartersPlayed: 4},
				{MemberID: guestMID, Goals: 1, Assists: 1, QuartersPlayed: 2},
			},
			expectWrite: true,
		},
		{
			name:  "goals exceed team score",
			match: completedMatch(5, teamID, kickoff, 1, 1),
			input: []services.RecordInput{
				{MemberID: playerMID, Goals: 1},
				{MemberID: guestMID, Goals: 1},
			},
			wantErr:    services.ErrValidationFailed,
			wantFields: []string{"records"},
		},
		{
			name:  "quarters out of range and duplicate member",
			match: completedMatch(5, teamID, kickoff, 0, 0),
			input: []services.RecordInput{
				{MemberID: playerMID, QuartersPlayed: 5},
				{MemberID: playerMID},
			},
			wantErr:    services.ErrValidationFailed,
			wantFields: []string{"records[0].quarters_played", "records[1].member_id"},
		},
		{
			name:  "member outside of active roster",
			match: completedMatch(5, teamID, kickoff, 2, 0),
			input: []services.RecordInput{
				{MemberID: 999, Goals: 1},
			},
			wantErr:    services.ErrValidationFailed,
			wantFields: []string{"records[0].member_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.matches.On("GetByID", mock.Anything, tt.match.ID).Return(tt.match, nil)
			f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
			f.members.On("ListByTeam", mock.Anything, teamID, activeOnly()).Return(roster, nil)
			if tt.expectWrite {
				f.records.On("ReplaceForMatch", mock.Anything, tt.match.ID, mock.AnythingOfType("[]models.MatchRecord")).Return(nil)
			}

			svc := services.NewRecordService(f.records, f.matches, f.members)
			records, err := svc.SaveRecords(context.Background(), tt.match.ID, managerID, tt.input)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var verr *services.ValidationError
				require.ErrorAs(t, err, &verr)
				for _, field := range tt.wantFields {
					assert.Contains(t, verr.Fields, field)
				}
				return
			}
			require.NoError(t, err)
			require.Len(t, records, len(tt.input))
			assert.Equal(t, "Vasya", records[1].Member.DisplayName())
		})
	}
}

func TestRecordService_SaveRecords_RequiresCompletedMatch(t *testing.T) {
	f := newFixture(t)
	match := &models.Match{ID: 5, TeamID: teamID, Status: models.MatchStatusScheduled, Quarters: 4}
	f.matches.On("GetByID", mock.Anything, 5).Return(match, nil)
	f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))

	svc := services.NewRecordService(f.records, f.matches, f.members)
	_, err := svc.SaveRecords(context.Background(), 5, managerID, nil)

	assert.ErrorIs(t, err, services.ErrInvalidState)
}

func TestRecordService_SaveRecords_RequiresManager(t *testing.T) {
	f := newFixture(t)
	f.matches.On("GetByID", mock.Anything, 5).Return(completedMatch(5, teamID, kickoff, 1, 0), nil)
	f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))

	svc := services.NewRecordService(f.records, f.matches, f.members)
	_, err := svc.SaveRecords(context.Background(), 5, playerID, nil)

	assert.ErrorIs(t, err, services.ErrManagerRequired)
}

func TestRecordService_ListRecords_IncludesFormerMembers(t *testing.T) {
	f := newFixture(t)
	left := player(teamID, 9, 109)
	left.Status = models.MemberStatusLeft

	f.matches.On("GetByID", mock.Anything, 5).Return(completedMatch(5, teamID, kickoff, 1, 0), nil)
	f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))
	f.records.On("ListByMatch", mock.Anything, 5).Return([]models.MatchRecord{{MatchID: 5, MemberID: 109, Goals: 1}}, nil)
	f.members.On("ListByTeam", mock.Anything, teamID, []models.MemberStatus(nil)).Return([]models.TeamMember{*left}, nil)

	svc := services.NewRecordService(f.records, f.matches, f.members)
	records, err := svc.ListRecords(context.Background(), 5, playerID)

	require.NoError(t, err)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Member)
	assert.Equal(t, models.MemberStatusLeft, records[0].Member.Status)
}
