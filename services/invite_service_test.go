package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInviteService(f *fixture, now time.Time) services.InviteService {
	svc := services.NewInviteService(f.invites, f.teams, f.members, f.notifier, f.mailer, "https://archive.example/", f.logger)
	services.SetClock(svc, func() time.Time { return now })
	return svc
}

func TestInviteService_CreateOrRenewInvite(t *testing.T) {
	now := kickoff

	t.Run("retries on token collision", func(t *testing.T) {
		f := newFixture(t)
		f.teams.On("GetByID", mock.Anything, teamID).Return(&models.Team{ID: teamID, Name: "FC Sunday"}, nil)
		f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
		f.invites.On("Upsert", mock.Anything, mock.Anything).Return(repositories.ErrInviteTokenConflict).Once()
		f.invites.On("Upsert", mock.Anything, mock.Anything).Return(nil).Once()

		invite, err := newInviteService(f, now).CreateOrRenewInvite(context.Background(), teamID, managerID)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(invite.Link, "https://archive.example/invites/"))
		assert.True(t, invite.ExpiresAt.Equal(now.Add(7*24*time.Hour)))
	})

	t.Run("player cannot create invites", func(t *testing.T) {
		f := newFixture(t)
		f.teams.On("GetByID", mock.Anything, teamID).Return(&models.Team{ID: teamID}, nil)
		f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))

		_, err := newInviteService(f, now).CreateOrRenewInvite(context.Background(), teamID, playerID)

		assert.ErrorIs(t, err, services.ErrManagerRequired)
	})
}

func TestInviteService_AcceptInvite(t *testing.T) {
	now := kickoff
	valid := &models.Invite{ID: 1, TeamID: teamID, Token: "tok", ExpiresAt: now.Add(time.Hour)}

	tests := []struct {
		name       string
		invite     *models.Invite
		setupMocks func(f *fixture)
		wantErr    error
		wantStatus models.MemberStatus
	}{
		{
			name:   "new player becomes pending",
			invite: valid,
			setupMocks: func(f *fixture) {
				f.expectMembership(teamID, outsiderID, nil)
				f.members.On("Create", mock.Anything, mock.MatchedBy(func(m *models.TeamMember) bool {
					return m.Status == models.MemberStatusPending && m.Role == models.MemberRoleMember && *m.UserID == outsiderID
				})).Return(nil)
				f.notifier.On("NotifyTeamManagers", mock.Anything, teamID, outsiderID, mock.MatchedBy(func(n models.Notification) bool {
					return n.Kind == models.NotificationJoinRequest
				})).Return(nil)
			},
			wantStatus: models.MemberStatusPending,
		},
		{
			name:   "former member re-joins with history",
			invite: valid,
			setupMocks: func(f *fixture) {
				left := player(teamID, outsiderID, 103)
				left.Status = models.MemberStatusLeft
				f.expectMembership(teamID, outsiderID, left)
				f.members.On("UpdateStatus", mock.Anything, 103, models.MemberStatusPending).Return(nil)
				f.notifier.On("NotifyTeamManagers", mock.Anything, teamID, outsiderID, mock.Anything).Return(nil)
			},
			wantStatus: models.MemberStatusPending,
		},
		{
			name:   "removed manager re-joins without the role",
			invite: valid,
			setupMocks: func(f *fixture) {
				left := manager(teamID, outsiderID, 103)
				left.Status = models.MemberStatusLeft
				f.expectMembership(teamID, outsiderID, left)
				f.members.On("UpdateStatus", mock.Anything, 103, models.MemberStatusPending).Return(nil)
				f.notifier.On("NotifyTeamManagers", mock.Anything, teamID, outsiderID, mock.Anything).Return(nil)
			},
			wantStatus: models.MemberStatusPending,
		},
		{
			name:   "already active",
			invite: valid,
			setupMocks: func(f *fixture) {
				f.expectMembership(teamID, outsiderID, player(teamID, outsiderID, 103))
			},
			wantErr: services.ErrMemberConflict,
		},
		{
			name:    "expired invite",
			invite:  &models.Invite{ID: 1, TeamID: teamID, Token: "tok", ExpiresAt: now},
			wantErr: services.ErrInviteExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.invites.On("GetByToken", mock.Anything, "tok").Return(tt.invite, nil)
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			member, err := newInviteService(f, now).AcceptInvite(context.Background(), "tok", outsiderID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, member.Status)
			assert.Equal(t, models.MemberRoleMember, member.Role)
		})
	}
}

func TestInviteService_GetInviteByToken_HidesToken(t *testing.T) {
	f := newFixture(t)
	f.invites.On("GetByToken", mock.Anything, "tok").Return(&models.Invite{TeamID: teamID, Token: "tok", ExpiresAt: kickoff.Add(time.Hour)}, nil)
	f.teams.On("GetByID", mock.Anything, teamID).Return(&models.Team{ID: teamID, Name: "FC Sunday"}, nil)

	details, err := newInviteService(f, kickoff).GetInviteByToken(context.Background(), "tok")

	require.NoError(t, err)
	assert.Equal(t, "FC Sunday", details.TeamName)
	assert.Empty(t, details.Invite.Token)
}

func TestInviteService_PurgeExpired(t *testing.T) {
	f := newFixture(t)
	f.invites.On("DeleteExpired", mock.Anything, kickoff).Return(int64(3), nil)

	deleted, err := newInviteService(f, kickoff).PurgeExpired(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
}
