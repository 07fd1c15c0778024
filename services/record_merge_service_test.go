package services_test

import (
	"context"
	"testing"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRecordMergeService(f *fixture) services.RecordMergeService {
	return services.NewRecordMergeService(f.recordMerges, f.members, f.users, f.notifier, f.logger)
}

func TestRecordMergeService_CreateOffer(t *testing.T) {
	tests := []struct {
		name       string
		guest      *models.TeamMember
		setupMocks func(f *fixture)
		wantErr    error
	}{
		{
			name:  "offer notifies the target player",
			guest: guest(teamID, guestMID, "Vasya"),
			setupMocks: func(f *fixture) {
				f.users.On("GetByID", mock.Anything, outsiderID).Return(&models.User{ID: outsiderID}, nil)
				f.recordMerges.On("Create", mock.Anything, mock.MatchedBy(func(r *models.RecordMergeRequest) bool {
					return r.Direction == models.MergeDirectionOffer && r.TargetUserID == outsiderID && r.Status == models.RequestStatusPending
				})).Return(nil)
				f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
					return n.UserID == outsiderID && n.Kind == models.NotificationRecordMergeOffer
				})).Return(nil)
			},
		},
		{
			name:    "registered member is not a guest",
			guest:   player(teamID, playerID, guestMID),
			wantErr: services.ErrInvalidState,
		},
		{
			name:  "guest already has a pending request",
			guest: guest(teamID, guestMID, "Vasya"),
			setupMocks: func(f *fixture) {
				f.users.On("GetByID", mock.Anything, outsiderID).Return(&models.User{ID: outsiderID}, nil)
				f.recordMerges.On("Create", mock.Anything, mock.Anything).Return(repositories.ErrRecordMergePendingConflict)
			},
			wantErr: services.ErrMergeRequestConflict,
		},
		{
			name:  "unknown target user",
			guest: guest(teamID, guestMID, "Vasya"),
			setupMocks: func(f *fixture) {
				f.users.On("GetByID", mock.Anything, outsiderID).Return(nil, repositories.ErrUserNotFound)
			},
			wantErr: services.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
			f.members.On("GetByID", mock.Anything, guestMID).Return(tt.guest, nil)
			if tt.setupMocks != nil {
				tt.setupMocks(f)
			}

			req, err := newRecordMergeService(f).CreateOffer(context.Background(), teamID, managerID, guestMID, outsiderID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, managerID, req.RequestedBy)
		})
	}
}

func TestRecordMergeService_CreateClaim_TargetsRequester(t *testing.T) {
	f := newFixture(t)
	f.members.On("GetByID", mock.Anything, guestMID).Return(guest(teamID, guestMID, "Vasya"), nil)
	f.recordMerges.On("Create", mock.Anything, mock.MatchedBy(func(r *models.RecordMergeRequest) bool {
		return r.Direction == models.MergeDirectionClaim && r.TargetUserID == outsiderID && r.RequestedBy == outsiderID
	})).Return(nil)
	f.notifier.On("NotifyTeamManagers", mock.Anything, teamID, outsiderID, mock.Anything).Return(nil)

	req, err := newRecordMergeService(f).CreateClaim(context.Background(), teamID, outsiderID, guestMID)

	require.NoError(t, err)
	assert.Equal(t, models.MergeDirectionClaim, req.Direction)
}

func TestRecordMergeService_Approve(t *testing.T) {
	offer := func() *models.RecordMergeRequest {
		return &models.RecordMergeRequest{
			ID: 4, TeamID: teamID, GuestMemberID: guestMID, TargetUserID: outsiderID,
			RequestedBy: managerID, Direction: models.MergeDirectionOffer, Status: models.RequestStatusPending,
		}
	}

	t.Run("target approves an offer", func(t *testing.T) {
		f := newFixture(t)
		approved := offer()
		approved.Status = models.RequestStatusApproved
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(offer(), nil).Once()
		f.recordMerges.On("ProcessRecordMerge", mock.Anything, 4).Return(nil)
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
			return n.UserID == managerID && n.Kind == models.NotificationRecordMergeResult
		})).Return(nil)
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(approved, nil).Once()

		got, err := newRecordMergeService(f).Approve(context.Background(), 4, outsiderID)

		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, got.Status)
	})

	t.Run("someone else cannot approve an offer", func(t *testing.T) {
		f := newFixture(t)
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(offer(), nil)

		_, err := newRecordMergeService(f).Approve(context.Background(), 4, playerID)

		assert.ErrorIs(t, err, services.ErrForbiddenOperation)
	})

	t.Run("resolved request", func(t *testing.T) {
		f := newFixture(t)
		req := offer()
		req.Status = models.RequestStatusRejected
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(req, nil)

		_, err := newRecordMergeService(f).Approve(context.Background(), 4, outsiderID)

		assert.ErrorIs(t, err, services.ErrInvalidState)
	})

	t.Run("claim needs a team manager", func(t *testing.T) {
		f := newFixture(t)
		claim := offer()
		claim.Direction = models.MergeDirectionClaim
		claim.RequestedBy = outsiderID
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(claim, nil)
		f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))

		_, err := newRecordMergeService(f).Approve(context.Background(), 4, playerID)

		assert.ErrorIs(t, err, services.ErrManagerRequired)
	})

	t.Run("procedure conflict", func(t *testing.T) {
		f := newFixture(t)
		f.recordMerges.On("GetByID", mock.Anything, 4).Return(offer(), nil)
		f.recordMerges.On("ProcessRecordMerge", mock.Anything, 4).Return(repositories.ErrSerialization)

		_, err := newRecordMergeService(f).Approve(context.Background(), 4, outsiderID)

		assert.ErrorIs(t, err, services.ErrConcurrentUpdate)
	})
}

func TestRecordMergeService_DirectMerge(t *testing.T) {
	t.Run("merges guest into registered member", func(t *testing.T) {
		f := newFixture(t)
		f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
		f.members.On("GetByID", mock.Anything, guestMID).Return(guest(teamID, guestMID, "Vasya"), nil)
		f.members.On("GetByID", mock.Anything, playerMID).Return(player(teamID, playerID, playerMID), nil)
		f.recordMerges.On("ProcessDirectMerge", mock.Anything, guestMID, playerMID).Return(nil)

		assert.NoError(t, newRecordMergeService(f).DirectMerge(context.Background(), teamID, managerID, guestMID, playerMID))
	})

	t.Run("target must be registered", func(t *testing.T) {
		f := newFixture(t)
		f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
		f.members.On("GetByID", mock.Anything, guestMID).Return(guest(teamID, guestMID, "Vasya"), nil)
		f.members.On("GetByID", mock.Anything, 104).Return(guest(teamID, 104, "Petya"), nil)

		err := newRecordMergeService(f).DirectMerge(context.Background(), teamID, managerID, guestMID, 104)

		assert.ErrorIs(t, err, services.ErrInvalidState)
	})

	t.Run("guest of another team", func(t *testing.T) {
		f := newFixture(t)
		f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
		f.members.On("GetByID", mock.Anything, guestMID).Return(guest(opponentTID, guestMID, "Vasya"), nil)

		err := newRecordMergeService(f).DirectMerge(context.Background(), teamID, managerID, guestMID, playerMID)

		assert.ErrorIs(t, err, services.ErrMemberNotFound)
	})
}

func TestRecordMergeService_Reject(t *testing.T) {
	request := func(direction models.MergeDirection, status models.RequestStatus) *models.RecordMergeRequest {
		req := &models.RecordMergeRequest{
			ID: 4, TeamID: teamID, GuestMemberID: guestMID, TargetUserID: outsiderID,
			RequestedBy: managerID, Direction: direction, Status: status,
		}
		if direction == models.MergeDirectionClaim {
			req.TargetUserID = playerID
			req.RequestedBy = playerID
		}
		return req
	}

	tests := []struct {
		name    string
		req     *models.RecordMergeRequest
		actor   int
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:  "target rejects an offer",
			req:   request(models.MergeDirectionOffer, models.RequestStatusPending),
			actor: outsiderID,
			setup: func(f *fixture) {
				f.recordMerges.On("Resolve", mock.Anything, 4, models.RequestStatusRejected).Return(nil)
				f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
					return n.UserID == managerID && n.Kind == models.NotificationRecordMergeResult
				})).Return(nil)
			},
		},
		{
			name:    "someone else cannot reject an offer",
			req:     request(models.MergeDirectionOffer, models.RequestStatusPending),
			actor:   playerID,
			setup:   func(f *fixture) {},
			wantErr: services.ErrForbiddenOperation,
		},
		{
			name:  "manager rejects a claim",
			req:   request(models.MergeDirectionClaim, models.RequestStatusPending),
			actor: managerID,
			setup: func(f *fixture) {
				f.expectMembership(teamID, managerID, manager(teamID, managerID, managerMID))
				f.recordMerges.On("Resolve", mock.Anything, 4, models.RequestStatusRejected).Return(nil)
				f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
					return n.UserID == playerID
				})).Return(nil)
			},
		},
		{
			name:  "player cannot reject a claim",
			req:   request(models.MergeDirectionClaim, models.RequestStatusPending),
			actor: playerID,
			setup: func(f *fixture) {
				f.expectMembership(teamID, playerID, player(teamID, playerID, playerMID))
			},
			wantErr: services.ErrManagerRequired,
		},
		{
			name:    "already approved",
			req:     request(models.MergeDirectionOffer, models.RequestStatusApproved),
			actor:   outsiderID,
			setup:   func(f *fixture) {},
			wantErr: services.ErrInvalidState,
		},
		{
			name:  "resolved meanwhile",
			req:   request(models.MergeDirectionOffer, models.RequestStatusPending),
			actor: outsiderID,
			setup: func(f *fixture) {
				f.recordMerges.On("Resolve", mock.Anything, 4, models.RequestStatusRejected).Return(repositories.ErrRecordMergeNotPending)
			},
			wantErr: services.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.recordMerges.On("GetByID", mock.Anything, 4).Return(tt.req, nil)
			tt.setup(f)

			got, err := newRecordMergeService(f).Reject(context.Background(), 4, tt.actor)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.RequestStatusRejected, got.Status)
		})
	}
}

func TestRecordMergeService_Cancel_OnlyRequester(t *testing.T) {
	f := newFixture(t)
	f.recordMerges.On("GetByID", mock.Anything, 4).Return(&models.RecordMergeRequest{ID: 4, RequestedBy: managerID, Status: models.RequestStatusPending}, nil)

	_, err := newRecordMergeService(f).Cancel(context.Background(), 4, playerID)

	assert.ErrorIs(t, err, services.ErrForbiddenOperation)
}
