package handlers

import (
	"context"
	"io"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/mock"
)

type authServiceMock struct{ mock.Mock }

func (m *authServiceMock) Register(ctx context.Context, input services.RegisterInput) (*models.User, error) {
	args := m.Called(ctx, input)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *authServiceMock) Login(ctx context.Context, input services.LoginInput) (*models.User, error) {
	args := m.Called(ctx, input)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *authServiceMock) ConfirmEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *authServiceMock) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *authServiceMock) ResetPassword(ctx context.Context, token string, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

type teamServiceMock struct {
	mock.Mock
	services.TeamService
}

func (m *teamServiceMock) CreateTeam(ctx context.Context, currentUserID int, input services.CreateTeamInput) (*models.Team, error) {
	args := m.Called(ctx, currentUserID, input)
	t, _ := args.Get(0).(*models.Team)
	return t, args.Error(1)
}

func (m *teamServiceMock) ListMembers(ctx context.Context, teamID int, currentUserID int, status models.MemberStatus) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID, currentUserID, status)
	list, _ := args.Get(0).([]models.TeamMember)
	return list, args.Error(1)
}

func (m *teamServiceMock) UploadEmblem(ctx context.Context, teamID int, currentUserID int, file io.Reader, contentType string, size int64) (*models.Team, error) {
	args := m.Called(ctx, teamID, currentUserID, file, contentType, size)
	t, _ := args.Get(0).(*models.Team)
	return t, args.Error(1)
}

func (m *teamServiceMock) RemoveMember(ctx context.Context, teamID int, currentUserID int, memberID int) error {
	return m.Called(ctx, teamID, currentUserID, memberID).Error(0)
}

type recordServiceMock struct{ mock.Mock }

func (m *recordServiceMock) SaveRecords(ctx context.Context, matchID int, currentUserID int, input []services.RecordInput) ([]models.MatchRecord, error) {
	args := m.Called(ctx, matchID, currentUserID, input)
	list, _ := args.Get(0).([]models.MatchRecord)
	return list, args.Error(1)
}

func (m *recordServiceMock) ListRecords(ctx context.Context, matchID int, currentUserID int) ([]models.MatchRecord, error) {
	args := m.Called(ctx, matchID, currentUserID)
	list, _ := args.Get(0).([]models.MatchRecord)
	return list, args.Error(1)
}

type matchServiceMock struct {
	mock.Mock
	services.MatchService
}

func (m *matchServiceMock) ListMatches(ctx context.Context, teamID int, currentUserID int, input services.ListMatchesInput) ([]models.Match, error) {
	args := m.Called(ctx, teamID, currentUserID, input)
	list, _ := args.Get(0).([]models.Match)
	return list, args.Error(1)
}

type teamMergeServiceMock struct {
	mock.Mock
	services.TeamMergeService
}

func (m *teamMergeServiceMock) Accept(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error) {
	args := m.Called(ctx, requestID, currentUserID)
	r, _ := args.Get(0).(*models.TeamMergeRequest)
	return r, args.Error(1)
}

func (m *teamMergeServiceMock) SubmitDisputeScore(ctx context.Context, disputeID int, currentUserID int, input services.DisputeScoreInput) (bool, error) {
	args := m.Called(ctx, disputeID, currentUserID, input)
	return args.Bool(0), args.Error(1)
}

type statsServiceMock struct {
	mock.Mock
	services.StatsService
}

func (m *statsServiceMock) TeamStats(ctx context.Context, teamID int, currentUserID int, season *int) (*models.TeamStats, error) {
	args := m.Called(ctx, teamID, currentUserID, season)
	s, _ := args.Get(0).(*models.TeamStats)
	return s, args.Error(1)
}

func (m *statsServiceMock) PublicTeamArchive(ctx context.Context, teamID int) (*services.TeamArchive, error) {
	args := m.Called(ctx, teamID)
	a, _ := args.Get(0).(*services.TeamArchive)
	return a, args.Error(1)
}
