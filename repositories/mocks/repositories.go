// Package mocks содержит testify-моки репозиториев для тестов сервисов.
package mocks

import (
	"context"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/stretchr/testify/mock"
)

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) UpdateAvatarKey(ctx context.Context, userID int, key *string) error {
	return m.Called(ctx, userID, key).Error(0)
}

type TeamRepository struct{ mock.Mock }

func (m *TeamRepository) CreateWithOwner(ctx context.Context, team *models.Team, owner *models.TeamMember) error {
	return m.Called(ctx, team, owner).Error(0)
}

func (m *TeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	args := m.Called(ctx, id)
	team, _ := args.Get(0).(*models.Team)
	return team, args.Error(1)
}

func (m *TeamRepository) ListByUser(ctx context.Context, userID int) ([]models.Team, error) {
	args := m.Called(ctx, userID)
	teams, _ := args.Get(0).([]models.Team)
	return teams, args.Error(1)
}

func (m *TeamRepository) Update(ctx context.Context, team *models.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *TeamRepository) UpdateEmblemKey(ctx context.Context, teamID int, key *string) error {
	return m.Called(ctx, teamID, key).Error(0)
}

func (m *TeamRepository) TransferOwner(ctx context.Context, teamID, oldOwnerMemberID, newOwnerMemberID, newOwnerUserID int) error {
	return m.Called(ctx, teamID, oldOwnerMemberID, newOwnerMemberID, newOwnerUserID).Error(0)
}

func (m *TeamRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MemberRepository struct{ mock.Mock }

func (m *MemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MemberRepository) GetByID(ctx context.Context, id int) (*models.TeamMember, error) {
	args := m.Called(ctx, id)
	member, _ := args.Get(0).(*models.TeamMember)
	return member, args.Error(1)
}

func (m *MemberRepository) GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	args := m.Called(ctx, teamID, userID)
	member, _ := args.Get(0).(*models.TeamMember)
	return member, args.Error(1)
}

func (m *MemberRepository) ListByTeam(ctx context.Context, teamID int, statuses []models.MemberStatus) ([]models.TeamMember, error) {
	args := m.Called(ctx, teamID, statuses)
	members, _ := args.Get(0).([]models.TeamMember)
	return members, args.Error(1)
}

func (m *MemberRepository) ListManagerUserIDs(ctx context.Context, teamID int) ([]int, error) {
	args := m.Called(ctx, teamID)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

func (m *MemberRepository) Update(ctx context.Context, member *models.TeamMember) error {
	return m.Called(ctx, member).Error(0)
}

func (m *MemberRepository) UpdateRole(ctx context.Context, id int, role models.MemberRole) error {
	return m.Called(ctx, id, role).Error(0)
}

func (m *MemberRepository) UpdateStatus(ctx context.Context, id int, status models.MemberStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type VenueRepository struct{ mock.Mock }

func (m *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	return m.Called(ctx, venue).Error(0)
}

func (m *VenueRepository) GetByID(ctx context.Context, id int) (*models.Venue, error) {
	args := m.Called(ctx, id)
	venue, _ := args.Get(0).(*models.Venue)
	return venue, args.Error(1)
}

func (m *VenueRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Venue, error) {
	args := m.Called(ctx, teamID)
	venues, _ := args.Get(0).([]models.Venue)
	return venues, args.Error(1)
}

func (m *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	return m.Called(ctx, venue).Error(0)
}

func (m *VenueRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MatchRepository struct{ mock.Mock }

func (m *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	return m.Called(ctx, match).Error(0)
}

func (m *MatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	args := m.Called(ctx, id)
	match, _ := args.Get(0).(*models.Match)
	return match, args.Error(1)
}

func (m *MatchRepository) ListByTeam(ctx context.Context, teamID int, params repositories.MatchListParams) ([]models.Match, error) {
	args := m.Called(ctx, teamID, params)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

func (m *MatchRepository) ListCompletedByTeam(ctx context.Context, teamID int, from, to time.Time) ([]models.Match, error) {
	args := m.Called(ctx, teamID, from, to)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

func (m *MatchRepository) ListUpcomingForUser(ctx context.Context, userID int, now time.Time, limit int) ([]models.Match, error) {
	args := m.Called(ctx, userID, now, limit)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

func (m *MatchRepository) ListDueReminders(ctx context.Context, now, until time.Time) ([]models.Match, error) {
	args := m.Called(ctx, now, until)
	matches, _ := args.Get(0).([]models.Match)
	return matches, args.Error(1)
}

func (m *MatchRepository) Update(ctx context.Context, match *models.Match) error {
	return m.Called(ctx, match).Error(0)
}

func (m *MatchRepository) MarkReminded(ctx context.Context, id int, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MatchRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type AttendanceRepository struct{ mock.Mock }

func (m *AttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	return m.Called(ctx, attendance).Error(0)
}

func (m *AttendanceRepository) ListByMatch(ctx context.Context, matchID int) ([]models.Attendance, error) {
	args := m.Called(ctx, matchID)
	list, _ := args.Get(0).([]models.Attendance)
	return list, args.Error(1)
}

func (m *AttendanceRepository) ListAttendingUserIDs(ctx context.Context, matchID int) ([]int, error) {
	args := m.Called(ctx, matchID)
	ids, _ := args.Get(0).([]int)
	return ids, args.Error(1)
}

func (m *AttendanceRepository) CountAttendingByTeam(ctx context.Context, teamID int, matchIDs []int) ([]repositories.AttendanceCount, error) {
	args := m.Called(ctx, teamID, matchIDs)
	counts, _ := args.Get(0).([]repositories.AttendanceCount)
	return counts, args.Error(1)
}

type RecordRepository struct{ mock.Mock }

func (m *RecordRepository) ReplaceForMatch(ctx context.Context, matchID int, records []models.MatchRecord) error {
	return m.Called(ctx, matchID, records).Error(0)
}

func (m *RecordRepository) ListByMatch(ctx context.Context, matchID int) ([]models.MatchRecord, error) {
	args := m.Called(ctx, matchID)
	records, _ := args.Get(0).([]models.MatchRecord)
	return records, args.Error(1)
}

func (m *RecordRepository) ListByMatches(ctx context.Context, matchIDs []int) ([]models.MatchRecord, error) {
	args := m.Called(ctx, matchIDs)
	records, _ := args.Get(0).([]models.MatchRecord)
	return records, args.Error(1)
}

func (m *RecordRepository) TotalsByUser(ctx context.Context, userID int) ([]repositories.UserRecordTotals, error) {
	args := m.Called(ctx, userID)
	totals, _ := args.Get(0).([]repositories.UserRecordTotals)
	return totals, args.Error(1)
}

type InviteRepository struct{ mock.Mock }

func (m *InviteRepository) Upsert(ctx context.Context, invite *models.Invite) error {
	return m.Called(ctx, invite).Error(0)
}

func (m *InviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	args := m.Called(ctx, token)
	invite, _ := args.Get(0).(*models.Invite)
	return invite, args.Error(1)
}

func (m *InviteRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Invite, error) {
	args := m.Called(ctx, teamID)
	invite, _ := args.Get(0).(*models.Invite)
	return invite, args.Error(1)
}

func (m *InviteRepository) DeleteByTeamID(ctx context.Context, teamID int) error {
	return m.Called(ctx, teamID).Error(0)
}

func (m *InviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type NotificationRepository struct{ mock.Mock }

func (m *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepository) CreateForUsers(ctx context.Context, userIDs []int, n models.Notification) (int64, error) {
	args := m.Called(ctx, userIDs, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *NotificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id int64, userID int) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *NotificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type RecordMergeRepository struct{ mock.Mock }

func (m *RecordMergeRepository) Create(ctx context.Context, req *models.RecordMergeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *RecordMergeRepository) GetByID(ctx context.Context, id int) (*models.RecordMergeRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.RecordMergeRequest)
	return req, args.Error(1)
}

func (m *RecordMergeRepository) ListByTeam(ctx context.Context, teamID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	args := m.Called(ctx, teamID, status)
	list, _ := args.Get(0).([]models.RecordMergeRequest)
	return list, args.Error(1)
}

func (m *RecordMergeRepository) ListForUser(ctx context.Context, userID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	args := m.Called(ctx, userID, status)
	list, _ := args.Get(0).([]models.RecordMergeRequest)
	return list, args.Error(1)
}

func (m *RecordMergeRepository) Resolve(ctx context.Context, id int, status models.RequestStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *RecordMergeRepository) ProcessRecordMerge(ctx context.Context, requestID int) error {
	return m.Called(ctx, requestID).Error(0)
}

func (m *RecordMergeRepository) ProcessDirectMerge(ctx context.Context, guestMemberID, targetMemberID int) error {
	return m.Called(ctx, guestMemberID, targetMemberID).Error(0)
}

type TeamMergeRepository struct{ mock.Mock }

func (m *TeamMergeRepository) Create(ctx context.Context, req *models.TeamMergeRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *TeamMergeRepository) GetByID(ctx context.Context, id int) (*models.TeamMergeRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.TeamMergeRequest)
	return req, args.Error(1)
}

func (m *TeamMergeRepository) ListByTeam(ctx context.Context, teamID int, statuses []models.RequestStatus) ([]models.TeamMergeRequest, error) {
	args := m.Called(ctx, teamID, statuses)
	list, _ := args.Get(0).([]models.TeamMergeRequest)
	return list, args.Error(1)
}

func (m *TeamMergeRepository) ListOpenForManager(ctx context.Context, userID int) ([]models.TeamMergeRequest, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.TeamMergeRequest)
	return list, args.Error(1)
}

func (m *TeamMergeRepository) Resolve(ctx context.Context, id int, from []models.RequestStatus, to models.RequestStatus) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *TeamMergeRepository) ListDisputes(ctx context.Context, requestID int) ([]models.TeamMergeDispute, error) {
	args := m.Called(ctx, requestID)
	list, _ := args.Get(0).([]models.TeamMergeDispute)
	return list, args.Error(1)
}

func (m *TeamMergeRepository) GetDispute(ctx context.Context, id int) (*models.TeamMergeDispute, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.TeamMergeDispute)
	return d, args.Error(1)
}

func (m *TeamMergeRepository) ProcessTeamMerge(ctx context.Context, requestID int) (models.RequestStatus, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).(models.RequestStatus), args.Error(1)
}

func (m *TeamMergeRepository) SubmitDisputeScore(ctx context.Context, disputeID, teamID, ourScore, opponentScore int) (bool, error) {
	args := m.Called(ctx, disputeID, teamID, ourScore, opponentScore)
	return args.Bool(0), args.Error(1)
}

var (
	_ repositories.UserRepository         = (*UserRepository)(nil)
	_ repositories.TeamRepository         = (*TeamRepository)(nil)
	_ repositories.MemberRepository       = (*MemberRepository)(nil)
	_ repositories.VenueRepository        = (*VenueRepository)(nil)
	_ repositories.MatchRepository        = (*MatchRepository)(nil)
	_ repositories.AttendanceRepository   = (*AttendanceRepository)(nil)
	_ repositories.RecordRepository       = (*RecordRepository)(nil)
	_ repositories.InviteRepository       = (*InviteRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
	_ repositories.RecordMergeRepository  = (*RecordMergeRepository)(nil)
	_ repositories.TeamMergeRepository    = (*TeamMergeRepository)(nil)
)
