package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/storage"
)

const (
	teamNameMinLength   = 2
	teamNameMaxLength   = 50
	teamDescMaxLength   = 500
	teamRegionMaxLength = 50
	guestNameMaxLength  = 30
	maxBackNumber       = 99
)

type TeamService interface {
	CreateTeam(ctx context.Context, currentUserID int, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int, currentUserID int) (*models.Team, error)
	ListMyTeams(ctx context.Context, currentUserID int) ([]models.Team, error)
	UpdateTeam(ctx context.Context, teamID int, currentUserID int, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID int, currentUserID int) error
	UploadEmblem(ctx context.Context, teamID int, currentUserID int, file io.Reader, contentType string, size int64) (*models.Team, error)

	ListMembers(ctx context.Context, teamID int, currentUserID int, status models.MemberStatus) ([]models.TeamMember, error)
	AddGuest(ctx context.Context, teamID int, currentUserID int, input AddGuestInput) (*models.TeamMember, error)
	UpdateMember(ctx context.Context, teamID int, currentUserID int, memberID int, input UpdateMemberInput) (*models.TeamMember, error)
	ChangeRole(ctx context.Context, teamID int, currentUserID int, memberID int, role models.MemberRole) (*models.TeamMember, error)
	TransferOwnership(ctx context.Context, teamID int, currentUserID int, memberID int) error
	ApproveMember(ctx context.Context, teamID int, currentUserID int, memberID int) (*models.TeamMember, error)
	RejectMember(ctx context.Context, teamID int, currentUserID int, memberID int) error
	RemoveMember(ctx context.Context, teamID int, currentUserID int, memberID int) error
	LeaveTeam(ctx context.Context, teamID int, currentUserID int) error
}

type CreateTeamInput struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Region      *string `json:"region"`
}

type UpdateTeamInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Region      *string `json:"region"`
}

type AddGuestInput struct {
	Name       string  `json:"name"`
	BackNumber *int    `json:"back_number"`
	Position   *string `json:"position"`
}

// UpdateMemberInput - частичное обновление; ClearBackNumber снимает номер.
type UpdateMemberInput struct {
	GuestName       *string `json:"guest_name"`
	BackNumber      *int    `json:"back_number"`
	ClearBackNumber bool    `json:"clear_back_number"`
	Position        *string `json:"position"`
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	notifier   NotificationService
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	notifier NotificationService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		notifier:   notifier,
		uploader:   uploader,
		logger:     logger,
	}
}

func validateTeamFields(verr *ValidationError, name string, description, region *string) {
	verr.Check(lengthBetween(name, teamNameMinLength, teamNameMaxLength), "name", fmt.Sprintf("must be %d-%d characters", teamNameMinLength, teamNameMaxLength))
	verr.Check(lengthBetween(derefString(description), 0, teamDescMaxLength), "description", fmt.Sprintf("must be at most %d characters", teamDescMaxLength))
	verr.Check(lengthBetween(derefString(region), 0, teamRegionMaxLength), "region", fmt.Sprintf("must be at most %d characters", teamRegionMaxLength))
}

func validateBackNumber(verr *ValidationError, number *int) {
	if number == nil {
		return
	}
	verr.Check(*number >= 0 && *number <= maxBackNumber, "back_number", fmt.Sprintf("must be between 0 and %d", maxBackNumber))
}

func mapTeamWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	default:
		return err
	}
}

func (s *teamService) CreateTeam(ctx context.Context, currentUserID int, input CreateTeamInput) (*models.Team, error) {
	team := &models.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: trimmedOrNil(input.Description),
		Region:      trimmedOrNil(input.Region),
		OwnerID:     currentUserID,
	}

	verr := newValidationError()
	validateTeamFields(verr, team.Name, team.Description, team.Region)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	userID := currentUserID
	owner := &models.TeamMember{
		UserID: &userID,
		Role:   models.MemberRoleOwner,
		Status: models.MemberStatusActive,
	}
	if err := s.teamRepo.CreateWithOwner(ctx, team, owner); err != nil {
		if errors.Is(err, repositories.ErrTeamOwnerInvalid) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", mapTeamWriteError(err))
	}

	team.MemberCount = 1
	team.MyMembership = owner
	populateTeamURLs(team, s.uploader)
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int, currentUserID int) (*models.Team, error) {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	member, err := s.memberRepo.GetByTeamAndUser(ctx, teamID, currentUserID)
	switch {
	case err == nil:
		team.MyMembership = member
	case !errors.Is(err, repositories.ErrMemberNotFound):
		return nil, fmt.Errorf("failed to load membership in team %d: %w", teamID, err)
	}
	populateTeamURLs(team, s.uploader)
	return team, nil
}

func (s *teamService) ListMyTeams(ctx context.Context, currentUserID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByUser(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %d: %w", currentUserID, err)
	}
	for i := range teams {
		populateTeamURLs(&teams[i], s.uploader)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID int, currentUserID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		team.Description = trimmedOrNil(input.Description)
	}
	if input.Region != nil {
		team.Region = trimmedOrNil(input.Region)
	}

	verr := newValidationError()
	validateTeamFields(verr, team.Name, team.Description, team.Region)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, mapTeamWriteError(err))
	}
	populateTeamURLs(team, s.uploader)
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID int, currentUserID int) error {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return err
	}
	if _, err := requireOwner(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return fmt.Errorf("failed to delete team %d: %w", teamID, mapTeamWriteError(err))
	}

	if s.uploader != nil && team.EmblemKey != nil {
		if err := s.uploader.Delete(ctx, *team.EmblemKey); err != nil {
			s.logger.Warn("failed to delete team emblem", slog.Int("team_id", teamID), slog.Any("error", err))
		}
	}
	return nil
}

func (s *teamService) UploadEmblem(ctx context.Context, teamID int, currentUserID int, file io.Reader, contentType string, size int64) (*models.Team, error) {
	ext, err := validateUpload(s.uploader, contentType, size)
	if err != nil {
		return nil, err
	}
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	key := storage.ObjectKey(storage.PrefixEmblems, teamID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload emblem for team %d: %w", teamID, err)
	}
	if err := s.teamRepo.UpdateEmblemKey(ctx, teamID, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned emblem", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save emblem key for team %d: %w", teamID, mapTeamWriteError(err))
	}

	if old := team.EmblemKey; old != nil && *old != "" && *old != key {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.Warn("failed to delete previous emblem", slog.String("key", *old), slog.Any("error", err))
		}
	}

	team.EmblemKey = &key
	populateTeamURLs(team, s.uploader)
	return team, nil
}

// ListMembers: активный состав видят все участники, остальные статусы - только менеджеры.
func (s *teamService) ListMembers(ctx context.Context, teamID int, currentUserID int, status models.MemberStatus) ([]models.TeamMember, error) {
	if status == "" {
		status = models.MemberStatusActive
	}
	switch status {
	case models.MemberStatusActive:
		if _, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID); err != nil {
			return nil, err
		}
	case models.MemberStatusPending, models.MemberStatusLeft, models.MemberStatusMerged:
		if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
			return nil, err
		}
	default:
		verr := newValidationError()
		verr.Add("status", "must be one of pending, active, left, merged")
		return nil, verr
	}

	members, err := s.memberRepo.ListByTeam(ctx, teamID, []models.MemberStatus{status})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	populateMemberURLs(members, s.uploader)
	return members, nil
}

func (s *teamService) AddGuest(ctx context.Context, teamID int, currentUserID int, input AddGuestInput) (*models.TeamMember, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	position := trimmedOrNil(input.Position)

	verr := newValidationError()
	verr.Check(lengthBetween(name, 1, guestNameMaxLength), "name", fmt.Sprintf("must be 1-%d characters", guestNameMaxLength))
	validateBackNumber(verr, input.BackNumber)
	validatePosition(verr, "position", position)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	guest := &models.TeamMember{
		TeamID:     teamID,
		GuestName:  &name,
		Role:       models.MemberRoleMember,
		Status:     models.MemberStatusActive,
		BackNumber: input.BackNumber,
		Position:   position,
	}
	if err := s.memberRepo.Create(ctx, guest); err != nil {
		return nil, mapMemberWriteError(err)
	}
	return guest, nil
}

func (s *teamService) UpdateMember(ctx context.Context, teamID int, currentUserID int, memberID int, input UpdateMemberInput) (*models.TeamMember, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	member, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return nil, err
	}

	verr := newValidationError()
	if input.GuestName != nil {
		if !member.IsGuest() {
			verr.Add("guest_name", "only guest members have a guest name")
		} else {
			name := strings.TrimSpace(*input.GuestName)
			verr.Check(lengthBetween(name, 1, guestNameMaxLength), "guest_name", fmt.Sprintf("must be 1-%d characters", guestNameMaxLength))
			member.GuestName = &name
		}
	}
	switch {
	case input.ClearBackNumber:
		member.BackNumber = nil
	case input.BackNumber != nil:
		validateBackNumber(verr, input.BackNumber)
		if !member.IsActive() {
			verr.Add("back_number", "only active members have a back number")
		}
		member.BackNumber = input.BackNumber
	}
	if input.Position != nil {
		member.Position = trimmedOrNil(input.Position)
		validatePosition(verr, "position", member.Position)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.memberRepo.Update(ctx, member); err != nil {
		return nil, mapMemberWriteError(err)
	}
	populateUserURLs(member.User, s.uploader)
	return member, nil
}

func (s *teamService) ChangeRole(ctx context.Context, teamID int, currentUserID int, memberID int, role models.MemberRole) (*models.TeamMember, error) {
	if role != models.MemberRoleManager && role != models.MemberRoleMember {
		verr := newValidationError()
		verr.Add("role", "must be MANAGER or MEMBER")
		return nil, verr
	}
	owner, err := requireOwner(ctx, s.memberRepo, teamID, currentUserID)
	if err != nil {
		return nil, err
	}
	member, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return nil, err
	}
	if member.ID == owner.ID {
		return nil, ErrCannotChangeOwnRole
	}
	if member.IsGuest() || !member.IsActive() {
		return nil, fmt.Errorf("%w: role can be changed only for active registered members", ErrInvalidState)
	}

	if err := s.memberRepo.UpdateRole(ctx, member.ID, role); err != nil {
		return nil, mapMemberWriteError(err)
	}
	member.Role = role
	return member, nil
}

func (s *teamService) TransferOwnership(ctx context.Context, teamID int, currentUserID int, memberID int) error {
	owner, err := requireOwner(ctx, s.memberRepo, teamID, currentUserID)
	if err != nil {
		return err
	}
	member, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return err
	}
	if member.ID == owner.ID {
		return fmt.Errorf("%w: you already own this team", ErrInvalidState)
	}
	if member.IsGuest() || !member.IsActive() {
		return fmt.Errorf("%w: ownership can be transferred only to an active registered member", ErrInvalidState)
	}

	if err := s.teamRepo.TransferOwner(ctx, teamID, owner.ID, member.ID, *member.UserID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}
		return fmt.Errorf("failed to transfer ownership of team %d: %w", teamID, mapTeamWriteError(err))
	}
	return nil
}

func (s *teamService) pendingMember(ctx context.Context, teamID, currentUserID, memberID int) (*models.TeamMember, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	member, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusPending {
		return nil, fmt.Errorf("%w: member is not pending", ErrInvalidState)
	}
	return member, nil
}

func (s *teamService) ApproveMember(ctx context.Context, teamID int, currentUserID int, memberID int) (*models.TeamMember, error) {
	member, err := s.pendingMember(ctx, teamID, currentUserID, memberID)
	if err != nil {
		return nil, err
	}
	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusActive); err != nil {
		return nil, mapMemberWriteError(err)
	}
	member.Status = models.MemberStatusActive

	if member.UserID != nil {
		err := s.notifier.Notify(ctx, models.Notification{
			UserID: *member.UserID,
			Kind:   models.NotificationMemberApproved,
			Title:  "You joined the team",
			Body:   strPtr("Your join request was approved."),
			Link:   strPtr(fmt.Sprintf("/teams/%d", teamID)),
		})
		notifyQuietly(s.logger, err, models.NotificationMemberApproved, slog.Int("member_id", member.ID))
	}
	return member, nil
}

func (s *teamService) RejectMember(ctx context.Context, teamID int, currentUserID int, memberID int) error {
	member, err := s.pendingMember(ctx, teamID, currentUserID, memberID)
	if err != nil {
		return err
	}
	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusLeft); err != nil {
		return mapMemberWriteError(err)
	}
	return nil
}

// RemoveMember: OWNER удалить нельзя, MANAGER удаляет только OWNER.
func (s *teamService) RemoveMember(ctx context.Context, teamID int, currentUserID int, memberID int) error {
	actor, err := requireManager(ctx, s.memberRepo, teamID, currentUserID)
	if err != nil {
		return err
	}
	member, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return ErrCannotRemoveOwner
	}
	if member.Role == models.MemberRoleManager && actor.Role != models.MemberRoleOwner {
		return ErrOwnerRequired
	}
	if !member.IsActive() {
		return fmt.Errorf("%w: member is not active", ErrInvalidState)
	}

	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusLeft); err != nil {
		return mapMemberWriteError(err)
	}
	return nil
}

func (s *teamService) LeaveTeam(ctx context.Context, teamID int, currentUserID int) error {
	member, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID)
	if err != nil {
		return err
	}
	if member.Role == models.MemberRoleOwner {
		return ErrOwnerCannotLeave
	}
	if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusLeft); err != nil {
		return mapMemberWriteError(err)
	}
	return nil
}
