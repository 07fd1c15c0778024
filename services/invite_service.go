package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

const (
	inviteTokenLength = 16                 // Длина токена в байтах (32 символа в hex)
	inviteDuration    = 7 * 24 * time.Hour // Срок действия приглашения (7 дней)
	inviteMaxAttempts = 3                  // Попытки сгенерировать уникальный токен
)

var (
	ErrInviteCreationFailed  = errors.New("failed to create invite")
	ErrInviteTokenGeneration = errors.New("failed to generate unique invite token")
)

type InviteService interface {
	CreateOrRenewInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error)
	GetTeamInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error)
	RevokeInvite(ctx context.Context, teamID int, currentUserID int) error
	SendInviteByEmail(ctx context.Context, teamID int, currentUserID int, email string) (*models.Invite, error)

	GetInviteByToken(ctx context.Context, token string) (*InviteDetails, error)
	AcceptInvite(ctx context.Context, token string, currentUserID int) (*models.TeamMember, error)

	// PurgeExpired удаляет просроченные приглашения, вызывается планировщиком.
	PurgeExpired(ctx context.Context) (int64, error)
}

// InviteDetails - то, что видит приглашенный до вступления.
type InviteDetails struct {
	Invite   *models.Invite `json:"invite"`
	TeamID   int            `json:"team_id"`
	TeamName string         `json:"team_name"`
}

type inviteService struct {
	inviteRepo repositories.InviteRepository
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	notifier   NotificationService
	mailer     Mailer
	publicURL  string
	logger     *slog.Logger
	now        func() time.Time
}

func NewInviteService(
	inviteRepo repositories.InviteRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	notifier NotificationService,
	mailer Mailer,
	publicURL string,
	logger *slog.Logger,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		notifier:   notifier,
		mailer:     mailer,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

func (s *inviteService) inviteLink(token string) string {
	return fmt.Sprintf("%s/invites/%s", s.publicURL, token)
}

func (s *inviteService) CreateOrRenewInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error) {
	if _, err := loadTeam(ctx, s.teamRepo, teamID); err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < inviteMaxAttempts; attempt++ {
		token, err := generateSecureToken(inviteTokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInviteTokenGeneration, err)
		}

		invite := &models.Invite{
			TeamID:    teamID,
			Token:     token,
			ExpiresAt: s.now().Add(inviteDuration),
		}

		err = s.inviteRepo.Upsert(ctx, invite)
		if err == nil {
			invite.Link = s.inviteLink(invite.Token)
			return invite, nil
		}

		// Если ошибка - конфликт токена, пробуем снова
		if !errors.Is(err, repositories.ErrInviteTokenConflict) {
			if errors.Is(err, repositories.ErrInviteTeamInvalid) {
				return nil, ErrTeamNotFound
			}
			return nil, fmt.Errorf("%w: %w", ErrInviteCreationFailed, err)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrInviteTokenGeneration, inviteMaxAttempts)
}

func (s *inviteService) GetTeamInvite(ctx context.Context, teamID int, currentUserID int) (*models.Invite, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	invite, err := s.inviteRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite of team %d: %w", teamID, err)
	}
	// Просроченный токен еще не вычищен планировщиком.
	if invite.Expired(s.now()) {
		return nil, ErrInviteNotFound
	}
	invite.Link = s.inviteLink(invite.Token)
	return invite, nil
}

func (s *inviteService) RevokeInvite(ctx context.Context, teamID int, currentUserID int) error {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return err
	}
	if err := s.inviteRepo.DeleteByTeamID(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("failed to revoke invite of team %d: %w", teamID, err)
	}
	return nil
}

func (s *inviteService) SendInviteByEmail(ctx context.Context, teamID int, currentUserID int, email string) (*models.Invite, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		verr := newValidationError()
		verr.Add("email", "must be a valid email address")
		return nil, verr
	}

	invite, err := s.GetTeamInvite(ctx, teamID, currentUserID)
	if errors.Is(err, ErrInviteNotFound) {
		invite, err = s.CreateOrRenewInvite(ctx, teamID, currentUserID)
	}
	if err != nil {
		return nil, err
	}

	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.mailer.SendTeamInviteEmail(email, team.Name, invite.Link, invite.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to send invite email: %w", err)
	}
	return invite, nil
}

func (s *inviteService) GetInviteByToken(ctx context.Context, token string) (*InviteDetails, error) {
	invite, err := s.validInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	team, err := loadTeam(ctx, s.teamRepo, invite.TeamID)
	if err != nil {
		return nil, err
	}
	// Токен видит только менеджер.
	invite.Token = ""
	return &InviteDetails{Invite: invite, TeamID: team.ID, TeamName: team.Name}, nil
}

func (s *inviteService) validInvite(ctx context.Context, token string) (*models.Invite, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInviteNotFound
	}
	invite, err := s.inviteRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrInviteNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to get invite by token: %w", err)
	}
	if invite.Expired(s.now()) {
		return nil, ErrInviteExpired
	}
	return invite, nil
}

// AcceptInvite создает заявку на вступление (pending). Ушедший участник
// возвращается в pending со своей историей.
func (s *inviteService) AcceptInvite(ctx context.Context, token string, currentUserID int) (*models.TeamMember, error) {
	invite, err := s.validInvite(ctx, token)
	if err != nil {
		return nil, err
	}

	member, err := s.memberRepo.GetByTeamAndUser(ctx, invite.TeamID, currentUserID)
	switch {
	case err == nil:
		if member.Status == models.MemberStatusActive || member.Status == models.MemberStatusPending {
			return nil, ErrMemberConflict
		}
		if err := s.memberRepo.UpdateStatus(ctx, member.ID, models.MemberStatusPending); err != nil {
			return nil, fmt.Errorf("failed to re-open membership %d: %w", member.ID, mapMemberWriteError(err))
		}
		// Прежняя роль не возвращается: права менеджера выдает OWNER заново.
		member.Status = models.MemberStatusPending
		member.Role = models.MemberRoleMember
		member.BackNumber = nil
	case errors.Is(err, repositories.ErrMemberNotFound):
		userID := currentUserID
		member = &models.TeamMember{
			TeamID: invite.TeamID,
			UserID: &userID,
			Role:   models.MemberRoleMember,
			Status: models.MemberStatusPending,
		}
		if err := s.memberRepo.Create(ctx, member); err != nil {
			return nil, mapMemberWriteError(err)
		}
	default:
		return nil, fmt.Errorf("failed to check membership of user %d: %w", currentUserID, err)
	}

	err = s.notifier.NotifyTeamManagers(ctx, invite.TeamID, currentUserID, models.Notification{
		Kind:  models.NotificationJoinRequest,
		Title: "New join request",
		Body:  strPtr("A player accepted the team invite and is waiting for approval."),
		Link:  strPtr(fmt.Sprintf("/teams/%d/members?status=pending", invite.TeamID)),
	})
	notifyQuietly(s.logger, err, models.NotificationJoinRequest, slog.Int("team_id", invite.TeamID))

	return member, nil
}

func (s *inviteService) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := s.inviteRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired invites: %w", err)
	}
	return deleted, nil
}
