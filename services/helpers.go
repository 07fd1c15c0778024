package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/storage"
)

const maxUploadSize = 5 << 20 // 5 MB

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// trimmedOrNil возвращает nil для пустой строки после TrimSpace.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func lengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// activeMembership возвращает активное членство пользователя в команде.
func activeMembership(ctx context.Context, members repositories.MemberRepository, teamID, userID int) (*models.TeamMember, error) {
	member, err := members.GetByTeamAndUser(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to load membership for user %d in team %d: %w", userID, teamID, err)
	}
	if !member.IsActive() {
		return nil, ErrNotTeamMember
	}
	return member, nil
}

// requireManager проверяет role in {OWNER, MANAGER} для активного участника.
func requireManager(ctx context.Context, members repositories.MemberRepository, teamID, userID int) (*models.TeamMember, error) {
	member, err := activeMembership(ctx, members, teamID, userID)
	if err != nil {
		if errors.Is(err, ErrNotTeamMember) {
			return nil, ErrManagerRequired
		}
		return nil, err
	}
	if !member.CanManage() {
		return nil, ErrManagerRequired
	}
	return member, nil
}

func requireOwner(ctx context.Context, members repositories.MemberRepository, teamID, userID int) (*models.TeamMember, error) {
	member, err := activeMembership(ctx, members, teamID, userID)
	if err != nil {
		if errors.Is(err, ErrNotTeamMember) {
			return nil, ErrOwnerRequired
		}
		return nil, err
	}
	if member.Role != models.MemberRoleOwner {
		return nil, ErrOwnerRequired
	}
	return member, nil
}

// isManager - мягкая проверка без ошибки доступа.
func isManager(ctx context.Context, members repositories.MemberRepository, teamID, userID int) (bool, error) {
	_, err := requireManager(ctx, members, teamID, userID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrManagerRequired) {
		return false, nil
	}
	return false, err
}

func loadTeam(ctx context.Context, teams repositories.TeamRepository, teamID int) (*models.Team, error) {
	team, err := teams.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

func loadMatch(ctx context.Context, matches repositories.MatchRepository, matchID int) (*models.Match, error) {
	match, err := matches.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match %d: %w", matchID, err)
	}
	return match, nil
}

// loadTeamMember возвращает участника, только если он принадлежит команде.
func loadTeamMember(ctx context.Context, members repositories.MemberRepository, teamID, memberID int) (*models.TeamMember, error) {
	member, err := members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member %d: %w", memberID, err)
	}
	if member.TeamID != teamID {
		return nil, ErrMemberNotFound
	}
	return member, nil
}

// mapProcedureError переводит ошибки процедур слияния в ошибки сервисов.
func mapProcedureError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrProcedureNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repositories.ErrProcedureRejected):
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	case errors.Is(err, repositories.ErrSerialization):
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	default:
		return err
	}
}

func mapMemberWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMemberBackNumberConflict):
		return ErrBackNumberConflict
	case errors.Is(err, repositories.ErrMemberConflict):
		return ErrMemberConflict
	case errors.Is(err, repositories.ErrMemberNotFound):
		return ErrMemberNotFound
	case errors.Is(err, repositories.ErrMemberTeamInvalid):
		return ErrTeamNotFound
	default:
		return err
	}
}

func publicURL(uploader storage.FileUploader, key *string) *string {
	if uploader == nil || key == nil || *key == "" {
		return nil
	}
	url := uploader.GetPublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}

func populateUserURLs(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = ""
	user.AvatarURL = publicURL(uploader, user.AvatarKey)
}

func populateTeamURLs(team *models.Team, uploader storage.FileUploader) {
	if team == nil {
		return
	}
	team.EmblemURL = publicURL(uploader, team.EmblemKey)
}

func populateMemberURLs(members []models.TeamMember, uploader storage.FileUploader) {
	for i := range members {
		populateUserURLs(members[i].User, uploader)
	}
}

// GetExtensionFromContentType возвращает расширение файла для image/* типов.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, contentType)
	}
}

// validateUpload проверяет размер и тип, возвращает расширение.
func validateUpload(uploader storage.FileUploader, contentType string, size int64) (string, error) {
	if uploader == nil {
		return "", ErrUploadsDisabled
	}
	if size <= 0 || size > maxUploadSize {
		return "", fmt.Errorf("%w: max %d bytes", ErrFileTooLarge, maxUploadSize)
	}
	return GetExtensionFromContentType(contentType)
}
