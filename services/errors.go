package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrPasswordTooShort      = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong       = errors.New("password must be at most 72 bytes long")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrEmailAlreadyConfirmed = errors.New("email already confirmed")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInvalidState          = errors.New("operation is not allowed in the current state")
	ErrOwnerCannotLeave      = errors.New("the team owner must transfer ownership before leaving")
	ErrCannotRemoveOwner     = errors.New("cannot remove the team owner")
	ErrCannotChangeOwnRole   = errors.New("cannot change your own role")
	ErrUnsupportedFileType   = errors.New("unsupported file type, expected an image")
	ErrFileTooLarge          = errors.New("file is too large")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrTeamNameConflict     = errors.New("team name is already in use")
	ErrMemberConflict       = errors.New("user is already a member of the team or has a pending request")
	ErrBackNumberConflict   = errors.New("back number is already taken in this team")
	ErrMergeRequestConflict = errors.New("guest already has a pending merge request")
	ErrTeamMergeConflict    = errors.New("an open merge request already exists between these teams")
	ErrConcurrentUpdate     = errors.New("the data was changed concurrently, retry the operation")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrNotTeamMember        = errors.New("you are not an active member of this team")
	ErrManagerRequired      = errors.New("only the team owner or a manager can perform this action")
	ErrOwnerRequired        = errors.New("only the team owner can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrMemberNotFound       = errors.New("team member not found")
	ErrVenueNotFound        = errors.New("venue not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMergeRequestNotFound = errors.New("merge request not found")
	ErrDisputeNotFound      = errors.New("dispute not found")

	// Внешние интеграции
	ErrUploadsDisabled = errors.New("file uploads are not configured")
)

// ValidationError - ошибки по полям, отдаются клиенту как 422.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

func (e *ValidationError) Valid() bool {
	return len(e.Fields) == 0
}

// OrNil возвращает nil, если ошибок нет.
func (e *ValidationError) OrNil() error {
	if e.Valid() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
