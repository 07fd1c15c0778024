package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // предел bcrypt в байтах
	authTokenBytes    = 32
	passwordResetTTL  = time.Hour
	nicknameMaxLength = 30
	nicknameMinLength = 2
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	ConfirmEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword string) error
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	mailer   Mailer
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, mailer Mailer, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	nickname := strings.TrimSpace(input.Nickname)

	verr := newValidationError()
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		verr.Add("email", "must be a valid email address")
	}
	verr.Check(lengthBetween(nickname, nicknameMinLength, nicknameMaxLength), "nickname", fmt.Sprintf("must be %d-%d characters", nicknameMinLength, nicknameMaxLength))
	verr.Check(len(input.Password) >= minPasswordLength, "password", ErrPasswordTooShort.Error())
	verr.Check(len(input.Password) <= maxPasswordLength, "password", ErrPasswordTooLong.Error())
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	confirmationToken, err := generateSecureToken(authTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	user := &models.User{
		Email:                  email,
		PasswordHash:           string(hashedPassword),
		Nickname:               nickname,
		Role:                   models.RoleUser,
		EmailConfirmationToken: &confirmationToken,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	// Письмо не критично для регистрации.
	if err := s.mailer.SendWelcomeEmail(user.Email, user.Nickname, confirmationToken); err != nil {
		s.logger.Warn("failed to send welcome email", slog.Int("user_id", user.ID), slog.Any("error", err))
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) ConfirmEmail(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to get user by confirmation token: %w", err)
	}
	if user.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}

	user.EmailConfirmed = true
	user.EmailConfirmationToken = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to confirm email: %w", err)
	}
	return nil
}

// ForgotPassword не сообщает, зарегистрирован ли email.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user by email: %w", err)
	}

	resetToken, err := generateSecureToken(authTokenBytes)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expiresAt := s.now().Add(passwordResetTTL)
	user.PasswordResetToken = &resetToken
	user.PasswordResetExpiresAt = &expiresAt
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, resetToken); err != nil {
		s.logger.Warn("failed to send password reset email", slog.Int("user_id", user.ID), slog.Any("error", err))
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(newPassword) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	user, err := s.userRepo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("failed to get user by reset token: %w", err)
	}
	if user.PasswordResetExpiresAt == nil || !s.now().Before(*user.PasswordResetExpiresAt) {
		return ErrInvalidToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	user.PasswordResetToken = nil
	user.PasswordResetExpiresAt = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("ошибка обновления пользователя: %w", err)
	}
	return nil
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
