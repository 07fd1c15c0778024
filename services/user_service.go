package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/storage"
)

const (
	minBirthYear      = 1900
	fullNameMaxLength = 60
)

type UserService interface {
	GetMe(ctx context.Context, userID int) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error)
	CompleteOnboarding(ctx context.Context, userID int, input OnboardingInput) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string, size int64) (*models.User, error)
}

// UpdateProfileInput - частичное обновление: nil поле не меняется,
// пустая строка очищает необязательное поле.
type UpdateProfileInput struct {
	Nickname  *string `json:"nickname"`
	FullName  *string `json:"full_name"`
	Position  *string `json:"position"`
	BirthYear *int    `json:"birth_year"`
}

type OnboardingInput struct {
	Nickname  string  `json:"nickname"`
	Position  *string `json:"position"`
	BirthYear *int    `json:"birth_year"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
	now      func() time.Time
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *userService) getUser(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) GetMe(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	populateUserURLs(user, s.uploader)
	profile := user.PublicProfile()
	return &profile, nil
}

func (s *userService) validateBirthYear(verr *ValidationError, year *int) {
	if year == nil {
		return
	}
	current := s.now().Year()
	verr.Check(*year >= minBirthYear && *year <= current, "birth_year", fmt.Sprintf("must be between %d and %d", minBirthYear, current))
}

func validatePosition(verr *ValidationError, field string, position *string) {
	if position == nil || *position == "" {
		return
	}
	verr.Check(models.ValidPosition(*position), field, fmt.Sprintf("must be one of %s", strings.Join(models.Positions, ", ")))
}

func (s *userService) UpdateProfile(ctx context.Context, userID int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	verr := newValidationError()
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		verr.Check(lengthBetween(nickname, nicknameMinLength, nicknameMaxLength), "nickname", fmt.Sprintf("must be %d-%d characters", nicknameMinLength, nicknameMaxLength))
		user.Nickname = nickname
	}
	if input.FullName != nil {
		user.FullName = trimmedOrNil(input.FullName)
		verr.Check(lengthBetween(derefString(user.FullName), 0, fullNameMaxLength), "full_name", fmt.Sprintf("must be at most %d characters", fullNameMaxLength))
	}
	if input.Position != nil {
		user.Position = trimmedOrNil(input.Position)
		validatePosition(verr, "position", user.Position)
	}
	if input.BirthYear != nil {
		s.validateBirthYear(verr, input.BirthYear)
		user.BirthYear = input.BirthYear
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) CompleteOnboarding(ctx context.Context, userID int, input OnboardingInput) (*models.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	nickname := strings.TrimSpace(input.Nickname)
	position := trimmedOrNil(input.Position)

	verr := newValidationError()
	verr.Check(lengthBetween(nickname, nicknameMinLength, nicknameMaxLength), "nickname", fmt.Sprintf("must be %d-%d characters", nicknameMinLength, nicknameMaxLength))
	validatePosition(verr, "position", position)
	s.validateBirthYear(verr, input.BirthYear)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user.Nickname = nickname
	user.Position = position
	user.BirthYear = input.BirthYear
	user.Onboarded = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to complete onboarding for user %d: %w", userID, err)
	}
	populateUserURLs(user, s.uploader)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, file io.Reader, contentType string, size int64) (*models.User, error) {
	ext, err := validateUpload(s.uploader, contentType, size)
	if err != nil {
		return nil, err
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(storage.PrefixAvatars, userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar for user %d: %w", userID, err)
	}

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		// Новый объект уже не нужен.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save avatar key for user %d: %w", userID, err)
	}

	oldKey := user.AvatarKey
	if oldKey != nil && *oldKey != "" && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar", slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	user.AvatarKey = &key
	populateUserURLs(user, s.uploader)
	return user, nil
}
