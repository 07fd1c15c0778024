package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 50
)

// NotificationService сохраняет уведомления. Доставку в websocket делает
// realtime.Listener по pg_notify из триггера на таблице.
type NotificationService interface {
	Notify(ctx context.Context, n models.Notification) error
	NotifyUsers(ctx context.Context, userIDs []int, n models.Notification) error
	// NotifyTeamManagers уведомляет OWNER и MANAGER команды, кроме exceptUserID.
	NotifyTeamManagers(ctx context.Context, teamID, exceptUserID int, n models.Notification) error

	List(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, userID int, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	memberRepo       repositories.MemberRepository
	logger           *slog.Logger
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	memberRepo repositories.MemberRepository,
	logger *slog.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		memberRepo:       memberRepo,
		logger:           logger,
	}
}

func (s *notificationService) Notify(ctx context.Context, n models.Notification) error {
	if n.UserID <= 0 || n.Title == "" {
		return fmt.Errorf("%w: notification requires user and title", ErrValidationFailed)
	}
	if err := s.notificationRepo.Create(ctx, &n); err != nil {
		return fmt.Errorf("failed to create notification for user %d: %w", n.UserID, err)
	}
	return nil
}

func (s *notificationService) NotifyUsers(ctx context.Context, userIDs []int, n models.Notification) error {
	ids := uniqueIDs(userIDs)
	if len(ids) == 0 {
		return nil
	}
	created, err := s.notificationRepo.CreateForUsers(ctx, ids, n)
	if err != nil {
		return fmt.Errorf("failed to create %s notifications: %w", n.Kind, err)
	}
	s.logger.Debug("notifications created", slog.String("kind", string(n.Kind)), slog.Int64("count", created))
	return nil
}

func (s *notificationService) NotifyTeamManagers(ctx context.Context, teamID, exceptUserID int, n models.Notification) error {
	managerIDs, err := s.memberRepo.ListManagerUserIDs(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to list managers of team %d: %w", teamID, err)
	}
	managerIDs = slices.DeleteFunc(managerIDs, func(id int) bool { return id == exceptUserID })
	return s.NotifyUsers(ctx, managerIDs, n)
}

func (s *notificationService) List(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	items, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications for user %d: %w", userID, err)
	}
	return items, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int) (int, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %d: %w", userID, err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID int, notificationID int64) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification %d as read: %w", notificationID, err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read for user %d: %w", userID, err)
	}
	return updated, nil
}

// notifyQuietly - уведомление как побочный эффект операции: ошибка только логируется.
func notifyQuietly(logger *slog.Logger, err error, kind models.NotificationKind, attrs ...any) {
	if err == nil {
		return
	}
	args := append([]any{slog.String("kind", string(kind)), slog.Any("error", err)}, attrs...)
	logger.Warn("failed to send notification", args...)
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
