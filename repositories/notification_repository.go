package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/match-archive/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// CreateForUsers вставляет одинаковое уведомление для каждого из userIDs.
	CreateForUsers(ctx context.Context, userIDs []int, n models.Notification) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	ListByUser(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, id int64, userID int) error
	MarkAllRead(ctx context.Context, userID int) (int64, error)
}

type postgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (user_id, kind, title, body, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at`

	err := r.db.QueryRowContext(ctx, query, n.UserID, n.Kind, n.Title, n.Body, n.Link).
		Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *postgresNotificationRepository) CreateForUsers(ctx context.Context, userIDs []int, n models.Notification) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := `
		INSERT INTO notifications (user_id, kind, title, body, link)
		SELECT uid, $2, $3, $4, $5 FROM unnest($1::int[]) AS uid`

	result, err := r.db.ExecContext(ctx, query, int64Array(userIDs), n.Kind, n.Title, n.Body, n.Link)
	if err != nil {
		return 0, fmt.Errorf("failed to insert notifications: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, title, body, link, is_read, created_at
		FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, kind, title, body, link, is_read, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR is_read = FALSE)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID,
	).Scan(&count)
	return count, err
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id int64, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotificationNotFound)
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return checkRowsAffected(result)
}
