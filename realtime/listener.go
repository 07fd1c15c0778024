package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/jackc/pgx/v5"
)

// NotificationChannel совпадает с каналом pg_notify в триггере таблицы notifications.
const NotificationChannel = "notifications"

const (
	MessageTypeNotification = "notification"

	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

type NotificationLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
}

type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{}) int
	RoomSize(roomID string) int
}

type notifyPayload struct {
	ID     int64 `json:"id"`
	UserID int   `json:"user_id"`
}

// Listener слушает NOTIFY из базы и рассылает новые уведомления в комнаты пользователей.
// Работает на отдельном соединении pgx: database/sql не умеет держать LISTEN.
type Listener struct {
	dsn    string
	loader NotificationLoader
	hub    Broadcaster
	logger *slog.Logger
}

func NewListener(dsn string, loader NotificationLoader, hub Broadcaster, logger *slog.Logger) *Listener {
	return &Listener{dsn: dsn, loader: loader, hub: hub, logger: logger}
}

// reconnectBackoff удваивает задержку до maxReconnectDelay и сбрасывает ее
// после успешного LISTEN.
type reconnectBackoff struct {
	delay time.Duration
}

func (b *reconnectBackoff) next(connected bool) time.Duration {
	if connected || b.delay == 0 {
		b.delay = minReconnectDelay
	}
	d := b.delay
	b.delay *= 2
	if b.delay > maxReconnectDelay {
		b.delay = maxReconnectDelay
	}
	return d
}

// Run переподключается с экспоненциальной задержкой, пока ctx не отменен.
func (l *Listener) Run(ctx context.Context) {
	var backoff reconnectBackoff
	for {
		connected := false
		err := l.listen(ctx, func() { connected = true })
		if ctx.Err() != nil {
			return
		}
		delay := backoff.next(connected)
		l.logger.Error("notification listener stopped, reconnecting", "error", err, "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func (l *Listener) listen(ctx context.Context, onListening func()) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotificationChannel}.Sanitize()); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", NotificationChannel, err)
	}
	l.logger.Info("notification listener started", "channel", NotificationChannel)
	onListening()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if err := l.Handle(ctx, n.Payload); err != nil {
			l.logger.Warn("failed to deliver notification", "payload", n.Payload, "error", err)
		}
	}
}

// Handle разбирает payload триггера, загружает строку и отправляет ее в комнату.
func (l *Listener) Handle(ctx context.Context, payload string) error {
	var p notifyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	if p.ID <= 0 || p.UserID <= 0 {
		return errors.New("payload without id or user_id")
	}

	room := UserRoom(p.UserID)
	// Нет подключенных клиентов - незачем ходить в базу.
	if l.hub.RoomSize(room) == 0 {
		return nil
	}

	notification, err := l.loader.GetByID(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to load notification %d: %w", p.ID, err)
	}
	l.hub.BroadcastToRoom(room, Message{
		Type:    MessageTypeNotification,
		Payload: notification,
		RoomID:  room,
	})
	return nil
}
