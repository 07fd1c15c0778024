package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Connect открывает пул соединений и проверяет его доступность за timeout.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database within %v: %w (close also failed: %v)", timeout, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// WithTimeZone добавляет к DSN параметр сессии timezone: процедуры сравнивают
// match_at::date, и календарный день должен совпадать с APP_TIMEZONE.
// Уже заданный в DSN timezone не переопределяется.
func WithTimeZone(dsn string, loc *time.Location) (string, error) {
	if loc == nil {
		return dsn, nil
	}
	tz := loc.String()

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid database URL: %w", err)
		}
		q := u.Query()
		if q.Get("timezone") == "" {
			q.Set("timezone", tz)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	// key=value формат
	if strings.Contains(dsn, "timezone=") {
		return dsn, nil
	}
	return strings.TrimSpace(dsn + " timezone='" + tz + "'"), nil
}
