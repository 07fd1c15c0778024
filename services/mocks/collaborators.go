// Package mocks содержит testify-моки внешних зависимостей сервисов.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/storage"
	"github.com/stretchr/testify/mock"
)

type Notifier struct{ mock.Mock }

func (m *Notifier) Notify(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *Notifier) NotifyUsers(ctx context.Context, userIDs []int, n models.Notification) error {
	return m.Called(ctx, userIDs, n).Error(0)
}

func (m *Notifier) NotifyTeamManagers(ctx context.Context, teamID, exceptUserID int, n models.Notification) error {
	return m.Called(ctx, teamID, exceptUserID, n).Error(0)
}

func (m *Notifier) List(ctx context.Context, userID int, unreadOnly bool, limit int) ([]models.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly, limit)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *Notifier) UnreadCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *Notifier) MarkRead(ctx context.Context, userID int, notificationID int64) error {
	return m.Called(ctx, userID, notificationID).Error(0)
}

func (m *Notifier) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type Mailer struct{ mock.Mock }

func (m *Mailer) SendWelcomeEmail(email, nickname, token string) error {
	return m.Called(email, nickname, token).Error(0)
}

func (m *Mailer) SendPasswordResetEmail(email, token string) error {
	return m.Called(email, token).Error(0)
}

func (m *Mailer) SendTeamInviteEmail(email, teamName, link string, expiresAt time.Time) error {
	return m.Called(email, teamName, link, expiresAt).Error(0)
}

type Uploader struct{ mock.Mock }

func (m *Uploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	args := m.Called(ctx, key, contentType, reader)
	res, _ := args.Get(0).(*storage.UploadResult)
	return res, args.Error(1)
}

func (m *Uploader) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *Uploader) GetPublicURL(key string) string {
	return m.Called(key).String(0)
}

var _ storage.FileUploader = (*Uploader)(nil)
