package services_test

import (
	"context"
	"testing"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNotificationService(f *fixture) services.NotificationService {
	return services.NewNotificationService(f.notifications, f.members, f.logger)
}

func TestNotificationService_NotifyTeamManagers_SkipsActor(t *testing.T) {
	f := newFixture(t)
	n := models.Notification{Kind: models.NotificationJoinRequest, Title: "New join request"}
	f.members.On("ListManagerUserIDs", mock.Anything, teamID).Return([]int{managerID, 4, 4, 5}, nil)
	f.notifications.On("CreateForUsers", mock.Anything, []int{4, 5}, n).Return(int64(2), nil)

	err := newNotificationService(f).NotifyTeamManagers(context.Background(), teamID, managerID, n)

	assert.NoError(t, err)
}

func TestNotificationService_NotifyUsers_Empty(t *testing.T) {
	f := newFixture(t)
	// Без получателей в репозиторий не ходим.
	err := newNotificationService(f).NotifyUsers(context.Background(), []int{0, -1}, models.Notification{Title: "x"})
	assert.NoError(t, err)
}

func TestNotificationService_Notify_RequiresRecipient(t *testing.T) {
	f := newFixture(t)
	err := newNotificationService(f).Notify(context.Background(), models.Notification{Title: "x"})
	assert.ErrorIs(t, err, services.ErrValidationFailed)
}

func TestNotificationService_List_ClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: 20},
		{name: "max", limit: 500, want: 50},
		{name: "as is", limit: 10, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.notifications.On("ListByUser", mock.Anything, playerID, true, tt.want).Return([]models.Notification{}, nil)

			items, err := newNotificationService(f).List(context.Background(), playerID, true, tt.limit)

			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestNotificationService_MarkRead_ForeignNotification(t *testing.T) {
	f := newFixture(t)
	f.notifications.On("MarkRead", mock.Anything, int64(9), playerID).Return(repositories.ErrNotificationNotFound)

	err := newNotificationService(f).MarkRead(context.Background(), playerID, 9)

	assert.ErrorIs(t, err, services.ErrNotificationNotFound)
}
