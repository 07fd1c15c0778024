package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *realtime.Hub {
	t.Helper()
	hub := realtime.NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func dialRoom(t *testing.T, hub *realtime.Hub, room string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, room)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub := startHub(t)
	conn := dialRoom(t, hub, realtime.UserRoom(5))

	assert.Equal(t, 0, hub.BroadcastToRoom(realtime.UserRoom(6), realtime.Message{Type: "x"}))
	assert.Equal(t, 1, hub.BroadcastToRoom(realtime.UserRoom(5), realtime.Message{Type: "ping", Payload: 1}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg realtime.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "ping", msg.Type)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub := startHub(t)
	conn := dialRoom(t, hub, "user_9")

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.RoomSize("user_9") == 0 }, 2*time.Second, 10*time.Millisecond)
}

type loaderMock struct{ mock.Mock }

func (m *loaderMock) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

type broadcasterMock struct{ mock.Mock }

func (m *broadcasterMock) BroadcastToRoom(roomID string, message interface{}) int {
	return m.Called(roomID, message).Int(0)
}

func (m *broadcasterMock) RoomSize(roomID string) int {
	return m.Called(roomID).Int(0)
}

func TestListener_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to user room", func(t *testing.T) {
		loader, hub := new(loaderMock), new(broadcasterMock)
		n := &models.Notification{ID: 11, UserID: 3, Kind: models.NotificationMatchReminder, Title: "Матч завтра"}
		hub.On("RoomSize", "user_3").Return(1)
		loader.On("GetByID", ctx, int64(11)).Return(n, nil)
		hub.On("BroadcastToRoom", "user_3", realtime.Message{
			Type:    realtime.MessageTypeNotification,
			Payload: n,
			RoomID:  "user_3",
		}).Return(1)

		l := realtime.NewListener("", loader, hub, discardLogger())
		require.NoError(t, l.Handle(ctx, `{"id":11,"user_id":3}`))
		loader.AssertExpectations(t)
		hub.AssertExpectations(t)
	})

	t.Run("skips load when nobody is connected", func(t *testing.T) {
		loader, hub := new(loaderMock), new(broadcasterMock)
		hub.On("RoomSize", "user_3").Return(0)

		l := realtime.NewListener("", loader, hub, discardLogger())
		require.NoError(t, l.Handle(ctx, `{"id":11,"user_id":3}`))
		loader.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("bad payload", func(t *testing.T) {
		l := realtime.NewListener("", new(loaderMock), new(broadcasterMock), discardLogger())
		assert.Error(t, l.Handle(ctx, `not json`))
		assert.Error(t, l.Handle(ctx, `{"id":0,"user_id":3}`))
	})

	t.Run("load failure", func(t *testing.T) {
		loader, hub := new(loaderMock), new(broadcasterMock)
		hub.On("RoomSize", "user_4").Return(2)
		loader.On("GetByID", ctx, int64(12)).Return(nil, errors.New("boom"))

		l := realtime.NewListener("", loader, hub, discardLogger())
		assert.ErrorContains(t, l.Handle(ctx, `{"id":12,"user_id":4}`), "boom")
		hub.AssertNotCalled(t, "BroadcastToRoom", mock.Anything, mock.Anything)
	})
}
