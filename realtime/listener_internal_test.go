package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReconnectBackoff(t *testing.T) {
	var b reconnectBackoff

	var got []time.Duration
	for i := 0; i < 7; i++ {
		got = append(got, b.next(false))
	}
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
		16 * time.Second, 30 * time.Second, 30 * time.Second,
	}, got)

	// Долгое соединение оборвалось: начинаем снова с минимальной задержки.
	assert.Equal(t, time.Second, b.next(true))
	assert.Equal(t, 2*time.Second, b.next(false))
}
