package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeZone(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	tests := []struct {
		name string
		dsn  string
		loc  *time.Location
		want string
	}{
		{"url", "postgres://u:p@localhost:5432/archive?sslmode=disable", moscow,
			"postgres://u:p@localhost:5432/archive?sslmode=disable&timezone=Europe%2FMoscow"},
		{"url keeps explicit", "postgres://u:p@localhost/archive?timezone=UTC", moscow,
			"postgres://u:p@localhost/archive?timezone=UTC"},
		{"key value", "host=localhost dbname=archive", moscow,
			"host=localhost dbname=archive timezone='Europe/Moscow'"},
		{"nil location", "host=localhost", nil, "host=localhost"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WithTimeZone(tt.dsn, tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
