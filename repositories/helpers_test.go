package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMapPQError(t *testing.T) {
	errs := constraintErrors{"teams_name_key": ErrTeamNameConflict}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"known unique", &pq.Error{Code: "23505", Constraint: "teams_name_key"}, ErrTeamNameConflict},
		{"wrapped", fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "teams_name_key"}), ErrTeamNameConflict},
		{"unknown constraint", &pq.Error{Code: "23505", Constraint: "other_key"}, nil},
		{"other code", &pq.Error{Code: "42P01", Constraint: "teams_name_key"}, nil},
		{"plain error", errors.New("boom"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapPQError(tt.err, errs)
			if tt.want == nil {
				assert.Equal(t, tt.err, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestMapProcedureError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    error
		outcome string
	}{
		{"not found", &pq.Error{Code: "P0002", Message: "request 1 not found"}, ErrProcedureNotFound, "not_found"},
		{"rejected", &pq.Error{Code: "P0001", Message: "request 1 is approved"}, ErrProcedureRejected, "rejected"},
		{"serialization", &pq.Error{Code: "40001"}, ErrSerialization, "retryable"},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrSerialization, "retryable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapProcedureError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.outcome, procedureOutcome(tt.err))
		})
	}

	assert.Contains(t, mapProcedureError(&pq.Error{Code: "P0001", Message: "member 7 is not an active guest"}).Error(),
		"member 7 is not an active guest")
	assert.Equal(t, "ok", procedureOutcome(nil))
	assert.Equal(t, "error", procedureOutcome(errors.New("connection reset")))
}
