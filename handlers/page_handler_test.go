package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPageHandler_TeamArchive(t *testing.T) {
	ss := new(statsServiceMock)
	h := NewPageHandler(ss, time.UTC)
	pattern := "/teams/{teamID}/archive"

	ss.On("PublicTeamArchive", mock.Anything, 10).Return(&services.TeamArchive{
		Team:  &models.Team{ID: 10, Name: "Sokol"},
		Stats: &models.TeamStats{TeamID: 10},
	}, nil)
	ss.On("PublicTeamArchive", mock.Anything, 11).Return(nil, services.ErrTeamNotFound)

	rec := serve(t, http.MethodGet, pattern, "/teams/10/archive", nil, 0, h.TeamArchive)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>Sokol</h1>")

	rec = serve(t, http.MethodGet, pattern, "/teams/11/archive", nil, 0, h.TeamArchive)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandler_TeamStatsSeason(t *testing.T) {
	ss := new(statsServiceMock)
	h := NewDashboardHandler(ss)
	pattern := "/teams/{teamID}/stats"

	season := 2026
	ss.On("TeamStats", mock.Anything, 10, testUserID, &season).Return(&models.TeamStats{TeamID: 10, Season: &season}, nil)
	ss.On("TeamStats", mock.Anything, 10, testUserID, (*int)(nil)).Return(&models.TeamStats{TeamID: 10}, nil)

	rec := serve(t, http.MethodGet, pattern, "/teams/10/stats?season=2026", nil, testUserID, h.TeamStats)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2026), decodeBody(t, rec)["stats"].(map[string]interface{})["season"])

	rec = serve(t, http.MethodGet, pattern, "/teams/10/stats", nil, testUserID, h.TeamStats)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, http.MethodGet, pattern, "/teams/10/stats?season=20x6", nil, testUserID, h.TeamStats)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
