package views_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/Dosada05/match-archive/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestArchivePage(t *testing.T) {
	archive := &services.TeamArchive{
		Team: &models.Team{ID: 1, Name: "ФК <Сокол>"},
		// Порядок репозитория: сначала новые.
		Matches: []models.Match{
			{ID: 2, OpponentName: "Новые", MatchAt: time.Date(2026, 5, 1, 23, 30, 0, 0, time.UTC), OurScore: intPtr(0), OpponentScore: intPtr(0)},
			{ID: 1, OpponentName: "Старые", MatchAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC), OurScore: intPtr(2), OpponentScore: intPtr(1)},
		},
		Stats: &models.TeamStats{
			Summary:    models.TeamSummary{Played: 2, Wins: 1, Draws: 1, GoalsFor: 2, GoalsAgainst: 1, CleanSheets: 1},
			TopScorers: []models.PlayerStats{{Name: "Иван", Goals: 2}},
		},
	}
	moscow := time.FixedZone("MSK", 3*60*60)

	var buf bytes.Buffer
	require.NoError(t, views.ArchivePage(archive, moscow).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "<title>ФК &lt;Сокол&gt; - архив матчей</title>")
	assert.NotContains(t, html, "<Сокол>")
	assert.Contains(t, html, "<li>Иван <b>2</b></li>")
	assert.NotContains(t, html, "Ассистенты")
	// Дата в часовом поясе приложения.
	assert.Contains(t, html, "02.05.2026")
	assert.Contains(t, html, "<td>2:1</td>")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Новые")), bytes.Index(buf.Bytes(), []byte("Старые")))
}

func TestArchivePage_Empty(t *testing.T) {
	archive := &services.TeamArchive{
		Team:  &models.Team{ID: 1, Name: "Пустые"},
		Stats: &models.TeamStats{},
	}
	var buf bytes.Buffer
	require.NoError(t, views.ArchivePage(archive, nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Сыгранных матчей пока нет.")
}
