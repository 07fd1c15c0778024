// Package views собирает серверные HTML-страницы из templ-компонентов.
package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/services"
	"github.com/a-h/templ"
)

const archiveDateLayout = "02.01.2006"

// Layout оборачивает body в общий HTML-каркас.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="ru"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// ArchivePage - публичный архив: только результаты и сводная статистика.
func ArchivePage(archive *services.TeamArchive, loc *time.Location) templ.Component {
	if loc == nil {
		loc = time.UTC
	}
	title := archive.Team.Name + " - архив матчей"
	return Layout(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<header><h1>%s</h1>`, templ.EscapeString(archive.Team.Name)); err != nil {
			return err
		}
		if archive.Team.EmblemURL != nil {
			if _, err := fmt.Fprintf(w, `<img class="emblem" src="%s" alt="">`, templ.EscapeString(*archive.Team.EmblemURL)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</header>`); err != nil {
			return err
		}
		if err := summary(archive.Stats.Summary).Render(ctx, w); err != nil {
			return err
		}
		if err := scorers("Бомбардиры", archive.Stats.TopScorers, func(p models.PlayerStats) int { return p.Goals }).Render(ctx, w); err != nil {
			return err
		}
		if err := scorers("Ассистенты", archive.Stats.TopAssists, func(p models.PlayerStats) int { return p.Assists }).Render(ctx, w); err != nil {
			return err
		}
		return results(archive.Matches, loc).Render(ctx, w)
	}))
}

func summary(s models.TeamSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<section class="summary"><h2>Итоги</h2><dl><dt>Матчей</dt><dd>%d</dd><dt>Победы</dt><dd>%d</dd><dt>Ничьи</dt><dd>%d</dd><dt>Поражения</dt><dd>%d</dd><dt>Мячи</dt><dd>%d:%d</dd><dt>На ноль</dt><dd>%d</dd></dl></section>`,
			s.Played, s.Wins, s.Draws, s.Losses, s.GoalsFor, s.GoalsAgainst, s.CleanSheets)
		return err
	})
}

func scorers(heading string, players []models.PlayerStats, value func(models.PlayerStats) int) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(players) == 0 {
			return nil
		}
		if _, err := fmt.Fprintf(w, `<section class="leaders"><h2>%s</h2><ol>`, templ.EscapeString(heading)); err != nil {
			return err
		}
		for _, p := range players {
			if _, err := fmt.Fprintf(w, `<li>%s <b>%d</b></li>`, templ.EscapeString(p.Name), value(p)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ol></section>`)
		return err
	})
}

func results(matches []models.Match, loc *time.Location) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="results"><h2>Результаты</h2>`); err != nil {
			return err
		}
		if len(matches) == 0 {
			_, err := io.WriteString(w, `<p>Сыгранных матчей пока нет.</p></section>`)
			return err
		}
		if _, err := io.WriteString(w, `<table><thead><tr><th>Дата</th><th>Соперник</th><th>Счет</th><th></th></tr></thead><tbody>`); err != nil {
			return err
		}
		// Матчи приходят от новых к старым (ORDER BY match_at DESC).
		for _, m := range matches {
			if _, err := fmt.Fprintf(w, `<tr class="result-%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				m.Result(),
				m.MatchAt.In(loc).Format(archiveDateLayout),
				templ.EscapeString(m.OpponentName),
				score(m),
				m.Result(),
			); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table></section>`)
		return err
	})
}

func score(m models.Match) string {
	if m.OurScore == nil || m.OpponentScore == nil {
		return "-"
	}
	return strconv.Itoa(*m.OurScore) + ":" + strconv.Itoa(*m.OpponentScore)
}
