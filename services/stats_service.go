package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"github.com/Dosada05/match-archive/storage"
	"golang.org/x/sync/errgroup"
)

const (
	topPlayersLimit        = 5
	dashboardUpcomingLimit = 5
)

type StatsService interface {
	// TeamStats считает статистику по сыгранным матчам; season - календарный год.
	TeamStats(ctx context.Context, teamID int, currentUserID int, season *int) (*models.TeamStats, error)
	// PublicTeamArchive - данные для публичной страницы архива.
	PublicTeamArchive(ctx context.Context, teamID int) (*TeamArchive, error)
	UserStats(ctx context.Context, userID int) (*models.UserStats, error)
	Dashboard(ctx context.Context, currentUserID int) (*models.Dashboard, error)
}

type TeamArchive struct {
	Team    *models.Team
	Matches []models.Match
	Stats   *models.TeamStats
}

type statsService struct {
	teamRepo         repositories.TeamRepository
	memberRepo       repositories.MemberRepository
	matchRepo        repositories.MatchRepository
	recordRepo       repositories.RecordRepository
	attendanceRepo   repositories.AttendanceRepository
	notificationRepo repositories.NotificationRepository
	recordMergeRepo  repositories.RecordMergeRepository
	teamMergeRepo    repositories.TeamMergeRepository
	uploader         storage.FileUploader
	location         *time.Location
	now              func() time.Time
}

func NewStatsService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	matchRepo repositories.MatchRepository,
	recordRepo repositories.RecordRepository,
	attendanceRepo repositories.AttendanceRepository,
	notificationRepo repositories.NotificationRepository,
	recordMergeRepo repositories.RecordMergeRepository,
	teamMergeRepo repositories.TeamMergeRepository,
	uploader storage.FileUploader,
	location *time.Location,
) StatsService {
	if location == nil {
		location = time.UTC
	}
	return &statsService{
		teamRepo:         teamRepo,
		memberRepo:       memberRepo,
		matchRepo:        matchRepo,
		recordRepo:       recordRepo,
		attendanceRepo:   attendanceRepo,
		notificationRepo: notificationRepo,
		recordMergeRepo:  recordMergeRepo,
		teamMergeRepo:    teamMergeRepo,
		uploader:         uploader,
		location:         location,
		now:              time.Now,
	}
}

func (s *statsService) seasonBounds(season *int) (from, to time.Time) {
	if season == nil {
		return time.Time{}, time.Time{}
	}
	from = time.Date(*season, time.January, 1, 0, 0, 0, 0, s.location)
	return from, from.AddDate(1, 0, 0)
}

func (s *statsService) TeamStats(ctx context.Context, teamID int, currentUserID int, season *int) (*models.TeamStats, error) {
	if _, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	stats, _, err := s.computeTeamStats(ctx, teamID, season)
	return stats, err
}

func (s *statsService) computeTeamStats(ctx context.Context, teamID int, season *int) (*models.TeamStats, []models.Match, error) {
	from, to := s.seasonBounds(season)

	var (
		matches []models.Match
		members []models.TeamMember
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListCompletedByTeam(gCtx, teamID, from, to)
		if err != nil {
			return fmt.Errorf("failed to list completed matches of team %d: %w", teamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		// Все статусы: у ушедших игроков тоже есть история.
		members, err = s.memberRepo.ListByTeam(gCtx, teamID, nil)
		if err != nil {
			return fmt.Errorf("failed to list members of team %d: %w", teamID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	matchIDs := make([]int, len(matches))
	for i, m := range matches {
		matchIDs[i] = m.ID
	}

	var (
		records    []models.MatchRecord
		attendance []repositories.AttendanceCount
	)
	g, gCtx = errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.recordRepo.ListByMatches(gCtx, matchIDs)
		if err != nil {
			return fmt.Errorf("failed to list records of team %d: %w", teamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		attendance, err = s.attendanceRepo.CountAttendingByTeam(gCtx, teamID, matchIDs)
		if err != nil {
			return fmt.Errorf("failed to count attendance of team %d: %w", teamID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stats := &models.TeamStats{
		TeamID:  teamID,
		Season:  season,
		Summary: summarize(matches),
		Players: playerStats(members, records, attendance, len(matches)),
	}
	stats.TopScorers = topPlayers(stats.Players, func(p models.PlayerStats) int { return p.Goals })
	stats.TopAssists = topPlayers(stats.Players, func(p models.PlayerStats) int { return p.Assists })
	return stats, matches, nil
}

func summarize(matches []models.Match) models.TeamSummary {
	var sum models.TeamSummary
	for i := range matches {
		m := &matches[i]
		if m.OurScore == nil || m.OpponentScore == nil {
			continue
		}
		sum.Played++
		sum.GoalsFor += *m.OurScore
		sum.GoalsAgainst += *m.OpponentScore
		if *m.OpponentScore == 0 {
			sum.CleanSheets++
		}
		switch m.Result() {
		case "W":
			sum.Wins++
		case "D":
			sum.Draws++
		case "L":
			sum.Losses++
		}
	}
	return sum
}

func playerStats(members []models.TeamMember, records []models.MatchRecord, attendance []repositories.AttendanceCount, played int) []models.PlayerStats {
	byMember := make(map[int]*models.PlayerStats, len(members))
	active := make(map[int]bool, len(members))
	order := make([]int, 0, len(members))
	for i := range members {
		m := &members[i]
		// Слитые гости уже перенесены в чужие записи.
		if m.Status == models.MemberStatusMerged {
			continue
		}
		byMember[m.ID] = &models.PlayerStats{MemberID: m.ID, Name: m.DisplayName()}
		active[m.ID] = m.IsActive()
		order = append(order, m.ID)
	}

	for _, r := range records {
		p, ok := byMember[r.MemberID]
		if !ok {
			continue
		}
		p.Appearances++
		p.Goals += r.Goals
		p.Assists += r.Assists
		p.QuartersPlayed += r.QuartersPlayed
	}
	if played > 0 {
		for _, a := range attendance {
			if p, ok := byMember[a.MemberID]; ok {
				p.AttendanceRate = float64(a.Attending) / float64(played)
			}
		}
	}

	out := make([]models.PlayerStats, 0, len(order))
	for _, id := range order {
		p := byMember[id]
		// Ушедшие без единого матча в статистике не нужны.
		if p.Appearances == 0 && p.AttendanceRate == 0 && !active[id] {
			continue
		}
		out = append(out, *p)
	}
	return out
}

// topPlayers - первые topPlayersLimit игроков с ненулевым значением.
func topPlayers(players []models.PlayerStats, value func(models.PlayerStats) int) []models.PlayerStats {
	top := make([]models.PlayerStats, 0, len(players))
	for _, p := range players {
		if value(p) > 0 {
			top = append(top, p)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		vi, vj := value(top[i]), value(top[j])
		if vi != vj {
			return vi > vj
		}
		if top[i].Appearances != top[j].Appearances {
			return top[i].Appearances < top[j].Appearances
		}
		return top[i].Name < top[j].Name
	})
	if len(top) > topPlayersLimit {
		top = top[:topPlayersLimit]
	}
	return top
}

func (s *statsService) PublicTeamArchive(ctx context.Context, teamID int) (*TeamArchive, error) {
	team, err := loadTeam(ctx, s.teamRepo, teamID)
	if err != nil {
		return nil, err
	}
	stats, matches, err := s.computeTeamStats(ctx, teamID, nil)
	if err != nil {
		return nil, err
	}
	populateTeamURLs(team, s.uploader)
	// Полный состав публично не показывается.
	stats.Players = nil
	return &TeamArchive{Team: team, Matches: matches, Stats: stats}, nil
}

func (s *statsService) UserStats(ctx context.Context, userID int) (*models.UserStats, error) {
	totals, err := s.recordRepo.TotalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record totals for user %d: %w", userID, err)
	}

	stats := &models.UserStats{UserID: userID, Teams: make([]models.UserTeamStats, 0, len(totals))}
	for _, t := range totals {
		stats.Appearances += t.Appearances
		stats.Goals += t.Goals
		stats.Assists += t.Assists
		stats.QuartersPlayed += t.QuartersPlayed
		stats.Teams = append(stats.Teams, models.UserTeamStats{
			TeamID:         t.TeamID,
			TeamName:       t.TeamName,
			Appearances:    t.Appearances,
			Goals:          t.Goals,
			Assists:        t.Assists,
			QuartersPlayed: t.QuartersPlayed,
		})
	}
	return stats, nil
}

func (s *statsService) Dashboard(ctx context.Context, currentUserID int) (*models.Dashboard, error) {
	dash := &models.Dashboard{}
	pending := models.RequestStatusPending

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		matches, err := s.matchRepo.ListUpcomingForUser(gCtx, currentUserID, s.now(), dashboardUpcomingLimit)
		if err != nil {
			return fmt.Errorf("failed to list upcoming matches: %w", err)
		}
		dash.UpcomingMatches = matches
		return nil
	})
	g.Go(func() error {
		count, err := s.notificationRepo.CountUnread(gCtx, currentUserID)
		if err != nil {
			return fmt.Errorf("failed to count unread notifications: %w", err)
		}
		dash.UnreadNotifications = count
		return nil
	})
	g.Go(func() error {
		requests, err := s.recordMergeRepo.ListForUser(gCtx, currentUserID, &pending)
		if err != nil {
			return fmt.Errorf("failed to list record merge requests: %w", err)
		}
		incoming := make([]models.RecordMergeRequest, 0, len(requests))
		for _, r := range requests {
			if r.Direction == models.MergeDirectionOffer && r.TargetUserID == currentUserID {
				incoming = append(incoming, r)
			}
		}
		dash.IncomingMergeRequests = incoming
		return nil
	})
	g.Go(func() error {
		requests, err := s.teamMergeRepo.ListOpenForManager(gCtx, currentUserID)
		if err != nil {
			return fmt.Errorf("failed to list team merge requests: %w", err)
		}
		dash.PendingTeamMerges = requests
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}
