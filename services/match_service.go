package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

const (
	opponentNameMaxLength = 50
	matchNotesMaxLength   = 1000
	minQuarters           = 1
	maxQuarters           = 10
	defaultMatchLimit     = 20
	maxMatchLimit         = 100
	reminderWindow        = 24 * time.Hour
)

type MatchService interface {
	CreateMatch(ctx context.Context, teamID int, currentUserID int, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int, currentUserID int) (*models.Match, error)
	ListMatches(ctx context.Context, teamID int, currentUserID int, input ListMatchesInput) ([]models.Match, error)
	UpdateMatch(ctx context.Context, matchID int, currentUserID int, input UpdateMatchInput) (*models.Match, error)
	CancelMatch(ctx context.Context, matchID int, currentUserID int) (*models.Match, error)
	DeleteMatch(ctx context.Context, matchID int, currentUserID int) error
	RecordResult(ctx context.Context, matchID int, currentUserID int, input MatchResultInput) (*models.Match, error)

	SetAttendance(ctx context.Context, matchID int, currentUserID int, input AttendanceInput) (*models.Attendance, error)
	ListAttendance(ctx context.Context, matchID int, currentUserID int) ([]models.Attendance, error)

	// SendDueReminders напоминает отметившимся игрокам о матчах в ближайшие 24 часа.
	SendDueReminders(ctx context.Context) (int, error)
}

type CreateMatchInput struct {
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	OpponentName   string  `json:"opponent_name"`
	OpponentTeamID *int    `json:"opponent_team_id"`
	VenueID        *int    `json:"venue_id"`
	Quarters       *int    `json:"quarters"`
	Notes          *string `json:"notes"`
}

// UpdateMatchInput - частичное обновление. Date и Time передаются вместе.
type UpdateMatchInput struct {
	Date         *string `json:"date"`
	Time         *string `json:"time"`
	OpponentName *string `json:"opponent_name"`
	VenueID      *int    `json:"venue_id"`
	ClearVenue   bool    `json:"clear_venue"`
	Quarters     *int    `json:"quarters"`
	Notes        *string `json:"notes"`
}

type ListMatchesInput struct {
	Filter repositories.MatchFilter
	Limit  int
	Offset int
}

type MatchResultInput struct {
	OurScore      int `json:"our_score"`
	OpponentScore int `json:"opponent_score"`
}

// AttendanceInput: без MemberID отметка ставится за самого пользователя.
type AttendanceInput struct {
	MemberID *int                    `json:"member_id"`
	Status   models.AttendanceStatus `json:"status"`
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	memberRepo     repositories.MemberRepository
	venueRepo      repositories.VenueRepository
	attendanceRepo repositories.AttendanceRepository
	recordRepo     repositories.RecordRepository
	notifier       NotificationService
	location       *time.Location
	logger         *slog.Logger
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	memberRepo repositories.MemberRepository,
	venueRepo repositories.VenueRepository,
	attendanceRepo repositories.AttendanceRepository,
	recordRepo repositories.RecordRepository,
	notifier NotificationService,
	location *time.Location,
	logger *slog.Logger,
) MatchService {
	if location == nil {
		location = time.UTC
	}
	return &matchService{
		matchRepo:      matchRepo,
		memberRepo:     memberRepo,
		venueRepo:      venueRepo,
		attendanceRepo: attendanceRepo,
		recordRepo:     recordRepo,
		notifier:       notifier,
		location:       location,
		logger:         logger,
		now:            time.Now,
	}
}

func validateQuarters(verr *ValidationError, quarters int) {
	verr.Check(quarters >= minQuarters && quarters <= maxQuarters, "quarters", fmt.Sprintf("must be between %d and %d", minQuarters, maxQuarters))
}

func (s *matchService) checkVenue(ctx context.Context, verr *ValidationError, teamID int, venueID *int) (*models.Venue, error) {
	if venueID == nil {
		return nil, nil
	}
	venue, err := s.venueRepo.GetByID(ctx, *venueID)
	if err != nil {
		if errors.Is(err, repositories.ErrVenueNotFound) {
			verr.Add("venue_id", "venue does not exist")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get venue %d: %w", *venueID, err)
	}
	if venue.TeamID != teamID {
		verr.Add("venue_id", "venue belongs to another team")
		return nil, nil
	}
	return venue, nil
}

// maxQuartersPlayed - наибольшее число четвертей среди записей матча.
func (s *matchService) maxQuartersPlayed(ctx context.Context, matchID int) (int, error) {
	records, err := s.recordRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to load records of match %d: %w", matchID, err)
	}
	played := 0
	for _, r := range records {
		if r.QuartersPlayed > played {
			played = r.QuartersPlayed
		}
	}
	return played, nil
}

func mapMatchWriteError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrMatchVenueInvalid):
		return ErrVenueNotFound
	case errors.Is(err, repositories.ErrMatchTeamInvalid):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchLinkChanged):
		return fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
	default:
		return err
	}
}

func (s *matchService) CreateMatch(ctx context.Context, teamID int, currentUserID int, input CreateMatchInput) (*models.Match, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	match := &models.Match{
		TeamID:         teamID,
		OpponentName:   strings.TrimSpace(input.OpponentName),
		OpponentTeamID: input.OpponentTeamID,
		VenueID:        input.VenueID,
		Quarters:       models.DefaultQuarters,
		Status:         models.MatchStatusScheduled,
		Notes:          trimmedOrNil(input.Notes),
		CreatedBy:      &currentUserID,
	}
	if input.Quarters != nil {
		match.Quarters = *input.Quarters
	}

	verr := newValidationError()
	matchAt, err := ParseMatchTime(input.Date, input.Time, s.location)
	if err != nil {
		var fieldErr *ValidationError
		if !errors.As(err, &fieldErr) {
			return nil, err
		}
		for field, msg := range fieldErr.Fields {
			verr.Add(field, msg)
		}
	}
	match.MatchAt = matchAt
	verr.Check(lengthBetween(match.OpponentName, 1, opponentNameMaxLength), "opponent_name", fmt.Sprintf("must be 1-%d characters", opponentNameMaxLength))
	verr.Check(lengthBetween(derefString(match.Notes), 0, matchNotesMaxLength), "notes", fmt.Sprintf("must be at most %d characters", matchNotesMaxLength))
	if match.OpponentTeamID != nil && *match.OpponentTeamID == teamID {
		verr.Add("opponent_team_id", "a team cannot play itself")
	}
	validateQuarters(verr, match.Quarters)
	venue, err := s.checkVenue(ctx, verr, teamID, input.VenueID)
	if err != nil {
		return nil, err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", mapMatchWriteError(err))
	}
	match.Venue = venue

	// Исторические матчи заносятся без уведомлений.
	if match.MatchAt.After(s.now()) {
		s.notifyMembers(ctx, match, currentUserID)
	}
	return match, nil
}

func (s *matchService) notifyMembers(ctx context.Context, match *models.Match, exceptUserID int) {
	members, err := s.memberRepo.ListByTeam(ctx, match.TeamID, []models.MemberStatus{models.MemberStatusActive})
	if err != nil {
		notifyQuietly(s.logger, err, models.NotificationMatchScheduled, slog.Int("match_id", match.ID))
		return
	}
	userIDs := make([]int, 0, len(members))
	for _, m := range members {
		if m.UserID != nil && *m.UserID != exceptUserID {
			userIDs = append(userIDs, *m.UserID)
		}
	}
	date, clock := FormatMatchTime(match.MatchAt, s.location)
	err = s.notifier.NotifyUsers(ctx, userIDs, models.Notification{
		Kind:  models.NotificationMatchScheduled,
		Title: fmt.Sprintf("New match vs %s", match.OpponentName),
		Body:  strPtr(fmt.Sprintf("%s at %s. Let the team know if you are coming.", date, clock)),
		Link:  strPtr(fmt.Sprintf("/matches/%d", match.ID)),
	})
	notifyQuietly(s.logger, err, models.NotificationMatchScheduled, slog.Int("match_id", match.ID))
}

// memberMatch загружает матч и проверяет, что пользователь - активный участник его команды.
func (s *matchService) memberMatch(ctx context.Context, matchID, currentUserID int) (*models.Match, *models.TeamMember, error) {
	match, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, nil, err
	}
	member, err := activeMembership(ctx, s.memberRepo, match.TeamID, currentUserID)
	if err != nil {
		return nil, nil, err
	}
	return match, member, nil
}

func (s *matchService) managedMatch(ctx context.Context, matchID, currentUserID int) (*models.Match, error) {
	match, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, match.TeamID, currentUserID); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int, currentUserID int) (*models.Match, error) {
	match, _, err := s.memberMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) ListMatches(ctx context.Context, teamID int, currentUserID int, input ListMatchesInput) ([]models.Match, error) {
	if _, err := activeMembership(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}

	params := repositories.MatchListParams{
		Filter: input.Filter,
		Now:    s.now(),
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	switch params.Filter {
	case "":
		params.Filter = repositories.MatchFilterAll
	case repositories.MatchFilterUpcoming, repositories.MatchFilterPast, repositories.MatchFilterAll:
	default:
		verr := newValidationError()
		verr.Add("filter", "must be one of upcoming, past, all")
		return nil, verr
	}
	if params.Limit <= 0 {
		params.Limit = defaultMatchLimit
	}
	if params.Limit > maxMatchLimit {
		params.Limit = maxMatchLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	matches, err := s.matchRepo.ListByTeam(ctx, teamID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of team %d: %w", teamID, err)
	}
	return matches, nil
}

func (s *matchService) UpdateMatch(ctx context.Context, matchID int, currentUserID int, input UpdateMatchInput) (*models.Match, error) {
	match, err := s.managedMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCanceled {
		return nil, fmt.Errorf("%w: canceled matches cannot be edited", ErrInvalidState)
	}

	verr := newValidationError()
	if input.Date != nil || input.Time != nil {
		if match.Status == models.MatchStatusCompleted {
			return nil, fmt.Errorf("%w: completed matches cannot be rescheduled", ErrInvalidState)
		}
		date, clock := FormatMatchTime(match.MatchAt, s.location)
		if input.Date != nil {
			date = *input.Date
		}
		if input.Time != nil {
			clock = *input.Time
		}
		matchAt, err := ParseMatchTime(date, clock, s.location)
		if err != nil {
			return nil, err
		}
		if !matchAt.Equal(match.MatchAt) {
			// Напоминание нужно отправить заново.
			match.RemindedAt = nil
		}
		match.MatchAt = matchAt
	}
	if input.OpponentName != nil {
		match.OpponentName = strings.TrimSpace(*input.OpponentName)
		verr.Check(lengthBetween(match.OpponentName, 1, opponentNameMaxLength), "opponent_name", fmt.Sprintf("must be 1-%d characters", opponentNameMaxLength))
	}
	if input.Quarters != nil {
		validateQuarters(verr, *input.Quarters)
		if match.Status == models.MatchStatusCompleted && *input.Quarters < match.Quarters {
			played, err := s.maxQuartersPlayed(ctx, matchID)
			if err != nil {
				return nil, err
			}
			if played > *input.Quarters {
				verr.Add("quarters", fmt.Sprintf("players already have %d quarters played recorded", played))
			}
		}
		match.Quarters = *input.Quarters
	}
	if input.Notes != nil {
		match.Notes = trimmedOrNil(input.Notes)
		verr.Check(lengthBetween(derefString(match.Notes), 0, matchNotesMaxLength), "notes", fmt.Sprintf("must be at most %d characters", matchNotesMaxLength))
	}
	switch {
	case input.ClearVenue:
		match.VenueID = nil
		match.Venue = nil
	case input.VenueID != nil:
		venue, err := s.checkVenue(ctx, verr, match.TeamID, input.VenueID)
		if err != nil {
			return nil, err
		}
		match.VenueID = input.VenueID
		match.Venue = venue
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to update match %d: %w", matchID, mapMatchWriteError(err))
	}
	return match, nil
}

func (s *matchService) CancelMatch(ctx context.Context, matchID int, currentUserID int) (*models.Match, error) {
	match, err := s.managedMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, fmt.Errorf("%w: only scheduled matches can be canceled", ErrInvalidState)
	}
	match.Status = models.MatchStatusCanceled
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to cancel match %d: %w", matchID, mapMatchWriteError(err))
	}
	return match, nil
}

func (s *matchService) DeleteMatch(ctx context.Context, matchID int, currentUserID int) error {
	match, err := s.managedMatch(ctx, matchID, currentUserID)
	if err != nil {
		return err
	}
	if match.LinkedMatchID != nil {
		return fmt.Errorf("%w: match is linked with another team's history", ErrInvalidState)
	}
	if err := s.matchRepo.Delete(ctx, matchID); err != nil {
		return fmt.Errorf("failed to delete match %d: %w", matchID, mapMatchWriteError(err))
	}
	return nil
}

func (s *matchService) RecordResult(ctx context.Context, matchID int, currentUserID int, input MatchResultInput) (*models.Match, error) {
	match, err := s.managedMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCanceled {
		return nil, fmt.Errorf("%w: canceled matches have no result", ErrInvalidState)
	}
	if match.LinkedMatchID != nil {
		return nil, fmt.Errorf("%w: linked match scores are reconciled through team merge", ErrInvalidState)
	}

	verr := newValidationError()
	verr.Check(input.OurScore >= 0, "our_score", "must not be negative")
	verr.Check(input.OpponentScore >= 0, "opponent_score", "must not be negative")
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	// Уже сохраненные голы игроков не могут превышать новый счет.
	records, err := s.recordRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load records of match %d: %w", matchID, err)
	}
	goals := 0
	for _, r := range records {
		goals += r.Goals
	}
	if goals > input.OurScore {
		verr.Add("our_score", fmt.Sprintf("players already have %d goals recorded", goals))
		return nil, verr
	}

	match.Status = models.MatchStatusCompleted
	match.OurScore = &input.OurScore
	match.OpponentScore = &input.OpponentScore
	if err := s.matchRepo.Update(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to record result of match %d: %w", matchID, mapMatchWriteError(err))
	}
	return match, nil
}

func validAttendanceStatus(status models.AttendanceStatus) bool {
	switch status {
	case models.AttendanceAttending, models.AttendanceAbsent, models.AttendanceUndecided:
		return true
	default:
		return false
	}
}

// SetAttendance: участник отмечает себя, менеджер - любого активного участника.
func (s *matchService) SetAttendance(ctx context.Context, matchID int, currentUserID int, input AttendanceInput) (*models.Attendance, error) {
	if !validAttendanceStatus(input.Status) {
		verr := newValidationError()
		verr.Add("status", "must be one of attending, absent, undecided")
		return nil, verr
	}
	match, actor, err := s.memberMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusScheduled {
		return nil, fmt.Errorf("%w: attendance can be changed only for scheduled matches", ErrInvalidState)
	}

	target := actor
	if input.MemberID != nil && *input.MemberID != actor.ID {
		if !actor.CanManage() {
			return nil, ErrManagerRequired
		}
		target, err = loadTeamMember(ctx, s.memberRepo, match.TeamID, *input.MemberID)
		if err != nil {
			return nil, err
		}
		if !target.IsActive() {
			return nil, fmt.Errorf("%w: member is not active", ErrInvalidState)
		}
	}

	attendance := &models.Attendance{
		MatchID:  match.ID,
		MemberID: target.ID,
		Status:   input.Status,
	}
	if err := s.attendanceRepo.Upsert(ctx, attendance); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAttendanceMemberInvalid):
			return nil, ErrMemberNotFound
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}
	attendance.Member = target
	return attendance, nil
}

// ListAttendance возвращает всех активных участников; без отметки - undecided.
func (s *matchService) ListAttendance(ctx context.Context, matchID int, currentUserID int) ([]models.Attendance, error) {
	match, _, err := s.memberMatch(ctx, matchID, currentUserID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByTeam(ctx, match.TeamID, []models.MemberStatus{models.MemberStatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", match.TeamID, err)
	}
	marks, err := s.attendanceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance of match %d: %w", matchID, err)
	}

	byMember := make(map[int]models.Attendance, len(marks))
	for _, a := range marks {
		byMember[a.MemberID] = a
	}

	list := make([]models.Attendance, 0, len(members))
	for i := range members {
		m := &members[i]
		a, ok := byMember[m.ID]
		if !ok {
			a = models.Attendance{MatchID: matchID, MemberID: m.ID, Status: models.AttendanceUndecided}
		}
		a.Member = m
		list = append(list, a)
	}
	return list, nil
}

func (s *matchService) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	matches, err := s.matchRepo.ListDueReminders(ctx, now, now.Add(reminderWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list matches due for reminder: %w", err)
	}

	sent := 0
	for i := range matches {
		match := &matches[i]
		userIDs, err := s.attendanceRepo.ListAttendingUserIDs(ctx, match.ID)
		if err != nil {
			s.logger.Error("failed to list attending players", slog.Int("match_id", match.ID), slog.Any("error", err))
			continue
		}

		date, clock := FormatMatchTime(match.MatchAt, s.location)
		err = s.notifier.NotifyUsers(ctx, userIDs, models.Notification{
			Kind:  models.NotificationMatchReminder,
			Title: fmt.Sprintf("Match vs %s is coming up", match.OpponentName),
			Body:  strPtr(fmt.Sprintf("Kick-off %s at %s.", date, clock)),
			Link:  strPtr(fmt.Sprintf("/matches/%d", match.ID)),
		})
		if err != nil {
			s.logger.Error("failed to send match reminder", slog.Int("match_id", match.ID), slog.Any("error", err))
			continue
		}
		if err := s.matchRepo.MarkReminded(ctx, match.ID, now); err != nil {
			s.logger.Error("failed to mark match as reminded", slog.Int("match_id", match.ID), slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}
