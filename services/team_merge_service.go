package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
	"golang.org/x/sync/errgroup"
)

// TeamMergeService связывает истории матчей двух команд. Сопоставление и
// разбор спорных счетов выполняют process_team_merge и submit_dispute_score.
type TeamMergeService interface {
	CreateRequest(ctx context.Context, requesterTeamID int, currentUserID int, targetTeamID int) (*models.TeamMergeRequest, error)
	GetRequest(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error)
	ListTeamRequests(ctx context.Context, teamID int, currentUserID int, statuses []models.RequestStatus) ([]models.TeamMergeRequest, error)
	Preview(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergePreview, error)
	Accept(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error)
	Reject(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error)
	Cancel(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error)

	ListDisputes(ctx context.Context, requestID int, currentUserID int) ([]models.TeamMergeDispute, error)
	// SubmitDisputeScore возвращает true, если стороны сошлись и спор закрыт.
	SubmitDisputeScore(ctx context.Context, disputeID int, currentUserID int, input DisputeScoreInput) (bool, error)
}

type DisputeScoreInput struct {
	TeamID        int `json:"team_id"`
	OurScore      int `json:"our_score"`
	OpponentScore int `json:"opponent_score"`
}

type teamMergeService struct {
	mergeRepo  repositories.TeamMergeRepository
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	matchRepo  repositories.MatchRepository
	notifier   NotificationService
	location   *time.Location
	logger     *slog.Logger
}

func NewTeamMergeService(
	mergeRepo repositories.TeamMergeRepository,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	matchRepo repositories.MatchRepository,
	notifier NotificationService,
	location *time.Location,
	logger *slog.Logger,
) TeamMergeService {
	if location == nil {
		location = time.UTC
	}
	return &teamMergeService{
		mergeRepo:  mergeRepo,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		matchRepo:  matchRepo,
		notifier:   notifier,
		location:   location,
		logger:     logger,
	}
}

func (s *teamMergeService) CreateRequest(ctx context.Context, requesterTeamID int, currentUserID int, targetTeamID int) (*models.TeamMergeRequest, error) {
	if requesterTeamID == targetTeamID {
		verr := newValidationError()
		verr.Add("target_team_id", "a team cannot merge with itself")
		return nil, verr
	}
	if _, err := requireManager(ctx, s.memberRepo, requesterTeamID, currentUserID); err != nil {
		return nil, err
	}
	requester, err := loadTeam(ctx, s.teamRepo, requesterTeamID)
	if err != nil {
		return nil, err
	}
	if _, err := loadTeam(ctx, s.teamRepo, targetTeamID); err != nil {
		return nil, err
	}

	req := &models.TeamMergeRequest{
		RequesterTeamID: requesterTeamID,
		TargetTeamID:    targetTeamID,
		RequestedBy:     currentUserID,
	}
	if err := s.mergeRepo.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamMergeOpenConflict):
			return nil, ErrTeamMergeConflict
		case errors.Is(err, repositories.ErrTeamMergeSameTeam):
			return nil, fmt.Errorf("%w: a team cannot merge with itself", ErrInvalidState)
		case errors.Is(err, repositories.ErrTeamNotFound):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create team merge request: %w", err)
	}

	err = s.notifier.NotifyTeamManagers(ctx, targetTeamID, currentUserID, models.Notification{
		Kind:  models.NotificationTeamMergeRequest,
		Title: "Match history merge request",
		Body:  strPtr(fmt.Sprintf("%s wants to link the matches you played against each other.", requester.Name)),
		Link:  strPtr(fmt.Sprintf("/team-merges/%d", req.ID)),
	})
	notifyQuietly(s.logger, err, models.NotificationTeamMergeRequest, slog.Int("request_id", req.ID))
	return req, nil
}

func (s *teamMergeService) loadRequest(ctx context.Context, requestID int) (*models.TeamMergeRequest, error) {
	req, err := s.mergeRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamMergeNotFound) {
			return nil, ErrMergeRequestNotFound
		}
		return nil, fmt.Errorf("failed to get team merge request %d: %w", requestID, err)
	}
	return req, nil
}

// sideManagedBy возвращает команду запроса, которой управляет пользователь.
func (s *teamMergeService) sideManagedBy(ctx context.Context, req *models.TeamMergeRequest, currentUserID int) (int, error) {
	for _, teamID := range []int{req.RequesterTeamID, req.TargetTeamID} {
		ok, err := isManager(ctx, s.memberRepo, teamID, currentUserID)
		if err != nil {
			return 0, err
		}
		if ok {
			return teamID, nil
		}
	}
	return 0, ErrManagerRequired
}

func (s *teamMergeService) GetRequest(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := s.sideManagedBy(ctx, req, currentUserID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *teamMergeService) ListTeamRequests(ctx context.Context, teamID int, currentUserID int, statuses []models.RequestStatus) ([]models.TeamMergeRequest, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		statuses = []models.RequestStatus{models.RequestStatusPending, models.RequestStatusDisputed}
	}
	requests, err := s.mergeRepo.ListByTeam(ctx, teamID, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list team merge requests of team %d: %w", teamID, err)
	}
	return requests, nil
}

func (s *teamMergeService) Preview(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergePreview, error) {
	req, err := s.GetRequest(ctx, requestID, currentUserID)
	if err != nil {
		return nil, err
	}

	var requesterMatches, targetMatches []models.Match
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requesterMatches, err = s.matchRepo.ListCompletedByTeam(gCtx, req.RequesterTeamID, time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to list matches of team %d: %w", req.RequesterTeamID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		targetMatches, err = s.matchRepo.ListCompletedByTeam(gCtx, req.TargetTeamID, time.Time{}, time.Time{})
		if err != nil {
			return fmt.Errorf("failed to list matches of team %d: %w", req.TargetTeamID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	preview := pairMatches(requesterMatches, targetMatches, s.location)
	preview.Request = req
	return preview, nil
}

// pairMatches сопоставляет еще не связанные матчи обеих команд по календарному дню.
// Порядок тот же, что у process_team_merge (ORDER BY a.match_at, a.id, b.match_at, b.id):
// внутри дня берется самый ранний свободный матч соперника.
func pairMatches(requester, target []models.Match, loc *time.Location) *models.TeamMergePreview {
	unlinked := func(matches []models.Match) []models.Match {
		out := make([]models.Match, 0, len(matches))
		for _, m := range matches {
			if m.LinkedMatchID == nil && m.OurScore != nil && m.OpponentScore != nil {
				out = append(out, m)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].MatchAt.Equal(out[j].MatchAt) {
				return out[i].MatchAt.Before(out[j].MatchAt)
			}
			return out[i].ID < out[j].ID
		})
		return out
	}
	requester = unlinked(requester)
	target = unlinked(target)

	byDay := make(map[string][]int)
	for i, m := range target {
		day := localDay(m.MatchAt, loc)
		byDay[day] = append(byDay[day], i)
	}

	used := make([]bool, len(target))
	preview := &models.TeamMergePreview{Pairs: make([]models.MatchPair, 0)}
	unpairedRequester := 0
	for _, a := range requester {
		paired := false
		for _, idx := range byDay[localDay(a.MatchAt, loc)] {
			if used[idx] {
				continue
			}
			used[idx] = true
			b := target[idx]
			conflict := *a.OurScore != *b.OpponentScore || *a.OpponentScore != *b.OurScore
			if conflict {
				preview.ConflictCount++
			}
			preview.Pairs = append(preview.Pairs, models.MatchPair{RequesterMatch: a, TargetMatch: b, Conflict: conflict})
			paired = true
			break
		}
		if !paired {
			unpairedRequester++
		}
	}

	unpairedTarget := 0
	for _, u := range used {
		if !u {
			unpairedTarget++
		}
	}
	preview.UnpairedCounts = map[string]int{
		"requester": unpairedRequester,
		"target":    unpairedTarget,
	}
	return preview
}

func (s *teamMergeService) Accept(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, req.TargetTeamID, currentUserID); err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}

	status, err := s.mergeRepo.ProcessTeamMerge(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge teams for request %d: %w", req.ID, mapProcedureError(err))
	}
	req.Status = status

	// О спорах процедура уведомляет сама.
	if status == models.RequestStatusApproved {
		s.notifyResult(ctx, req.RequesterTeamID, currentUserID, req, "Match histories linked")
	}
	return req, nil
}

func (s *teamMergeService) resolve(ctx context.Context, req *models.TeamMergeRequest, from []models.RequestStatus, to models.RequestStatus) error {
	if err := s.mergeRepo.Resolve(ctx, req.ID, from, to); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamMergeStatus):
			return fmt.Errorf("%w: request status changed", ErrInvalidState)
		case errors.Is(err, repositories.ErrTeamMergeNotFound):
			return ErrMergeRequestNotFound
		}
		return fmt.Errorf("failed to resolve team merge request %d: %w", req.ID, err)
	}
	req.Status = to
	return nil
}

func (s *teamMergeService) Reject(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, req.TargetTeamID, currentUserID); err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	if err := s.resolve(ctx, req, []models.RequestStatus{models.RequestStatusPending}, models.RequestStatusRejected); err != nil {
		return nil, err
	}
	s.notifyResult(ctx, req.RequesterTeamID, currentUserID, req, "Merge request rejected")
	return req, nil
}

func (s *teamMergeService) Cancel(ctx context.Context, requestID int, currentUserID int) (*models.TeamMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, req.RequesterTeamID, currentUserID); err != nil {
		return nil, err
	}
	open := []models.RequestStatus{models.RequestStatusPending, models.RequestStatusDisputed}
	if req.Status != models.RequestStatusPending && req.Status != models.RequestStatusDisputed {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	if err := s.resolve(ctx, req, open, models.RequestStatusCanceled); err != nil {
		return nil, err
	}
	s.notifyResult(ctx, req.TargetTeamID, currentUserID, req, "Merge request canceled")
	return req, nil
}

func (s *teamMergeService) notifyResult(ctx context.Context, teamID, actorID int, req *models.TeamMergeRequest, title string) {
	err := s.notifier.NotifyTeamManagers(ctx, teamID, actorID, models.Notification{
		Kind:  models.NotificationTeamMergeResult,
		Title: title,
		Link:  strPtr(fmt.Sprintf("/team-merges/%d", req.ID)),
	})
	notifyQuietly(s.logger, err, models.NotificationTeamMergeResult, slog.Int("request_id", req.ID))
}

func (s *teamMergeService) ListDisputes(ctx context.Context, requestID int, currentUserID int) ([]models.TeamMergeDispute, error) {
	if _, err := s.GetRequest(ctx, requestID, currentUserID); err != nil {
		return nil, err
	}
	disputes, err := s.mergeRepo.ListDisputes(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes of request %d: %w", requestID, err)
	}
	return disputes, nil
}

func (s *teamMergeService) SubmitDisputeScore(ctx context.Context, disputeID int, currentUserID int, input DisputeScoreInput) (bool, error) {
	verr := newValidationError()
	verr.Check(input.OurScore >= 0, "our_score", "must not be negative")
	verr.Check(input.OpponentScore >= 0, "opponent_score", "must not be negative")
	if err := verr.OrNil(); err != nil {
		return false, err
	}

	dispute, err := s.mergeRepo.GetDispute(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return false, ErrDisputeNotFound
		}
		return false, fmt.Errorf("failed to get dispute %d: %w", disputeID, err)
	}
	req, err := s.loadRequest(ctx, dispute.RequestID)
	if err != nil {
		return false, err
	}
	if !req.InvolvesTeam(input.TeamID) {
		return false, fmt.Errorf("%w: team %d is not a party to this merge", ErrForbiddenOperation, input.TeamID)
	}
	if _, err := requireManager(ctx, s.memberRepo, input.TeamID, currentUserID); err != nil {
		return false, err
	}
	if req.Status != models.RequestStatusDisputed {
		return false, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	if dispute.Resolved {
		return false, fmt.Errorf("%w: dispute is already resolved", ErrInvalidState)
	}

	resolved, err := s.mergeRepo.SubmitDisputeScore(ctx, disputeID, input.TeamID, input.OurScore, input.OpponentScore)
	if err != nil {
		return false, fmt.Errorf("failed to submit score for dispute %d: %w", disputeID, mapProcedureError(err))
	}

	if resolved {
		updated, err := s.loadRequest(ctx, req.ID)
		if err != nil {
			s.logger.Warn("failed to reload team merge request", slog.Int("request_id", req.ID), slog.Any("error", err))
			return resolved, nil
		}
		if updated.Status == models.RequestStatusApproved {
			s.notifyResult(ctx, updated.RequesterTeamID, currentUserID, updated, "Match histories linked")
			s.notifyResult(ctx, updated.TargetTeamID, currentUserID, updated, "Match histories linked")
		}
	}
	return resolved, nil
}
