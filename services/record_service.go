package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

type RecordService interface {
	// SaveRecords заменяет весь набор записей сыгранного матча.
	SaveRecords(ctx context.Context, matchID int, currentUserID int, input []RecordInput) ([]models.MatchRecord, error)
	ListRecords(ctx context.Context, matchID int, currentUserID int) ([]models.MatchRecord, error)
}

type RecordInput struct {
	MemberID       int `json:"member_id"`
	Goals          int `json:"goals"`
	Assists        int `json:"assists"`
	QuartersPlayed int `json:"quarters_played"`
}

type recordService struct {
	recordRepo repositories.RecordRepository
	matchRepo  repositories.MatchRepository
	memberRepo repositories.MemberRepository
}

func NewRecordService(
	recordRepo repositories.RecordRepository,
	matchRepo repositories.MatchRepository,
	memberRepo repositories.MemberRepository,
) RecordService {
	return &recordService{
		recordRepo: recordRepo,
		matchRepo:  matchRepo,
		memberRepo: memberRepo,
	}
}

func (s *recordService) SaveRecords(ctx context.Context, matchID int, currentUserID int, input []RecordInput) ([]models.MatchRecord, error) {
	match, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := requireManager(ctx, s.memberRepo, match.TeamID, currentUserID); err != nil {
		return nil, err
	}
	if match.Status != models.MatchStatusCompleted || match.OurScore == nil {
		return nil, fmt.Errorf("%w: records can be saved only for completed matches", ErrInvalidState)
	}

	members, err := s.memberRepo.ListByTeam(ctx, match.TeamID, []models.MemberStatus{models.MemberStatusActive})
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", match.TeamID, err)
	}
	active := make(map[int]*models.TeamMember, len(members))
	for i := range members {
		active[members[i].ID] = &members[i]
	}

	verr := newValidationError()
	seen := make(map[int]struct{}, len(input))
	records := make([]models.MatchRecord, 0, len(input))
	totalGoals := 0
	for i, in := range input {
		field := fmt.Sprintf("records[%d]", i)
		if _, ok := active[in.MemberID]; !ok {
			verr.Add(field+".member_id", "must be an active member of the team")
		}
		if _, dup := seen[in.MemberID]; dup {
			verr.Add(field+".member_id", "duplicate member in records")
		}
		seen[in.MemberID] = struct{}{}
		verr.Check(in.Goals >= 0, field+".goals", "must not be negative")
		verr.Check(in.Assists >= 0, field+".assists", "must not be negative")
		verr.Check(in.QuartersPlayed >= 0 && in.QuartersPlayed <= match.Quarters, field+".quarters_played", fmt.Sprintf("must be between 0 and %d", match.Quarters))
		totalGoals += in.Goals

		records = append(records, models.MatchRecord{
			MatchID:        matchID,
			MemberID:       in.MemberID,
			Goals:          in.Goals,
			Assists:        in.Assists,
			QuartersPlayed: in.QuartersPlayed,
		})
	}
	if totalGoals > *match.OurScore {
		verr.Add("records", fmt.Sprintf("total goals %d exceed the team score %d", totalGoals, *match.OurScore))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.recordRepo.ReplaceForMatch(ctx, matchID, records); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRecordMemberInvalid):
			return nil, ErrMemberNotFound
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFound
		case errors.Is(err, repositories.ErrRecordDuplicate):
			return nil, fmt.Errorf("%w: %w", ErrConcurrentUpdate, err)
		}
		return nil, fmt.Errorf("failed to save records of match %d: %w", matchID, err)
	}

	for i := range records {
		records[i].Member = active[records[i].MemberID]
	}
	return records, nil
}

func (s *recordService) ListRecords(ctx context.Context, matchID int, currentUserID int) ([]models.MatchRecord, error) {
	match, err := loadMatch(ctx, s.matchRepo, matchID)
	if err != nil {
		return nil, err
	}
	if _, err := activeMembership(ctx, s.memberRepo, match.TeamID, currentUserID); err != nil {
		return nil, err
	}

	records, err := s.recordRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records of match %d: %w", matchID, err)
	}
	// Записи ушедших и слитых участников тоже показываются.
	members, err := s.memberRepo.ListByTeam(ctx, match.TeamID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", match.TeamID, err)
	}
	byID := make(map[int]*models.TeamMember, len(members))
	for i := range members {
		byID[members[i].ID] = &members[i]
	}
	for i := range records {
		records[i].Member = byID[records[i].MemberID]
	}
	return records, nil
}
