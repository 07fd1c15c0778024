package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/match-archive/models"
	"github.com/Dosada05/match-archive/repositories"
)

// RecordMergeService - перенос записей гостя на зарегистрированного игрока.
// Сам перенос выполняют процедуры process_record_merge и process_direct_merge.
type RecordMergeService interface {
	CreateOffer(ctx context.Context, teamID int, currentUserID int, guestMemberID int, targetUserID int) (*models.RecordMergeRequest, error)
	CreateClaim(ctx context.Context, teamID int, currentUserID int, guestMemberID int) (*models.RecordMergeRequest, error)
	Approve(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error)
	Reject(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error)
	Cancel(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error)
	DirectMerge(ctx context.Context, teamID int, currentUserID int, guestMemberID int, targetMemberID int) error

	ListTeamRequests(ctx context.Context, teamID int, currentUserID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error)
	ListMyRequests(ctx context.Context, currentUserID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error)
}

type recordMergeService struct {
	mergeRepo  repositories.RecordMergeRepository
	memberRepo repositories.MemberRepository
	userRepo   repositories.UserRepository
	notifier   NotificationService
	logger     *slog.Logger
}

func NewRecordMergeService(
	mergeRepo repositories.RecordMergeRepository,
	memberRepo repositories.MemberRepository,
	userRepo repositories.UserRepository,
	notifier NotificationService,
	logger *slog.Logger,
) RecordMergeService {
	return &recordMergeService{
		mergeRepo:  mergeRepo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// activeGuest проверяет, что участник - активный гость команды.
func (s *recordMergeService) activeGuest(ctx context.Context, teamID, memberID int) (*models.TeamMember, error) {
	guest, err := loadTeamMember(ctx, s.memberRepo, teamID, memberID)
	if err != nil {
		return nil, err
	}
	if !guest.IsGuest() || !guest.IsActive() {
		return nil, fmt.Errorf("%w: member %d is not an active guest", ErrInvalidState, memberID)
	}
	return guest, nil
}

func (s *recordMergeService) create(ctx context.Context, req *models.RecordMergeRequest) error {
	if err := s.mergeRepo.Create(ctx, req); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRecordMergePendingConflict):
			return ErrMergeRequestConflict
		case errors.Is(err, repositories.ErrMemberNotFound):
			return ErrMemberNotFound
		case errors.Is(err, repositories.ErrUserNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create record merge request: %w", err)
	}
	return nil
}

func (s *recordMergeService) CreateOffer(ctx context.Context, teamID int, currentUserID int, guestMemberID int, targetUserID int) (*models.RecordMergeRequest, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	guest, err := s.activeGuest(ctx, teamID, guestMemberID)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, targetUserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", targetUserID, err)
	}

	req := &models.RecordMergeRequest{
		TeamID:        teamID,
		GuestMemberID: guest.ID,
		TargetUserID:  targetUserID,
		RequestedBy:   currentUserID,
		Direction:     models.MergeDirectionOffer,
		Status:        models.RequestStatusPending,
	}
	if err := s.create(ctx, req); err != nil {
		return nil, err
	}

	err = s.notifier.Notify(ctx, models.Notification{
		UserID: targetUserID,
		Kind:   models.NotificationRecordMergeOffer,
		Title:  "Are these your match records?",
		Body:   strPtr(fmt.Sprintf("A team manager suggests that guest player %q is you.", guest.DisplayName())),
		Link:   strPtr(fmt.Sprintf("/record-merges/%d", req.ID)),
	})
	notifyQuietly(s.logger, err, models.NotificationRecordMergeOffer, slog.Int("request_id", req.ID))
	return req, nil
}

// CreateClaim: пользователь заявляет, что гость команды - это он сам.
func (s *recordMergeService) CreateClaim(ctx context.Context, teamID int, currentUserID int, guestMemberID int) (*models.RecordMergeRequest, error) {
	guest, err := s.activeGuest(ctx, teamID, guestMemberID)
	if err != nil {
		return nil, err
	}

	req := &models.RecordMergeRequest{
		TeamID:        teamID,
		GuestMemberID: guest.ID,
		TargetUserID:  currentUserID,
		RequestedBy:   currentUserID,
		Direction:     models.MergeDirectionClaim,
		Status:        models.RequestStatusPending,
	}
	if err := s.create(ctx, req); err != nil {
		return nil, err
	}

	err = s.notifier.NotifyTeamManagers(ctx, teamID, currentUserID, models.Notification{
		Kind:  models.NotificationRecordMergeClaim,
		Title: "Guest record claim",
		Body:  strPtr(fmt.Sprintf("A player claims the records of guest %q.", guest.DisplayName())),
		Link:  strPtr(fmt.Sprintf("/teams/%d/record-merges", teamID)),
	})
	notifyQuietly(s.logger, err, models.NotificationRecordMergeClaim, slog.Int("request_id", req.ID))
	return req, nil
}

func (s *recordMergeService) loadRequest(ctx context.Context, requestID int) (*models.RecordMergeRequest, error) {
	req, err := s.mergeRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordMergeNotFound) {
			return nil, ErrMergeRequestNotFound
		}
		return nil, fmt.Errorf("failed to get record merge request %d: %w", requestID, err)
	}
	return req, nil
}

// requireApprover: предложение подтверждает адресат, заявку - менеджер команды.
func (s *recordMergeService) requireApprover(ctx context.Context, req *models.RecordMergeRequest, currentUserID int) error {
	switch req.Direction {
	case models.MergeDirectionOffer:
		if req.TargetUserID != currentUserID {
			return ErrForbiddenOperation
		}
		return nil
	case models.MergeDirectionClaim:
		_, err := requireManager(ctx, s.memberRepo, req.TeamID, currentUserID)
		return err
	default:
		return fmt.Errorf("%w: unknown merge direction %q", ErrInvalidState, req.Direction)
	}
}

func (s *recordMergeService) pendingForApprover(ctx context.Context, requestID, currentUserID int) (*models.RecordMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.requireApprover(ctx, req, currentUserID); err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	return req, nil
}

func (s *recordMergeService) Approve(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error) {
	req, err := s.pendingForApprover(ctx, requestID, currentUserID)
	if err != nil {
		return nil, err
	}
	if err := s.mergeRepo.ProcessRecordMerge(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("failed to merge records for request %d: %w", req.ID, mapProcedureError(err))
	}
	s.notifyResult(ctx, req, currentUserID, "approved")

	req, err = s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *recordMergeService) resolve(ctx context.Context, req *models.RecordMergeRequest, status models.RequestStatus) error {
	if err := s.mergeRepo.Resolve(ctx, req.ID, status); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRecordMergeNotPending):
			return fmt.Errorf("%w: request is no longer pending", ErrInvalidState)
		case errors.Is(err, repositories.ErrRecordMergeNotFound):
			return ErrMergeRequestNotFound
		}
		return fmt.Errorf("failed to resolve record merge request %d: %w", req.ID, err)
	}
	req.Status = status
	return nil
}

func (s *recordMergeService) Reject(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error) {
	req, err := s.pendingForApprover(ctx, requestID, currentUserID)
	if err != nil {
		return nil, err
	}
	if err := s.resolve(ctx, req, models.RequestStatusRejected); err != nil {
		return nil, err
	}
	s.notifyResult(ctx, req, currentUserID, "rejected")
	return req, nil
}

func (s *recordMergeService) Cancel(ctx context.Context, requestID int, currentUserID int) (*models.RecordMergeRequest, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.RequestedBy != currentUserID {
		return nil, ErrForbiddenOperation
	}
	if req.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}
	if err := s.resolve(ctx, req, models.RequestStatusCanceled); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *recordMergeService) notifyResult(ctx context.Context, req *models.RecordMergeRequest, actorID int, outcome string) {
	if req.RequestedBy == actorID {
		return
	}
	err := s.notifier.Notify(ctx, models.Notification{
		UserID: req.RequestedBy,
		Kind:   models.NotificationRecordMergeResult,
		Title:  fmt.Sprintf("Record merge %s", outcome),
		Link:   strPtr(fmt.Sprintf("/record-merges/%d", req.ID)),
	})
	notifyQuietly(s.logger, err, models.NotificationRecordMergeResult, slog.Int("request_id", req.ID))
}

func (s *recordMergeService) DirectMerge(ctx context.Context, teamID int, currentUserID int, guestMemberID int, targetMemberID int) error {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return err
	}
	if guestMemberID == targetMemberID {
		return fmt.Errorf("%w: guest and target must be different members", ErrInvalidState)
	}
	if _, err := s.activeGuest(ctx, teamID, guestMemberID); err != nil {
		return err
	}
	target, err := loadTeamMember(ctx, s.memberRepo, teamID, targetMemberID)
	if err != nil {
		return err
	}
	if target.IsGuest() || !target.IsActive() {
		return fmt.Errorf("%w: target must be an active registered member", ErrInvalidState)
	}

	if err := s.mergeRepo.ProcessDirectMerge(ctx, guestMemberID, targetMemberID); err != nil {
		return fmt.Errorf("failed to merge guest %d into member %d: %w", guestMemberID, targetMemberID, mapProcedureError(err))
	}
	return nil
}

func (s *recordMergeService) ListTeamRequests(ctx context.Context, teamID int, currentUserID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	if _, err := requireManager(ctx, s.memberRepo, teamID, currentUserID); err != nil {
		return nil, err
	}
	if status == nil {
		pending := models.RequestStatusPending
		status = &pending
	}
	requests, err := s.mergeRepo.ListByTeam(ctx, teamID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list record merge requests of team %d: %w", teamID, err)
	}
	return requests, nil
}

func (s *recordMergeService) ListMyRequests(ctx context.Context, currentUserID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	requests, err := s.mergeRepo.ListForUser(ctx, currentUserID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list record merge requests of user %d: %w", currentUserID, err)
	}
	return requests, nil
}
