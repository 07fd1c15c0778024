package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/match-archive/metrics"
	"github.com/Dosada05/match-archive/models"
)

var (
	ErrRecordMergeNotFound        = errors.New("record merge request not found")
	ErrRecordMergePendingConflict = errors.New("guest already has a pending merge request")
	ErrRecordMergeNotPending      = errors.New("record merge request is not pending")
)

type RecordMergeRepository interface {
	Create(ctx context.Context, req *models.RecordMergeRequest) error
	GetByID(ctx context.Context, id int) (*models.RecordMergeRequest, error)
	ListByTeam(ctx context.Context, teamID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error)
	// ListForUser возвращает входящие предложения пользователю и его собственные заявки.
	ListForUser(ctx context.Context, userID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error)
	// Resolve переводит pending-запрос в конечный статус.
	Resolve(ctx context.Context, id int, status models.RequestStatus) error

	ProcessRecordMerge(ctx context.Context, requestID int) error
	ProcessDirectMerge(ctx context.Context, guestMemberID, targetMemberID int) error
}

type postgresRecordMergeRepository struct {
	db *sql.DB
}

func NewPostgresRecordMergeRepository(db *sql.DB) RecordMergeRepository {
	return &postgresRecordMergeRepository{db: db}
}

const recordMergeSelect = `
	SELECT id, team_id, guest_member_id, target_user_id, requested_by, direction, status, created_at, resolved_at
	FROM record_merge_requests`

func scanRecordMerge(row rowScanner) (*models.RecordMergeRequest, error) {
	var req models.RecordMergeRequest
	err := row.Scan(
		&req.ID, &req.TeamID, &req.GuestMemberID, &req.TargetUserID, &req.RequestedBy,
		&req.Direction, &req.Status, &req.CreatedAt, &req.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *postgresRecordMergeRepository) Create(ctx context.Context, req *models.RecordMergeRequest) error {
	query := `
		INSERT INTO record_merge_requests (team_id, guest_member_id, target_user_id, requested_by, direction)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, created_at`

	err := r.db.QueryRowContext(ctx, query,
		req.TeamID, req.GuestMemberID, req.TargetUserID, req.RequestedBy, req.Direction,
	).Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		return mapPQError(err, constraintErrors{
			"record_merge_requests_pending_key":          ErrRecordMergePendingConflict,
			"record_merge_requests_guest_member_id_fkey": ErrMemberNotFound,
			"record_merge_requests_target_user_id_fkey":  ErrUserNotFound,
		})
	}
	return nil
}

func (r *postgresRecordMergeRepository) GetByID(ctx context.Context, id int) (*models.RecordMergeRequest, error) {
	req, err := scanRecordMerge(r.db.QueryRowContext(ctx, recordMergeSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordMergeNotFound
		}
		return nil, fmt.Errorf("failed to scan record merge request: %w", err)
	}
	return req, nil
}

func (r *postgresRecordMergeRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.RecordMergeRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.RecordMergeRequest, 0)
	for rows.Next() {
		req, err := scanRecordMerge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *req)
	}
	return list, rows.Err()
}

func (r *postgresRecordMergeRepository) ListByTeam(ctx context.Context, teamID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	return r.list(ctx,
		recordMergeSelect+` WHERE team_id = $1 AND ($2::text IS NULL OR status = $2) ORDER BY created_at DESC`,
		teamID, status)
}

func (r *postgresRecordMergeRepository) ListForUser(ctx context.Context, userID int, status *models.RequestStatus) ([]models.RecordMergeRequest, error) {
	return r.list(ctx, recordMergeSelect+`
		WHERE ((direction = 'offer' AND target_user_id = $1) OR (direction = 'claim' AND requested_by = $1))
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC`,
		userID, status)
}

func (r *postgresRecordMergeRepository) Resolve(ctx context.Context, id int, status models.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE record_merge_requests SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = 'pending'`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRecordMergeNotPending)
}

func (r *postgresRecordMergeRepository) ProcessRecordMerge(ctx context.Context, requestID int) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `SELECT process_record_merge($1)`, requestID)
	metrics.RecordProcedureCall("process_record_merge", procedureOutcome(err), time.Since(start))
	if err != nil {
		return mapProcedureError(err)
	}
	return nil
}

func (r *postgresRecordMergeRepository) ProcessDirectMerge(ctx context.Context, guestMemberID, targetMemberID int) error {
	start := time.Now()
	_, err := r.db.ExecContext(ctx, `SELECT process_direct_merge($1, $2)`, guestMemberID, targetMemberID)
	metrics.RecordProcedureCall("process_direct_merge", procedureOutcome(err), time.Since(start))
	if err != nil {
		return mapProcedureError(err)
	}
	return nil
}
