package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/match-archive/metrics"
	"github.com/Dosada05/match-archive/models"
	"github.com/lib/pq"
)

var (
	ErrTeamMergeNotFound     = errors.New("team merge request not found")
	ErrTeamMergeOpenConflict = errors.New("an open merge request already exists between these teams")
	ErrTeamMergeSameTeam     = errors.New("team cannot merge with itself")
	ErrTeamMergeStatus       = errors.New("team merge request is not in the expected status")
	ErrDisputeNotFound       = errors.New("dispute not found")
)

type TeamMergeRepository interface {
	Create(ctx context.Context, req *models.TeamMergeRequest) error
	GetByID(ctx context.Context, id int) (*models.TeamMergeRequest, error)
	// ListByTeam возвращает запросы, где команда - любая из сторон.
	ListByTeam(ctx context.Context, teamID int, statuses []models.RequestStatus) ([]models.TeamMergeRequest, error)
	ListOpenForManager(ctx context.Context, userID int) ([]models.TeamMergeRequest, error)
	// Resolve меняет статус только если текущий входит в from.
	Resolve(ctx context.Context, id int, from []models.RequestStatus, to models.RequestStatus) error
	ListDisputes(ctx context.Context, requestID int) ([]models.TeamMergeDispute, error)
	GetDispute(ctx context.Context, id int) (*models.TeamMergeDispute, error)

	ProcessTeamMerge(ctx context.Context, requestID int) (models.RequestStatus, error)
	SubmitDisputeScore(ctx context.Context, disputeID, teamID, ourScore, opponentScore int) (bool, error)
}

type postgresTeamMergeRepository struct {
	db *sql.DB
}

func NewPostgresTeamMergeRepository(db *sql.DB) TeamMergeRepository {
	return &postgresTeamMergeRepository{db: db}
}

const teamMergeSelect = `
	SELECT id, requester_team_id, target_team_id, requested_by, status, created_at, resolved_at
	FROM team_merge_requests`

func scanTeamMerge(row rowScanner) (*models.TeamMergeRequest, error) {
	var req models.TeamMergeRequest
	err := row.Scan(&req.ID, &req.RequesterTeamID, &req.TargetTeamID, &req.RequestedBy, &req.Status, &req.CreatedAt, &req.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func statusStrings(statuses []models.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *postgresTeamMergeRepository) Create(ctx context.Context, req *models.TeamMergeRequest) error {
	query := `
		INSERT INTO team_merge_requests (requester_team_id, target_team_id, requested_by)
		VALUES ($1, $2, $3)
		RETURNING id, status, created_at`

	err := r.db.QueryRowContext(ctx, query, req.RequesterTeamID, req.TargetTeamID, req.RequestedBy).
		Scan(&req.ID, &req.Status, &req.CreatedAt)
	if err != nil {
		return mapPQError(err, constraintErrors{
			"team_merge_requests_open_key":               ErrTeamMergeOpenConflict,
			"team_merge_requests_distinct_check":         ErrTeamMergeSameTeam,
			"team_merge_requests_target_team_id_fkey":    ErrTeamNotFound,
			"team_merge_requests_requester_team_id_fkey": ErrTeamNotFound,
		})
	}
	return nil
}

func (r *postgresTeamMergeRepository) GetByID(ctx context.Context, id int) (*models.TeamMergeRequest, error) {
	req, err := scanTeamMerge(r.db.QueryRowContext(ctx, teamMergeSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamMergeNotFound
		}
		return nil, fmt.Errorf("failed to scan team merge request: %w", err)
	}
	return req, nil
}

func (r *postgresTeamMergeRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.TeamMergeRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.TeamMergeRequest, 0)
	for rows.Next() {
		req, err := scanTeamMerge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *req)
	}
	return list, rows.Err()
}

func (r *postgresTeamMergeRepository) ListByTeam(ctx context.Context, teamID int, statuses []models.RequestStatus) ([]models.TeamMergeRequest, error) {
	query := teamMergeSelect + ` WHERE (requester_team_id = $1 OR target_team_id = $1)`
	args := []interface{}{teamID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += ` ORDER BY created_at DESC`
	return r.list(ctx, query, args...)
}

func (r *postgresTeamMergeRepository) ListOpenForManager(ctx context.Context, userID int) ([]models.TeamMergeRequest, error) {
	return r.list(ctx, teamMergeSelect+`
		WHERE status IN ('pending', 'disputed')
		  AND EXISTS (
			SELECT 1 FROM team_members tm
			WHERE tm.user_id = $1 AND tm.status = 'active' AND tm.role IN ('OWNER', 'MANAGER')
			  AND tm.team_id IN (requester_team_id, target_team_id)
		  )
		ORDER BY created_at DESC`, userID)
}

func (r *postgresTeamMergeRepository) Resolve(ctx context.Context, id int, from []models.RequestStatus, to models.RequestStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE team_merge_requests SET status = $1, resolved_at = NOW()
		WHERE id = $2 AND status = ANY($3)`, to, id, pq.Array(statusStrings(from)))
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamMergeStatus)
}

const disputeSelect = `
	SELECT id, request_id, requester_match_id, target_match_id,
	       requester_our_score, requester_opponent_score, target_our_score, target_opponent_score,
	       resolved, created_at, resolved_at
	FROM team_merge_disputes`

func scanDispute(row rowScanner) (*models.TeamMergeDispute, error) {
	var d models.TeamMergeDispute
	var reqOur, reqOpp, tgtOur, tgtOpp sql.NullInt64
	err := row.Scan(
		&d.ID, &d.RequestID, &d.RequesterMatchID, &d.TargetMatchID,
		&reqOur, &reqOpp, &tgtOur, &tgtOpp,
		&d.Resolved, &d.CreatedAt, &d.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if reqOur.Valid && reqOpp.Valid {
		d.RequesterProposal = &models.ScoreProposal{OurScore: int(reqOur.Int64), OpponentScore: int(reqOpp.Int64)}
	}
	if tgtOur.Valid && tgtOpp.Valid {
		d.TargetProposal = &models.ScoreProposal{OurScore: int(tgtOur.Int64), OpponentScore: int(tgtOpp.Int64)}
	}
	return &d, nil
}

func (r *postgresTeamMergeRepository) ListDisputes(ctx context.Context, requestID int) ([]models.TeamMergeDispute, error) {
	rows, err := r.db.QueryContext(ctx, disputeSelect+` WHERE request_id = $1 ORDER BY id`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.TeamMergeDispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *d)
	}
	return list, rows.Err()
}

func (r *postgresTeamMergeRepository) GetDispute(ctx context.Context, id int) (*models.TeamMergeDispute, error) {
	d, err := scanDispute(r.db.QueryRowContext(ctx, disputeSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute: %w", err)
	}
	return d, nil
}

func (r *postgresTeamMergeRepository) ProcessTeamMerge(ctx context.Context, requestID int) (models.RequestStatus, error) {
	start := time.Now()
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT process_team_merge($1)`, requestID).Scan(&status)
	outcome := procedureOutcome(err)
	if err == nil {
		outcome = status
	}
	metrics.RecordProcedureCall("process_team_merge", outcome, time.Since(start))
	if err != nil {
		return "", mapProcedureError(err)
	}
	return models.RequestStatus(status), nil
}

func (r *postgresTeamMergeRepository) SubmitDisputeScore(ctx context.Context, disputeID, teamID, ourScore, opponentScore int) (bool, error) {
	start := time.Now()
	var resolved bool
	err := r.db.QueryRowContext(ctx, `SELECT submit_dispute_score($1, $2, $3, $4)`,
		disputeID, teamID, ourScore, opponentScore,
	).Scan(&resolved)
	metrics.RecordProcedureCall("submit_dispute_score", procedureOutcome(err), time.Since(start))
	if err != nil {
		return false, mapProcedureError(err)
	}
	return resolved, nil
}
