package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/match-archive/models"
)

var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchVenueInvalid = errors.New("match venue invalid")
	ErrMatchTeamInvalid  = errors.New("match team invalid")
	ErrMatchLinkChanged  = errors.New("match was linked after it was read")
)

type MatchFilter string

const (
	MatchFilterUpcoming MatchFilter = "upcoming"
	MatchFilterPast     MatchFilter = "past"
	MatchFilterAll      MatchFilter = "all"
)

type MatchListParams struct {
	Filter MatchFilter
	Now    time.Time
	Limit  int
	Offset int
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTeam(ctx context.Context, teamID int, params MatchListParams) ([]models.Match, error)
	// ListCompletedByTeam - сыгранные матчи команды в полуинтервале [from, to); нулевые границы не ограничивают.
	ListCompletedByTeam(ctx context.Context, teamID int, from, to time.Time) ([]models.Match, error)
	ListUpcomingForUser(ctx context.Context, userID int, now time.Time, limit int) ([]models.Match, error)
	ListDueReminders(ctx context.Context, now, until time.Time) ([]models.Match, error)
	Update(ctx context.Context, match *models.Match) error
	MarkReminded(ctx context.Context, id int, at time.Time) error
	Delete(ctx context.Context, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

var matchConstraints = constraintErrors{
	"matches_venue_id_fkey":         ErrMatchVenueInvalid,
	"matches_team_id_fkey":          ErrMatchTeamInvalid,
	"matches_opponent_team_id_fkey": ErrMatchTeamInvalid,
}

const matchSelect = `
	SELECT m.id, m.team_id, m.opponent_name, m.opponent_team_id, m.venue_id, m.match_at, m.quarters, m.status,
	       m.our_score, m.opponent_score, m.linked_match_id, m.notes, m.reminded_at, m.created_by, m.created_at,
	       v.name, v.address, v.map_url
	FROM matches m
	LEFT JOIN venues v ON v.id = m.venue_id`

func scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	var venueName, venueAddress, venueMap sql.NullString
	err := row.Scan(
		&m.ID, &m.TeamID, &m.OpponentName, &m.OpponentTeamID, &m.VenueID, &m.MatchAt, &m.Quarters, &m.Status,
		&m.OurScore, &m.OpponentScore, &m.LinkedMatchID, &m.Notes, &m.RemindedAt, &m.CreatedBy, &m.CreatedAt,
		&venueName, &venueAddress, &venueMap,
	)
	if err != nil {
		return nil, err
	}
	if m.VenueID != nil && venueName.Valid {
		m.Venue = &models.Venue{ID: *m.VenueID, TeamID: m.TeamID, Name: venueName.String}
		if venueAddress.Valid {
			m.Venue.Address = &venueAddress.String
		}
		if venueMap.Valid {
			m.Venue.MapURL = &venueMap.String
		}
	}
	return &m, nil
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (team_id, opponent_name, opponent_team_id, venue_id, match_at, quarters, status, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		match.TeamID,
		match.OpponentName,
		match.OpponentTeamID,
		match.VenueID,
		match.MatchAt,
		match.Quarters,
		match.Status,
		match.Notes,
		match.CreatedBy,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return mapPQError(err, matchConstraints)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := scanMatch(r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTeam(ctx context.Context, teamID int, params MatchListParams) ([]models.Match, error) {
	query := matchSelect + ` WHERE m.team_id = $1`
	args := []interface{}{teamID}

	switch params.Filter {
	case MatchFilterUpcoming:
		query += ` AND m.status = 'scheduled' AND m.match_at >= $2 ORDER BY m.match_at ASC`
		args = append(args, params.Now)
	case MatchFilterPast:
		query += ` AND (m.status <> 'scheduled' OR m.match_at < $2) ORDER BY m.match_at DESC`
		args = append(args, params.Now)
	default:
		query += ` ORDER BY m.match_at DESC`
	}

	args = append(args, params.Limit, params.Offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	return r.queryMatches(ctx, query, args...)
}

func (r *postgresMatchRepository) ListCompletedByTeam(ctx context.Context, teamID int, from, to time.Time) ([]models.Match, error) {
	query := matchSelect + ` WHERE m.team_id = $1 AND m.status = 'completed'`
	args := []interface{}{teamID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(` AND m.match_at >= $%d`, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(` AND m.match_at < $%d`, len(args))
	}
	query += ` ORDER BY m.match_at DESC`

	return r.queryMatches(ctx, query, args...)
}

func (r *postgresMatchRepository) ListUpcomingForUser(ctx context.Context, userID int, now time.Time, limit int) ([]models.Match, error) {
	query := matchSelect + `
		JOIN team_members tm ON tm.team_id = m.team_id
		WHERE tm.user_id = $1 AND tm.status = 'active' AND m.status = 'scheduled' AND m.match_at >= $2
		ORDER BY m.match_at ASC
		LIMIT $3`
	return r.queryMatches(ctx, query, userID, now, limit)
}

func (r *postgresMatchRepository) ListDueReminders(ctx context.Context, now, until time.Time) ([]models.Match, error) {
	query := matchSelect + `
		WHERE m.status = 'scheduled' AND m.reminded_at IS NULL AND m.match_at >= $1 AND m.match_at < $2
		ORDER BY m.match_at ASC`
	return r.queryMatches(ctx, query, now, until)
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches SET
			opponent_name = $1,
			opponent_team_id = $2,
			venue_id = $3,
			match_at = $4,
			quarters = $5,
			status = $6,
			our_score = $7,
			opponent_score = $8,
			notes = $9,
			reminded_at = $10
		WHERE id = $11 AND linked_match_id IS NOT DISTINCT FROM $12`

	result, err := r.db.ExecContext(ctx, query,
		match.OpponentName,
		match.OpponentTeamID,
		match.VenueID,
		match.MatchAt,
		match.Quarters,
		match.Status,
		match.OurScore,
		match.OpponentScore,
		match.Notes,
		match.RemindedAt,
		match.ID,
		match.LinkedMatchID,
	)
	if err != nil {
		return mapPQError(err, matchConstraints)
	}
	if err := checkAffectedRows(result, ErrMatchNotFound); err != nil {
		return r.missedUpdate(ctx, match.ID, err)
	}
	return nil
}

// missedUpdate отличает удаленный матч от матча, связанного слиянием после чтения.
func (r *postgresMatchRepository) missedUpdate(ctx context.Context, id int, err error) error {
	if !errors.Is(err, ErrMatchNotFound) {
		return err
	}
	var exists bool
	if qerr := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, id).Scan(&exists); qerr != nil {
		return fmt.Errorf("failed to check match %d: %w", id, qerr)
	}
	if exists {
		return ErrMatchLinkChanged
	}
	return ErrMatchNotFound
}

func (r *postgresMatchRepository) MarkReminded(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE matches SET reminded_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
