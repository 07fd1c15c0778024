package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/match-archive/models"
)

var (
	ErrVenueNotFound        = errors.New("venue not found")
	ErrVenueDefaultConflict = errors.New("team already has a default venue")
)

type VenueRepository interface {
	Create(ctx context.Context, venue *models.Venue) error
	GetByID(ctx context.Context, id int) (*models.Venue, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.Venue, error)
	Update(ctx context.Context, venue *models.Venue) error
	Delete(ctx context.Context, id int) error
}

type postgresVenueRepository struct {
	db *sql.DB
}

func NewPostgresVenueRepository(db *sql.DB) VenueRepository {
	return &postgresVenueRepository{db: db}
}

var venueConstraints = constraintErrors{
	"venues_default_key": ErrVenueDefaultConflict,
}

func clearDefaultVenue(ctx context.Context, exec SQLExecutor, teamID, exceptID int) error {
	_, err := exec.ExecContext(ctx,
		`UPDATE venues SET is_default = FALSE WHERE team_id = $1 AND is_default AND id <> $2`,
		teamID, exceptID)
	return err
}

func (r *postgresVenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if venue.IsDefault {
			if err := clearDefaultVenue(ctx, tx, venue.TeamID, 0); err != nil {
				return err
			}
		}
		err := tx.QueryRowContext(ctx, `
			INSERT INTO venues (team_id, name, address, map_url, is_default)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			venue.TeamID, venue.Name, venue.Address, venue.MapURL, venue.IsDefault,
		).Scan(&venue.ID, &venue.CreatedAt)
		if err != nil {
			return mapPQError(err, venueConstraints)
		}
		return nil
	})
}

func (r *postgresVenueRepository) GetByID(ctx context.Context, id int) (*models.Venue, error) {
	var v models.Venue
	err := r.db.QueryRowContext(ctx, `
		SELECT id, team_id, name, address, map_url, is_default, created_at
		FROM venues WHERE id = $1`, id,
	).Scan(&v.ID, &v.TeamID, &v.Name, &v.Address, &v.MapURL, &v.IsDefault, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, fmt.Errorf("failed to scan venue: %w", err)
	}
	return &v, nil
}

func (r *postgresVenueRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, team_id, name, address, map_url, is_default, created_at
		FROM venues WHERE team_id = $1
		ORDER BY is_default DESC, name`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := make([]models.Venue, 0)
	for rows.Next() {
		var v models.Venue
		if err := rows.Scan(&v.ID, &v.TeamID, &v.Name, &v.Address, &v.MapURL, &v.IsDefault, &v.CreatedAt); err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func (r *postgresVenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if venue.IsDefault {
			if err := clearDefaultVenue(ctx, tx, venue.TeamID, venue.ID); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE venues SET name = $1, address = $2, map_url = $3, is_default = $4
			WHERE id = $5`,
			venue.Name, venue.Address, venue.MapURL, venue.IsDefault, venue.ID)
		if err != nil {
			return mapPQError(err, venueConstraints)
		}
		return checkAffectedRows(result, ErrVenueNotFound)
	})
}

func (r *postgresVenueRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrVenueNotFound)
}
