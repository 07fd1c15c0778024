package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/match-archive/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name conflict")
	ErrTeamOwnerInvalid = errors.New("team owner invalid")
)

type TeamRepository interface {
	// CreateWithOwner создает команду и активного участника-OWNER в одной транзакции.
	CreateWithOwner(ctx context.Context, team *models.Team, owner *models.TeamMember) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByUser(ctx context.Context, userID int) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	UpdateEmblemKey(ctx context.Context, teamID int, key *string) error
	// TransferOwner переводит текущего владельца в MANAGER, а newOwnerMemberID делает OWNER.
	TransferOwner(ctx context.Context, teamID, oldOwnerMemberID, newOwnerMemberID, newOwnerUserID int) error
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

var teamConstraints = constraintErrors{
	"teams_name_key":             ErrTeamNameConflict,
	"teams_owner_id_fkey":        ErrTeamOwnerInvalid,
	"team_members_team_user_key": ErrMemberConflict,
}

func (r *postgresTeamRepository) CreateWithOwner(ctx context.Context, team *models.Team, owner *models.TeamMember) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO teams (name, description, region, owner_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			team.Name, team.Description, team.Region, team.OwnerID,
		).Scan(&team.ID, &team.CreatedAt)
		if err != nil {
			return mapPQError(err, teamConstraints)
		}

		owner.TeamID = team.ID
		owner.Role = models.MemberRoleOwner
		owner.Status = models.MemberStatusActive
		err = tx.QueryRowContext(ctx, `
			INSERT INTO team_members (team_id, user_id, role, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, joined_at`,
			owner.TeamID, owner.UserID, owner.Role, owner.Status,
		).Scan(&owner.ID, &owner.JoinedAt)
		if err != nil {
			return mapPQError(err, teamConstraints)
		}
		return nil
	})
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT t.id, t.name, t.description, t.region, t.emblem_key, t.owner_id, t.created_at,
		       (SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id AND m.status = 'active')
		FROM teams t
		WHERE t.id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.Description, &team.Region, &team.EmblemKey, &team.OwnerID, &team.CreatedAt,
		&team.MemberCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}
	return &team, nil
}

func (r *postgresTeamRepository) ListByUser(ctx context.Context, userID int) ([]models.Team, error) {
	query := `
		SELECT t.id, t.name, t.description, t.region, t.emblem_key, t.owner_id, t.created_at,
		       m.id, m.role, m.status, m.back_number, m.position, m.joined_at
		FROM teams t
		JOIN team_members m ON m.team_id = t.id
		WHERE m.user_id = $1 AND m.status = 'active'
		ORDER BY t.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		m := models.TeamMember{UserID: &userID}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.Region, &t.EmblemKey, &t.OwnerID, &t.CreatedAt,
			&m.ID, &m.Role, &m.Status, &m.BackNumber, &m.Position, &m.JoinedAt,
		); err != nil {
			return nil, err
		}
		m.TeamID = t.ID
		t.MyMembership = &m
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `UPDATE teams SET name = $1, description = $2, region = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, team.Name, team.Description, team.Region, team.ID)
	if err != nil {
		return mapPQError(err, teamConstraints)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) UpdateEmblemKey(ctx context.Context, teamID int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE teams SET emblem_key = $1 WHERE id = $2`, key, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) TransferOwner(ctx context.Context, teamID, oldOwnerMemberID, newOwnerMemberID, newOwnerUserID int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE team_members SET role = 'MANAGER' WHERE id = $1 AND team_id = $2 AND role = 'OWNER'`,
			oldOwnerMemberID, teamID)
		if err != nil {
			return err
		}
		if err := checkAffectedRows(result, ErrMemberNotFound); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx,
			`UPDATE team_members SET role = 'OWNER' WHERE id = $1 AND team_id = $2 AND status = 'active'`,
			newOwnerMemberID, teamID)
		if err != nil {
			return err
		}
		if err := checkAffectedRows(result, ErrMemberNotFound); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `UPDATE teams SET owner_id = $1 WHERE id = $2`, newOwnerUserID, teamID)
		if err != nil {
			return err
		}
		return checkAffectedRows(result, ErrTeamNotFound)
	})
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
