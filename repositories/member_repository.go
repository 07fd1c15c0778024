package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/match-archive/models"
	"github.com/lib/pq"
)

var (
	ErrMemberNotFound           = errors.New("team member not found")
	ErrMemberConflict           = errors.New("user is already a member of the team")
	ErrMemberBackNumberConflict = errors.New("back number is already taken")
	ErrMemberTeamInvalid        = errors.New("team member team invalid")
)

type MemberRepository interface {
	Create(ctx context.Context, member *models.TeamMember) error
	GetByID(ctx context.Context, id int) (*models.TeamMember, error)
	GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error)
	// ListByTeam возвращает участников с указанными статусами; пустой список статусов - все.
	ListByTeam(ctx context.Context, teamID int, statuses []models.MemberStatus) ([]models.TeamMember, error)
	ListManagerUserIDs(ctx context.Context, teamID int) ([]int, error)
	Update(ctx context.Context, member *models.TeamMember) error
	UpdateRole(ctx context.Context, id int, role models.MemberRole) error
	UpdateStatus(ctx context.Context, id int, status models.MemberStatus) error
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

var memberConstraints = constraintErrors{
	"team_members_team_user_key":     ErrMemberConflict,
	"team_members_back_number_key":   ErrMemberBackNumberConflict,
	"team_members_team_id_fkey":      ErrMemberTeamInvalid,
	"team_members_back_number_check": ErrMemberBackNumberConflict,
}

const memberSelect = `
	SELECT m.id, m.team_id, m.user_id, m.guest_name, m.role, m.status, m.back_number, m.position,
	       m.merged_into_member_id, m.joined_at, u.nickname, u.avatar_key
	FROM team_members m
	LEFT JOIN users u ON u.id = m.user_id`

func scanMember(row rowScanner) (*models.TeamMember, error) {
	var m models.TeamMember
	var nickname, avatarKey sql.NullString
	err := row.Scan(
		&m.ID, &m.TeamID, &m.UserID, &m.GuestName, &m.Role, &m.Status, &m.BackNumber, &m.Position,
		&m.MergedIntoMemberID, &m.JoinedAt, &nickname, &avatarKey,
	)
	if err != nil {
		return nil, err
	}
	if m.UserID != nil {
		m.User = &models.User{ID: *m.UserID, Nickname: nickname.String}
		if avatarKey.Valid {
			m.User.AvatarKey = &avatarKey.String
		}
	}
	return &m, nil
}

func (r *postgresMemberRepository) Create(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, guest_name, role, status, back_number, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, joined_at`

	err := r.db.QueryRowContext(ctx, query,
		member.TeamID,
		member.UserID,
		member.GuestName,
		member.Role,
		member.Status,
		member.BackNumber,
		member.Position,
	).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		return mapPQError(err, memberConstraints)
	}
	return nil
}

func (r *postgresMemberRepository) getOne(ctx context.Context, where string, args ...interface{}) (*models.TeamMember, error) {
	member, err := scanMember(r.db.QueryRowContext(ctx, memberSelect+` WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to scan team member: %w", err)
	}
	return member, nil
}

func (r *postgresMemberRepository) GetByID(ctx context.Context, id int) (*models.TeamMember, error) {
	return r.getOne(ctx, "m.id = $1", id)
}

func (r *postgresMemberRepository) GetByTeamAndUser(ctx context.Context, teamID, userID int) (*models.TeamMember, error) {
	return r.getOne(ctx, "m.team_id = $1 AND m.user_id = $2", teamID, userID)
}

func (r *postgresMemberRepository) ListByTeam(ctx context.Context, teamID int, statuses []models.MemberStatus) ([]models.TeamMember, error) {
	query := memberSelect + ` WHERE m.team_id = $1`
	args := []interface{}{teamID}
	if len(statuses) > 0 {
		raw := make([]string, len(statuses))
		for i, s := range statuses {
			raw[i] = string(s)
		}
		query += ` AND m.status = ANY($2)`
		args = append(args, pq.Array(raw))
	}
	query += ` ORDER BY CASE m.role WHEN 'OWNER' THEN 0 WHEN 'MANAGER' THEN 1 ELSE 2 END, m.back_number NULLS LAST, m.id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *postgresMemberRepository) ListManagerUserIDs(ctx context.Context, teamID int) ([]int, error) {
	query := `
		SELECT user_id FROM team_members
		WHERE team_id = $1 AND status = 'active' AND role IN ('OWNER', 'MANAGER') AND user_id IS NOT NULL
		ORDER BY user_id`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresMemberRepository) Update(ctx context.Context, member *models.TeamMember) error {
	query := `UPDATE team_members SET guest_name = $1, back_number = $2, position = $3 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, member.GuestName, member.BackNumber, member.Position, member.ID)
	if err != nil {
		return mapPQError(err, memberConstraints)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

func (r *postgresMemberRepository) UpdateRole(ctx context.Context, id int, role models.MemberRole) error {
	result, err := r.db.ExecContext(ctx, `UPDATE team_members SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}

// UpdateStatus меняет статус; вне active номер освобождается, а роль
// сбрасывается до MEMBER (кроме OWNER).
func (r *postgresMemberRepository) UpdateStatus(ctx context.Context, id int, status models.MemberStatus) error {
	query := `
		UPDATE team_members
		SET status = $1,
		    back_number = CASE WHEN $1 = 'active' THEN back_number ELSE NULL END,
		    role = CASE WHEN $1 = 'active' OR role = 'OWNER' THEN role ELSE 'MEMBER' END,
		    joined_at = CASE WHEN $1 = 'active' AND status <> 'active' THEN NOW() ELSE joined_at END
		WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return mapPQError(err, memberConstraints)
	}
	return checkAffectedRows(result, ErrMemberNotFound)
}
