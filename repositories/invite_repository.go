package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Dosada05/match-archive/models"
)

var (
	ErrInviteNotFound      = errors.New("invite not found")
	ErrInviteTokenConflict = errors.New("invite token conflict")
	ErrInviteTeamInvalid   = errors.New("invite team conflict or invalid")
)

// InviteRepository определяет интерфейс для работы с приглашениями.
// У команды не больше одного приглашения.
type InviteRepository interface {
	// Upsert создает приглашение команды или заменяет токен и срок существующего.
	Upsert(ctx context.Context, invite *models.Invite) error

	// GetByToken ищет приглашение по его уникальному токену.
	GetByToken(ctx context.Context, token string) (*models.Invite, error)

	GetByTeamID(ctx context.Context, teamID int) (*models.Invite, error)

	DeleteByTeamID(ctx context.Context, teamID int) error

	// DeleteExpired удаляет все приглашения, срок действия которых истек к now.
	// Возвращает количество удаленных приглашений.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type postgresInviteRepository struct {
	db *sql.DB
}

func NewPostgresInviteRepository(db *sql.DB) InviteRepository {
	return &postgresInviteRepository{db: db}
}

func (r *postgresInviteRepository) Upsert(ctx context.Context, invite *models.Invite) error {
	// ExpiresAt выставляется в сервисном слое.
	query := `
		INSERT INTO invites (team_id, token, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id) DO UPDATE
			SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, created_at = NOW()
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		invite.TeamID,
		invite.Token,
		invite.ExpiresAt,
	).Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		return mapPQError(err, constraintErrors{
			"invites_token_key":    ErrInviteTokenConflict,
			"invites_team_id_fkey": ErrInviteTeamInvalid,
		})
	}
	return nil
}

func (r *postgresInviteRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Invite, error) {
	query := `SELECT id, team_id, token, expires_at, created_at FROM invites WHERE ` + where

	invite := &models.Invite{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&invite.ID,
		&invite.TeamID,
		&invite.Token,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInviteNotFound
		}
		return nil, err
	}

	// Проверка срока действия - в сервисном слое.
	return invite, nil
}

func (r *postgresInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	return r.getOne(ctx, "token = $1", token)
}

func (r *postgresInviteRepository) GetByTeamID(ctx context.Context, teamID int) (*models.Invite, error) {
	return r.getOne(ctx, "team_id = $1", teamID)
}

func (r *postgresInviteRepository) DeleteByTeamID(ctx context.Context, teamID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE team_id = $1`, teamID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrInviteNotFound)
}

func (r *postgresInviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invites WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return checkRowsAffected(result)
}
