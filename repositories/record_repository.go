package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/match-archive/models"
)

var (
	ErrRecordMemberInvalid = errors.New("match record member invalid")
	ErrRecordDuplicate     = errors.New("duplicate match record for member")
)

// UserRecordTotals - сумма записей пользователя в одной команде.
type UserRecordTotals struct {
	TeamID         int
	TeamName       string
	Appearances    int
	Goals          int
	Assists        int
	QuartersPlayed int
}

type RecordRepository interface {
	// ReplaceForMatch атомарно заменяет набор записей матча.
	ReplaceForMatch(ctx context.Context, matchID int, records []models.MatchRecord) error
	ListByMatch(ctx context.Context, matchID int) ([]models.MatchRecord, error)
	ListByMatches(ctx context.Context, matchIDs []int) ([]models.MatchRecord, error)
	TotalsByUser(ctx context.Context, userID int) ([]UserRecordTotals, error)
}

type postgresRecordRepository struct {
	db *sql.DB
}

func NewPostgresRecordRepository(db *sql.DB) RecordRepository {
	return &postgresRecordRepository{db: db}
}

var recordConstraints = constraintErrors{
	"match_records_member_id_fkey":   ErrRecordMemberInvalid,
	"match_records_match_id_fkey":    ErrMatchNotFound,
	"match_records_match_member_key": ErrRecordDuplicate,
}

func (r *postgresRecordRepository) ReplaceForMatch(ctx context.Context, matchID int, records []models.MatchRecord) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM match_records WHERE match_id = $1`, matchID); err != nil {
			return err
		}
		for i := range records {
			rec := &records[i]
			rec.MatchID = matchID
			err := tx.QueryRowContext(ctx, `
				INSERT INTO match_records (match_id, member_id, goals, assists, quarters_played)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, updated_at`,
				rec.MatchID, rec.MemberID, rec.Goals, rec.Assists, rec.QuartersPlayed,
			).Scan(&rec.ID, &rec.UpdatedAt)
			if err != nil {
				return mapPQError(err, recordConstraints)
			}
		}
		return nil
	})
}

const recordSelect = `
	SELECT r.id, r.match_id, r.member_id, r.goals, r.assists, r.quarters_played, r.updated_at,
	       tm.team_id, tm.user_id, tm.guest_name, tm.back_number, tm.status, u.nickname
	FROM match_records r
	JOIN team_members tm ON tm.id = r.member_id
	LEFT JOIN users u ON u.id = tm.user_id`

func (r *postgresRecordRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]models.MatchRecord, 0)
	for rows.Next() {
		var rec models.MatchRecord
		var m models.TeamMember
		var nickname sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.MatchID, &rec.MemberID, &rec.Goals, &rec.Assists, &rec.QuartersPlayed, &rec.UpdatedAt,
			&m.TeamID, &m.UserID, &m.GuestName, &m.BackNumber, &m.Status, &nickname,
		); err != nil {
			return nil, err
		}
		m.ID = rec.MemberID
		if m.UserID != nil {
			m.User = &models.User{ID: *m.UserID, Nickname: nickname.String}
		}
		rec.Member = &m
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *postgresRecordRepository) ListByMatch(ctx context.Context, matchID int) ([]models.MatchRecord, error) {
	return r.query(ctx, recordSelect+` WHERE r.match_id = $1 ORDER BY r.goals DESC, r.assists DESC, r.id`, matchID)
}

func (r *postgresRecordRepository) ListByMatches(ctx context.Context, matchIDs []int) ([]models.MatchRecord, error) {
	if len(matchIDs) == 0 {
		return []models.MatchRecord{}, nil
	}
	return r.query(ctx, recordSelect+` WHERE r.match_id = ANY($1) ORDER BY r.match_id, r.id`, int64Array(matchIDs))
}

func (r *postgresRecordRepository) TotalsByUser(ctx context.Context, userID int) ([]UserRecordTotals, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.name, COUNT(r.id), COALESCE(SUM(r.goals), 0), COALESCE(SUM(r.assists), 0),
		       COALESCE(SUM(r.quarters_played), 0)
		FROM team_members tm
		JOIN teams t ON t.id = tm.team_id
		JOIN match_records r ON r.member_id = tm.id
		JOIN matches m ON m.id = r.match_id AND m.status = 'completed'
		WHERE tm.user_id = $1
		GROUP BY t.id, t.name
		ORDER BY t.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make([]UserRecordTotals, 0)
	for rows.Next() {
		var t UserRecordTotals
		if err := rows.Scan(&t.TeamID, &t.TeamName, &t.Appearances, &t.Goals, &t.Assists, &t.QuartersPlayed); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
