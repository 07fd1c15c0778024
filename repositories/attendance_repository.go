package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/match-archive/models"
)

var ErrAttendanceMemberInvalid = errors.New("attendance member invalid")

// AttendanceCount - число матчей, на которые участник отметился "attending".
type AttendanceCount struct {
	MemberID  int
	Attending int
}

type AttendanceRepository interface {
	Upsert(ctx context.Context, attendance *models.Attendance) error
	ListByMatch(ctx context.Context, matchID int) ([]models.Attendance, error)
	ListAttendingUserIDs(ctx context.Context, matchID int) ([]int, error)
	// CountAttendingByTeam считает отметки "attending" по сыгранным матчам из matchIDs.
	CountAttendingByTeam(ctx context.Context, teamID int, matchIDs []int) ([]AttendanceCount, error)
}

type postgresAttendanceRepository struct {
	db *sql.DB
}

func NewPostgresAttendanceRepository(db *sql.DB) AttendanceRepository {
	return &postgresAttendanceRepository{db: db}
}

func (r *postgresAttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	query := `
		INSERT INTO attendances (match_id, member_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (match_id, member_id) DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, attendance.MatchID, attendance.MemberID, attendance.Status).
		Scan(&attendance.UpdatedAt)
	if err != nil {
		return mapPQError(err, constraintErrors{
			"attendances_member_id_fkey": ErrAttendanceMemberInvalid,
			"attendances_match_id_fkey":  ErrMatchNotFound,
		})
	}
	return nil
}

func (r *postgresAttendanceRepository) ListByMatch(ctx context.Context, matchID int) ([]models.Attendance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT match_id, member_id, status, updated_at
		FROM attendances WHERE match_id = $1
		ORDER BY member_id`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]models.Attendance, 0)
	for rows.Next() {
		var a models.Attendance
		if err := rows.Scan(&a.MatchID, &a.MemberID, &a.Status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *postgresAttendanceRepository) ListAttendingUserIDs(ctx context.Context, matchID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tm.user_id
		FROM attendances a
		JOIN team_members tm ON tm.id = a.member_id
		WHERE a.match_id = $1 AND a.status = 'attending' AND tm.status = 'active' AND tm.user_id IS NOT NULL
		ORDER BY tm.user_id`, matchID)
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

func (r *postgresAttendanceRepository) CountAttendingByTeam(ctx context.Context, teamID int, matchIDs []int) ([]AttendanceCount, error) {
	counts := make([]AttendanceCount, 0)
	if len(matchIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT a.member_id, COUNT(*)
		FROM attendances a
		JOIN team_members tm ON tm.id = a.member_id
		WHERE tm.team_id = $1 AND a.status = 'attending' AND a.match_id = ANY($2)
		GROUP BY a.member_id`, teamID, int64Array(matchIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c AttendanceCount
		if err := rows.Scan(&c.MemberID, &c.Attending); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
