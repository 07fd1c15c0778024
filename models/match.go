package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCanceled  MatchStatus = "canceled"
)

const DefaultQuarters = 4

type Match struct {
	ID             int         `json:"id" db:"id"`
	TeamID         int         `json:"team_id" db:"team_id"`
	OpponentName   string      `json:"opponent_name" db:"opponent_name"`
	OpponentTeamID *int        `json:"opponent_team_id,omitempty" db:"opponent_team_id"`
	VenueID        *int        `json:"venue_id,omitempty" db:"venue_id"`
	MatchAt        time.Time   `json:"match_at" db:"match_at"`
	Quarters       int         `json:"quarters" db:"quarters"`
	Status         MatchStatus `json:"status" db:"status"`
	OurScore       *int        `json:"our_score,omitempty" db:"our_score"`
	OpponentScore  *int        `json:"opponent_score,omitempty" db:"opponent_score"`
	LinkedMatchID  *int        `json:"linked_match_id,omitempty" db:"linked_match_id"`
	Notes          *string     `json:"notes,omitempty" db:"notes"`
	RemindedAt     *time.Time  `json:"-" db:"reminded_at"`
	CreatedBy      *int        `json:"created_by,omitempty" db:"created_by"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`

	Venue *Venue `json:"venue,omitempty" db:"-"`
}

// Result возвращает "W", "D" или "L" для сыгранного матча и "" иначе.
func (m *Match) Result() string {
	if m.Status != MatchStatusCompleted || m.OurScore == nil || m.OpponentScore == nil {
		return ""
	}
	switch {
	case *m.OurScore > *m.OpponentScore:
		return "W"
	case *m.OurScore < *m.OpponentScore:
		return "L"
	default:
		return "D"
	}
}

type AttendanceStatus string

const (
	AttendanceAttending AttendanceStatus = "attending"
	AttendanceAbsent    AttendanceStatus = "absent"
	AttendanceUndecided AttendanceStatus = "undecided"
)

type Attendance struct {
	MatchID   int              `json:"match_id" db:"match_id"`
	MemberID  int              `json:"member_id" db:"member_id"`
	Status    AttendanceStatus `json:"status" db:"status"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`

	Member *TeamMember `json:"member,omitempty" db:"-"`
}

// MatchRecord - личная статистика игрока за матч.
type MatchRecord struct {
	ID             int       `json:"id" db:"id"`
	MatchID        int       `json:"match_id" db:"match_id"`
	MemberID       int       `json:"member_id" db:"member_id"`
	Goals          int       `json:"goals" db:"goals"`
	Assists        int       `json:"assists" db:"assists"`
	QuartersPlayed int       `json:"quarters_played" db:"quarters_played"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Member *TeamMember `json:"member,omitempty" db:"-"`
}
