package models

// TeamSummary - итоги команды по сыгранным матчам.
type TeamSummary struct {
	Played       int `json:"played"`
	Wins         int `json:"wins"`
	Draws        int `json:"draws"`
	Losses       int `json:"losses"`
	GoalsFor     int `json:"goals_for"`
	GoalsAgainst int `json:"goals_against"`
	CleanSheets  int `json:"clean_sheets"`
}

func (s TeamSummary) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

type PlayerStats struct {
	MemberID       int     `json:"member_id"`
	Name           string  `json:"name"`
	Appearances    int     `json:"appearances"`
	Goals          int     `json:"goals"`
	Assists        int     `json:"assists"`
	QuartersPlayed int     `json:"quarters_played"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type TeamStats struct {
	TeamID     int           `json:"team_id"`
	Season     *int          `json:"season,omitempty"`
	Summary    TeamSummary   `json:"summary"`
	TopScorers []PlayerStats `json:"top_scorers"`
	TopAssists []PlayerStats `json:"top_assists"`
	Players    []PlayerStats `json:"players"`
}

// UserTeamStats - статистика пользователя в одной команде.
type UserTeamStats struct {
	TeamID         int    `json:"team_id"`
	TeamName       string `json:"team_name"`
	Appearances    int    `json:"appearances"`
	Goals          int    `json:"goals"`
	Assists        int    `json:"assists"`
	QuartersPlayed int    `json:"quarters_played"`
}

type UserStats struct {
	UserID         int             `json:"user_id"`
	Appearances    int             `json:"appearances"`
	Goals          int             `json:"goals"`
	Assists        int             `json:"assists"`
	QuartersPlayed int             `json:"quarters_played"`
	Teams          []UserTeamStats `json:"teams"`
}
