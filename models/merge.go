package models

import "time"

type MergeDirection string

const (
	// MergeDirectionOffer - менеджер предлагает пользователю записи гостя.
	MergeDirectionOffer MergeDirection = "offer"
	// MergeDirectionClaim - пользователь заявляет, что гость - это он.
	MergeDirectionClaim MergeDirection = "claim"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusDisputed RequestStatus = "disputed"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusCanceled RequestStatus = "canceled"
)

type RecordMergeRequest struct {
	ID            int            `json:"id" db:"id"`
	TeamID        int            `json:"team_id" db:"team_id"`
	GuestMemberID int            `json:"guest_member_id" db:"guest_member_id"`
	TargetUserID  int            `json:"target_user_id" db:"target_user_id"`
	RequestedBy   int            `json:"requested_by" db:"requested_by"`
	Direction     MergeDirection `json:"direction" db:"direction"`
	Status        RequestStatus  `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
}

type TeamMergeRequest struct {
	ID              int           `json:"id" db:"id"`
	RequesterTeamID int           `json:"requester_team_id" db:"requester_team_id"`
	TargetTeamID    int           `json:"target_team_id" db:"target_team_id"`
	RequestedBy     int           `json:"requested_by" db:"requested_by"`
	Status          RequestStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}

// InvolvesTeam сообщает, является ли команда стороной запроса.
func (r *TeamMergeRequest) InvolvesTeam(teamID int) bool {
	return r.RequesterTeamID == teamID || r.TargetTeamID == teamID
}

type ScoreProposal struct {
	OurScore      int `json:"our_score"`
	OpponentScore int `json:"opponent_score"`
}

type TeamMergeDispute struct {
	ID                int            `json:"id" db:"id"`
	RequestID         int            `json:"request_id" db:"request_id"`
	RequesterMatchID  int            `json:"requester_match_id" db:"requester_match_id"`
	TargetMatchID     int            `json:"target_match_id" db:"target_match_id"`
	RequesterProposal *ScoreProposal `json:"requester_proposal,omitempty" db:"-"`
	TargetProposal    *ScoreProposal `json:"target_proposal,omitempty" db:"-"`
	Resolved          bool           `json:"resolved" db:"resolved"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	ResolvedAt        *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
}

// MatchPair - кандидат на связывание двух независимо записанных матчей.
type MatchPair struct {
	RequesterMatch Match `json:"requester_match"`
	TargetMatch    Match `json:"target_match"`
	Conflict       bool  `json:"conflict"`
}

type TeamMergePreview struct {
	Request        *TeamMergeRequest `json:"request"`
	Pairs          []MatchPair       `json:"pairs"`
	ConflictCount  int               `json:"conflict_count"`
	UnpairedCounts map[string]int    `json:"unpaired_counts"`
}
