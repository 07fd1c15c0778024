package models

type Dashboard struct {
	UpcomingMatches       []Match              `json:"upcoming_matches"`
	UnreadNotifications   int                  `json:"unread_notifications"`
	IncomingMergeRequests []RecordMergeRequest `json:"incoming_merge_requests"`
	PendingTeamMerges     []TeamMergeRequest   `json:"pending_team_merges"`
}
