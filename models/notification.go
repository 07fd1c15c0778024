package models

import "time"

type NotificationKind string

const (
	NotificationJoinRequest       NotificationKind = "join_request"
	NotificationMemberApproved    NotificationKind = "member_approved"
	NotificationMatchScheduled    NotificationKind = "match_scheduled"
	NotificationMatchReminder     NotificationKind = "match_reminder"
	NotificationRecordMergeOffer  NotificationKind = "record_merge_offer"
	NotificationRecordMergeClaim  NotificationKind = "record_merge_claim"
	NotificationRecordMergeResult NotificationKind = "record_merge_result"
	NotificationTeamMergeRequest  NotificationKind = "team_merge_request"
	NotificationTeamMergeResult   NotificationKind = "team_merge_result"
	NotificationTeamMergeDispute  NotificationKind = "team_merge_disputed"
)

type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Title     string           `json:"title" db:"title"`
	Body      *string          `json:"body,omitempty" db:"body"`
	Link      *string          `json:"link,omitempty" db:"link"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
