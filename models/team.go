package models

import "time"

type Team struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Region      *string   `json:"region,omitempty" db:"region"`
	OwnerID     int       `json:"owner_id" db:"owner_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	EmblemKey *string `json:"-" db:"emblem_key"`
	EmblemURL *string `json:"emblem_url,omitempty" db:"-"`

	MemberCount  int         `json:"member_count,omitempty" db:"-"`
	MyMembership *TeamMember `json:"my_membership,omitempty" db:"-"`
}

type MemberRole string

const (
	MemberRoleOwner   MemberRole = "OWNER"
	MemberRoleManager MemberRole = "MANAGER"
	MemberRoleMember  MemberRole = "MEMBER"
)

type MemberStatus string

const (
	MemberStatusPending MemberStatus = "pending"
	MemberStatusActive  MemberStatus = "active"
	MemberStatusLeft    MemberStatus = "left"
	MemberStatusMerged  MemberStatus = "merged"
)

// TeamMember - запись состава. Гость не привязан к пользователю (UserID == nil).
type TeamMember struct {
	ID                 int          `json:"id" db:"id"`
	TeamID             int          `json:"team_id" db:"team_id"`
	UserID             *int         `json:"user_id,omitempty" db:"user_id"`
	GuestName          *string      `json:"guest_name,omitempty" db:"guest_name"`
	Role               MemberRole   `json:"role" db:"role"`
	Status             MemberStatus `json:"status" db:"status"`
	BackNumber         *int         `json:"back_number,omitempty" db:"back_number"`
	Position           *string      `json:"position,omitempty" db:"position"`
	MergedIntoMemberID *int         `json:"merged_into_member_id,omitempty" db:"merged_into_member_id"`
	JoinedAt           time.Time    `json:"joined_at" db:"joined_at"`

	User *User `json:"user,omitempty" db:"-"`
}

func (m *TeamMember) IsGuest() bool {
	return m.UserID == nil
}

func (m *TeamMember) IsActive() bool {
	return m.Status == MemberStatusActive
}

// CanManage - активный OWNER или MANAGER.
func (m *TeamMember) CanManage() bool {
	return m.IsActive() && (m.Role == MemberRoleOwner || m.Role == MemberRoleManager)
}

func (m *TeamMember) DisplayName() string {
	if m.User != nil && m.User.Nickname != "" {
		return m.User.Nickname
	}
	if m.GuestName != nil && *m.GuestName != "" {
		return *m.GuestName
	}
	return "Unknown player"
}

type Venue struct {
	ID        int       `json:"id" db:"id"`
	TeamID    int       `json:"team_id" db:"team_id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address,omitempty" db:"address"`
	MapURL    *string   `json:"map_url,omitempty" db:"map_url"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
