package models

import "time"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID             int       `json:"id" db:"id"`
	Email          string    `json:"email,omitempty" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Nickname       string    `json:"nickname" db:"nickname"`
	FullName       *string   `json:"full_name,omitempty" db:"full_name"`
	Position       *string   `json:"position,omitempty" db:"position"`
	BirthYear      *int      `json:"birth_year,omitempty" db:"birth_year"`
	Role           UserRole  `json:"role" db:"role"`
	Onboarded      bool      `json:"onboarded" db:"onboarded"`
	EmailConfirmed bool      `json:"email_confirmed" db:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	EmailConfirmationToken *string    `json:"-" db:"email_confirmation_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`
}

// PublicProfile убирает поля, которые видит только сам пользователь.
func (u User) PublicProfile() User {
	u.Email = ""
	u.PasswordHash = ""
	u.EmailConfirmationToken = nil
	u.PasswordResetToken = nil
	u.PasswordResetExpiresAt = nil
	return u
}

// Positions - допустимые игровые позиции.
var Positions = []string{"GK", "DF", "MF", "FW"}

func ValidPosition(p string) bool {
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}
