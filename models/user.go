package models

import "time"

type User struct {
	ID           int      `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Nickname     string   `json:"nickname"`
	LeagueID     *int     `json:"league_id,omitempty"`
	TeamID       *int     `json:"team_id,omitempty"`
	Role         UserRole `json:"role"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Permissions возвращает разобранные права пользователя.
func (u *User) Permissions() PermissionFlags {
	return PermissionsFor(u.Role)
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
