package models

import "time"

// Invite - приглашение в лигу: по токену пользователь занимает свободную команду.
type Invite struct {
	ID        int       `json:"id" db:"id"`
	LeagueID  int       `json:"league_id" db:"league_id"`
	TeamID    *int      `json:"team_id,omitempty" db:"team_id"` // конкретная команда или любая свободная
	Token     string    `json:"-" db:"token"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
