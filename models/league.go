package models

import "time"

// RoleLimits - минимальное и максимальное число игроков на каждую позицию.
// Действует только в Classic-лигах.
type RoleLimits struct {
	Min map[Role]int `json:"min"`
	Max map[Role]int `json:"max"`
}

// League представляет фэнтези-лигу.
type League struct {
	ID              int        `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	Modality        string     `json:"modality" db:"modality"`
	Mode            LeagueMode `json:"mode" db:"-"` // разрешается из Modality при загрузке
	AdminUserID     int        `json:"admin_user_id" db:"admin_user_id"`
	MaxPlayers      int        `json:"max_players" db:"max_players"`
	RosterABEnabled bool       `json:"roster_ab_enabled" db:"roster_ab_enabled"`
	CanteraEnabled  bool       `json:"cantera_enabled" db:"cantera_enabled"`
	RoleLimits      RoleLimits `json:"role_limits" db:"-"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`

	Teams []Team `json:"teams,omitempty" db:"-"`
}

// LeagueConfig - срез конфигурации лиги, который нужен движку перемещений.
type LeagueConfig struct {
	LeagueID        int
	Mode            LeagueMode
	RoleLimits      RoleLimits
	RosterABEnabled bool
	CanteraEnabled  bool
	MaxPlayers      int
}

// Config возвращает конфигурацию движка для лиги.
func (l *League) Config() LeagueConfig {
	return LeagueConfig{
		LeagueID:        l.ID,
		Mode:            l.Mode,
		RoleLimits:      l.RoleLimits,
		RosterABEnabled: l.RosterABEnabled,
		CanteraEnabled:  l.CanteraEnabled,
		MaxPlayers:      l.MaxPlayers,
	}
}
