package models

import "time"

// Team представляет команду (фэнтези-клуб) внутри лиги.
// CashBalance ("casse societarie") хранится в целых FM и меняется
// только через расчёт принятого предложения или админские действия.
type Team struct {
	ID          int       `json:"id" db:"id"`
	LeagueID    int       `json:"league_id" db:"league_id"`
	Name        string    `json:"name" db:"name"`
	OwnerUserID *int      `json:"owner_user_id,omitempty" db:"owner_user_id"`
	CashBalance int64     `json:"cash_balance" db:"cash_balance"`
	MaxPlayers  int       `json:"max_players" db:"max_players"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`

	League  *League  `json:"league,omitempty" db:"-"`
	Players []Player `json:"players,omitempty" db:"-"`

	CrestKey *string `json:"-" db:"crest_key"`
	CrestURL *string `json:"crest_url,omitempty" db:"-"`
}
