package models

import "time"

// Player представляет игрока, принадлежащего команде лиги.
//
// Инвариант: LoanTeamID заполнен тогда и только тогда, когда OnLoan=true.
// RosterSlot имеет смысл для команды, за которую игрок реально выступает:
// OwningTeamID, если игрок не в аренде, иначе LoanTeamID.
type Player struct {
	ID             int        `json:"id" db:"id"`
	LeagueID       int        `json:"league_id" db:"league_id"`
	Name           string     `json:"name" db:"name"`
	Roles          RoleSet    `json:"roles" db:"-"`
	RolesRaw       string     `json:"-" db:"roles"` // сырой вид "D;C", разбирается на границе
	OwningTeamID   int        `json:"owning_team_id" db:"owning_team_id"`
	LoanTeamID     *int       `json:"loan_team_id,omitempty" db:"loan_team_id"`
	OnLoan         bool       `json:"on_loan" db:"on_loan"`
	RosterSlot     RosterSlot `json:"roster_slot" db:"roster_slot"`
	RequiresAction bool       `json:"requires_action" db:"requires_action"`
	Salary         int64      `json:"salary" db:"salary"`
	MarketValue    int64      `json:"market_value" db:"market_value"`
	Cantera        bool       `json:"cantera" db:"cantera"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`

	OwningTeam *Team `json:"owning_team,omitempty" db:"-"`
	LoanTeam   *Team `json:"loan_team,omitempty" db:"-"`
}

// FieldingTeamID возвращает команду, за которую игрок выступает сейчас.
func (p *Player) FieldingTeamID() int {
	if p.OnLoan && p.LoanTeamID != nil {
		return *p.LoanTeamID
	}
	return p.OwningTeamID
}
