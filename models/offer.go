package models

import (
	"fmt"
	"time"
)

// OfferKind - тип предложения. От него зависит, какие поля имеют смысл:
// CounterPlayerID заполняется только для swap.
type OfferKind string

const (
	OfferKindTransfer OfferKind = "transfer"
	OfferKindLoan     OfferKind = "loan"
	OfferKindSwap     OfferKind = "swap"
)

func (k OfferKind) Valid() bool {
	switch k {
	case OfferKindTransfer, OfferKindLoan, OfferKindSwap:
		return true
	}
	return false
}

// OfferState представляет состояния предложения, соответствующие ENUM в БД.
// Переходы монотонны: pending -> {accepted, rejected, cancelled}.
// Терминальные состояния неизменяемы.
type OfferState string

const (
	OfferStatePending   OfferState = "pending"
	OfferStateAccepted  OfferState = "accepted"
	OfferStateRejected  OfferState = "rejected"
	OfferStateCancelled OfferState = "cancelled"
)

func (s OfferState) Terminal() bool {
	return s == OfferStateAccepted || s == OfferStateRejected || s == OfferStateCancelled
}

// Offer представляет предложение обмена/трансфера/аренды между командами.
// TargetPlayerID принадлежит получателю, CounterPlayerID (только swap) - отправителю.
type Offer struct {
	ID              int        `json:"id" db:"id"`
	LeagueID        int        `json:"league_id" db:"league_id"`
	SenderTeamID    int        `json:"sender_team_id" db:"sender_team_id"`
	RecipientTeamID int        `json:"recipient_team_id" db:"recipient_team_id"`
	TargetPlayerID  int        `json:"target_player_id" db:"target_player_id"`
	CounterPlayerID *int       `json:"counter_player_id,omitempty" db:"counter_player_id"`
	Kind            OfferKind  `json:"kind" db:"kind"`
	CashOffered     int64      `json:"cash_offered" db:"cash_offered"`
	CashRequested   int64      `json:"cash_requested" db:"cash_requested"`
	State           OfferState `json:"state" db:"state"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`

	SenderTeam    *Team   `json:"sender_team,omitempty" db:"-"`
	RecipientTeam *Team   `json:"recipient_team,omitempty" db:"-"`
	TargetPlayer  *Player `json:"target_player,omitempty" db:"-"`
	CounterPlayer *Player `json:"counter_player,omitempty" db:"-"`
}

// ValidateShape проверяет согласованность полей с типом предложения.
func (o *Offer) ValidateShape() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("unknown offer kind %q", o.Kind)
	}
	if o.Kind == OfferKindSwap && o.CounterPlayerID == nil {
		return fmt.Errorf("swap offer requires a counter player")
	}
	if o.Kind != OfferKindSwap && o.CounterPlayerID != nil {
		return fmt.Errorf("counter player is only valid for swap offers")
	}
	if o.CashOffered < 0 || o.CashRequested < 0 {
		return fmt.Errorf("cash amounts must be non-negative")
	}
	return nil
}
