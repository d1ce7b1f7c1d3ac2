package models

import "time"

// NotificationKind - тип события, порождаемого движком перемещений.
type NotificationKind string

const (
	NotificationOfferCreated   NotificationKind = "OFFER_CREATED"
	NotificationOfferAccepted  NotificationKind = "OFFER_ACCEPTED"
	NotificationOfferRejected  NotificationKind = "OFFER_REJECTED"
	NotificationOfferCancelled NotificationKind = "OFFER_CANCELLED"
	NotificationLoanReturned   NotificationKind = "LOAN_RETURNED"
	NotificationRosterMoved    NotificationKind = "ROSTER_MOVED"
)

// NotificationEvent - событие для доставки получателю вне транзакции.
// Доставка at-least-once; события идемпотентны по ключу
// (offer_id, kind, recipient_user_id).
type NotificationEvent struct {
	ID              int              `json:"id" db:"id"`
	LeagueID        int              `json:"league_id" db:"league_id"`
	OfferID         *int             `json:"offer_id,omitempty" db:"offer_id"`
	PlayerID        *int             `json:"player_id,omitempty" db:"player_id"`
	RecipientUserID int              `json:"recipient_user_id" db:"recipient_user_id"`
	Kind            NotificationKind `json:"kind" db:"kind"`
	Payload         map[string]any   `json:"payload" db:"-"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}
