package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfferStateTerminal(t *testing.T) {
	assert.False(t, OfferStatePending.Terminal())
	assert.True(t, OfferStateAccepted.Terminal())
	assert.True(t, OfferStateRejected.Terminal())
	assert.True(t, OfferStateCancelled.Terminal())
}

func TestOfferValidateShape(t *testing.T) {
	counterID := 6

	t.Run("transfer without counter is valid", func(t *testing.T) {
		offer := &Offer{Kind: OfferKindTransfer, CashOffered: 100}
		assert.NoError(t, offer.ValidateShape())
	})

	t.Run("swap requires counter player", func(t *testing.T) {
		offer := &Offer{Kind: OfferKindSwap}
		assert.Error(t, offer.ValidateShape())

		offer.CounterPlayerID = &counterID
		assert.NoError(t, offer.ValidateShape())
	})

	t.Run("counter player invalid outside swap", func(t *testing.T) {
		offer := &Offer{Kind: OfferKindLoan, CounterPlayerID: &counterID}
		assert.Error(t, offer.ValidateShape())
	})

	t.Run("negative cash rejected", func(t *testing.T) {
		offer := &Offer{Kind: OfferKindTransfer, CashRequested: -10}
		assert.Error(t, offer.ValidateShape())
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		offer := &Offer{Kind: OfferKind("gift")}
		assert.Error(t, offer.ValidateShape())
	})
}

func TestPlayerFieldingTeamID(t *testing.T) {
	loanTeam := 20
	player := &Player{OwningTeamID: 10}
	assert.Equal(t, 10, player.FieldingTeamID())

	player.OnLoan = true
	player.LoanTeamID = &loanTeam
	assert.Equal(t, 20, player.FieldingTeamID())
}
