package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fantaleague/league-system/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLeagueID      = 1
	testSenderTeam    = 10
	testRecipientTeam = 20
	testSenderUser    = 100
	testRecipientUser = 200
	testAdminUser     = 999
	testTargetPlayer  = 5
	testCounterPlayer = 6
)

func testRoles(t *testing.T, raw string) models.RoleSet {
	t.Helper()
	set, err := models.ParseRoleSet(raw)
	require.NoError(t, err)
	return set
}

func intPtr(v int) *int { return &v }

type offerFixture struct {
	mock          sqlmock.Sqlmock
	offers        *fakeOfferRepo
	teams         *fakeTeamRepo
	players       *fakePlayerRepo
	leagues       *fakeLeagueRepo
	users         *fakeUserRepo
	notifications *fakeNotificationRepo
	notifier      *fakeNotifier
	service       OfferService
}

func newOfferFixture(t *testing.T) *offerFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	league := &models.League{
		ID:          testLeagueID,
		Name:        "Serie Fantacalcio",
		Modality:    "Classic Serie A",
		Mode:        models.ModeClassic,
		AdminUserID: testAdminUser,
		MaxPlayers:  25,
		RoleLimits: models.RoleLimits{
			Min: map[models.Role]int{},
			Max: map[models.Role]int{
				models.RolePortiere:    3,
				models.RoleDifensore:   8,
				models.RoleCentrocampo: 8,
				models.RoleAttaccante:  6,
			},
		},
		RosterABEnabled: true,
	}

	fx := &offerFixture{
		mock:   mock,
		offers: newFakeOfferRepo(),
		teams: newFakeTeamRepo(
			&models.Team{ID: testSenderTeam, LeagueID: testLeagueID, Name: "Sender FC", OwnerUserID: intPtr(testSenderUser), CashBalance: 1000, MaxPlayers: 25},
			&models.Team{ID: testRecipientTeam, LeagueID: testLeagueID, Name: "Recipient FC", OwnerUserID: intPtr(testRecipientUser), CashBalance: 200, MaxPlayers: 25},
		),
		players: newFakePlayerRepo(
			&models.Player{ID: testTargetPlayer, LeagueID: testLeagueID, Name: "Target", Roles: testRoles(t, "A"), OwningTeamID: testRecipientTeam, RosterSlot: models.RosterSlotA, Salary: 50},
			&models.Player{ID: testCounterPlayer, LeagueID: testLeagueID, Name: "Counter", Roles: testRoles(t, "D"), OwningTeamID: testSenderTeam, RosterSlot: models.RosterSlotA, Salary: 40},
		),
		leagues: newFakeLeagueRepo(league),
		users: newFakeUserRepo(
			&models.User{ID: testSenderUser, Role: models.UserRoleManager, LeagueID: intPtr(testLeagueID), TeamID: intPtr(testSenderTeam)},
			&models.User{ID: testRecipientUser, Role: models.UserRoleManager, LeagueID: intPtr(testLeagueID), TeamID: intPtr(testRecipientTeam)},
			&models.User{ID: testAdminUser, Role: models.UserRoleAdmin, LeagueID: intPtr(testLeagueID)},
		),
		notifications: newFakeNotificationRepo(),
		notifier:      &fakeNotifier{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.service = NewOfferService(db, fx.offers, fx.teams, fx.players, fx.leagues, fx.users, fx.notifications, fx.notifier, logger)
	return fx
}

func (fx *offerFixture) league() *models.League {
	return fx.leagues.leagues[testLeagueID]
}

func (fx *offerFixture) createTransfer(t *testing.T, cashOffered int64) *models.Offer {
	t.Helper()
	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		Kind:            models.OfferKindTransfer,
		CashOffered:     cashOffered,
	}, testSenderUser)
	require.NoError(t, err)
	return result.Offer
}

func TestCreateOffer_ShapeValidation(t *testing.T) {
	fx := newOfferFixture(t)
	ctx := context.Background()

	t.Run("swap requires counter player", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testRecipientTeam,
			TargetPlayerID:  testTargetPlayer,
			Kind:            models.OfferKindSwap,
		}, testSenderUser)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("counter player only valid for swap", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testRecipientTeam,
			TargetPlayerID:  testTargetPlayer,
			CounterPlayerID: intPtr(testCounterPlayer),
			Kind:            models.OfferKindTransfer,
		}, testSenderUser)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("negative cash rejected", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testRecipientTeam,
			TargetPlayerID:  testTargetPlayer,
			Kind:            models.OfferKindTransfer,
			CashOffered:     -1,
		}, testSenderUser)
		assert.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("same team rejected", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testSenderTeam,
			TargetPlayerID:  testTargetPlayer,
			Kind:            models.OfferKindTransfer,
		}, testSenderUser)
		assert.ErrorIs(t, err, ErrSameTeamOffer)
	})

	t.Run("target already owned by sender", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testRecipientTeam,
			TargetPlayerID:  testCounterPlayer,
			Kind:            models.OfferKindTransfer,
		}, testSenderUser)
		assert.ErrorIs(t, err, ErrPlayerAlreadyOwned)
	})

	t.Run("foreign user cannot create for team", func(t *testing.T) {
		_, err := fx.service.CreateOffer(ctx, CreateOfferInput{
			SenderTeamID:    testSenderTeam,
			RecipientTeamID: testRecipientTeam,
			TargetPlayerID:  testTargetPlayer,
			Kind:            models.OfferKindTransfer,
		}, testRecipientUser)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})
}

func TestCreateOffer_PersistsAndNotifies(t *testing.T) {
	fx := newOfferFixture(t)

	offer := fx.createTransfer(t, 500)

	assert.Equal(t, models.OfferStatePending, offer.State)
	assert.Equal(t, testLeagueID, offer.LeagueID)
	assert.NotZero(t, offer.ID)
	// По событию на владельца каждой команды
	assert.Equal(t, 2, fx.notifications.count())
	assert.Equal(t, 2, fx.notifier.delivered())
}

func TestRespondToOffer_AcceptTransfer(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 500)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	result, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	assert.Equal(t, models.OfferStateAccepted, result.Offer.State)
	require.NotNil(t, result.Offer.ResolvedAt)

	// Казна: деньги перетекли без создания и уничтожения.
	assert.Equal(t, int64(500), fx.teams.cash(testSenderTeam))
	assert.Equal(t, int64(700), fx.teams.cash(testRecipientTeam))

	// Игрок сменил владельца и получил слот в новой команде.
	target := fx.players.get(testTargetPlayer)
	assert.Equal(t, testSenderTeam, target.OwningTeamID)
	assert.False(t, target.OnLoan)
	assert.Equal(t, models.RosterSlotA, target.RosterSlot)

	require.NoError(t, fx.mock.ExpectationsWereMet())
}

func TestRespondToOffer_AcceptLoan(t *testing.T) {
	fx := newOfferFixture(t)

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		Kind:            models.OfferKindLoan,
		CashOffered:     100,
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	target := fx.players.get(testTargetPlayer)
	assert.True(t, target.OnLoan)
	require.NotNil(t, target.LoanTeamID)
	assert.Equal(t, testSenderTeam, *target.LoanTeamID)
	// Владение при аренде не меняется
	assert.Equal(t, testRecipientTeam, target.OwningTeamID)
}

func TestRespondToOffer_AcceptSwap(t *testing.T) {
	fx := newOfferFixture(t)

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		CounterPlayerID: intPtr(testCounterPlayer),
		Kind:            models.OfferKindSwap,
		CashOffered:     50,
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	target := fx.players.get(testTargetPlayer)
	counter := fx.players.get(testCounterPlayer)
	assert.Equal(t, testSenderTeam, target.OwningTeamID)
	assert.Equal(t, testRecipientTeam, counter.OwningTeamID)
	assert.Equal(t, int64(950), fx.teams.cash(testSenderTeam))
	assert.Equal(t, int64(250), fx.teams.cash(testRecipientTeam))
}

func TestRespondToOffer_InsufficientFunds(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 1500) // у отправителя только 1000

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// Никаких частичных изменений
	assert.Equal(t, int64(1000), fx.teams.cash(testSenderTeam))
	assert.Equal(t, int64(200), fx.teams.cash(testRecipientTeam))
	target := fx.players.get(testTargetPlayer)
	assert.Equal(t, testRecipientTeam, target.OwningTeamID)

	stored, getErr := fx.offers.GetByID(context.Background(), nil, offer.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.OfferStatePending, stored.State)
}

func TestRespondToOffer_CashRequestedExceedsRecipient(t *testing.T) {
	fx := newOfferFixture(t)

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		Kind:            models.OfferKindTransfer,
		CashRequested:   300, // у получателя только 200
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestRespondToOffer_StaleTarget(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	// Игрок сменил владельца после создания предложения.
	require.NoError(t, fx.players.UpdateOwnership(context.Background(), nil, testTargetPlayer, testSenderTeam))

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)
	assert.ErrorIs(t, err, ErrOfferStaleTarget)
}

func TestRespondToOffer_RoleLimitViolation(t *testing.T) {
	fx := newOfferFixture(t)
	fx.league().RoleLimits.Max[models.RoleAttaccante] = 1

	// У отправителя уже есть нападающий.
	fx.players.players[testCounterPlayer].Roles = testRoles(t, "A")

	offer := fx.createTransfer(t, 100)

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)

	var roleErr *RoleLimitError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, testSenderTeam, roleErr.TeamID)
	assert.Contains(t, roleErr.Violations, "A: 2/1")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRespondToOffer_SwapRecipientRoleLimitViolation(t *testing.T) {
	fx := newOfferFixture(t)
	fx.league().RoleLimits.Max[models.RoleDifensore] = 1

	// У получателя уже есть защитник, встречный игрок станет вторым.
	fx.players.players[9] = &models.Player{ID: 9, LeagueID: testLeagueID, Name: "Terzino", Roles: testRoles(t, "D"), OwningTeamID: testRecipientTeam, RosterSlot: models.RosterSlotA, Salary: 30}

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		CounterPlayerID: intPtr(testCounterPlayer),
		Kind:            models.OfferKindSwap,
		CashOffered:     50,
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectRollback()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)

	var roleErr *RoleLimitError
	require.ErrorAs(t, err, &roleErr)
	assert.Equal(t, testRecipientTeam, roleErr.TeamID)
	assert.Contains(t, roleErr.Violations, "D: 2/1")

	// Никаких частичных изменений
	assert.Equal(t, testRecipientTeam, fx.players.get(testTargetPlayer).OwningTeamID)
	assert.Equal(t, testSenderTeam, fx.players.get(testCounterPlayer).OwningTeamID)
	assert.Equal(t, int64(1000), fx.teams.cash(testSenderTeam))
	assert.Equal(t, int64(200), fx.teams.cash(testRecipientTeam))

	stored, getErr := fx.offers.GetByID(context.Background(), nil, result.Offer.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.OfferStatePending, stored.State)
}

func TestRespondToOffer_ArrivalOverflowsToRosterB(t *testing.T) {
	fx := newOfferFixture(t)

	// Rosa A отправителя заполнена до предела.
	fx.teams.teams[testSenderTeam].MaxPlayers = 1

	offer := fx.createTransfer(t, 100)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	target := fx.players.get(testTargetPlayer)
	assert.Equal(t, models.RosterSlotB, target.RosterSlot)
	assert.False(t, target.RequiresAction)
}

func TestRespondToOffer_LoanArrivalOverflowsToRosterB(t *testing.T) {
	fx := newOfferFixture(t)

	// Rosa A отправителя заполнена до предела.
	fx.teams.teams[testSenderTeam].MaxPlayers = 1

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		Kind:            models.OfferKindLoan,
		CashOffered:     100,
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	target := fx.players.get(testTargetPlayer)
	assert.True(t, target.OnLoan)
	require.NotNil(t, target.LoanTeamID)
	assert.Equal(t, testSenderTeam, *target.LoanTeamID)
	assert.Equal(t, models.RosterSlotB, target.RosterSlot)
	assert.False(t, target.RequiresAction)
}

func TestRespondToOffer_SwapAllocatesCounterSlot(t *testing.T) {
	fx := newOfferFixture(t)

	// Rosa A получателя остаётся заполненной и после обмена.
	fx.teams.teams[testRecipientTeam].MaxPlayers = 1
	fx.players.players[9] = &models.Player{ID: 9, LeagueID: testLeagueID, Name: "Regista", Roles: testRoles(t, "C"), OwningTeamID: testRecipientTeam, RosterSlot: models.RosterSlotA, Salary: 30}

	result, err := fx.service.CreateOffer(context.Background(), CreateOfferInput{
		SenderTeamID:    testSenderTeam,
		RecipientTeamID: testRecipientTeam,
		TargetPlayerID:  testTargetPlayer,
		CounterPlayerID: intPtr(testCounterPlayer),
		Kind:            models.OfferKindSwap,
		CashOffered:     50,
	}, testSenderUser)
	require.NoError(t, err)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	_, err = fx.service.RespondToOffer(context.Background(), result.Offer.ID, DecisionAccept, testRecipientUser)
	require.NoError(t, err)

	// У отправителя место в Rosa A есть, у получателя - нет.
	target := fx.players.get(testTargetPlayer)
	counter := fx.players.get(testCounterPlayer)
	assert.Equal(t, models.RosterSlotA, target.RosterSlot)
	assert.Equal(t, models.RosterSlotB, counter.RosterSlot)
	assert.False(t, counter.RequiresAction)
}

func TestRespondToOffer_AlreadyResolved(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()
	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionReject, testRecipientUser)
	require.NoError(t, err)

	// Повторный ответ на терминальное предложение.
	_, err = fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testRecipientUser)
	assert.ErrorIs(t, err, ErrOfferAlreadyResolved)
}

func TestRespondToOffer_OnlyRecipientMayRespond(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	_, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionAccept, testSenderUser)
	assert.ErrorIs(t, err, ErrNotOfferRecipient)
}

func TestRespondToOffer_AdminMayRespondForTeam(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	fx.mock.ExpectBegin()
	fx.mock.ExpectCommit()

	result, err := fx.service.RespondToOffer(context.Background(), offer.ID, DecisionReject, testAdminUser)
	require.NoError(t, err)
	assert.Equal(t, models.OfferStateRejected, result.Offer.State)
}

func TestCancelOffer(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	t.Run("recipient cannot cancel", func(t *testing.T) {
		_, err := fx.service.CancelOffer(context.Background(), offer.ID, testRecipientUser)
		assert.ErrorIs(t, err, ErrNotOfferSender)
	})

	t.Run("sender cancels pending offer", func(t *testing.T) {
		fx.mock.ExpectBegin()
		fx.mock.ExpectCommit()

		result, err := fx.service.CancelOffer(context.Background(), offer.ID, testSenderUser)
		require.NoError(t, err)
		assert.Equal(t, models.OfferStateCancelled, result.Offer.State)
	})

	t.Run("cancel after resolution fails", func(t *testing.T) {
		_, err := fx.service.CancelOffer(context.Background(), offer.ID, testSenderUser)
		assert.ErrorIs(t, err, ErrOfferAlreadyResolved)
	})
}

func TestGetOfferDetails(t *testing.T) {
	fx := newOfferFixture(t)
	offer := fx.createTransfer(t, 100)

	got, err := fx.service.GetOfferDetails(context.Background(), offer.ID)
	require.NoError(t, err)

	require.NotNil(t, got.SenderTeam)
	require.NotNil(t, got.RecipientTeam)
	require.NotNil(t, got.TargetPlayer)
	assert.Equal(t, testSenderTeam, got.SenderTeam.ID)
	assert.Equal(t, testTargetPlayer, got.TargetPlayer.ID)
}

func TestPlanSettlement(t *testing.T) {
	offer := &models.Offer{CashOffered: 300, CashRequested: 50}

	plan, err := planSettlement(offer, 1000, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(750), plan.SenderBalance)
	assert.Equal(t, int64(450), plan.RecipientBalance)
	// Сумма балансов неизменна
	assert.Equal(t, int64(1200), plan.SenderBalance+plan.RecipientBalance)

	_, err = planSettlement(&models.Offer{CashOffered: 2000}, 1000, 200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = planSettlement(&models.Offer{CashRequested: 500}, 1000, 200)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}
