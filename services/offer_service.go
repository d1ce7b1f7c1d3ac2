package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
	"github.com/fantaleague/league-system/rules"
	"golang.org/x/sync/errgroup"
)

// OfferDecision - ответ получателя на предложение.
type OfferDecision string

const (
	DecisionAccept OfferDecision = "accept"
	DecisionReject OfferDecision = "reject"
)

// Notifier доставляет события движка подписчикам лиги (out-of-band).
type Notifier interface {
	NotifyLeague(leagueID int, event *models.NotificationEvent)
}

type CreateOfferInput struct {
	SenderTeamID    int              `json:"sender_team_id"`
	RecipientTeamID int              `json:"recipient_team_id"`
	TargetPlayerID  int              `json:"target_player_id"`
	CounterPlayerID *int             `json:"counter_player_id,omitempty"`
	Kind            models.OfferKind `json:"kind"`
	CashOffered     int64            `json:"cash_offered"`
	CashRequested   int64            `json:"cash_requested"`
}

// OfferResult - итог операции над предложением вместе с событиями,
// которые должен доставить эмиттер уведомлений.
type OfferResult struct {
	Offer  *models.Offer               `json:"offer"`
	Events []*models.NotificationEvent `json:"events,omitempty"`
}

type OfferService interface {
	CreateOffer(ctx context.Context, input CreateOfferInput, actorUserID int) (*OfferResult, error)
	RespondToOffer(ctx context.Context, offerID int, decision OfferDecision, actorUserID int) (*OfferResult, error)
	CancelOffer(ctx context.Context, offerID int, actorUserID int) (*OfferResult, error)
	GetOfferDetails(ctx context.Context, offerID int) (*models.Offer, error)
	ListTeamOffers(ctx context.Context, teamID int) ([]*models.Offer, error)
}

type offerService struct {
	db               *sql.DB
	offerRepo        repositories.OfferRepository
	teamRepo         repositories.TeamRepository
	playerRepo       repositories.PlayerRepository
	leagueRepo       repositories.LeagueRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	notifier         Notifier
	logger           *slog.Logger
}

func NewOfferService(
	db *sql.DB,
	offerRepo repositories.OfferRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	leagueRepo repositories.LeagueRepository,
	userRepo repositories.UserRepository,
	notificationRepo repositories.NotificationRepository,
	notifier Notifier,
	logger *slog.Logger,
) OfferService {
	return &offerService{
		db:               db,
		offerRepo:        offerRepo,
		teamRepo:         teamRepo,
		playerRepo:       playerRepo,
		leagueRepo:       leagueRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		notifier:         notifier,
		logger:           logger,
	}
}

func (s *offerService) CreateOffer(ctx context.Context, input CreateOfferInput, actorUserID int) (*OfferResult, error) {
	offer := &models.Offer{
		SenderTeamID:    input.SenderTeamID,
		RecipientTeamID: input.RecipientTeamID,
		TargetPlayerID:  input.TargetPlayerID,
		CounterPlayerID: input.CounterPlayerID,
		Kind:            input.Kind,
		CashOffered:     input.CashOffered,
		CashRequested:   input.CashRequested,
		State:           models.OfferStatePending,
	}

	if err := offer.ValidateShape(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if offer.SenderTeamID == offer.RecipientTeamID {
		return nil, ErrSameTeamOffer
	}

	sender, err := s.getTeam(ctx, offer.SenderTeamID)
	if err != nil {
		return nil, err
	}
	recipient, err := s.getTeam(ctx, offer.RecipientTeamID)
	if err != nil {
		return nil, err
	}
	if sender.LeagueID != recipient.LeagueID {
		return nil, fmt.Errorf("%w: teams belong to different leagues", ErrValidationFailed)
	}
	offer.LeagueID = sender.LeagueID

	if err := s.authorizeTeamAction(ctx, actorUserID, sender); err != nil {
		return nil, err
	}

	target, err := s.getPlayer(ctx, nil, offer.TargetPlayerID)
	if err != nil {
		return nil, err
	}
	if target.OnLoan {
		return nil, ErrPlayerAlreadyOnLoan
	}
	if target.OwningTeamID == offer.SenderTeamID {
		return nil, ErrPlayerAlreadyOwned
	}
	if target.OwningTeamID != offer.RecipientTeamID {
		return nil, fmt.Errorf("%w: target player is not owned by the recipient team", ErrValidationFailed)
	}

	if offer.Kind == models.OfferKindSwap {
		counter, counterErr := s.getPlayer(ctx, nil, *offer.CounterPlayerID)
		if counterErr != nil {
			return nil, counterErr
		}
		if counter.OwningTeamID != offer.SenderTeamID {
			return nil, ErrCounterPlayerInvalid
		}
		if counter.OnLoan {
			return nil, ErrPlayerAlreadyOnLoan
		}
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		if errors.Is(err, repositories.ErrOfferInvalidRef) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	events := s.offerEvents(ctx, nil, offer, sender, recipient, models.NotificationOfferCreated)
	s.broadcast(offer.LeagueID, events)

	s.logger.Info("offer created",
		slog.Int("offer_id", offer.ID),
		slog.String("kind", string(offer.Kind)),
		slog.Int("sender_team_id", offer.SenderTeamID),
		slog.Int("recipient_team_id", offer.RecipientTeamID),
	)
	return &OfferResult{Offer: offer, Events: events}, nil
}

func (s *offerService) RespondToOffer(ctx context.Context, offerID int, decision OfferDecision, actorUserID int) (*OfferResult, error) {
	if decision != DecisionAccept && decision != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrValidationFailed, decision)
	}

	offer, err := s.getOffer(ctx, nil, offerID)
	if err != nil {
		return nil, err
	}
	if offer.State.Terminal() {
		return nil, ErrOfferAlreadyResolved
	}

	recipient, err := s.getTeam(ctx, offer.RecipientTeamID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTeamAction(ctx, actorUserID, recipient); err != nil {
		if errors.Is(err, ErrForbiddenOperation) {
			return nil, ErrNotOfferRecipient
		}
		return nil, err
	}

	if decision == DecisionReject {
		return s.rejectOffer(ctx, offer)
	}
	return s.acceptOffer(ctx, offer)
}

func (s *offerService) rejectOffer(ctx context.Context, offer *models.Offer) (*OfferResult, error) {
	var events []*models.NotificationEvent

	err := repositories.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		now := time.Now()
		if resolveErr := s.offerRepo.ResolveIfPending(ctx, tx, offer.ID, models.OfferStateRejected, now); resolveErr != nil {
			if errors.Is(resolveErr, repositories.ErrOfferStateConflict) {
				return ErrOfferAlreadyResolved
			}
			return resolveErr
		}
		offer.State = models.OfferStateRejected
		offer.ResolvedAt = &now

		sender, senderErr := s.teamRepo.GetByID(ctx, tx, offer.SenderTeamID)
		if senderErr != nil {
			return senderErr
		}
		events = s.offerEvents(ctx, tx, offer, sender, nil, models.NotificationOfferRejected)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(offer.LeagueID, events)
	s.logger.Info("offer rejected", slog.Int("offer_id", offer.ID))
	return &OfferResult{Offer: offer, Events: events}, nil
}

// acceptOffer выполняет accept-пайплайн в одной транзакции:
// блокировка строк -> stale-проверки -> лимиты ролей -> достаточность средств ->
// расчёт казны и смена владения -> распределение Rosa A/B -> смена состояния.
// Любая неудача до записи не оставляет частичных изменений.
func (s *offerService) acceptOffer(ctx context.Context, offer *models.Offer) (*OfferResult, error) {
	var events []*models.NotificationEvent
	var accepted *models.Offer

	err := repositories.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		// Блокируем строку предложения первой: конкурентный accept на том же
		// предложении упрётся сюда и увидит не-pending состояние.
		locked, err := s.offerRepo.GetByIDForUpdate(ctx, tx, offer.ID)
		if err != nil {
			return err
		}
		if locked.State != models.OfferStatePending {
			return ErrOfferAlreadyResolved
		}
		offer = locked

		// Команды и игроки блокируются в порядке возрастания id,
		// чтобы встречные предложения не взаимоблокировались.
		sender, recipient, err := s.lockTeams(ctx, tx, offer.SenderTeamID, offer.RecipientTeamID)
		if err != nil {
			return err
		}

		target, counter, err := s.lockPlayers(ctx, tx, offer)
		if err != nil {
			return err
		}

		// Шаг 1: защита от устаревшего предложения.
		if target.OwningTeamID != offer.RecipientTeamID || target.OnLoan {
			return ErrOfferStaleTarget
		}
		if counter != nil && (counter.OwningTeamID != offer.SenderTeamID || counter.OnLoan) {
			return ErrOfferStaleTarget
		}

		cfg, err := s.leagueRepo.GetConfig(ctx, offer.LeagueID)
		if err != nil {
			return err
		}

		// Шаг 2: лимиты ролей. Целевой игрок приходит в команду отправителя;
		// при обмене встречный игрок уходит к получателю, и проверяются оба состава.
		if err := s.validateSquads(ctx, tx, *cfg, sender, recipient, target, counter); err != nil {
			return err
		}

		// Шаги 3-4: расчёт казны и смена владения/аренды.
		if err := s.settle(ctx, tx, offer, sender, recipient, target, counter); err != nil {
			return err
		}

		// Шаг 5: распределение Rosa A/B для игроков, сменивших команду.
		if err := s.allocateArrivals(ctx, tx, *cfg, offer, sender, recipient, target, counter); err != nil {
			return err
		}

		now := time.Now()
		if err := s.offerRepo.ResolveIfPending(ctx, tx, offer.ID, models.OfferStateAccepted, now); err != nil {
			if errors.Is(err, repositories.ErrOfferStateConflict) {
				return ErrOfferAlreadyResolved
			}
			return err
		}
		offer.State = models.OfferStateAccepted
		offer.ResolvedAt = &now
		accepted = offer

		events = s.offerEvents(ctx, tx, offer, sender, recipient, models.NotificationOfferAccepted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(accepted.LeagueID, events)
	s.logger.Info("offer accepted",
		slog.Int("offer_id", accepted.ID),
		slog.String("kind", string(accepted.Kind)),
	)
	return &OfferResult{Offer: accepted, Events: events}, nil
}

func (s *offerService) CancelOffer(ctx context.Context, offerID int, actorUserID int) (*OfferResult, error) {
	offer, err := s.getOffer(ctx, nil, offerID)
	if err != nil {
		return nil, err
	}
	if offer.State.Terminal() {
		return nil, ErrOfferAlreadyResolved
	}

	sender, err := s.getTeam(ctx, offer.SenderTeamID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTeamAction(ctx, actorUserID, sender); err != nil {
		if errors.Is(err, ErrForbiddenOperation) {
			return nil, ErrNotOfferSender
		}
		return nil, err
	}

	var events []*models.NotificationEvent
	err = repositories.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		now := time.Now()
		if resolveErr := s.offerRepo.ResolveIfPending(ctx, tx, offer.ID, models.OfferStateCancelled, now); resolveErr != nil {
			if errors.Is(resolveErr, repositories.ErrOfferStateConflict) {
				return ErrOfferAlreadyResolved
			}
			return resolveErr
		}
		offer.State = models.OfferStateCancelled
		offer.ResolvedAt = &now

		recipient, recipientErr := s.teamRepo.GetByID(ctx, tx, offer.RecipientTeamID)
		if recipientErr != nil {
			return recipientErr
		}
		events = s.offerEvents(ctx, tx, offer, nil, recipient, models.NotificationOfferCancelled)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(offer.LeagueID, events)
	s.logger.Info("offer cancelled", slog.Int("offer_id", offer.ID))
	return &OfferResult{Offer: offer, Events: events}, nil
}

// GetOfferDetails возвращает предложение с подгруженными командами и игроками.
func (s *offerService) GetOfferDetails(ctx context.Context, offerID int) (*models.Offer, error) {
	offer, err := s.getOffer(ctx, nil, offerID)
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		team, teamErr := s.getTeam(gCtx, offer.SenderTeamID)
		if teamErr != nil {
			return teamErr
		}
		offer.SenderTeam = team
		return nil
	})
	g.Go(func() error {
		team, teamErr := s.getTeam(gCtx, offer.RecipientTeamID)
		if teamErr != nil {
			return teamErr
		}
		offer.RecipientTeam = team
		return nil
	})
	g.Go(func() error {
		player, playerErr := s.getPlayer(gCtx, nil, offer.TargetPlayerID)
		if playerErr != nil {
			return playerErr
		}
		offer.TargetPlayer = player
		return nil
	})
	if offer.CounterPlayerID != nil {
		counterID := *offer.CounterPlayerID
		g.Go(func() error {
			player, playerErr := s.getPlayer(gCtx, nil, counterID)
			if playerErr != nil {
				return playerErr
			}
			offer.CounterPlayer = player
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return offer, nil
}

func (s *offerService) ListTeamOffers(ctx context.Context, teamID int) ([]*models.Offer, error) {
	offers, err := s.offerRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers for team %d: %w", teamID, err)
	}
	return offers, nil
}

func (s *offerService) lockTeams(ctx context.Context, tx *sql.Tx, senderID, recipientID int) (sender, recipient *models.Team, err error) {
	firstID, secondID := senderID, recipientID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, err := s.teamRepo.GetByIDForUpdate(ctx, tx, firstID)
	if err != nil {
		return nil, nil, s.mapTeamErr(err)
	}
	second, err := s.teamRepo.GetByIDForUpdate(ctx, tx, secondID)
	if err != nil {
		return nil, nil, s.mapTeamErr(err)
	}

	if first.ID == senderID {
		return first, second, nil
	}
	return second, first, nil
}

func (s *offerService) lockPlayers(ctx context.Context, tx *sql.Tx, offer *models.Offer) (target, counter *models.Player, err error) {
	ids := []int{offer.TargetPlayerID}
	if offer.CounterPlayerID != nil {
		ids = append(ids, *offer.CounterPlayerID)
		if ids[1] < ids[0] {
			ids[0], ids[1] = ids[1], ids[0]
		}
	}

	byID := make(map[int]*models.Player, len(ids))
	for _, id := range ids {
		player, lockErr := s.playerRepo.GetByIDForUpdate(ctx, tx, id)
		if lockErr != nil {
			return nil, nil, s.mapPlayerErr(lockErr)
		}
		byID[id] = player
	}

	target = byID[offer.TargetPlayerID]
	if offer.CounterPlayerID != nil {
		counter = byID[*offer.CounterPlayerID]
	}
	return target, counter, nil
}

// validateSquads прогоняет валидатор лимитов ролей для всех составов,
// которые меняются при принятии предложения.
func (s *offerService) validateSquads(ctx context.Context, tx *sql.Tx, cfg models.LeagueConfig, sender, recipient *models.Team, target, counter *models.Player) error {
	senderSquad, err := s.playerRepo.ListByFieldingTeam(ctx, tx, sender.ID)
	if err != nil {
		return err
	}
	if result := rules.ValidateRoleLimits(cfg, senderSquad, target, counter); !result.Valid {
		return &RoleLimitError{TeamID: sender.ID, Violations: result.Violations}
	}

	if counter != nil {
		recipientSquad, listErr := s.playerRepo.ListByFieldingTeam(ctx, tx, recipient.ID)
		if listErr != nil {
			return listErr
		}
		if result := rules.ValidateRoleLimits(cfg, recipientSquad, counter, target); !result.Valid {
			return &RoleLimitError{TeamID: recipient.ID, Violations: result.Violations}
		}
	}
	return nil
}

// allocateArrivals назначает слот состава каждому игроку, сменившему команду.
func (s *offerService) allocateArrivals(ctx context.Context, tx *sql.Tx, cfg models.LeagueConfig, offer *models.Offer, sender, recipient *models.Team, target, counter *models.Player) error {
	if err := s.allocateArrival(ctx, tx, cfg, sender, target); err != nil {
		return err
	}
	if offer.Kind == models.OfferKindSwap && counter != nil {
		if err := s.allocateArrival(ctx, tx, cfg, recipient, counter); err != nil {
			return err
		}
	}
	return nil
}

func (s *offerService) allocateArrival(ctx context.Context, tx *sql.Tx, cfg models.LeagueConfig, team *models.Team, player *models.Player) error {
	count, err := s.playerRepo.CountRosterA(ctx, tx, team.ID)
	if err != nil {
		return err
	}
	// Счётчик уже включает прибывшего игрока, если его прежний слот был A.
	if player.RosterSlot == models.RosterSlotA {
		count--
	}

	assignment := rules.AssignArrivalSlot(cfg, count, team.MaxPlayers)
	if err := s.playerRepo.UpdateRosterSlot(ctx, tx, player.ID, assignment.Slot, assignment.RequiresAction); err != nil {
		return err
	}
	player.RosterSlot = assignment.Slot
	player.RequiresAction = assignment.RequiresAction
	return nil
}

// offerEvents формирует и сохраняет события для владельцев обеих команд.
// Сохранение внутри транзакции предложения; дубли отсекаются ключом
// (offer_id, kind, recipient_user_id).
func (s *offerService) offerEvents(ctx context.Context, exec repositories.SQLExecutor, offer *models.Offer, sender, recipient *models.Team, kind models.NotificationKind) []*models.NotificationEvent {
	payload := map[string]any{
		"offer_id": offer.ID,
		"kind":     string(offer.Kind),
		"state":    string(offer.State),
	}

	events := make([]*models.NotificationEvent, 0, 2)
	for _, team := range []*models.Team{sender, recipient} {
		if team == nil || team.OwnerUserID == nil {
			continue
		}
		offerID := offer.ID
		event := &models.NotificationEvent{
			LeagueID:        offer.LeagueID,
			OfferID:         &offerID,
			RecipientUserID: *team.OwnerUserID,
			Kind:            kind,
			Payload:         payload,
		}
		if err := s.notificationRepo.Create(ctx, exec, event); err != nil {
			// Уведомление не должно срывать операцию над предложением.
			s.logger.Error("failed to persist notification",
				slog.Int("offer_id", offer.ID),
				slog.Any("error", err),
			)
			continue
		}
		events = append(events, event)
	}
	return events
}

func (s *offerService) broadcast(leagueID int, events []*models.NotificationEvent) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.NotifyLeague(leagueID, event)
	}
}

// authorizeTeamAction проверяет, что пользователь управляет командой
// либо является админом/суб-админом лиги.
func (s *offerService) authorizeTeamAction(ctx context.Context, userID int, team *models.Team) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	if user.TeamID != nil && *user.TeamID == team.ID {
		return nil
	}
	if user.Permissions().ManageRosters && user.LeagueID != nil && *user.LeagueID == team.LeagueID {
		return nil
	}
	return ErrForbiddenOperation
}

func (s *offerService) getOffer(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, repositories.ErrOfferNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to get offer %d: %w", id, err)
	}
	return offer, nil
}

func (s *offerService) getTeam(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, s.mapTeamErr(err)
	}
	return team, nil
}

func (s *offerService) getPlayer(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, exec, id)
	if err != nil {
		return nil, s.mapPlayerErr(err)
	}
	return player, nil
}

func (s *offerService) mapTeamErr(err error) error {
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return ErrTeamNotFound
	}
	return err
}

func (s *offerService) mapPlayerErr(err error) error {
	if errors.Is(err, repositories.ErrPlayerNotFound) {
		return ErrPlayerNotFound
	}
	return err
}
