package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fantaleague/league-system/models"
	"github.com/fantaleague/league-system/repositories"
)

// In-memory реализации репозиториев для тестов сервисного слоя.
// Параметр exec игнорируется: транзакционность проверяется тем, что
// сценарии с ошибкой падают до первой записи.

type fakeOfferRepo struct {
	mu     sync.Mutex
	nextID int
	offers map[int]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{nextID: 1, offers: make(map[int]*models.Offer)}
}

func (r *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer.ID = r.nextID
	r.nextID++
	offer.CreatedAt = time.Now()
	stored := *offer
	r.offers[offer.ID] = &stored
	return nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[id]
	if !ok {
		return nil, repositories.ErrOfferNotFound
	}
	copied := *offer
	return &copied, nil
}

func (r *fakeOfferRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Offer, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeOfferRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var offers []*models.Offer
	for _, offer := range r.offers {
		if offer.SenderTeamID == teamID || offer.RecipientTeamID == teamID {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	return offers, nil
}

func (r *fakeOfferRepo) ResolveIfPending(ctx context.Context, exec repositories.SQLExecutor, id int, state models.OfferState, resolvedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	offer, ok := r.offers[id]
	if !ok {
		return repositories.ErrOfferNotFound
	}
	if offer.State != models.OfferStatePending {
		return repositories.ErrOfferStateConflict
	}
	offer.State = state
	offer.ResolvedAt = &resolvedAt
	return nil
}

type fakeTeamRepo struct {
	mu    sync.Mutex
	teams map[int]*models.Team
}

func newFakeTeamRepo(teams ...*models.Team) *fakeTeamRepo {
	r := &fakeTeamRepo{teams: make(map[int]*models.Team)}
	for _, team := range teams {
		stored := *team
		r.teams[team.ID] = &stored
	}
	return r
}

func (r *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *team
	r.teams[team.ID] = &stored
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeTeamRepo) ListByLeague(ctx context.Context, leagueID int) ([]*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var teams []*models.Team
	for _, team := range r.teams {
		if team.LeagueID == leagueID {
			copied := *team
			teams = append(teams, &copied)
		}
	}
	return teams, nil
}

func (r *fakeTeamRepo) UpdateCashBalance(ctx context.Context, exec repositories.SQLExecutor, teamID int, balance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.CashBalance = balance
	return nil
}

func (r *fakeTeamRepo) UpdateOwner(ctx context.Context, exec repositories.SQLExecutor, teamID int, ownerUserID *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.OwnerUserID = ownerUserID
	return nil
}

func (r *fakeTeamRepo) UpdateCrestKey(ctx context.Context, teamID int, crestKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.CrestKey = crestKey
	return nil
}

func (r *fakeTeamRepo) cash(teamID int) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.teams[teamID].CashBalance
}

type fakePlayerRepo struct {
	mu      sync.Mutex
	players map[int]*models.Player
}

func newFakePlayerRepo(players ...*models.Player) *fakePlayerRepo {
	r := &fakePlayerRepo{players: make(map[int]*models.Player)}
	for _, player := range players {
		stored := *player
		r.players[player.ID] = &stored
	}
	return r
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (r *fakePlayerRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Player, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakePlayerRepo) ListByFieldingTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) ([]*models.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var players []*models.Player
	for _, player := range r.players {
		if player.FieldingTeamID() == teamID {
			copied := *player
			players = append(players, &copied)
		}
	}
	return players, nil
}

func (r *fakePlayerRepo) CountRosterA(ctx context.Context, exec repositories.SQLExecutor, teamID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, player := range r.players {
		if player.FieldingTeamID() == teamID && player.RosterSlot == models.RosterSlotA {
			count++
		}
	}
	return count, nil
}

func (r *fakePlayerRepo) UpdateOwnership(ctx context.Context, exec repositories.SQLExecutor, playerID, owningTeamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.OwningTeamID = owningTeamID
	player.OnLoan = false
	player.LoanTeamID = nil
	return nil
}

func (r *fakePlayerRepo) SetLoan(ctx context.Context, exec repositories.SQLExecutor, playerID, loanTeamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.OnLoan = true
	player.LoanTeamID = &loanTeamID
	return nil
}

func (r *fakePlayerRepo) ClearLoan(ctx context.Context, exec repositories.SQLExecutor, playerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.OnLoan = false
	player.LoanTeamID = nil
	return nil
}

func (r *fakePlayerRepo) UpdateRosterSlot(ctx context.Context, exec repositories.SQLExecutor, playerID int, slot models.RosterSlot, requiresAction bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.players[playerID]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.RosterSlot = slot
	player.RequiresAction = requiresAction
	return nil
}

func (r *fakePlayerRepo) get(id int) models.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.players[id]
}

type fakeLeagueRepo struct {
	leagues map[int]*models.League
}

func newFakeLeagueRepo(leagues ...*models.League) *fakeLeagueRepo {
	r := &fakeLeagueRepo{leagues: make(map[int]*models.League)}
	for _, league := range leagues {
		stored := *league
		r.leagues[league.ID] = &stored
	}
	return r
}

func (r *fakeLeagueRepo) GetByID(ctx context.Context, id int) (*models.League, error) {
	league, ok := r.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	copied := *league
	return &copied, nil
}

func (r *fakeLeagueRepo) GetConfig(ctx context.Context, leagueID int) (*models.LeagueConfig, error) {
	league, err := r.GetByID(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	cfg := league.Config()
	return &cfg, nil
}

type fakeUserRepo struct {
	users map[int]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[int]*models.User)}
	for _, user := range users {
		stored := *user
		r.users[user.ID] = &stored
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) GetByTeamID(ctx context.Context, teamID int) (*models.User, error) {
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	nextID int
	events []*models.NotificationEvent
	keys   map[string]bool
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1, keys: make(map[string]bool)}
}

func (r *fakeNotificationRepo) Create(ctx context.Context, exec repositories.SQLExecutor, event *models.NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.OfferID != nil {
		key := fmt.Sprintf("%d/%s/%d", *event.OfferID, event.Kind, event.RecipientUserID)
		if r.keys[key] {
			return nil
		}
		r.keys[key] = true
	}
	event.ID = r.nextID
	r.nextID++
	event.CreatedAt = time.Now()
	stored := *event
	r.events = append(r.events, &stored)
	return nil
}

func (r *fakeNotificationRepo) ListByRecipient(ctx context.Context, userID int, limit int) ([]*models.NotificationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var events []*models.NotificationEvent
	for _, event := range r.events {
		if event.RecipientUserID == userID {
			copied := *event
			events = append(events, &copied)
		}
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *fakeNotificationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*models.NotificationEvent
}

func (n *fakeNotifier) NotifyLeague(leagueID int, event *models.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) delivered() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}
