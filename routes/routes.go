package routes

import (
	"github.com/fantaleague/league-system/handlers"
	"github.com/fantaleague/league-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// SetupRoutes собирает все маршруты приложения на переданном роутере.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	leagueHandler *handlers.LeagueHandler,
	teamHandler *handlers.TeamHandler,
	offerHandler *handlers.OfferHandler,
	rosterHandler *handlers.RosterHandler,
	inviteHandler *handlers.InviteHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate([]byte(jwtSecret))

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/invites/{token}", inviteHandler.GetInviteByToken)

	// WebSocket-комната лиги: события движка перемещений в реальном времени
	router.Get("/ws/leagues/{leagueID}", webSocketHandler.ServeWs)

	router.Route("/leagues", func(r chi.Router) {
		r.Get("/{leagueID}", leagueHandler.GetLeague)
		r.Get("/{leagueID}/config", leagueHandler.GetLeagueConfig)
		r.Get("/{leagueID}/teams", leagueHandler.ListLeagueTeams)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{leagueID}/invites", inviteHandler.CreateInvite)
			r.Get("/{leagueID}/invites", inviteHandler.ListLeagueInvites)
		})
	})

	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeam)
		r.Get("/{teamID}/squad", teamHandler.GetSquad)
		r.Get("/{teamID}/payroll", teamHandler.GetPayroll)
		r.Get("/{teamID}/offers", offerHandler.ListTeamOffers)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{teamID}/cash", teamHandler.AdjustCash)
			r.Post("/{teamID}/crest", teamHandler.UploadCrest)
		})
	})

	router.Route("/offers", func(r chi.Router) {
		r.Get("/{offerID}", offerHandler.GetOffer)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", offerHandler.CreateOffer)
			r.Post("/{offerID}/respond", offerHandler.RespondToOffer)
			r.Post("/{offerID}/cancel", offerHandler.CancelOffer)
		})
	})

	router.Route("/players", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{playerID}/return-from-loan", rosterHandler.ReturnFromLoan)
			r.Patch("/{playerID}/roster", rosterHandler.MovePlayerRoster)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/notifications", notificationHandler.ListMyNotifications)
		r.Post("/invites/{token}/accept", inviteHandler.AcceptInvite)
		r.Delete("/invites/{inviteID}", inviteHandler.DeleteInvite)
	})
}
