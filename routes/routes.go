package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/futbolmvp/booking-system/handlers"
	"github.com/futbolmvp/booking-system/middleware"
)

type Handlers struct {
	Auth             *handlers.AuthHandler
	Event            *handlers.EventHandler
	AdminEvent       *handlers.AdminEventHandler
	Tournament       *handlers.TournamentHandler
	PublicTournament *handlers.PublicTournamentHandler
	Notification     *handlers.NotificationHandler
}

func InitRoutes(h Handlers, tokenParser middleware.TokenParser) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-User-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Actor(tokenParser))

	router.Post("/auth/pin/register", h.Auth.PINRegister)
	router.Post("/auth/pin/login", h.Auth.PINLogin)

	// Public live view, no actor required: the token in the URL is the credential.
	router.Get("/tournaments/live", h.PublicTournament.Live)
	router.Get("/tournaments/live/ws", h.PublicTournament.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireActor)

		r.Route("/events", func(r chi.Router) {
			r.Get("/open", h.Event.ListOpen)
			r.Get("/active", h.Event.Active)
			r.Get("/{eventID}", h.Event.Detail)
			r.Post("/{eventID}/register", h.Event.Register)
			r.Post("/{eventID}/guests", h.Event.RegisterGuest)
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Post("/{registrationID}/cancel", h.Event.Cancel)
			r.Post("/{registrationID}/move", h.Event.Move)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.Notification.ListMine)
			r.Post("/{notificationID}/dismiss", h.Notification.Dismiss)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Post("/", h.AdminEvent.Create)
				r.Get("/", h.AdminEvent.List)
				r.Get("/audit", h.AdminEvent.ListAudit)

				r.Route("/{eventID}", func(r chi.Router) {
					r.Post("/reopen", h.AdminEvent.Reopen)
					r.Post("/close", h.AdminEvent.Close)
					r.Post("/finalize", h.AdminEvent.Finalize)
					r.Post("/courts", h.AdminEvent.CreateCourt)

					r.Route("/courts/{courtID}", func(r chi.Router) {
						r.Patch("/", h.AdminEvent.UpdateCourt)
						r.Delete("/", h.AdminEvent.DeleteCourt)
						r.Post("/open", h.AdminEvent.OpenCourt)
						r.Post("/close", h.AdminEvent.CloseCourt)
						r.Post("/captains", h.AdminEvent.AssignCaptain)
						r.Delete("/captains/{userID}", h.AdminEvent.RemoveCaptain)
					})
				})
			})

			r.Route("/tournaments", func(r chi.Router) {
				r.Post("/", h.Tournament.Create)
				r.Get("/", h.Tournament.List)

				r.Route("/{tournamentID}", func(r chi.Router) {
					r.Get("/", h.Tournament.Detail)
					r.Patch("/config", h.Tournament.UpdateConfig)
					r.Patch("/status", h.Tournament.UpdateStatus)
					r.Post("/teams", h.Tournament.CreateTeam)
					r.Get("/teams", h.Tournament.ListTeams)
					r.Delete("/teams/{teamID}", h.Tournament.DeleteTeam)
					r.Post("/teams/{teamID}/members", h.Tournament.AddMember)
					r.Delete("/teams/{teamID}/members/{memberID}", h.Tournament.RemoveMember)
					r.Post("/fixture", h.Tournament.GenerateFixture)
					r.Get("/standings", h.Tournament.Standings)
					r.Post("/matches/{matchID}/start", h.Tournament.StartMatch)
					r.Patch("/matches/{matchID}/score", h.Tournament.PatchScore)
					r.Post("/matches/{matchID}/finish", h.Tournament.FinishMatch)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Post("/", h.Notification.Create)
				r.Get("/", h.Notification.ListAll)
				r.Post("/{notificationID}/deactivate", h.Notification.Deactivate)
			})
		})
	})

	return router
}
