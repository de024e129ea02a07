package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arenaline/chess-arena/handlers"
	"github.com/arenaline/chess-arena/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	competitorHandler *handlers.CompetitorHandler,
	tournamentHandler *handlers.TournamentHandler,
	ratingHandler *handlers.RatingHandler,
	gameHandler *handlers.GameHandler,
	websocketHandler *handlers.WebsocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/competitors", func(r chi.Router) {
		r.Get("/leaderboard", competitorHandler.Leaderboard)
		r.Get("/{competitorID}", competitorHandler.Get)
		r.Get("/{competitorID}/reliability", ratingHandler.Reliability)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{competitorID}/avatar", competitorHandler.UploadAvatar)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/standings", tournamentHandler.Standings)
		r.Get("/{tournamentID}/watch", websocketHandler.Watch)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Post("/{tournamentID}/join", tournamentHandler.Join)
			r.Post("/{tournamentID}/start", tournamentHandler.Start)
			r.Post("/{tournamentID}/cancel", tournamentHandler.Cancel)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/{matchID}/outcome", tournamentHandler.RecordOutcome)
	})

	router.Route("/ratings", func(r chi.Router) {
		r.Post("/preview", ratingHandler.Preview)
		r.Post("/required", ratingHandler.RequiredRating)
		r.Post("/performance", ratingHandler.Performance)
	})

	router.Route("/games", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/", gameHandler.Start)
		r.Put("/{sessionID}/position", gameHandler.UpdatePosition)
		r.Get("/{sessionID}/hint", gameHandler.Hint)
		r.Get("/{sessionID}/evaluate", gameHandler.Evaluate)
		r.Post("/{sessionID}/finish", gameHandler.Finish)
	})
}
