package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/filmorate/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users   UserService
	Films   FilmService
	Store   Pinger
	Limiter middleware.RateLimiter
	Logger  *slog.Logger
}

// NewRouter wires every endpoint onto a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{Store: deps.Store}
	users := UserHandler{Users: deps.Users}
	films := FilmHandler{Films: deps.Films}
	catalog := CatalogHandler{Films: deps.Films}

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Metrics)

	r.Get("/healthz", health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter, "api"))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", users.List)
			r.Post("/", users.Create)
			r.Put("/", users.Update)
			r.Get("/{id}", users.Get)
			r.Delete("/{id}", users.Delete)
			r.Get("/{id}/friends", users.Friends)
			r.Get("/{id}/friends/common/{otherId}", users.CommonFriends)
			r.Get("/{id}/friends/{friendId}", users.Friend)
			r.Put("/{id}/friends/{friendId}", users.AddFriend)
			r.Delete("/{id}/friends/{friendId}", users.RemoveFriend)
		})

		r.Route("/films", func(r chi.Router) {
			r.Get("/", films.List)
			r.Post("/", films.Create)
			r.Put("/", films.Update)
			r.Get("/popular", films.Popular)
			r.Get("/{id}", films.Get)
			r.Delete("/{id}", films.Delete)
			r.Put("/{id}/like/{userId}", films.Like)
			r.Delete("/{id}/like/{userId}", films.Unlike)
		})

		r.Get("/genres", catalog.Genres)
		r.Get("/genres/{id}", catalog.Genre)
		r.Get("/mpa", catalog.Ratings)
		r.Get("/mpa/{id}", catalog.Rating)
	})

	return r
}
