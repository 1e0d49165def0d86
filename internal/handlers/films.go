package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/filmorate/backend/internal/logging"
)

// DefaultPopularCount is used when /films/popular is called without count.
const DefaultPopularCount = 10

// FilmHandler exposes film, like and popularity endpoints.
type FilmHandler struct {
	Films FilmService
}

// List handles GET /api/v1/films.
func (h FilmHandler) List(w http.ResponseWriter, r *http.Request) {
	films, err := h.Films.ListFilms(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondJSON(r.Context(), w, http.StatusOK, newFilmDTOs(films))
}

// Get handles GET /api/v1/films/{id}.
func (h FilmHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	film, err := h.Films.GetFilm(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmDTO(film))
}

// Create handles POST /api/v1/films.
func (h FilmHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req filmDTO
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid film payload", "error", err)
		respondError(ctx, w, err)
		return
	}

	film, err := h.Films.AddFilm(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newFilmDTO(film))
}

// Update handles PUT /api/v1/films.
func (h FilmHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req filmDTO
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid film payload", "error", err)
		respondError(ctx, w, err)
		return
	}

	film, err := h.Films.UpdateFilm(ctx, req.model())
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmDTO(film))
}

// Delete handles DELETE /api/v1/films/{id}.
func (h FilmHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	film, err := h.Films.RemoveFilm(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmDTO(film))
}

// Like handles PUT /api/v1/films/{id}/like/{userId}.
func (h FilmHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filmID, userID, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Films.PutLike(ctx, filmID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlike handles DELETE /api/v1/films/{id}/like/{userId}.
func (h FilmHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filmID, userID, err := pathIDs(r, "id", "userId")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Films.RemoveLike(ctx, filmID, userID); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Popular handles GET /api/v1/films/popular?count=N.
func (h FilmHandler) Popular(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count := DefaultPopularCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(ctx, w, fmt.Errorf("%w: count must be an integer, got %q", errBadRequest, raw))
			return
		}
		count = n
	}

	films, err := h.Films.TopPopular(ctx, count)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newFilmDTOs(films))
}
