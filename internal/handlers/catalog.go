package handlers

import "net/http"

// CatalogHandler exposes the read-only genre and MPA rating catalogues.
type CatalogHandler struct {
	Films FilmService
}

// Genres handles GET /api/v1/genres.
func (h CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.Films.ListGenres(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]genreDTO, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreDTO{ID: g.ID, Name: g.Name})
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// Genre handles GET /api/v1/genres/{id}.
func (h CatalogHandler) Genre(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	g, err := h.Films.GetGenre(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, genreDTO{ID: g.ID, Name: g.Name})
}

// Ratings handles GET /api/v1/mpa.
func (h CatalogHandler) Ratings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.Films.ListMPA(r.Context())
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	out := make([]mpaDTO, 0, len(ratings))
	for _, m := range ratings {
		out = append(out, mpaDTO{ID: m.ID, Name: m.Name})
	}
	respondJSON(r.Context(), w, http.StatusOK, out)
}

// Rating handles GET /api/v1/mpa/{id}.
func (h CatalogHandler) Rating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	m, err := h.Films.GetMPA(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, mpaDTO{ID: m.ID, Name: m.Name})
}
