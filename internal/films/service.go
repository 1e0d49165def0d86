// Package films implements the film catalogue, likes and popularity ranking.
package films

import (
	"context"
	"errors"
	"fmt"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/metrics"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/validation"
)

// PopularCache stores ranked film lists keyed by the requested count.
// Every Invalidate starts a new generation. Callers read the generation before
// computing a list and pass it to Set, so a list computed across an
// invalidation is never served.
type PopularCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, count int) ([]models.Film, bool, error)
	Set(ctx context.Context, generation int64, count int, films []models.Film) error
	Invalidate(ctx context.Context) error
}

// Repositories groups the storage ports the film service depends on.
type Repositories struct {
	Films  repositories.FilmRepository
	Likes  repositories.LikeRepository
	Genres repositories.GenreRepository
	MPA    repositories.MPARepository
	Users  repositories.UserRepository
}

// Service coordinates film persistence, likes and genre associations.
type Service struct {
	films  repositories.FilmRepository
	likes  repositories.LikeRepository
	genres repositories.GenreRepository
	mpa    repositories.MPARepository
	users  repositories.UserRepository
	cache  PopularCache
}

// NewService constructs a film service. cache may be nil, in which case
// popular lists are always read from storage.
func NewService(repos Repositories, cache PopularCache) *Service {
	return &Service{
		films:  repos.Films,
		likes:  repos.Likes,
		genres: repos.Genres,
		mpa:    repos.MPA,
		users:  repos.Users,
		cache:  cache,
	}
}

// GetFilm fetches a film with its genres attached.
func (s *Service) GetFilm(ctx context.Context, id int64) (models.Film, error) {
	film, err := s.films.FindByID(ctx, id)
	if err != nil {
		return models.Film{}, notFound(err, "film", id)
	}

	withGenres, err := s.attachGenres(ctx, []models.Film{film})
	if err != nil {
		return models.Film{}, err
	}
	return withGenres[0], nil
}

// ListFilms returns every film ordered by id, genres attached.
func (s *Service) ListFilms(ctx context.Context) ([]models.Film, error) {
	films, err := s.films.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list films: %w", err)
	}
	return s.attachGenres(ctx, films)
}

// AddFilm validates and stores a new film together with its genres.
func (s *Service) AddFilm(ctx context.Context, film models.Film) (models.Film, error) {
	film.Genres = models.UniqueGenres(film.Genres)
	if err := validation.Film(film); err != nil {
		logging.FromContext(ctx).Warn("film rejected", "name", film.Name, "error", err)
		return models.Film{}, err
	}
	if err := s.checkReferences(ctx, film); err != nil {
		return models.Film{}, err
	}

	film.ID = 0
	created, err := s.films.Create(ctx, film)
	if err != nil {
		return models.Film{}, notFound(err, "mpa", film.MPA.ID)
	}
	if err := s.genres.Attach(ctx, created.ID, film.Genres); err != nil {
		if delErr := s.films.Delete(ctx, created.ID); delErr != nil {
			logging.FromContext(ctx).Error("roll back film without genres", "filmId", created.ID, "error", delErr)
		}
		return models.Film{}, notFound(err, "genres of film", created.ID)
	}

	s.invalidate(ctx)
	logging.FromContext(ctx).Info("film created", "filmId", created.ID, "genres", models.GenreIDs(film.Genres))
	return s.GetFilm(ctx, created.ID)
}

// UpdateFilm validates and overwrites an existing film, replacing its genre set.
func (s *Service) UpdateFilm(ctx context.Context, film models.Film) (models.Film, error) {
	film.Genres = models.UniqueGenres(film.Genres)
	if err := validation.Film(film); err != nil {
		logging.FromContext(ctx).Warn("film update rejected", "filmId", film.ID, "error", err)
		return models.Film{}, err
	}
	if _, err := s.films.FindByID(ctx, film.ID); err != nil {
		return models.Film{}, notFound(err, "film", film.ID)
	}
	if err := s.checkReferences(ctx, film); err != nil {
		return models.Film{}, err
	}

	if _, err := s.films.Update(ctx, film); err != nil {
		return models.Film{}, notFound(err, "film", film.ID)
	}
	if err := s.genres.Replace(ctx, film.ID, film.Genres); err != nil {
		return models.Film{}, fmt.Errorf("replace genres of film %d: %w", film.ID, err)
	}

	s.invalidate(ctx)
	logging.FromContext(ctx).Info("film updated", "filmId", film.ID, "genres", models.GenreIDs(film.Genres))
	return s.GetFilm(ctx, film.ID)
}

// RemoveFilm deletes a film and returns it as it was before deletion.
func (s *Service) RemoveFilm(ctx context.Context, id int64) (models.Film, error) {
	film, err := s.GetFilm(ctx, id)
	if err != nil {
		return models.Film{}, err
	}

	if err := s.genres.DetachAll(ctx, id); err != nil {
		return models.Film{}, fmt.Errorf("detach genres of film %d: %w", id, err)
	}
	if err := s.films.Delete(ctx, id); err != nil {
		return models.Film{}, notFound(err, "film", id)
	}

	s.invalidate(ctx)
	logging.FromContext(ctx).Info("film removed", "filmId", id)
	return film, nil
}

// PutLike records that a user likes a film. Repeating it has no effect.
func (s *Service) PutLike(ctx context.Context, filmID, userID int64) (err error) {
	ctx, op := logging.StartOperation(ctx, "likes.put")
	defer func() { op.End(err) }()

	if err := s.checkLikePair(ctx, filmID, userID); err != nil {
		return err
	}
	if err := s.likes.Add(ctx, filmID, userID); err != nil {
		return notFound(err, "film or user", filmID)
	}

	metrics.RecordLike("put")
	s.invalidate(ctx)
	logging.FromContext(ctx).Info("like added", "filmId", filmID, "userId", userID)
	return nil
}

// RemoveLike withdraws a like. Removing a like that was never given is not an error.
func (s *Service) RemoveLike(ctx context.Context, filmID, userID int64) (err error) {
	ctx, op := logging.StartOperation(ctx, "likes.remove")
	defer func() { op.End(err) }()

	if err := s.checkLikePair(ctx, filmID, userID); err != nil {
		return err
	}
	if err := s.likes.Remove(ctx, filmID, userID); err != nil {
		return fmt.Errorf("remove like: %w", err)
	}

	metrics.RecordLike("remove")
	s.invalidate(ctx)
	logging.FromContext(ctx).Info("like removed", "filmId", filmID, "userId", userID)
	return nil
}

// TopPopular returns up to count films ordered by like count descending.
// Films with equal like counts are ordered by ascending id.
func (s *Service) TopPopular(ctx context.Context, count int) (films []models.Film, err error) {
	if count <= 0 {
		return nil, validation.Failed("count", "count must be positive")
	}

	ctx, op := logging.StartOperation(ctx, "films.popular")
	defer func() { op.End(err) }()

	useCache := s.cache != nil
	var generation int64
	if useCache {
		var cacheErr error
		generation, cacheErr = s.cache.Generation(ctx)
		if cacheErr != nil {
			metrics.RecordCacheError("generation")
			logging.FromContext(ctx).Warn("popular cache generation unavailable", "error", cacheErr)
			useCache = false
		}
	}

	if useCache {
		cached, ok, cacheErr := s.cache.Get(ctx, generation, count)
		switch {
		case cacheErr != nil:
			metrics.RecordCacheError("get")
			logging.FromContext(ctx).Warn("popular cache read failed", "error", cacheErr)
		case ok:
			metrics.RecordCacheLookup(true)
			return cached, nil
		default:
			metrics.RecordCacheLookup(false)
		}
	}

	films, err = s.films.Popular(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("popular films: %w", err)
	}
	films, err = s.attachGenres(ctx, films)
	if err != nil {
		return nil, err
	}

	if useCache {
		if setErr := s.cache.Set(ctx, generation, count, films); setErr != nil {
			metrics.RecordCacheError("set")
			logging.FromContext(ctx).Warn("popular cache write failed", "error", setErr)
		}
	}
	return films, nil
}

// ListGenres returns the genre catalogue.
func (s *Service) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return genres, nil
}

// GetGenre fetches a single genre.
func (s *Service) GetGenre(ctx context.Context, id int64) (models.Genre, error) {
	genre, err := s.genres.FindByID(ctx, id)
	if err != nil {
		return models.Genre{}, notFound(err, "genre", id)
	}
	return genre, nil
}

// ListMPA returns the rating catalogue.
func (s *Service) ListMPA(ctx context.Context) ([]models.MPA, error) {
	ratings, err := s.mpa.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mpa: %w", err)
	}
	return ratings, nil
}

// GetMPA fetches a single rating.
func (s *Service) GetMPA(ctx context.Context, id int64) (models.MPA, error) {
	rating, err := s.mpa.FindByID(ctx, id)
	if err != nil {
		return models.MPA{}, notFound(err, "mpa", id)
	}
	return rating, nil
}

func (s *Service) attachGenres(ctx context.Context, films []models.Film) ([]models.Film, error) {
	if len(films) == 0 {
		return films, nil
	}

	ids := make([]int64, 0, len(films))
	for _, f := range films {
		ids = append(ids, f.ID)
	}
	byFilm, err := s.genres.FindForFilms(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load film genres: %w", err)
	}

	for i := range films {
		if genres, ok := byFilm[films[i].ID]; ok {
			films[i].Genres = genres
		} else {
			films[i].Genres = []models.Genre{}
		}
	}
	return films, nil
}

// checkReferences makes sure the rating and every genre exist before anything is written.
func (s *Service) checkReferences(ctx context.Context, film models.Film) error {
	if _, err := s.GetMPA(ctx, film.MPA.ID); err != nil {
		return err
	}
	for _, g := range film.Genres {
		if _, err := s.GetGenre(ctx, g.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) checkLikePair(ctx context.Context, filmID, userID int64) error {
	if _, err := s.films.FindByID(ctx, filmID); err != nil {
		return notFound(err, "film", filmID)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return notFound(err, "user", userID)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		metrics.RecordCacheError("invalidate")
		logging.FromContext(ctx).Warn("popular cache invalidation failed", "error", err)
	}
}

func notFound(err error, what string, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return fmt.Errorf("%s %d: %w", what, id, err)
}
