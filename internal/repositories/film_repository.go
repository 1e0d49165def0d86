package repositories

import (
	"context"

	"github.com/filmorate/backend/internal/models"
)

// FilmRepository exposes data access for films. Returned films carry their MPA
// rating and like count; genres are resolved through GenreRepository.
type FilmRepository interface {
	FindByID(ctx context.Context, id int64) (models.Film, error)
	List(ctx context.Context) ([]models.Film, error)
	Create(ctx context.Context, film models.Film) (models.Film, error)
	Update(ctx context.Context, film models.Film) (models.Film, error)
	Delete(ctx context.Context, id int64) error
	// Popular returns up to count films ordered by like count descending,
	// ties broken by ascending film id.
	Popular(ctx context.Context, count int) ([]models.Film, error)
}

// LikeRepository stores which users liked which films. Both operations are
// idempotent.
type LikeRepository interface {
	Add(ctx context.Context, filmID, userID int64) error
	Remove(ctx context.Context, filmID, userID int64) error
}

// GenreRepository manages the genre catalogue and film-genre associations.
type GenreRepository interface {
	List(ctx context.Context) ([]models.Genre, error)
	FindByID(ctx context.Context, id int64) (models.Genre, error)
	FindForFilms(ctx context.Context, filmIDs []int64) (map[int64][]models.Genre, error)
	Attach(ctx context.Context, filmID int64, genres []models.Genre) error
	DetachAll(ctx context.Context, filmID int64) error
	// Replace swaps the genre set of a film as one unit.
	Replace(ctx context.Context, filmID int64, genres []models.Genre) error
}

// MPARepository exposes the MPA rating catalogue.
type MPARepository interface {
	List(ctx context.Context) ([]models.MPA, error)
	FindByID(ctx context.Context, id int64) (models.MPA, error)
}
