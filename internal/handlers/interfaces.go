package handlers

import (
	"context"

	"github.com/filmorate/backend/internal/models"
)

// UserService captures the user and friendship operations exposed over HTTP.
type UserService interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	AddUser(ctx context.Context, user models.User) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	RemoveUser(ctx context.Context, id int64) (models.User, error)

	AddFriend(ctx context.Context, userID, friendID int64) (models.User, error)
	RemoveFriend(ctx context.Context, userID, friendID int64) (models.User, error)
	ListFriends(ctx context.Context, userID int64) ([]models.User, error)
	GetFriend(ctx context.Context, userID, friendID int64) (models.User, error)
	ListCommonFriends(ctx context.Context, userID, otherID int64) ([]models.User, error)
}

// FilmService captures the film, like and catalogue operations exposed over HTTP.
type FilmService interface {
	GetFilm(ctx context.Context, id int64) (models.Film, error)
	ListFilms(ctx context.Context) ([]models.Film, error)
	AddFilm(ctx context.Context, film models.Film) (models.Film, error)
	UpdateFilm(ctx context.Context, film models.Film) (models.Film, error)
	RemoveFilm(ctx context.Context, id int64) (models.Film, error)

	PutLike(ctx context.Context, filmID, userID int64) error
	RemoveLike(ctx context.Context, filmID, userID int64) error
	TopPopular(ctx context.Context, count int) ([]models.Film, error)

	ListGenres(ctx context.Context) ([]models.Genre, error)
	GetGenre(ctx context.Context, id int64) (models.Genre, error)
	ListMPA(ctx context.Context) ([]models.MPA, error)
	GetMPA(ctx context.Context, id int64) (models.MPA, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
