package repositories

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/filmorate/backend/internal/models"
)

// DefaultGenres is the genre catalogue shipped with a fresh store.
var DefaultGenres = []models.Genre{
	{ID: 1, Name: "Комедия"},
	{ID: 2, Name: "Драма"},
	{ID: 3, Name: "Мультфильм"},
	{ID: 4, Name: "Триллер"},
	{ID: 5, Name: "Документальный"},
	{ID: 6, Name: "Боевик"},
}

// DefaultMPA is the rating catalogue shipped with a fresh store.
var DefaultMPA = []models.MPA{
	{ID: 1, Name: "G"},
	{ID: 2, Name: "PG"},
	{ID: 3, Name: "PG-13"},
	{ID: 4, Name: "R"},
	{ID: 5, Name: "NC-17"},
}

// MemoryStore keeps every entity in process memory. It backs local development
// and tests, mirroring the cascade rules of the PostgreSQL schema. A single
// RWMutex serialises writers.
type MemoryStore struct {
	mu sync.RWMutex

	nextUserID int64
	nextFilmID int64

	users      map[int64]models.User
	films      map[int64]models.Film
	likes      map[int64]map[int64]struct{}
	filmGenres map[int64][]int64
	genres     map[int64]models.Genre
	mpa        map[int64]models.MPA
}

// NewMemoryStore returns an empty store seeded with the default genre and MPA catalogues.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:      make(map[int64]models.User),
		films:      make(map[int64]models.Film),
		likes:      make(map[int64]map[int64]struct{}),
		filmGenres: make(map[int64][]int64),
		genres:     make(map[int64]models.Genre),
		mpa:        make(map[int64]models.MPA),
	}
	for _, g := range DefaultGenres {
		s.genres[g.ID] = g
	}
	for _, m := range DefaultMPA {
		s.mpa[m.ID] = m
	}
	return s
}

// Users returns the user repository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepository { return &MemoryUserRepository{s} }

// Friends returns the friendship repository view of the store.
func (s *MemoryStore) Friends() *MemoryFriendRepository { return &MemoryFriendRepository{s} }

// Films returns the film repository view of the store.
func (s *MemoryStore) Films() *MemoryFilmRepository { return &MemoryFilmRepository{s} }

// Likes returns the like repository view of the store.
func (s *MemoryStore) Likes() *MemoryLikeRepository { return &MemoryLikeRepository{s} }

// Genres returns the genre repository view of the store.
func (s *MemoryStore) Genres() *MemoryGenreRepository { return &MemoryGenreRepository{s} }

// MPA returns the rating repository view of the store.
func (s *MemoryStore) MPA() *MemoryMPARepository { return &MemoryMPARepository{s} }

func copyUser(u models.User) models.User {
	u.Friends = append([]int64{}, u.Friends...)
	return u
}

// filmLocked assembles the stored view of a film. Callers hold s.mu.
func (s *MemoryStore) filmLocked(f models.Film) models.Film {
	f.MPA = s.mpa[f.MPA.ID]
	f.Likes = len(s.likes[f.ID])
	f.Genres = []models.Genre{}
	return f
}

// MemoryUserRepository implements UserRepository on a MemoryStore.
type MemoryUserRepository struct{ s *MemoryStore }

// FindByID fetches a user and its friend set.
func (r *MemoryUserRepository) FindByID(_ context.Context, id int64) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return copyUser(user), nil
}

// List returns every user ordered by id.
func (r *MemoryUserRepository) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, copyUser(u))
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return users, nil
}

// Create stores a user under the next free id.
func (r *MemoryUserRepository) Create(_ context.Context, user models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.Friends = []int64{}
	r.s.users[user.ID] = user
	return copyUser(user), nil
}

// Update overwrites user attributes, keeping the stored friend set.
func (r *MemoryUserRepository) Update(_ context.Context, user models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	user.Friends = existing.Friends
	r.s.users[user.ID] = user
	return copyUser(user), nil
}

// Delete removes a user together with its friendships and likes.
func (r *MemoryUserRepository) Delete(_ context.Context, id int64) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	for _, friendID := range user.Friends {
		if friend, ok := r.s.users[friendID]; ok {
			friend.Friends = slices.DeleteFunc(friend.Friends, func(v int64) bool { return v == id })
			r.s.users[friendID] = friend
		}
	}
	for _, likers := range r.s.likes {
		delete(likers, id)
	}
	delete(r.s.users, id)
	return copyUser(user), nil
}

// MemoryFriendRepository implements FriendRepository on a MemoryStore.
type MemoryFriendRepository struct{ s *MemoryStore }

// Link adds each user to the other's friend set under one lock.
func (r *MemoryFriendRepository) Link(_ context.Context, userID, friendID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	friend, ok := r.s.users[friendID]
	if !ok {
		return ErrNotFound
	}
	if user.HasFriend(friendID) || friend.HasFriend(userID) {
		return ErrConflict
	}

	user.Friends = append(user.Friends, friendID)
	friend.Friends = append(friend.Friends, userID)
	r.s.users[userID] = user
	r.s.users[friendID] = friend
	return nil
}

// Unlink removes each user from the other's friend set under one lock.
func (r *MemoryFriendRepository) Unlink(_ context.Context, userID, friendID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[userID]
	if !ok {
		return ErrNotFound
	}
	friend, ok := r.s.users[friendID]
	if !ok {
		return ErrNotFound
	}
	if !user.HasFriend(friendID) && !friend.HasFriend(userID) {
		return ErrNotFound
	}

	user.Friends = slices.DeleteFunc(user.Friends, func(v int64) bool { return v == friendID })
	friend.Friends = slices.DeleteFunc(friend.Friends, func(v int64) bool { return v == userID })
	r.s.users[userID] = user
	r.s.users[friendID] = friend
	return nil
}

// MemoryFilmRepository implements FilmRepository on a MemoryStore.
type MemoryFilmRepository struct{ s *MemoryStore }

// FindByID fetches a film with its rating and like count.
func (r *MemoryFilmRepository) FindByID(_ context.Context, id int64) (models.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	film, ok := r.s.films[id]
	if !ok {
		return models.Film{}, ErrNotFound
	}
	return r.s.filmLocked(film), nil
}

func (r *MemoryFilmRepository) listLocked() []models.Film {
	films := make([]models.Film, 0, len(r.s.films))
	for _, f := range r.s.films {
		films = append(films, r.s.filmLocked(f))
	}
	slices.SortFunc(films, func(a, b models.Film) int { return cmp.Compare(a.ID, b.ID) })
	return films
}

// List returns every film ordered by id.
func (r *MemoryFilmRepository) List(_ context.Context) ([]models.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.listLocked(), nil
}

// Popular returns up to count films by like count descending, then id ascending.
func (r *MemoryFilmRepository) Popular(_ context.Context, count int) ([]models.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	films := r.listLocked()
	slices.SortStableFunc(films, func(a, b models.Film) int { return cmp.Compare(b.Likes, a.Likes) })
	if count < len(films) {
		films = films[:max(count, 0)]
	}
	return films, nil
}

// Create stores a film under the next free id. An unknown MPA id yields ErrNotFound.
func (r *MemoryFilmRepository) Create(_ context.Context, film models.Film) (models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.mpa[film.MPA.ID]; !ok {
		return models.Film{}, ErrNotFound
	}
	r.s.nextFilmID++
	film.ID = r.s.nextFilmID
	r.s.films[film.ID] = film
	return r.s.filmLocked(film), nil
}

// Update overwrites the attributes of an existing film.
func (r *MemoryFilmRepository) Update(_ context.Context, film models.Film) (models.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[film.ID]; !ok {
		return models.Film{}, ErrNotFound
	}
	if _, ok := r.s.mpa[film.MPA.ID]; !ok {
		return models.Film{}, ErrNotFound
	}
	r.s.films[film.ID] = film
	return r.s.filmLocked(film), nil
}

// Delete removes a film together with its likes and genre links.
func (r *MemoryFilmRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[id]; !ok {
		return ErrNotFound
	}
	delete(r.s.films, id)
	delete(r.s.likes, id)
	delete(r.s.filmGenres, id)
	return nil
}

// MemoryLikeRepository implements LikeRepository on a MemoryStore.
type MemoryLikeRepository struct{ s *MemoryStore }

// Add records a like; repeating it is a no-op.
func (r *MemoryLikeRepository) Add(_ context.Context, filmID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[filmID]; !ok {
		return ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return ErrNotFound
	}
	likers, ok := r.s.likes[filmID]
	if !ok {
		likers = make(map[int64]struct{})
		r.s.likes[filmID] = likers
	}
	likers[userID] = struct{}{}
	return nil
}

// Remove deletes a like; removing an absent like is a no-op.
func (r *MemoryLikeRepository) Remove(_ context.Context, filmID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.likes[filmID], userID)
	return nil
}

// MemoryGenreRepository implements GenreRepository on a MemoryStore.
type MemoryGenreRepository struct{ s *MemoryStore }

// List returns the genre catalogue ordered by id.
func (r *MemoryGenreRepository) List(_ context.Context) ([]models.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	genres := make([]models.Genre, 0, len(r.s.genres))
	for _, g := range r.s.genres {
		genres = append(genres, g)
	}
	slices.SortFunc(genres, func(a, b models.Genre) int { return cmp.Compare(a.ID, b.ID) })
	return genres, nil
}

// FindByID fetches a single genre.
func (r *MemoryGenreRepository) FindByID(_ context.Context, id int64) (models.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.genres[id]
	if !ok {
		return models.Genre{}, ErrNotFound
	}
	return g, nil
}

// FindForFilms resolves the genre sets of the given films in display order.
func (r *MemoryGenreRepository) FindForFilms(_ context.Context, filmIDs []int64) (map[int64][]models.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make(map[int64][]models.Genre, len(filmIDs))
	for _, filmID := range filmIDs {
		ids, ok := r.s.filmGenres[filmID]
		if !ok {
			continue
		}
		genres := make([]models.Genre, 0, len(ids))
		for _, id := range ids {
			genres = append(genres, r.s.genres[id])
		}
		out[filmID] = genres
	}
	return out, nil
}

// Attach links genres to a film. Nothing is linked if any genre id is unknown.
func (r *MemoryGenreRepository) Attach(_ context.Context, filmID int64, genres []models.Genre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	return r.attachLocked(filmID, genres)
}

func (r *MemoryGenreRepository) attachLocked(filmID int64, genres []models.Genre) error {
	if _, ok := r.s.films[filmID]; !ok {
		return ErrNotFound
	}
	for _, g := range genres {
		if _, ok := r.s.genres[g.ID]; !ok {
			return ErrNotFound
		}
	}
	ids := r.s.filmGenres[filmID]
	for _, g := range genres {
		if !slices.Contains(ids, g.ID) {
			ids = append(ids, g.ID)
		}
	}
	if len(ids) > 0 {
		r.s.filmGenres[filmID] = ids
	}
	return nil
}

// DetachAll removes every genre link of a film.
func (r *MemoryGenreRepository) DetachAll(_ context.Context, filmID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.filmGenres, filmID)
	return nil
}

// Replace swaps the genre set of a film; on error the previous set is kept.
func (r *MemoryGenreRepository) Replace(_ context.Context, filmID int64, genres []models.Genre) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	previous, had := r.s.filmGenres[filmID]
	delete(r.s.filmGenres, filmID)
	if err := r.attachLocked(filmID, genres); err != nil {
		if had {
			r.s.filmGenres[filmID] = previous
		}
		return err
	}
	return nil
}

// MemoryMPARepository implements MPARepository on a MemoryStore.
type MemoryMPARepository struct{ s *MemoryStore }

// List returns every rating ordered by id.
func (r *MemoryMPARepository) List(_ context.Context) ([]models.MPA, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ratings := make([]models.MPA, 0, len(r.s.mpa))
	for _, m := range r.s.mpa {
		ratings = append(ratings, m)
	}
	slices.SortFunc(ratings, func(a, b models.MPA) int { return cmp.Compare(a.ID, b.ID) })
	return ratings, nil
}

// FindByID fetches a single rating.
func (r *MemoryMPARepository) FindByID(_ context.Context, id int64) (models.MPA, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.mpa[id]
	if !ok {
		return models.MPA{}, ErrNotFound
	}
	return m, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
var _ FriendRepository = (*MemoryFriendRepository)(nil)
var _ FilmRepository = (*MemoryFilmRepository)(nil)
var _ LikeRepository = (*MemoryLikeRepository)(nil)
var _ GenreRepository = (*MemoryGenreRepository)(nil)
var _ MPARepository = (*MemoryMPARepository)(nil)
