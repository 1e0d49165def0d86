package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/filmorate/backend/internal/db"
	"github.com/filmorate/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// execer is satisfied by both pooled connections and transactions.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// querier is satisfied by both pooled connections and transactions.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify maps constraint violations onto repository sentinels.
func classify(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
	}
	return fmt.Errorf("%s: %w", action, err)
}

func nullableDate(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Valid: true, Time: t.UTC()}
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// FindByID fetches a user and its friend set.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findUser(ctx, conn, id)
}

func findUser(ctx context.Context, q querier, id int64) (models.User, error) {
	row := q.QueryRow(ctx, `
        SELECT id, email, login, name, birthday
        FROM users
        WHERE id = $1
    `, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	friends, err := friendsOf(ctx, q, id)
	if err != nil {
		return models.User{}, err
	}
	if set, ok := friends[id]; ok {
		user.Friends = set
	}
	return user, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user     models.User
		birthday sql.NullTime
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Login, &user.Name, &birthday); err != nil {
		return models.User{}, err
	}
	if birthday.Valid {
		user.Birthday = birthday.Time.UTC()
	}
	user.Friends = []int64{}
	return user, nil
}

// friendsOf loads friend ids in creation order. A zero id loads every user's set.
func friendsOf(ctx context.Context, q querier, id int64) (map[int64][]int64, error) {
	query := `
        SELECT user_id, friend_id
        FROM friendships
        ORDER BY user_id, created_at, friend_id
    `
	var args []any
	if id != 0 {
		query = `
        SELECT user_id, friend_id
        FROM friendships
        WHERE user_id = $1
        ORDER BY created_at, friend_id
    `
		args = append(args, id)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query friendships: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var userID, friendID int64
		if err := rows.Scan(&userID, &friendID); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		out[userID] = append(out[userID], friendID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friendships: %w", err)
	}
	return out, nil
}

// List returns every user ordered by id.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, email, login, name, birthday
        FROM users
        ORDER BY id
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	friends, err := friendsOf(ctx, conn, 0)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if set, ok := friends[users[i].ID]; ok {
			users[i].Friends = set
		}
	}
	return users, nil
}

// Create inserts a user and returns it with its assigned id.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
        INSERT INTO users (email, login, name, birthday)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `, user.Email, user.Login, user.Name, nullableDate(user.Birthday)).Scan(&user.ID)
	if err != nil {
		return models.User{}, classify(err, "insert user")
	}

	user.Friends = []int64{}
	return user, nil
}

// Update overwrites the attributes of an existing user. Friendships are untouched.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, login = $3, name = $4, birthday = $5
        WHERE id = $1
    `, user.ID, user.Email, user.Login, user.Name, nullableDate(user.Birthday))
	if err != nil {
		return models.User{}, classify(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, ErrNotFound
	}

	return findUser(ctx, conn, user.ID)
}

// Delete removes a user; friendships and likes go with it through ON DELETE CASCADE.
func (r *PostgresUserRepository) Delete(ctx context.Context, id int64) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var deleted models.User
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		user, err := findUser(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return models.User{}, classify(err, "delete user")
	}
	return deleted, nil
}

// PostgresFriendRepository provides PostgreSQL-backed persistence for friendships.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

// Link stores the friendship in both directions inside one transaction.
func (r *PostgresFriendRepository) Link(ctx context.Context, userID, friendID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, pair := range [][2]int64{{userID, friendID}, {friendID, userID}} {
			if _, err := tx.Exec(ctx, `
                INSERT INTO friendships (user_id, friend_id)
                VALUES ($1, $2)
            `, pair[0], pair[1]); err != nil {
				return err
			}
		}
		return nil
	})
	return classify(err, "insert friendship")
}

// Unlink removes the friendship in both directions inside one transaction.
func (r *PostgresFriendRepository) Unlink(ctx context.Context, userID, friendID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM friendships
            WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
        `, userID, friendID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return classify(err, "delete friendship")
}

const filmSelect = `
        SELECT f.id, f.name, f.description, f.release_date, f.duration,
               m.id, m.name,
               (SELECT COUNT(*) FROM film_likes l WHERE l.film_id = f.id) AS likes
        FROM films f
        JOIN mpa m ON m.id = f.mpa_id
`

// PostgresFilmRepository provides PostgreSQL-backed persistence for films.
type PostgresFilmRepository struct {
	pool db.Pool
}

// NewPostgresFilmRepository constructs a film repository backed by PostgreSQL.
func NewPostgresFilmRepository(pool db.Pool) *PostgresFilmRepository {
	return &PostgresFilmRepository{pool: pool}
}

func scanFilm(row pgx.Row) (models.Film, error) {
	var film models.Film
	err := row.Scan(&film.ID, &film.Name, &film.Description, &film.ReleaseDate, &film.Duration,
		&film.MPA.ID, &film.MPA.Name, &film.Likes)
	if err != nil {
		return models.Film{}, err
	}
	film.ReleaseDate = film.ReleaseDate.UTC()
	film.Genres = []models.Genre{}
	return film, nil
}

func findFilm(ctx context.Context, q querier, id int64) (models.Film, error) {
	film, err := scanFilm(q.QueryRow(ctx, filmSelect+` WHERE f.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Film{}, ErrNotFound
		}
		return models.Film{}, fmt.Errorf("select film: %w", err)
	}
	return film, nil
}

func queryFilms(ctx context.Context, q querier, query string, args ...any) ([]models.Film, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query films: %w", err)
	}
	defer rows.Close()

	films := []models.Film{}
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, fmt.Errorf("scan film: %w", err)
		}
		films = append(films, film)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate films: %w", err)
	}
	return films, nil
}

// FindByID fetches a film with its rating and like count.
func (r *PostgresFilmRepository) FindByID(ctx context.Context, id int64) (models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Film{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findFilm(ctx, conn, id)
}

// List returns every film ordered by id.
func (r *PostgresFilmRepository) List(ctx context.Context) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, filmSelect+` ORDER BY f.id`)
}

// Popular returns the most liked films, ties broken by ascending id.
func (r *PostgresFilmRepository) Popular(ctx context.Context, count int) ([]models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return queryFilms(ctx, conn, filmSelect+` ORDER BY likes DESC, f.id ASC LIMIT $1`, count)
}

// Create inserts a film. An unknown MPA id yields ErrNotFound.
func (r *PostgresFilmRepository) Create(ctx context.Context, film models.Film) (models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Film{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var id int64
	err = conn.QueryRow(ctx, `
        INSERT INTO films (name, description, release_date, duration, mpa_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, film.Name, film.Description, film.ReleaseDate.UTC(), film.Duration, film.MPA.ID).Scan(&id)
	if err != nil {
		return models.Film{}, classify(err, "insert film")
	}

	return findFilm(ctx, conn, id)
}

// Update overwrites the attributes of an existing film.
func (r *PostgresFilmRepository) Update(ctx context.Context, film models.Film) (models.Film, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Film{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE films
        SET name = $2, description = $3, release_date = $4, duration = $5, mpa_id = $6
        WHERE id = $1
    `, film.ID, film.Name, film.Description, film.ReleaseDate.UTC(), film.Duration, film.MPA.ID)
	if err != nil {
		return models.Film{}, classify(err, "update film")
	}
	if tag.RowsAffected() == 0 {
		return models.Film{}, ErrNotFound
	}

	return findFilm(ctx, conn, film.ID)
}

// Delete removes a film; likes and genre links cascade.
func (r *PostgresFilmRepository) Delete(ctx context.Context, id int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM films WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete film: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// Add records a like; repeating it is a no-op.
func (r *PostgresLikeRepository) Add(ctx context.Context, filmID, userID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO film_likes (film_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (film_id, user_id) DO NOTHING
    `, filmID, userID)
	return classify(err, "insert like")
}

// Remove deletes a like; removing an absent like is a no-op.
func (r *PostgresLikeRepository) Remove(ctx context.Context, filmID, userID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM film_likes
        WHERE film_id = $1 AND user_id = $2
    `, filmID, userID); err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

// PostgresGenreRepository provides PostgreSQL-backed persistence for genres.
type PostgresGenreRepository struct {
	pool db.Pool
}

// NewPostgresGenreRepository constructs a genre repository backed by PostgreSQL.
func NewPostgresGenreRepository(pool db.Pool) *PostgresGenreRepository {
	return &PostgresGenreRepository{pool: pool}
}

// List returns the genre catalogue ordered by id.
func (r *PostgresGenreRepository) List(ctx context.Context) ([]models.Genre, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT id, name FROM genres ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query genres: %w", err)
	}
	defer rows.Close()

	genres := []models.Genre{}
	for rows.Next() {
		var g models.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genres: %w", err)
	}
	return genres, nil
}

// FindByID fetches a single genre.
func (r *PostgresGenreRepository) FindByID(ctx context.Context, id int64) (models.Genre, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Genre{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var g models.Genre
	if err := conn.QueryRow(ctx, `SELECT id, name FROM genres WHERE id = $1`, id).Scan(&g.ID, &g.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Genre{}, ErrNotFound
		}
		return models.Genre{}, fmt.Errorf("select genre: %w", err)
	}
	return g, nil
}

// FindForFilms resolves the genre sets of the given films in display order.
func (r *PostgresGenreRepository) FindForFilms(ctx context.Context, filmIDs []int64) (map[int64][]models.Genre, error) {
	out := make(map[int64][]models.Genre, len(filmIDs))
	if len(filmIDs) == 0 {
		return out, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT fg.film_id, g.id, g.name
        FROM film_genres fg
        JOIN genres g ON g.id = fg.genre_id
        WHERE fg.film_id = ANY($1)
        ORDER BY fg.film_id, fg.sort_order
    `, filmIDs)
	if err != nil {
		return nil, fmt.Errorf("query film genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			filmID int64
			g      models.Genre
		)
		if err := rows.Scan(&filmID, &g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scan film genre: %w", err)
		}
		out[filmID] = append(out[filmID], g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate film genres: %w", err)
	}
	return out, nil
}

// Attach links genres to a film. An unknown genre id yields ErrNotFound.
func (r *PostgresGenreRepository) Attach(ctx context.Context, filmID int64, genres []models.Genre) error {
	if len(genres) == 0 {
		return nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return insertFilmGenres(ctx, tx, filmID, genres)
	})
	return classify(err, "attach genres")
}

// DetachAll removes every genre link of a film.
func (r *PostgresGenreRepository) DetachAll(ctx context.Context, filmID int64) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM film_genres WHERE film_id = $1`, filmID); err != nil {
		return fmt.Errorf("detach genres: %w", err)
	}
	return nil
}

// Replace swaps the genre set of a film inside one transaction.
func (r *PostgresGenreRepository) Replace(ctx context.Context, filmID int64, genres []models.Genre) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM film_genres WHERE film_id = $1`, filmID); err != nil {
			return err
		}
		return insertFilmGenres(ctx, tx, filmID, genres)
	})
	return classify(err, "replace genres")
}

func insertFilmGenres(ctx context.Context, e execer, filmID int64, genres []models.Genre) error {
	for i, g := range genres {
		if _, err := e.Exec(ctx, `
            INSERT INTO film_genres (film_id, genre_id, sort_order)
            VALUES ($1, $2, $3)
            ON CONFLICT (film_id, genre_id) DO NOTHING
        `, filmID, g.ID, i); err != nil {
			return err
		}
	}
	return nil
}

// PostgresMPARepository provides PostgreSQL-backed access to MPA ratings.
type PostgresMPARepository struct {
	pool db.Pool
}

// NewPostgresMPARepository constructs an MPA repository backed by PostgreSQL.
func NewPostgresMPARepository(pool db.Pool) *PostgresMPARepository {
	return &PostgresMPARepository{pool: pool}
}

// List returns every rating ordered by id.
func (r *PostgresMPARepository) List(ctx context.Context) ([]models.MPA, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT id, name FROM mpa ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query mpa: %w", err)
	}
	defer rows.Close()

	ratings := []models.MPA{}
	for rows.Next() {
		var m models.MPA
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan mpa: %w", err)
		}
		ratings = append(ratings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mpa: %w", err)
	}
	return ratings, nil
}

// FindByID fetches a single rating.
func (r *PostgresMPARepository) FindByID(ctx context.Context, id int64) (models.MPA, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.MPA{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var m models.MPA
	if err := conn.QueryRow(ctx, `SELECT id, name FROM mpa WHERE id = $1`, id).Scan(&m.ID, &m.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MPA{}, ErrNotFound
		}
		return models.MPA{}, fmt.Errorf("select mpa: %w", err)
	}
	return m, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendRepository = (*PostgresFriendRepository)(nil)
var _ FilmRepository = (*PostgresFilmRepository)(nil)
var _ LikeRepository = (*PostgresLikeRepository)(nil)
var _ GenreRepository = (*PostgresGenreRepository)(nil)
var _ MPARepository = (*PostgresMPARepository)(nil)
