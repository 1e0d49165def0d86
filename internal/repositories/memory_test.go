package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/filmorate/backend/internal/models"
)

func newMemoryUser(t *testing.T, s *MemoryStore, login string) models.User {
	t.Helper()

	user, err := s.Users().Create(context.Background(), models.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     login,
		Birthday: time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func newMemoryFilm(t *testing.T, s *MemoryStore, name string) models.Film {
	t.Helper()

	film, err := s.Films().Create(context.Background(), models.Film{
		Name:        name,
		ReleaseDate: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		Duration:    90,
		MPA:         models.MPA{ID: 3},
	})
	if err != nil {
		t.Fatalf("create film: %v", err)
	}
	return film
}

func TestMemoryUsersAssignSequentialIDs(t *testing.T) {
	s := NewMemoryStore()
	first := newMemoryUser(t, s, "first")
	second := newMemoryUser(t, s, "second")

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("unexpected ids %d, %d", first.ID, second.ID)
	}
	if first.Friends == nil || len(first.Friends) != 0 {
		t.Fatalf("expected empty friend set got %v", first.Friends)
	}
}

func TestMemoryUserUpdateKeepsFriends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newMemoryUser(t, s, "a")
	b := newMemoryUser(t, s, "b")
	if err := s.Friends().Link(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("link: %v", err)
	}

	a.Name = "renamed"
	a.Friends = nil
	updated, err := s.Users().Update(ctx, a)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "renamed" || len(updated.Friends) != 1 || updated.Friends[0] != b.ID {
		t.Fatalf("unexpected user %+v", updated)
	}

	if _, err := s.Users().Update(ctx, models.User{ID: 99}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestMemoryFriendLinkIsSymmetric(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newMemoryUser(t, s, "a")
	b := newMemoryUser(t, s, "b")

	if err := s.Friends().Link(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := s.Friends().Link(ctx, b.ID, a.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict got %v", err)
	}

	gotA, _ := s.Users().FindByID(ctx, a.ID)
	gotB, _ := s.Users().FindByID(ctx, b.ID)
	if !gotA.HasFriend(b.ID) || !gotB.HasFriend(a.ID) {
		t.Fatalf("expected symmetric friendship got %v / %v", gotA.Friends, gotB.Friends)
	}

	if err := s.Friends().Unlink(ctx, b.ID, a.ID); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := s.Friends().Unlink(ctx, a.ID, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	gotA, _ = s.Users().FindByID(ctx, a.ID)
	if len(gotA.Friends) != 0 {
		t.Fatalf("expected no friends got %v", gotA.Friends)
	}
}

func TestMemoryFriendLinkUnknownUser(t *testing.T) {
	s := NewMemoryStore()
	a := newMemoryUser(t, s, "a")

	if err := s.Friends().Link(context.Background(), a.ID, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestMemoryFindByIDReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newMemoryUser(t, s, "a")
	b := newMemoryUser(t, s, "b")
	if err := s.Friends().Link(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("link: %v", err)
	}

	got, _ := s.Users().FindByID(ctx, a.ID)
	got.Friends[0] = 999

	again, _ := s.Users().FindByID(ctx, a.ID)
	if again.Friends[0] != b.ID {
		t.Fatalf("store was mutated through returned slice: %v", again.Friends)
	}
}

func TestMemoryUserDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	a := newMemoryUser(t, s, "a")
	b := newMemoryUser(t, s, "b")
	film := newMemoryFilm(t, s, "film")

	if err := s.Friends().Link(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("link: %v", err)
	}
	if err := s.Likes().Add(ctx, film.ID, a.ID); err != nil {
		t.Fatalf("like: %v", err)
	}

	deleted, err := s.Users().Delete(ctx, a.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Login != "a" {
		t.Fatalf("expected deleted user returned got %+v", deleted)
	}

	gotB, _ := s.Users().FindByID(ctx, b.ID)
	if len(gotB.Friends) != 0 {
		t.Fatalf("expected friendship removed got %v", gotB.Friends)
	}
	gotFilm, _ := s.Films().FindByID(ctx, film.ID)
	if gotFilm.Likes != 0 {
		t.Fatalf("expected like removed got %d", gotFilm.Likes)
	}
	if _, err := s.Users().FindByID(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestMemoryFilmCreateResolvesMPA(t *testing.T) {
	s := NewMemoryStore()
	film := newMemoryFilm(t, s, "film")

	if film.ID != 1 || film.MPA.Name != "PG-13" {
		t.Fatalf("unexpected film %+v", film)
	}

	_, err := s.Films().Create(context.Background(), models.Film{Name: "x", Duration: 1, MPA: models.MPA{ID: 9}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestMemoryLikesAreIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user := newMemoryUser(t, s, "u")
	film := newMemoryFilm(t, s, "film")

	for i := 0; i < 3; i++ {
		if err := s.Likes().Add(ctx, film.ID, user.ID); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	got, _ := s.Films().FindByID(ctx, film.ID)
	if got.Likes != 1 {
		t.Fatalf("expected 1 like got %d", got.Likes)
	}

	for i := 0; i < 2; i++ {
		if err := s.Likes().Remove(ctx, film.ID, user.ID); err != nil {
			t.Fatalf("unlike: %v", err)
		}
	}
	got, _ = s.Films().FindByID(ctx, film.ID)
	if got.Likes != 0 {
		t.Fatalf("expected 0 likes got %d", got.Likes)
	}

	if err := s.Likes().Add(ctx, film.ID, 77); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user got %v", err)
	}
	if err := s.Likes().Add(ctx, 77, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown film got %v", err)
	}
}

func TestMemoryPopularOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var users []models.User
	for _, login := range []string{"u1", "u2", "u3", "u4", "u5"} {
		users = append(users, newMemoryUser(t, s, login))
	}
	likes := []int{0, 3, 5, 3, 1}
	var films []models.Film
	for i, n := range likes {
		film := newMemoryFilm(t, s, "film")
		films = append(films, film)
		for _, u := range users[:n] {
			if err := s.Likes().Add(ctx, film.ID, u.ID); err != nil {
				t.Fatalf("like film %d: %v", i, err)
			}
		}
	}

	top, err := s.Films().Popular(ctx, 10)
	if err != nil {
		t.Fatalf("popular: %v", err)
	}
	wantIDs := []int64{films[2].ID, films[1].ID, films[3].ID, films[4].ID, films[0].ID}
	if len(top) != len(wantIDs) {
		t.Fatalf("expected %d films got %d", len(wantIDs), len(top))
	}
	for i, id := range wantIDs {
		if top[i].ID != id {
			t.Fatalf("position %d: expected film %d got %d", i, id, top[i].ID)
		}
	}

	top, _ = s.Films().Popular(ctx, 2)
	if len(top) != 2 || top[0].Likes != 5 || top[1].Likes != 3 {
		t.Fatalf("unexpected top 2 %+v", top)
	}
}

func TestMemoryFilmDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	user := newMemoryUser(t, s, "u")
	film := newMemoryFilm(t, s, "film")

	if err := s.Likes().Add(ctx, film.ID, user.ID); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := s.Genres().Attach(ctx, film.ID, []models.Genre{{ID: 2}}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := s.Films().Delete(ctx, film.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Films().Delete(ctx, film.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	genres, _ := s.Genres().FindForFilms(ctx, []int64{film.ID})
	if len(genres) != 0 {
		t.Fatalf("expected genre links removed got %v", genres)
	}
}

func TestMemoryGenreAttachAndReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	film := newMemoryFilm(t, s, "film")

	if err := s.Genres().Attach(ctx, film.ID, []models.Genre{{ID: 3}, {ID: 1}, {ID: 3}}); err != nil {
		t.Fatalf("attach: %v", err)
	}
	got, _ := s.Genres().FindForFilms(ctx, []int64{film.ID})
	if g := got[film.ID]; len(g) != 2 || g[0].ID != 3 || g[1].ID != 1 || g[0].Name != "Мультфильм" {
		t.Fatalf("unexpected genres %+v", g)
	}

	if err := s.Genres().Replace(ctx, film.ID, []models.Genre{{ID: 6}, {ID: 99}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	got, _ = s.Genres().FindForFilms(ctx, []int64{film.ID})
	if g := got[film.ID]; len(g) != 2 || g[0].ID != 3 {
		t.Fatalf("failed replace must keep previous genres got %+v", g)
	}

	if err := s.Genres().Replace(ctx, film.ID, []models.Genre{{ID: 6}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = s.Genres().FindForFilms(ctx, []int64{film.ID})
	if g := got[film.ID]; len(g) != 1 || g[0].ID != 6 {
		t.Fatalf("unexpected genres after replace %+v", g)
	}

	if err := s.Genres().Replace(ctx, film.ID, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.Genres().FindForFilms(ctx, []int64{film.ID})
	if _, ok := got[film.ID]; ok {
		t.Fatalf("expected no genres got %+v", got[film.ID])
	}
}

func TestMemoryCatalogues(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	genres, _ := s.Genres().List(ctx)
	if len(genres) != 6 || genres[0].Name != "Комедия" || genres[5].Name != "Боевик" {
		t.Fatalf("unexpected genres %+v", genres)
	}
	ratings, _ := s.MPA().List(ctx)
	if len(ratings) != 5 || ratings[4].Name != "NC-17" {
		t.Fatalf("unexpected ratings %+v", ratings)
	}
	if _, err := s.MPA().FindByID(ctx, 6); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if _, err := s.Genres().FindByID(ctx, 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}
