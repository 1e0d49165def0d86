package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/filmorate/backend/internal/cache"
	"github.com/filmorate/backend/internal/films"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
)

func newTestService() (*Service, *repositories.MemoryStore) {
	store := repositories.NewMemoryStore()
	return NewService(store.Users(), store.Friends(), nil), store
}

func mustAddUser(t *testing.T, svc *Service, login string) models.User {
	t.Helper()
	user, err := svc.AddUser(context.Background(), models.User{
		Email:    login + "@example.com",
		Login:    login,
		Name:     login,
		Birthday: time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("add user %s: %v", login, err)
	}
	return user
}

func mustBefriend(t *testing.T, svc *Service, a, b int64) {
	t.Helper()
	if _, err := svc.AddFriend(context.Background(), a, b); err != nil {
		t.Fatalf("add friend %d-%d: %v", a, b, err)
	}
}

func ids(users []models.User) []int64 {
	out := make([]int64, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func TestAddUserFallsBackToLogin(t *testing.T) {
	svc, _ := newTestService()
	user, err := svc.AddUser(context.Background(), models.User{
		ID:       77,
		Email:    "mr-white@example.com",
		Login:    "mr-white",
		Name:     "  ",
		Birthday: time.Date(1958, time.September, 7, 0, 0, 0, 0, time.UTC),
		Friends:  []int64{5},
	})
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if user.ID != 1 || user.Name != "mr-white" || len(user.Friends) != 0 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestAddUserRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.AddUser(context.Background(), models.User{Email: "broken", Login: "has space"})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}

	users, _ := svc.ListUsers(context.Background())
	if len(users) != 0 {
		t.Fatalf("invalid user must not be stored, got %+v", users)
	}
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	user := mustAddUser(t, svc, "alice")

	user.Email = "alice@films.example"
	user.Name = ""
	updated, err := svc.UpdateUser(ctx, user)
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Email != "alice@films.example" || updated.Name != "alice" {
		t.Fatalf("unexpected user %+v", updated)
	}

	user.ID = 99
	if _, err := svc.UpdateUser(ctx, user); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	user.ID = updated.ID
	user.Birthday = time.Now().Add(48 * time.Hour)
	if _, err := svc.UpdateUser(ctx, user); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
}

func TestRemoveUser(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")
	bob := mustAddUser(t, svc, "bob")
	mustBefriend(t, svc, alice.ID, bob.ID)

	removed, err := svc.RemoveUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("remove user: %v", err)
	}
	if removed.ID != alice.ID || !removed.HasFriend(bob.ID) {
		t.Fatalf("expected pre-deletion user got %+v", removed)
	}
	if _, err := svc.GetUser(ctx, alice.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}

	friends, err := svc.ListFriends(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 0 {
		t.Fatalf("expected removed user to leave friend sets, got %v", ids(friends))
	}

	if _, err := svc.RemoveUser(ctx, alice.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestAddFriendIsSymmetric(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")
	bob := mustAddUser(t, svc, "bob")

	friend, err := svc.AddFriend(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("add friend: %v", err)
	}
	if friend.ID != bob.ID || !friend.HasFriend(alice.ID) {
		t.Fatalf("expected bob with alice as friend, got %+v", friend)
	}

	aliceFriends, _ := svc.ListFriends(ctx, alice.ID)
	bobFriends, _ := svc.ListFriends(ctx, bob.ID)
	if len(aliceFriends) != 1 || aliceFriends[0].ID != bob.ID {
		t.Fatalf("unexpected friends of alice %v", ids(aliceFriends))
	}
	if len(bobFriends) != 1 || bobFriends[0].ID != alice.ID {
		t.Fatalf("unexpected friends of bob %v", ids(bobFriends))
	}
}

func TestAddFriendTwiceFails(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")
	bob := mustAddUser(t, svc, "bob")
	mustBefriend(t, svc, alice.ID, bob.ID)

	if _, err := svc.AddFriend(ctx, alice.ID, bob.ID); !errors.Is(err, models.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends got %v", err)
	}
	if _, err := svc.AddFriend(ctx, bob.ID, alice.ID); !errors.Is(err, models.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends in reverse got %v", err)
	}

	friends, _ := svc.ListFriends(ctx, alice.ID)
	if len(friends) != 1 {
		t.Fatalf("failed add must not change state, got %v", ids(friends))
	}
}

func TestAddFriendPreconditions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")

	if _, err := svc.AddFriend(ctx, alice.ID, alice.ID); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error for self friendship got %v", err)
	}
	if _, err := svc.AddFriend(ctx, alice.ID, 42); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown friend got %v", err)
	}
	if _, err := svc.AddFriend(ctx, 42, alice.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user got %v", err)
	}
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")
	bob := mustAddUser(t, svc, "bob")

	if _, err := svc.RemoveFriend(ctx, alice.ID, bob.ID); !errors.Is(err, models.ErrNotFriends) {
		t.Fatalf("expected ErrNotFriends got %v", err)
	}

	mustBefriend(t, svc, alice.ID, bob.ID)
	friend, err := svc.RemoveFriend(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("remove friend: %v", err)
	}
	if friend.ID != alice.ID || len(friend.Friends) != 0 {
		t.Fatalf("unexpected former friend %+v", friend)
	}

	aliceFriends, _ := svc.ListFriends(ctx, alice.ID)
	bobFriends, _ := svc.ListFriends(ctx, bob.ID)
	if len(aliceFriends) != 0 || len(bobFriends) != 0 {
		t.Fatalf("expected both sides removed, got %v and %v", ids(aliceFriends), ids(bobFriends))
	}

	if _, err := svc.RemoveFriend(ctx, alice.ID, 42); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestListFriendsKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	hub := mustAddUser(t, svc, "hub")
	a := mustAddUser(t, svc, "a")
	b := mustAddUser(t, svc, "b")
	c := mustAddUser(t, svc, "c")

	mustBefriend(t, svc, hub.ID, c.ID)
	mustBefriend(t, svc, a.ID, hub.ID)
	mustBefriend(t, svc, hub.ID, b.ID)

	friends, err := svc.ListFriends(ctx, hub.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	got := ids(friends)
	want := []int64{c.ID, a.ID, b.ID}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v got %v", want, got)
		}
	}

	if _, err := svc.ListFriends(ctx, 99); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestGetFriend(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	alice := mustAddUser(t, svc, "alice")
	bob := mustAddUser(t, svc, "bob")
	carol := mustAddUser(t, svc, "carol")
	mustBefriend(t, svc, alice.ID, bob.ID)

	friend, err := svc.GetFriend(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("get friend: %v", err)
	}
	if friend.ID != bob.ID {
		t.Fatalf("expected bob got %+v", friend)
	}

	if _, err := svc.GetFriend(ctx, alice.ID, carol.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-friend got %v", err)
	}
	if _, err := svc.GetFriend(ctx, 99, bob.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user got %v", err)
	}
}

func TestListCommonFriends(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	a := mustAddUser(t, svc, "a")
	b := mustAddUser(t, svc, "b")
	shared := mustAddUser(t, svc, "shared")
	onlyA := mustAddUser(t, svc, "only-a")
	loner := mustAddUser(t, svc, "loner")

	mustBefriend(t, svc, a.ID, b.ID)
	mustBefriend(t, svc, a.ID, shared.ID)
	mustBefriend(t, svc, b.ID, shared.ID)
	mustBefriend(t, svc, a.ID, onlyA.ID)

	common, err := svc.ListCommonFriends(ctx, a.ID, b.ID)
	if err != nil {
		t.Fatalf("common friends: %v", err)
	}
	if got := ids(common); len(got) != 1 || got[0] != shared.ID {
		t.Fatalf("expected only shared friend, got %v", got)
	}

	common, err = svc.ListCommonFriends(ctx, a.ID, loner.ID)
	if err != nil {
		t.Fatalf("common friends with loner: %v", err)
	}
	if common == nil || len(common) != 0 {
		t.Fatalf("expected empty list, got %v", common)
	}

	if _, err := svc.ListCommonFriends(ctx, a.ID, 99); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

type failingFriends struct {
	err error
}

func (f failingFriends) Link(context.Context, int64, int64) error   { return f.err }
func (f failingFriends) Unlink(context.Context, int64, int64) error { return f.err }

func TestRelateTranslatesRepositoryErrors(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	seed := NewService(store.Users(), store.Friends(), nil)
	alice := mustAddUser(t, seed, "alice")
	bob := mustAddUser(t, seed, "bob")

	raced := NewService(store.Users(), failingFriends{err: repositories.ErrConflict}, nil)
	if _, err := raced.AddFriend(ctx, alice.ID, bob.ID); !errors.Is(err, models.ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends from concurrent insert got %v", err)
	}

	infra := errors.New("connection reset")
	broken := NewService(store.Users(), failingFriends{err: infra}, nil)
	if _, err := broken.AddFriend(ctx, alice.ID, bob.ID); !errors.Is(err, infra) {
		t.Fatalf("expected infrastructure error to propagate got %v", err)
	}
}

func TestRemoveUserRefreshesPopularRanking(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	popular := cache.NewMemoryPopular(time.Hour)
	svc := NewService(store.Users(), store.Friends(), popular)
	filmSvc := films.NewService(films.Repositories{
		Films:  store.Films(),
		Likes:  store.Likes(),
		Genres: store.Genres(),
		MPA:    store.MPA(),
		Users:  store.Users(),
	}, popular)

	fan := mustAddUser(t, svc, "fan")
	film, err := filmSvc.AddFilm(ctx, models.Film{
		Name:        "Liked",
		ReleaseDate: time.Date(2001, time.March, 3, 0, 0, 0, 0, time.UTC),
		Duration:    100,
		MPA:         models.MPA{ID: 1},
	})
	if err != nil {
		t.Fatalf("add film: %v", err)
	}
	if err := filmSvc.PutLike(ctx, film.ID, fan.ID); err != nil {
		t.Fatalf("put like: %v", err)
	}

	before, err := filmSvc.TopPopular(ctx, 1)
	if err != nil || len(before) != 1 || before[0].Likes != 1 {
		t.Fatalf("expected one like before removal, got %+v (%v)", before, err)
	}

	if _, err := svc.RemoveUser(ctx, fan.ID); err != nil {
		t.Fatalf("remove user: %v", err)
	}

	after, err := filmSvc.TopPopular(ctx, 1)
	if err != nil {
		t.Fatalf("top popular: %v", err)
	}
	if len(after) != 1 || after[0].Likes != 0 {
		t.Fatalf("expected likes of removed user to disappear from ranking, got %+v", after)
	}
}

type brokenInvalidator struct{ calls int }

func (b *brokenInvalidator) Invalidate(context.Context) error {
	b.calls++
	return errors.New("cache unavailable")
}

func TestRemoveUserIgnoresCacheFailure(t *testing.T) {
	store := repositories.NewMemoryStore()
	inv := &brokenInvalidator{}
	svc := NewService(store.Users(), store.Friends(), inv)
	user := mustAddUser(t, svc, "gone")

	if _, err := svc.RemoveUser(context.Background(), user.ID); err != nil {
		t.Fatalf("cache failure must not fail removal, got %v", err)
	}
	if inv.calls != 1 {
		t.Fatalf("expected one invalidation, got %d", inv.calls)
	}

	if _, err := svc.RemoveUser(context.Background(), user.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
	if inv.calls != 1 {
		t.Fatalf("failed removal must not invalidate, got %d calls", inv.calls)
	}
}
