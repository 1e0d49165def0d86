package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/filmorate/backend/internal/models"
)

func validFilm() models.Film {
	return models.Film{
		Name:        "Forest",
		Description: "RUN FOREST",
		ReleaseDate: time.Date(1990, time.September, 28, 0, 0, 0, 0, time.UTC),
		Duration:    190,
		MPA:         models.MPA{ID: 1},
	}
}

func validUser() models.User {
	return models.User{
		Email:    "mr-white@yandex.ru",
		Login:    "mr-white",
		Name:     "MrWhite",
		Birthday: time.Date(2000, time.September, 29, 0, 0, 0, 0, time.UTC),
	}
}

func TestFilm(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.Film)
		wantErr bool
	}{
		{"valid", func(*models.Film) {}, false},
		{"blankName", func(f *models.Film) { f.Name = "   " }, true},
		{"emptyName", func(f *models.Film) { f.Name = "" }, true},
		{"description200", func(f *models.Film) { f.Description = strings.Repeat("a", 200) }, false},
		{"description201", func(f *models.Film) { f.Description = strings.Repeat("a", 201) }, true},
		{"description200Runes", func(f *models.Film) { f.Description = strings.Repeat("ф", 200) }, false},
		{"releaseOnEpoch", func(f *models.Film) { f.ReleaseDate = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC) }, false},
		{"releaseBeforeEpoch", func(f *models.Film) { f.ReleaseDate = time.Date(1895, time.December, 27, 0, 0, 0, 0, time.UTC) }, true},
		{"releaseToday", func(f *models.Film) { f.ReleaseDate = time.Now() }, false},
		{"releaseInFuture", func(f *models.Film) { f.ReleaseDate = time.Now().AddDate(5, 0, 0) }, true},
		{"zeroRelease", func(f *models.Film) { f.ReleaseDate = time.Time{} }, true},
		{"zeroDuration", func(f *models.Film) { f.Duration = 0 }, true},
		{"negativeDuration", func(f *models.Film) { f.Duration = -1 }, true},
		{"missingMPA", func(f *models.Film) { f.MPA = models.MPA{} }, true},
		{"badGenre", func(f *models.Film) { f.Genres = []models.Genre{{ID: 1}, {ID: 0}} }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			film := validFilm()
			tc.mutate(&film)

			err := Film(film)
			if tc.wantErr {
				if !errors.Is(err, models.ErrValidation) {
					t.Fatalf("expected validation error got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUser(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.User)
		wantErr bool
	}{
		{"valid", func(*models.User) {}, false},
		{"emailWithoutAt", func(u *models.User) { u.Email = "mr-whiteyandex.ru" }, true},
		{"emptyEmail", func(u *models.User) { u.Email = "" }, true},
		{"birthdayInFuture", func(u *models.User) { u.Birthday = time.Now().AddDate(0, 0, 1) }, true},
		{"emptyLogin", func(u *models.User) { u.Login = "" }, true},
		{"loginWithSpace", func(u *models.User) { u.Login = "mr white" }, true},
		{"loginWithTab", func(u *models.User) { u.Login = "mr\twhite" }, true},
		{"emptyName", func(u *models.User) { u.Name = "" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			user := validUser()
			tc.mutate(&user)

			err := User(user)
			if tc.wantErr {
				if !errors.Is(err, models.ErrValidation) {
					t.Fatalf("expected validation error got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestErrorListsEveryField(t *testing.T) {
	film := validFilm()
	film.Name = ""
	film.Duration = -5

	err := Film(film)
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error got %T", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("expected 2 field errors got %+v", verr.Fields)
	}
	if verr.Fields[0].Field != "Name" || verr.Fields[1].Field != "Duration" {
		t.Fatalf("unexpected fields: %+v", verr.Fields)
	}
}

func TestFailed(t *testing.T) {
	err := Failed("count", "count must be positive")
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error got %v", err)
	}
	if !strings.Contains(err.Error(), "count must be positive") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
