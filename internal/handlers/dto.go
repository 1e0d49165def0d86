package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/filmorate/backend/internal/models"
)

// date travels over the wire as YYYY-MM-DD. The zero value encodes as null.
type date struct {
	time.Time
}

func (d date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(time.DateOnly))
}

func (d *date) UnmarshalJSON(b []byte) error {
	var raw *string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(*raw))
	if err != nil {
		return fmt.Errorf("date must be formatted as YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

type userDTO struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	Login    string  `json:"login"`
	Name     string  `json:"name"`
	Birthday date    `json:"birthday"`
	Friends  []int64 `json:"friends"`
}

func (u userDTO) model() models.User {
	return models.User{
		ID:       u.ID,
		Email:    u.Email,
		Login:    u.Login,
		Name:     u.Name,
		Birthday: u.Birthday.Time,
	}
}

func newUserDTO(u models.User) userDTO {
	friends := u.Friends
	if friends == nil {
		friends = []int64{}
	}
	return userDTO{
		ID:       u.ID,
		Email:    u.Email,
		Login:    u.Login,
		Name:     u.Name,
		Birthday: date{u.Birthday},
		Friends:  friends,
	}
}

func newUserDTOs(users []models.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, newUserDTO(u))
	}
	return out
}

type genreDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type mpaDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type filmDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	ReleaseDate date       `json:"releaseDate"`
	Duration    int        `json:"duration"`
	MPA         mpaDTO     `json:"mpa"`
	Genres      []genreDTO `json:"genres"`
	Likes       int        `json:"likes"`
}

func (f filmDTO) model() models.Film {
	genres := make([]models.Genre, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	return models.Film{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: f.ReleaseDate.Time,
		Duration:    f.Duration,
		MPA:         models.MPA{ID: f.MPA.ID, Name: f.MPA.Name},
		Genres:      genres,
	}
}

func newFilmDTO(f models.Film) filmDTO {
	genres := make([]genreDTO, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, genreDTO{ID: g.ID, Name: g.Name})
	}
	return filmDTO{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		ReleaseDate: date{f.ReleaseDate},
		Duration:    f.Duration,
		MPA:         mpaDTO{ID: f.MPA.ID, Name: f.MPA.Name},
		Genres:      genres,
		Likes:       f.Likes,
	}
}

func newFilmDTOs(films []models.Film) []filmDTO {
	out := make([]filmDTO, 0, len(films))
	for _, f := range films {
		out = append(out, newFilmDTO(f))
	}
	return out
}
