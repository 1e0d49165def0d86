package models

import (
	"slices"
	"time"
)

// User represents a Filmorate account together with its friend set.
type User struct {
	ID       int64
	Email    string    `validate:"required,email"`
	Login    string    `validate:"required,nowhitespace"`
	Name     string
	Birthday time.Time `validate:"notfuture"`
	// Friends holds friend ids in the order the friendships were created.
	Friends []int64
}

// HasFriend reports whether id is part of the user's friend set.
func (u User) HasFriend(id int64) bool {
	return slices.Contains(u.Friends, id)
}

// Film is a catalogue entry that users can like.
type Film struct {
	ID          int64
	Name        string    `validate:"notblank"`
	Description string    `validate:"max=200"`
	ReleaseDate time.Time `validate:"cinemaepoch,notfuture"`
	Duration    int       `validate:"gt=0"`
	MPA         MPA
	Genres      []Genre `validate:"dive"`
	// Likes is the number of users that liked the film.
	Likes int
}

// Genre is a reference genre tag attached to films.
type Genre struct {
	ID   int64 `validate:"gt=0"`
	Name string
}

// MPA is the Motion Picture Association rating of a film.
type MPA struct {
	ID   int64 `validate:"gt=0"`
	Name string
}

// UniqueGenres returns genres without duplicate ids, keeping the first occurrence.
func UniqueGenres(genres []Genre) []Genre {
	if len(genres) == 0 {
		return []Genre{}
	}
	seen := make(map[int64]struct{}, len(genres))
	out := make([]Genre, 0, len(genres))
	for _, g := range genres {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	return out
}

// GenreIDs returns the ids of the provided genres in order.
func GenreIDs(genres []Genre) []int64 {
	ids := make([]int64, 0, len(genres))
	for _, g := range genres {
		ids = append(ids, g.ID)
	}
	return ids
}
