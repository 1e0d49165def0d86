package models

import "errors"

var (
	// ErrNotFound indicates a referenced user, film, genre or rating does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates entity attributes violate their constraints.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyFriends indicates the friendship being created already exists.
	ErrAlreadyFriends = errors.New("users are already friends")
	// ErrNotFriends indicates the friendship being removed does not exist.
	ErrNotFriends = errors.New("users are not friends")
)
