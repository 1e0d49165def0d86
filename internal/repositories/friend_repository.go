package repositories

import (
	"context"
)

// FriendRepository persists the symmetric friendship relation. Link and Unlink
// write both directions as a single unit so a friend set never goes one-sided.
type FriendRepository interface {
	Link(ctx context.Context, userID, friendID int64) error
	Unlink(ctx context.Context, userID, friendID int64) error
}
