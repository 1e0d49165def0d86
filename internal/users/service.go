// Package users implements user management and the symmetric friendship graph.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/filmorate/backend/internal/logging"
	"github.com/filmorate/backend/internal/metrics"
	"github.com/filmorate/backend/internal/models"
	"github.com/filmorate/backend/internal/repositories"
	"github.com/filmorate/backend/internal/validation"
)

// PopularInvalidator drops cached popularity rankings. Deleting a user removes
// its likes, so rankings computed before the deletion are stale.
type PopularInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service coordinates user persistence and friendships.
type Service struct {
	users   repositories.UserRepository
	friends repositories.FriendRepository
	popular PopularInvalidator
}

// NewService constructs a user service over the given repositories. popular
// may be nil when no popularity cache is in use.
func NewService(users repositories.UserRepository, friends repositories.FriendRepository, popular PopularInvalidator) *Service {
	return &Service{users: users, friends: friends, popular: popular}
}

// GetUser fetches a single user with its friend set.
func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.User{}, userErr(err, id)
	}
	return user, nil
}

// ListUsers returns every user ordered by id.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AddUser validates and stores a new user. The id and friend set of the input are ignored.
func (s *Service) AddUser(ctx context.Context, user models.User) (models.User, error) {
	user = normalise(user)
	if err := validation.User(user); err != nil {
		logging.FromContext(ctx).Warn("user rejected", "login", user.Login, "error", err)
		return models.User{}, err
	}

	user.ID = 0
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	logging.FromContext(ctx).Info("user created", "userId", created.ID, "login", created.Login)
	return created, nil
}

// UpdateUser validates and overwrites an existing user. Friendships are not touched.
func (s *Service) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	user = normalise(user)
	if err := validation.User(user); err != nil {
		logging.FromContext(ctx).Warn("user update rejected", "userId", user.ID, "error", err)
		return models.User{}, err
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return models.User{}, userErr(err, user.ID)
	}

	logging.FromContext(ctx).Info("user updated", "userId", updated.ID)
	return updated, nil
}

// RemoveUser deletes a user and returns it as it was before deletion.
func (s *Service) RemoveUser(ctx context.Context, id int64) (models.User, error) {
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return models.User{}, userErr(err, id)
	}

	if s.popular != nil {
		if err := s.popular.Invalidate(ctx); err != nil {
			metrics.RecordCacheError("invalidate")
			logging.FromContext(ctx).Warn("popular cache invalidation failed", "userId", id, "error", err)
		}
	}

	logging.FromContext(ctx).Info("user removed", "userId", id)
	return deleted, nil
}

// AddFriend makes two users friends of each other and returns the friend.
func (s *Service) AddFriend(ctx context.Context, userID, friendID int64) (models.User, error) {
	if userID == friendID {
		return models.User{}, validation.Failed("friendId", "a user cannot befriend themselves")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.GetUser(ctx, friendID); err != nil {
		return models.User{}, err
	}
	if user.HasFriend(friendID) {
		logging.FromContext(ctx).Warn("friendship already exists", "userId", userID, "friendId", friendID)
		return models.User{}, fmt.Errorf("user %d and user %d: %w", userID, friendID, models.ErrAlreadyFriends)
	}

	if err := s.relate(ctx, linkFriends, userID, friendID); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, friendID)
}

// RemoveFriend ends the friendship between two users and returns the former friend.
func (s *Service) RemoveFriend(ctx context.Context, userID, friendID int64) (models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if _, err := s.GetUser(ctx, friendID); err != nil {
		return models.User{}, err
	}
	if !user.HasFriend(friendID) {
		logging.FromContext(ctx).Warn("friendship does not exist", "userId", userID, "friendId", friendID)
		return models.User{}, fmt.Errorf("user %d and user %d: %w", userID, friendID, models.ErrNotFriends)
	}

	if err := s.relate(ctx, unlinkFriends, userID, friendID); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, friendID)
}

// ListFriends resolves the friend set of a user in the order friendships were made.
func (s *Service) ListFriends(ctx context.Context, userID int64) ([]models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]models.User, 0, len(user.Friends))
	for _, id := range user.Friends {
		friend, err := s.users.FindByID(ctx, id)
		if errors.Is(err, repositories.ErrNotFound) {
			// deleted between the two reads
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load friend %d: %w", id, err)
		}
		friends = append(friends, friend)
	}
	return friends, nil
}

// GetFriend returns friendID if it belongs to the friend set of userID.
func (s *Service) GetFriend(ctx context.Context, userID, friendID int64) (models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if !user.HasFriend(friendID) {
		return models.User{}, fmt.Errorf("user %d has no friend %d: %w", userID, friendID, models.ErrNotFound)
	}
	return s.GetUser(ctx, friendID)
}

// ListCommonFriends returns every user befriended by both userID and otherID,
// excluding the two users themselves.
func (s *Service) ListCommonFriends(ctx context.Context, userID, otherID int64) ([]models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	other, err := s.GetUser(ctx, otherID)
	if err != nil {
		return nil, err
	}

	common := []models.User{}
	if len(user.Friends) == 0 || len(other.Friends) == 0 {
		return common, nil
	}

	all, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range all {
		if candidate.ID == userID || candidate.ID == otherID {
			continue
		}
		if candidate.HasFriend(userID) && candidate.HasFriend(otherID) {
			common = append(common, candidate)
		}
	}
	return common, nil
}

type relation string

const (
	linkFriends   relation = "add"
	unlinkFriends relation = "remove"
)

// relate is the only place friendships are written. The repository stores both
// directions as one unit, so the relation stays symmetric.
func (s *Service) relate(ctx context.Context, op relation, userID, friendID int64) (err error) {
	ctx, span := logging.StartOperation(ctx, "friends."+string(op))
	defer func() { span.End(err) }()

	switch op {
	case linkFriends:
		err = s.friends.Link(ctx, userID, friendID)
		if errors.Is(err, repositories.ErrConflict) {
			return fmt.Errorf("user %d and user %d: %w", userID, friendID, models.ErrAlreadyFriends)
		}
	case unlinkFriends:
		err = s.friends.Unlink(ctx, userID, friendID)
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("user %d and user %d: %w", userID, friendID, models.ErrNotFriends)
		}
	default:
		return fmt.Errorf("unknown friendship operation %q", op)
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("user %d or %d: %w", userID, friendID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%s friendship: %w", op, err)
	}

	metrics.RecordFriendship(string(op))
	logging.FromContext(ctx).Info("friendship changed", "action", string(op), "userId", userID, "friendId", friendID)
	return nil
}

// normalise falls back to the login when no display name is given.
func normalise(user models.User) models.User {
	if strings.TrimSpace(user.Name) == "" {
		user.Name = user.Login
	}
	return user
}

func userErr(err error, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("user %d: %w", id, err)
}
