package repositories

import (
	"context"

	"github.com/filmorate/backend/internal/models"
)

// UserRepository defines the data access contract for users. Users returned by
// FindByID and List carry their friend set.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
	Update(ctx context.Context, user models.User) (models.User, error)
	Delete(ctx context.Context, id int64) (models.User, error)
}
