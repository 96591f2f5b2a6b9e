package api

import (
	"context"

	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/model"
)

// Store interfaces are defined on the consumer side so handlers can be
// tested against in-memory fakes. The storage repositories satisfy
// them as-is.

type UserStore interface {
	Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id string, upd *access.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, id string) (*model.User, error)
	ValidatePassword(user *model.User, password string) bool
}

type MealStore interface {
	Create(ctx context.Context, ownerID, name string, calories int, mealType model.MealType) (*model.Meal, error)
	FindByOwner(ctx context.Context, ownerID string) ([]model.Meal, error)
	FindOwned(ctx context.Context, id, ownerID string) (*model.Meal, error)
	Update(ctx context.Context, id, ownerID string, upd *access.MealUpdate) (*model.Meal, error)
	Delete(ctx context.Context, id, ownerID string) (*model.Meal, error)
}

type SessionStore interface {
	Create(ctx context.Context, userID, token string) (*model.Session, error)
	Delete(ctx context.Context, userID, token string) error
	DeleteAll(ctx context.Context, userID string) error
}
