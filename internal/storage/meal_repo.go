package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/model"
)

const mealColumns = `id, meal, calories, meal_type, owner_id, created_at, updated_at`

type MealRepository struct {
	db *Database
}

func NewMealRepository(db *Database) *MealRepository {
	return &MealRepository{db: db}
}

func (r *MealRepository) Create(ctx context.Context, ownerID, name string, calories int, mealType model.MealType) (*model.Meal, error) {
	var meal model.Meal
	query := `
		INSERT INTO meals (meal, calories, meal_type, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + mealColumns
	err := r.db.QueryRowxContext(ctx, query, name, calories, mealType, ownerID).StructScan(&meal)
	if err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	return &meal, nil
}

// FindByOwner returns a user's full meal collection, oldest first.
func (r *MealRepository) FindByOwner(ctx context.Context, ownerID string) ([]model.Meal, error) {
	var meals []model.Meal
	query := `SELECT ` + mealColumns + ` FROM meals WHERE owner_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &meals, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// FindOwned resolves a meal only when it belongs to ownerID; a meal
// owned by someone else is indistinguishable from a missing one.
func (r *MealRepository) FindOwned(ctx context.Context, id, ownerID string) (*model.Meal, error) {
	var meal model.Meal
	query := `SELECT ` + mealColumns + ` FROM meals WHERE id = $1 AND owner_id = $2`
	err := r.db.GetContext(ctx, &meal, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find meal: %w", err)
	}
	return &meal, nil
}

// Update applies an allow-listed meal patch, scoped to the owner.
// Returns nil when the meal does not resolve for that owner.
func (r *MealRepository) Update(ctx context.Context, id, ownerID string, upd *access.MealUpdate) (*model.Meal, error) {
	existing, err := r.FindOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Meal != nil {
		existing.Meal = *upd.Meal
	}
	if upd.Calories != nil {
		existing.Calories = *upd.Calories
	}

	var meal model.Meal
	query := `
		UPDATE meals
		SET meal = $1, calories = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND owner_id = $4
		RETURNING ` + mealColumns
	err = r.db.QueryRowxContext(ctx, query, existing.Meal, existing.Calories, id, ownerID).StructScan(&meal)
	if err != nil {
		return nil, fmt.Errorf("failed to update meal: %w", err)
	}
	return &meal, nil
}

// Delete removes an owned meal, returning it, or nil when it does not
// resolve for that owner.
func (r *MealRepository) Delete(ctx context.Context, id, ownerID string) (*model.Meal, error) {
	var meal model.Meal
	query := `DELETE FROM meals WHERE id = $1 AND owner_id = $2 RETURNING ` + mealColumns
	err := r.db.QueryRowxContext(ctx, query, id, ownerID).StructScan(&meal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete meal: %w", err)
	}
	return &meal, nil
}
