package model

import (
	"errors"
	"strings"
	"time"
)

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
)

// ValidMealType reports whether t names one of the three time-of-day
// buckets. The empty string is not valid; callers treat it as "no
// filter" themselves.
func ValidMealType(t MealType) bool {
	switch t {
	case MealTypeBreakfast, MealTypeLunch, MealTypeDinner:
		return true
	}
	return false
}

type Meal struct {
	ID        string    `json:"id" db:"id"`
	Meal      string    `json:"meal" db:"meal"`
	Calories  int       `json:"calories" db:"calories"`
	MealType  MealType  `json:"meal_type" db:"meal_type"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CreateMealRequest carries only the client-settable fields. The
// meal-type tag is derived from the creation hour, never accepted
// from the client.
type CreateMealRequest struct {
	Meal     string `json:"meal"`
	Calories *int   `json:"calories"`
}

var (
	ErrMealNameRequired = errors.New("meal is required")
	ErrCaloriesRequired = errors.New("calories is required")
)

// ValidateCreateMeal checks a meal creation payload and trims the label
// in place.
func ValidateCreateMeal(req *CreateMealRequest) error {
	req.Meal = strings.TrimSpace(req.Meal)
	if req.Meal == "" {
		return ErrMealNameRequired
	}
	if req.Calories == nil {
		return ErrCaloriesRequired
	}
	return nil
}
