package access

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Update payloads are allow-listed per entity. Validation is
// all-or-nothing: one disallowed key rejects the whole payload before
// anything is applied. This gate is independent of role authorization;
// both must pass.

var ErrInvalidUpdates = errors.New("invalid updates")

var (
	userUpdateFields = map[string]bool{"name": true, "email": true, "password": true, "age": true}
	mealUpdateFields = map[string]bool{"meal": true, "calories": true}
)

// UserUpdate holds a decoded user PATCH body. Pointer fields
// distinguish "absent" from zero values.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"`
}

// MealUpdate holds a decoded meal PATCH body.
type MealUpdate struct {
	Meal     *string `json:"meal"`
	Calories *int    `json:"calories"`
}

// DecodeUserUpdate parses a user PATCH body, rejecting any key outside
// the allow-list.
func DecodeUserUpdate(body []byte) (*UserUpdate, error) {
	if err := checkFields(body, userUpdateFields); err != nil {
		return nil, err
	}
	var upd UserUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUpdates, err)
	}
	return &upd, nil
}

// DecodeMealUpdate parses a meal PATCH body, rejecting any key outside
// the allow-list.
func DecodeMealUpdate(body []byte) (*MealUpdate, error) {
	if err := checkFields(body, mealUpdateFields); err != nil {
		return nil, err
	}
	var upd MealUpdate
	if err := json.Unmarshal(body, &upd); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUpdates, err)
	}
	return &upd, nil
}

func checkFields(body []byte, allowed map[string]bool) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUpdates, err)
	}
	if len(raw) == 0 {
		return ErrInvalidUpdates
	}
	for key := range raw {
		if !allowed[key] {
			return ErrInvalidUpdates
		}
	}
	return nil
}
