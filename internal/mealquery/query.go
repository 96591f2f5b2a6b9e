// Package mealquery derives read-only results from a requester's
// already-loaded meal collection: windowed calorie sums, month
// filters and the daily RED/GREEN calorie verdict. Nothing here
// touches storage.
package mealquery

import (
	"time"

	"github.com/meal-tracker/internal/model"
)

// Status is the outcome of the daily calorie threshold check.
type Status string

const (
	StatusRed   Status = "RED"
	StatusGreen Status = "GREEN"
)

// TypeForHour maps an hour of day to its meal-type bucket: 0-11
// breakfast, 12-18 lunch, 19-23 dinner. The partition is fixed.
func TypeForHour(hour int) model.MealType {
	switch {
	case hour >= 0 && hour <= 11:
		return model.MealTypeBreakfast
	case hour >= 12 && hour <= 18:
		return model.MealTypeLunch
	default:
		return model.MealTypeDinner
	}
}

// SumInRange sums the calories of meals of the given type created in
// [from, to). An empty match sums to 0.
func SumInRange(meals []model.Meal, from, to time.Time, mealType model.MealType) int {
	calories := 0
	for _, m := range meals {
		if m.MealType != mealType {
			continue
		}
		if m.CreatedAt.Before(from) || !m.CreatedAt.Before(to) {
			continue
		}
		calories += m.Calories
	}
	return calories
}

// FilterByMonth returns the meals created in the given calendar month,
// any year. A non-empty mealType further restricts by bucket. The
// result is a fresh slice in input order; it is never nil.
func FilterByMonth(meals []model.Meal, month time.Month, mealType model.MealType) []model.Meal {
	filtered := make([]model.Meal, 0, len(meals))
	for _, m := range meals {
		if m.CreatedAt.Month() != month {
			continue
		}
		if mealType != "" && m.MealType != mealType {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered
}

// DailyStatus sums the calories of meals created on now's calendar
// date and reports RED when the sum meets or exceeds expected, GREEN
// otherwise. The comparison uses the full year-month-day, not just the
// day of month.
func DailyStatus(meals []model.Meal, now time.Time, expected int) Status {
	if DailyTotal(meals, now) >= expected {
		return StatusRed
	}
	return StatusGreen
}

// DailyTotal sums the calories of meals created on day's calendar date.
func DailyTotal(meals []model.Meal, day time.Time) int {
	y, m, d := day.Date()
	calories := 0
	for _, meal := range meals {
		my, mm, md := meal.CreatedAt.Date()
		if my == y && mm == m && md == d {
			calories += meal.Calories
		}
	}
	return calories
}
