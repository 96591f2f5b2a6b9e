package api

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/meal-tracker/internal/mealquery"
	"github.com/meal-tracker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMeal(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	rec := ts.do(t, http.MethodPost, "/api/v1/meals", token, map[string]interface{}{
		"meal": "  oats  ", "calories": 220,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var meal model.Meal
	decodeBody(t, rec, &meal)
	assert.Equal(t, "oats", meal.Meal) // trimmed
	assert.Equal(t, 220, meal.Calories)
	// The tag is derived from the creation hour, never client-supplied.
	assert.Equal(t, mealquery.TypeForHour(time.Now().Hour()), meal.MealType)
}

func TestCreateMeal_IgnoresClientMealType(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	rec := ts.do(t, http.MethodPost, "/api/v1/meals", token, map[string]interface{}{
		"meal": "midnight snack", "calories": 500, "meal_type": "breakfast",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var meal model.Meal
	decodeBody(t, rec, &meal)
	assert.Equal(t, mealquery.TypeForHour(time.Now().Hour()), meal.MealType)
}

func TestCreateMeal_Validation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	for name, body := range map[string]map[string]interface{}{
		"missing label":    {"calories": 220},
		"blank label":      {"meal": "   ", "calories": 220},
		"missing calories": {"meal": "oats"},
	} {
		rec := ts.do(t, http.MethodPost, "/api/v1/meals", token, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestManagerDeniedAllMealRoutes(t *testing.T) {
	ts := newTestServer(t)
	_, managerToken := ts.register(t, "Boss", "boss@example.com", model.UserRoleManager)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/meals"},
		{http.MethodGet, "/api/v1/meals"},
		{http.MethodGet, "/api/v1/meals/m-1"},
		{http.MethodPatch, "/api/v1/meals/m-1"},
		{http.MethodDelete, "/api/v1/meals/m-1"},
	}
	for _, route := range routes {
		var body interface{}
		if route.method == http.MethodPost || route.method == http.MethodPatch {
			body = map[string]interface{}{"meal": "oats", "calories": 220}
		}
		rec := ts.do(t, route.method, route.path, managerToken, body)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", route.method, route.path)
		assert.Contains(t, rec.Body.String(), "forbidden")
	}

	// Nothing was persisted by the denied create.
	assert.Empty(t, ts.store.meals)
}

func TestGetMeals_OwnerScoped(t *testing.T) {
	ts := newTestServer(t)
	annID, annToken := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)
	bobID, bobToken := ts.register(t, "Bob", "bob@example.com", model.UserRoleRegular)

	now := time.Now()
	ts.store.CreateMeal(annID, "oats", 220, model.MealTypeBreakfast, now)
	bobMeal := ts.store.CreateMeal(bobID, "steak", 700, model.MealTypeDinner, now)

	rec := ts.do(t, http.MethodGet, "/api/v1/meals", annToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meals []model.Meal
	decodeBody(t, rec, &meals)
	require.Len(t, meals, 1)
	assert.Equal(t, "oats", meals[0].Meal)

	// Another user's meal id reads as missing, not as forbidden.
	rec = ts.do(t, http.MethodGet, "/api/v1/meals/"+bobMeal.ID, annToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/meals/"+bobMeal.ID, bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetMeals_DateWindowSum(t *testing.T) {
	ts := newTestServer(t)
	annID, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	day := func(d int, hour int) time.Time {
		return time.Date(2026, 3, d, hour, 0, 0, 0, time.Local)
	}
	ts.store.CreateMeal(annID, "toast", 200, model.MealTypeBreakfast, day(1, 8))  // lower bound, counted
	ts.store.CreateMeal(annID, "eggs", 150, model.MealTypeBreakfast, day(4, 9))   // counted
	ts.store.CreateMeal(annID, "salad", 300, model.MealTypeLunch, day(4, 13))     // wrong type
	ts.store.CreateMeal(annID, "bagel", 250, model.MealTypeBreakfast, day(8, 8))  // upper bound, excluded
	ts.store.CreateMeal(annID, "cereal", 180, model.MealTypeBreakfast, day(12, 7)) // after window

	rec := ts.do(t, http.MethodGet, "/api/v1/meals?date=2026,3,1,2026,3,8,breakfast", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]int
	decodeBody(t, rec, &resp)
	assert.Equal(t, 350, resp["calories"])

	// Empty matching set sums to zero, not an error.
	rec = ts.do(t, http.MethodGet, "/api/v1/meals?date=2020,1,1,2020,1,2,dinner", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, 0, resp["calories"])
}

func TestGetMeals_DateWindowMalformed(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	for _, q := range []string{
		"date=2026,3,1",                            // too few parts
		"date=2026,3,1,2026,3,8,brunch",            // unknown type
		"date=x,3,1,2026,3,8,breakfast",            // non-numeric
		"date=2026,3,1,2026,3,8,breakfast,extra",   // too many parts
	} {
		r := ts.do(t, http.MethodGet, "/api/v1/meals?"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, r.Code, q)
	}
}

func TestGetMeals_ExpectedVerdict(t *testing.T) {
	ts := newTestServer(t)
	annID, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	now := time.Now()
	ts.store.CreateMeal(annID, "oats", 400, model.MealTypeBreakfast, now)
	ts.store.CreateMeal(annID, "salad", 600, model.MealTypeLunch, now)
	// Same day number in a previous month must not count toward today.
	ts.store.CreateMeal(annID, "old feast", 9000, model.MealTypeDinner, now.AddDate(0, -1, 0))

	rec := ts.do(t, http.MethodGet, "/api/v1/meals?expected=1000", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "RED", resp["status"]) // 1000 >= 1000

	rec = ts.do(t, http.MethodGet, "/api/v1/meals?expected=1001", token, nil)
	decodeBody(t, rec, &resp)
	assert.Equal(t, "GREEN", resp["status"])

	rec = ts.do(t, http.MethodGet, "/api/v1/meals?expected=abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetMeals_MonthFilter(t *testing.T) {
	ts := newTestServer(t)
	annID, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)

	// Meals created at hours 2, 13 and 20 land in the three buckets.
	hours := []int{2, 13, 20}
	month := time.Now().Month()
	for i, hour := range hours {
		created := time.Date(time.Now().Year(), month, 10, hour, 0, 0, 0, time.Local)
		ts.store.CreateMeal(annID, fmt.Sprintf("meal-%d", i), 300, mealquery.TypeForHour(hour), created)
	}

	rec := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meals?month=%d", int(month)), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var meals []model.Meal
	decodeBody(t, rec, &meals)
	assert.Len(t, meals, 3)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meals?month=%d&time=lunch", int(month)), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &meals)
	require.Len(t, meals, 1)
	assert.Equal(t, "meal-1", meals[0].Meal) // the hour-13 meal

	rec = ts.do(t, http.MethodGet, "/api/v1/meals?month=13", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/meals?month=%d&time=brunch", int(month)), token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMeal(t *testing.T) {
	ts := newTestServer(t)
	annID, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)
	meal := ts.store.CreateMeal(annID, "oats", 220, model.MealTypeBreakfast, time.Now())

	rec := ts.do(t, http.MethodPatch, "/api/v1/meals/"+meal.ID, token, map[string]interface{}{
		"meal": "oats with honey", "calories": 290,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.Meal
	decodeBody(t, rec, &updated)
	assert.Equal(t, "oats with honey", updated.Meal)
	assert.Equal(t, 290, updated.Calories)
	assert.Equal(t, model.MealTypeBreakfast, updated.MealType)

	// meal_type is not an allowed update key.
	rec = ts.do(t, http.MethodPatch, "/api/v1/meals/"+meal.ID, token, map[string]interface{}{
		"calories": 300, "meal_type": "dinner",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 290, ts.store.meals[meal.ID].Calories) // nothing applied
}

func TestDeleteMeal(t *testing.T) {
	ts := newTestServer(t)
	annID, token := ts.register(t, "Ann", "ann@example.com", model.UserRoleRegular)
	meal := ts.store.CreateMeal(annID, "oats", 220, model.MealTypeBreakfast, time.Now())

	rec := ts.do(t, http.MethodDelete, "/api/v1/meals/"+meal.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var deleted model.Meal
	decodeBody(t, rec, &deleted)
	assert.Equal(t, meal.ID, deleted.ID)

	rec = ts.do(t, http.MethodDelete, "/api/v1/meals/"+meal.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
