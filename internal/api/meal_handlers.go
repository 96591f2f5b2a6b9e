package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/mealquery"
	"github.com/meal-tracker/internal/middleware"
	"github.com/meal-tracker/internal/model"
)

// CreateMeal godoc
// @Summary Create a meal
// @Description Record a meal; the breakfast/lunch/dinner tag is derived from the creation hour
// @Tags Meals
// @Accept json
// @Produce json
// @Param request body model.CreateMealRequest true "Meal details"
// @Success 201 {object} model.Meal
// @Failure 400 {object} map[string]string "Validation failure"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /meals [post]
func (h *Handler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpMealCreate); err != nil {
		respondForbidden(w)
		return
	}

	var req model.CreateMealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := model.ValidateCreateMeal(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	mealType := mealquery.TypeForHour(time.Now().Hour())

	meal, err := h.meals.Create(r.Context(), p.User.ID, req.Meal, *req.Calories, mealType)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to create meal")
		respondError(w, http.StatusInternalServerError, "failed to create meal")
		return
	}

	respondJSON(w, http.StatusCreated, meal)
}

// GetMeals godoc
// @Summary Query own meals
// @Description Without parameters, the full collection. ?date=y1,m1,d1,y2,m2,d2,type sums calories over the window; ?expected=N gives the RED/GREEN daily verdict; ?month=M with optional &time=slot filters the list.
// @Tags Meals
// @Produce json
// @Param date query string false "Range-and-type sum: y1,m1,d1,y2,m2,d2,type (months 1-indexed)"
// @Param expected query int false "Daily calorie threshold"
// @Param month query int false "Calendar month 1-12"
// @Param time query string false "breakfast, lunch or dinner"
// @Success 200 {object} map[string]interface{} "Meals, calories sum, or status"
// @Failure 400 {object} map[string]string "Malformed query"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /meals [get]
func (h *Handler) GetMeals(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpMealRead); err != nil {
		respondForbidden(w)
		return
	}

	meals, err := h.meals.FindByOwner(r.Context(), p.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch meals")
		respondError(w, http.StatusInternalServerError, "failed to fetch meals")
		return
	}

	query := r.URL.Query()

	if dateParam := query.Get("date"); dateParam != "" {
		from, to, mealType, err := parseDateWindow(dateParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		calories := mealquery.SumInRange(meals, from, to, mealType)
		respondJSON(w, http.StatusOK, map[string]int{"calories": calories})
		return
	}

	if expectedParam := query.Get("expected"); expectedParam != "" {
		expected, err := strconv.Atoi(expectedParam)
		if err != nil {
			respondError(w, http.StatusBadRequest, "expected must be a number")
			return
		}
		status := mealquery.DailyStatus(meals, time.Now(), expected)
		respondJSON(w, http.StatusOK, map[string]mealquery.Status{"status": status})
		return
	}

	if monthParam := query.Get("month"); monthParam != "" {
		month, err := strconv.Atoi(monthParam)
		if err != nil || month < 1 || month > 12 {
			respondError(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		mealType := model.MealType(query.Get("time"))
		if mealType != "" && !model.ValidMealType(mealType) {
			respondError(w, http.StatusBadRequest, "invalid time slot")
			return
		}
		filtered := mealquery.FilterByMonth(meals, time.Month(month), mealType)
		respondJSON(w, http.StatusOK, filtered)
		return
	}

	respondJSON(w, http.StatusOK, meals)
}

// parseDateWindow parses "y1,m1,d1,y2,m2,d2,type". Months arrive
// 1-indexed; time.Month takes them as-is. The window is built in
// server-local time, lower bound inclusive, upper exclusive.
func parseDateWindow(param string) (time.Time, time.Time, model.MealType, error) {
	parts := strings.Split(param, ",")
	if len(parts) != 7 {
		return time.Time{}, time.Time{}, "", errInvalidDateQuery
	}

	nums := make([]int, 6)
	for i := 0; i < 6; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return time.Time{}, time.Time{}, "", errInvalidDateQuery
		}
		nums[i] = n
	}

	mealType := model.MealType(strings.TrimSpace(parts[6]))
	if !model.ValidMealType(mealType) {
		return time.Time{}, time.Time{}, "", errInvalidDateQuery
	}

	from := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.Local)
	to := time.Date(nums[3], time.Month(nums[4]), nums[5], 0, 0, 0, 0, time.Local)
	return from, to, mealType, nil
}

var errInvalidDateQuery = &queryError{"date must be y1,m1,d1,y2,m2,d2,type"}

type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }

// GetMeal godoc
// @Summary Read a meal
// @Tags Meals
// @Produce json
// @Param id path string true "Meal ID"
// @Success 200 {object} model.Meal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Meal not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /meals/{id} [get]
func (h *Handler) GetMeal(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpMealRead); err != nil {
		respondForbidden(w)
		return
	}

	meal, err := h.meals.FindOwned(r.Context(), r.PathValue("id"), p.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch meal")
		respondError(w, http.StatusInternalServerError, "failed to fetch meal")
		return
	}
	if meal == nil {
		respondError(w, http.StatusNotFound, "meal not found")
		return
	}

	respondJSON(w, http.StatusOK, meal)
}

// UpdateMeal godoc
// @Summary Update a meal
// @Description Allow-listed fields only: meal, calories. The derived meal-type tag never changes.
// @Tags Meals
// @Accept json
// @Produce json
// @Param id path string true "Meal ID"
// @Success 200 {object} model.Meal
// @Failure 400 {object} map[string]string "Invalid updates"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Meal not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /meals/{id} [patch]
func (h *Handler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd, err := access.DecodeMealUpdate(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, access.ErrInvalidUpdates.Error())
		return
	}

	if err := access.Authorize(p.User.Role, access.OpMealUpdate); err != nil {
		respondForbidden(w)
		return
	}

	if upd.Meal != nil {
		trimmed := strings.TrimSpace(*upd.Meal)
		if trimmed == "" {
			respondError(w, http.StatusBadRequest, model.ErrMealNameRequired.Error())
			return
		}
		*upd.Meal = trimmed
	}

	meal, err := h.meals.Update(r.Context(), r.PathValue("id"), p.User.ID, upd)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to update meal")
		respondError(w, http.StatusInternalServerError, "failed to update meal")
		return
	}
	if meal == nil {
		respondError(w, http.StatusNotFound, "meal not found")
		return
	}

	respondJSON(w, http.StatusOK, meal)
}

// DeleteMeal godoc
// @Summary Delete a meal
// @Tags Meals
// @Produce json
// @Param id path string true "Meal ID"
// @Success 200 {object} model.Meal
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Meal not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /meals/{id} [delete]
func (h *Handler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpMealDelete); err != nil {
		respondForbidden(w)
		return
	}

	meal, err := h.meals.Delete(r.Context(), r.PathValue("id"), p.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to delete meal")
		respondError(w, http.StatusInternalServerError, "failed to delete meal")
		return
	}
	if meal == nil {
		respondError(w, http.StatusNotFound, "meal not found")
		return
	}

	respondJSON(w, http.StatusOK, meal)
}
