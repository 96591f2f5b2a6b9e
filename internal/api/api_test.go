package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/config"
	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/middleware"
	"github.com/meal-tracker/internal/model"
	"github.com/meal-tracker/internal/storage"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory stand-in for the storage repositories. It
// satisfies UserStore, MealStore, SessionStore and the middleware's
// UserFinder and SessionChecker. Passwords are kept as plaintext; the
// hashing contract is covered by the storage tests.
type fakeStore struct {
	users    map[string]*model.User
	meals    map[string]*model.Meal
	sessions map[string]map[string]bool
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[string]*model.User{},
		meals:    map[string]*model.Meal{},
		sessions: map[string]map[string]bool{},
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == req.Email {
			return nil, storage.ErrEmailTaken
		}
	}
	now := time.Now()
	user := &model.User{
		ID:        s.nextID("u"),
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Age:       req.Age,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindByID(_ context.Context, id string) (*model.User, error) {
	return s.users[id], nil
}

func (s *fakeStore) FindAll(_ context.Context) ([]model.User, error) {
	var all []model.User
	for _, u := range s.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (s *fakeStore) Update(_ context.Context, id string, upd *access.UserUpdate) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.Password != nil {
		user.Password = *upd.Password
	}
	if upd.Age != nil {
		user.Age = *upd.Age
	}
	user.UpdatedAt = time.Now()
	return user, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	delete(s.users, id)
	for mealID, meal := range s.meals {
		if meal.OwnerID == id {
			delete(s.meals, mealID)
		}
	}
	delete(s.sessions, id)
	return user, nil
}

func (s *fakeStore) ValidatePassword(user *model.User, password string) bool {
	return user.Password == password
}

// MealStore

func (s *fakeStore) CreateMeal(ownerID, name string, calories int, mealType model.MealType, createdAt time.Time) *model.Meal {
	meal := &model.Meal{
		ID:        s.nextID("m"),
		Meal:      name,
		Calories:  calories,
		MealType:  mealType,
		OwnerID:   ownerID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	s.meals[meal.ID] = meal
	return meal
}

func (s *fakeStore) FindByOwner(_ context.Context, ownerID string) ([]model.Meal, error) {
	var owned []model.Meal
	for _, m := range s.meals {
		if m.OwnerID == ownerID {
			owned = append(owned, *m)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.Before(owned[j].CreatedAt) })
	return owned, nil
}

func (s *fakeStore) FindOwned(_ context.Context, id, ownerID string) (*model.Meal, error) {
	meal, ok := s.meals[id]
	if !ok || meal.OwnerID != ownerID {
		return nil, nil
	}
	return meal, nil
}

func (s *fakeStore) UpdateMeal(_ context.Context, id, ownerID string, upd *access.MealUpdate) (*model.Meal, error) {
	meal, ok := s.meals[id]
	if !ok || meal.OwnerID != ownerID {
		return nil, nil
	}
	if upd.Meal != nil {
		meal.Meal = *upd.Meal
	}
	if upd.Calories != nil {
		meal.Calories = *upd.Calories
	}
	meal.UpdatedAt = time.Now()
	return meal, nil
}

func (s *fakeStore) DeleteMeal(_ context.Context, id, ownerID string) (*model.Meal, error) {
	meal, ok := s.meals[id]
	if !ok || meal.OwnerID != ownerID {
		return nil, nil
	}
	delete(s.meals, id)
	return meal, nil
}

// SessionStore / SessionChecker

func (s *fakeStore) CreateSession(_ context.Context, userID, token string) (*model.Session, error) {
	if s.sessions[userID] == nil {
		s.sessions[userID] = map[string]bool{}
	}
	s.sessions[userID][token] = true
	return &model.Session{ID: s.nextID("s"), UserID: userID, Token: token, CreatedAt: time.Now()}, nil
}

func (s *fakeStore) Exists(_ context.Context, userID, token string) (bool, error) {
	return s.sessions[userID][token], nil
}

func (s *fakeStore) DeleteSession(_ context.Context, userID, token string) error {
	delete(s.sessions[userID], token)
	return nil
}

func (s *fakeStore) DeleteAll(_ context.Context, userID string) error {
	delete(s.sessions, userID)
	return nil
}

// mealStoreAdapter and sessionStoreAdapter fix the method-name
// collisions between the three store interfaces on fakeStore.
type mealStoreAdapter struct{ *fakeStore }

func (a mealStoreAdapter) Create(_ context.Context, ownerID, name string, calories int, mealType model.MealType) (*model.Meal, error) {
	return a.CreateMeal(ownerID, name, calories, mealType, time.Now()), nil
}
func (a mealStoreAdapter) Update(ctx context.Context, id, ownerID string, upd *access.MealUpdate) (*model.Meal, error) {
	return a.UpdateMeal(ctx, id, ownerID, upd)
}
func (a mealStoreAdapter) Delete(ctx context.Context, id, ownerID string) (*model.Meal, error) {
	return a.DeleteMeal(ctx, id, ownerID)
}

type sessionStoreAdapter struct{ *fakeStore }

func (a sessionStoreAdapter) Create(ctx context.Context, userID, token string) (*model.Session, error) {
	return a.CreateSession(ctx, userID, token)
}
func (a sessionStoreAdapter) Delete(ctx context.Context, userID, token string) error {
	return a.DeleteSession(ctx, userID, token)
}

type testServer struct {
	handler http.Handler
	store   *fakeStore
	auth    *middleware.AuthMiddleware
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newFakeStore()
	log := logger.Nop()
	auth := middleware.NewAuthMiddleware(config.JWTConfig{Secret: "api-test-secret"}, store, store, log)
	h := NewHandler(store, mealStoreAdapter{store}, sessionStoreAdapter{store}, auth, log)
	return &testServer{
		handler: NewRouter(h, auth, log),
		store:   store,
		auth:    auth,
	}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates a user through the real endpoint and returns the
// user id and a live token.
func (ts *testServer) register(t *testing.T, name, email string, role model.UserRole) (string, string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/users", "", model.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "longenough",
		Age:      30,
		Role:     role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.User.ID, resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func bodyHasKey(rec *httptest.ResponseRecorder, key string) bool {
	return strings.Contains(rec.Body.String(), `"`+key+`"`)
}
