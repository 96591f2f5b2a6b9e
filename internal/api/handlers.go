package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/middleware"
	"github.com/meal-tracker/internal/model"
	"github.com/meal-tracker/internal/storage"
)

// Handler contains all API handlers
type Handler struct {
	users    UserStore
	meals    MealStore
	sessions SessionStore
	auth     *middleware.AuthMiddleware
	log      *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(users UserStore, meals MealStore, sessions SessionStore, auth *middleware.AuthMiddleware, log *logger.Logger) *Handler {
	return &Handler{
		users:    users,
		meals:    meals,
		sessions: sessions,
		auth:     auth,
		log:      log,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondForbidden is the single shape of every role denial.
func respondForbidden(w http.ResponseWriter) {
	respondError(w, http.StatusForbidden, access.ErrForbidden.Error())
}

// Auth handlers

// Register godoc
// @Summary Register a new user
// @Description Create a user with a fixed role and open the first session
// @Tags Users
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration details"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Validation failure or duplicate email"
// @Failure 500 {object} map[string]string "Server error"
// @Router /users [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := model.ValidateRegister(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("register failed")
		respondError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	token, err := h.openSession(r, user)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open session")
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusCreated, model.AuthResponse{User: user, Token: token})
}

// Login godoc
// @Summary User login
// @Description Verify credentials and open a new session
// @Tags Users
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login credentials"
// @Success 200 {object} model.AuthResponse
// @Failure 400 {object} map[string]string "Bad credentials"
// @Failure 500 {object} map[string]string "Server error"
// @Router /users/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), model.NormalizeEmail(req.Email))
	if err != nil {
		h.log.Error().Err(err).Msg("login lookup failed")
		respondError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if user == nil || !h.users.ValidatePassword(user, req.Password) {
		respondError(w, http.StatusBadRequest, "unable to login")
		return
	}

	token, err := h.openSession(r, user)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open session")
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, model.AuthResponse{User: user, Token: token})
}

func (h *Handler) openSession(r *http.Request, user *model.User) (string, error) {
	token, err := h.auth.GenerateToken(user)
	if err != nil {
		return "", err
	}
	if _, err := h.sessions.Create(r.Context(), user.ID, token); err != nil {
		return "", err
	}
	return token, nil
}

// Logout godoc
// @Summary Log out of the current session
// @Description Revoke the token this request authenticated with; other sessions stay active
// @Tags Users
// @Produce json
// @Success 200
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := h.sessions.Delete(r.Context(), p.User.ID, p.Token); err != nil {
		h.log.Error().Err(err).Msg("logout failed")
		respondError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// LogoutAll godoc
// @Summary Log out of every session
// @Description Revoke all of the requester's active tokens in one operation
// @Tags Users
// @Produce json
// @Success 200
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users/logout-all [post]
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := h.sessions.DeleteAll(r.Context(), p.User.ID); err != nil {
		h.log.Error().Err(err).Msg("logout-all failed")
		respondError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// User handlers

// GetMe godoc
// @Summary Read own profile
// @Tags Users
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpUserReadSelf); err != nil {
		respondForbidden(w)
		return
	}

	respondJSON(w, http.StatusOK, p.User)
}

// ListUsers godoc
// @Summary List all users
// @Description Admin and manager oversight view of every account
// @Tags Users
// @Produce json
// @Success 200 {object} map[string]interface{} "Users list"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpUserList); err != nil {
		respondForbidden(w)
		return
	}

	users, err := h.users.FindAll(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		respondError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// UpdateUser godoc
// @Summary Update a user by id
// @Description Allow-listed fields only: name, email, password, age
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} map[string]string "Invalid updates"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users/{id} [patch]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
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

	// Field-list validation and the role check are independent gates;
	// both must pass, in either order, before anything is written.
	upd, err := access.DecodeUserUpdate(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, access.ErrInvalidUpdates.Error())
		return
	}

	if err := access.Authorize(p.User.Role, access.OpUserUpdate); err != nil {
		respondForbidden(w)
		return
	}

	if err := validateUserUpdate(upd); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("failed to update user")
		respondError(w, http.StatusInternalServerError, "failed to update user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// validateUserUpdate applies the same shape rules as registration to
// whichever fields the patch carries, normalizing in place.
func validateUserUpdate(upd *access.UserUpdate) error {
	if upd.Name != nil {
		trimmed := strings.TrimSpace(*upd.Name)
		if trimmed == "" {
			return model.ErrNameRequired
		}
		*upd.Name = trimmed
	}
	if upd.Email != nil {
		*upd.Email = model.NormalizeEmail(*upd.Email)
		if err := model.ValidateEmail(*upd.Email); err != nil {
			return err
		}
	}
	if upd.Password != nil {
		if err := model.ValidatePassword(*upd.Password); err != nil {
			return err
		}
	}
	if upd.Age != nil && *upd.Age < 0 {
		return model.ErrNegativeAge
	}
	return nil
}

// DeleteMe godoc
// @Summary Delete own account
// @Description Removes the account; meals and sessions go with it
// @Tags Users
// @Produce json
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users/me [delete]
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpUserDeleteSelf); err != nil {
		respondForbidden(w)
		return
	}

	user, err := h.users.Delete(r.Context(), p.User.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to delete user")
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user by id
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Server error"
// @Security BearerAuth
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		respondError(w, http.StatusUnauthorized, "please authenticate")
		return
	}

	if err := access.Authorize(p.User.Role, access.OpUserDelete); err != nil {
		respondForbidden(w)
		return
	}

	user, err := h.users.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to delete user")
		respondError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Health godoc
// @Summary Health check
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Health status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
