package api

import (
	"net/http"

	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter creates a new HTTP router with all routes
func NewRouter(h *Handler, auth *middleware.AuthMiddleware, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Public routes
	mux.HandleFunc("POST /api/v1/users", h.Register)
	mux.HandleFunc("POST /api/v1/users/login", h.Login)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Session routes
	mux.Handle("POST /api/v1/users/logout", auth.Authenticate(http.HandlerFunc(h.Logout)))
	mux.Handle("POST /api/v1/users/logout-all", auth.Authenticate(http.HandlerFunc(h.LogoutAll)))

	// User routes
	mux.Handle("GET /api/v1/users/me", auth.Authenticate(http.HandlerFunc(h.GetMe)))
	mux.Handle("DELETE /api/v1/users/me", auth.Authenticate(http.HandlerFunc(h.DeleteMe)))
	mux.Handle("GET /api/v1/users", auth.Authenticate(http.HandlerFunc(h.ListUsers)))
	mux.Handle("PATCH /api/v1/users/{id}", auth.Authenticate(http.HandlerFunc(h.UpdateUser)))
	mux.Handle("DELETE /api/v1/users/{id}", auth.Authenticate(http.HandlerFunc(h.DeleteUser)))

	// Meal routes
	mux.Handle("/api/v1/meals", auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.CreateMeal(w, r)
		case http.MethodGet:
			h.GetMeals(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle("/api/v1/meals/{id}", auth.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			h.GetMeal(w, r)
		case http.MethodPatch:
			h.UpdateMeal(w, r)
		case http.MethodDelete:
			h.DeleteMeal(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Apply global middleware
	handler := middleware.CORS(middleware.JSON(middleware.RequestLogger(log)(mux)))

	return handler
}
