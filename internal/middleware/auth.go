package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/meal-tracker/internal/config"
	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/model"
)

type contextKey string

const principalContextKey contextKey = "principal"

// UserFinder resolves a user id to a user record.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionChecker is the active-token membership test. A token passes
// authentication only while it is present in the user's collection;
// signature validity alone is not enough.
type SessionChecker interface {
	Exists(ctx context.Context, userID, token string) (bool, error)
}

// Principal is the resolved requester: the full user record plus the
// exact token string the request presented.
type Principal struct {
	User  *model.User
	Token string
}

// AuthMiddleware handles bearer-token authentication. The signing
// secret is injected here at construction and nowhere else.
type AuthMiddleware struct {
	jwtSecret []byte
	users     UserFinder
	sessions  SessionChecker
	log       *logger.Logger
}

func NewAuthMiddleware(cfg config.JWTConfig, users UserFinder, sessions SessionChecker, log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: []byte(cfg.Secret),
		users:     users,
		sessions:  sessions,
		log:       log,
	}
}

// GenerateToken signs a token over the user's identity. Claims carry
// the user id, a unique jti and the issue time; there is no exp claim,
// revocation is the only way a token dies.
func (m *AuthMiddleware) GenerateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"jti":     uuid.NewString(),
		"iat":     jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}

// ValidateToken verifies the signature and extracts the bound user id.
// It fails closed on tampering or an unexpected signing method.
func (m *AuthMiddleware) ValidateToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if userID, ok := claims["user_id"].(string); ok && userID != "" {
			return userID, nil
		}
	}

	return "", jwt.ErrSignatureInvalid
}

// Authenticate resolves the requester from the Authorization header:
// signature check, user lookup, then session membership. A revoked
// token fails here even though its signature still verifies.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(w)
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := m.ValidateToken(tokenStr)
		if err != nil {
			unauthorized(w)
			return
		}

		user, err := m.users.FindByID(r.Context(), userID)
		if err != nil || user == nil {
			unauthorized(w)
			return
		}

		active, err := m.sessions.Exists(r.Context(), user.ID, tokenStr)
		if err != nil {
			m.log.Error().Err(err).Msg("session lookup failed")
			unauthorized(w)
			return
		}
		if !active {
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), principalContextKey, &Principal{User: user, Token: tokenStr})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"error": "please authenticate"}`, http.StatusUnauthorized)
}

// GetPrincipal extracts the authenticated requester from the context.
func GetPrincipal(ctx context.Context) *Principal {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}
