package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/meal-tracker/internal/access"
	"github.com/meal-tracker/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmailTaken reports a unique-index violation on users.email.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = `id, name, email, password, age, role, created_at, updated_at`

type UserRepository struct {
	db *Database
}

func NewUserRepository(db *Database) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user model.User
	query := `
		INSERT INTO users (name, email, password, age, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	err = r.db.QueryRowxContext(ctx, query, req.Name, req.Email, string(hashedPassword), req.Age, req.Role).
		StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies an allow-listed user patch. Role is not among the
// writable columns; it is fixed at creation. Returns nil when the id
// does not resolve.
func (r *UserRepository) Update(ctx context.Context, id string, upd *access.UserUpdate) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if upd.Name != nil {
		existing.Name = *upd.Name
	}
	if upd.Email != nil {
		existing.Email = *upd.Email
	}
	if upd.Age != nil {
		existing.Age = *upd.Age
	}
	if upd.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		existing.Password = string(hashed)
	}

	var user model.User
	query := `
		UPDATE users
		SET name = $1, email = $2, password = $3, age = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING ` + userColumns
	err = r.db.QueryRowxContext(ctx, query, existing.Name, existing.Email, existing.Password, existing.Age, id).
		StructScan(&user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &user, nil
}

// Delete removes a user. Meals and sessions go with it via FK cascade.
// Returns the deleted user, or nil when the id does not resolve.
func (r *UserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	err := r.db.QueryRowxContext(ctx, query, id).StructScan(&user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) ValidatePassword(user *model.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
