package repository

import (
	"context"
	"database/sql"

	"tango-agenda/core/database"
	"tango-agenda/core/logger"
	"tango-agenda/modules/user/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserRepository handles user database operations.
type UserRepository struct {
	DB database.IDatabase
}

// NewUserRepository creates a new repository instance.
func NewUserRepository(db database.IDatabase) *UserRepository {
	return &UserRepository{DB: db}
}

// UserRepositoryInterface defines the repository contract.
type UserRepositoryInterface interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	FindOrCreateByEmail(ctx context.Context, name, email string) (*entity.User, error)
	UpdateUser(ctx context.Context, user *entity.User) error
	UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error
}

const userColumns = `id, name, email, password_hash, roles, created_at, updated_at`

func (r *UserRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, roles)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var created entity.User
	err := r.DB.GetContext(ctx, &created, query, user.Name, user.Email, user.PasswordHash, user.Roles)
	if err != nil {
		logger.Error("UserRepository:CreateUser", err)
		return nil, err
	}
	return &created, nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entity.User
	err := r.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetUserByID", err)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	var user entity.User
	err := r.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("UserRepository:GetUserByEmail", err)
		return nil, err
	}
	return &user, nil
}

// FindOrCreateByEmail returns the user with the given email, creating a
// member record when none exists. An existing user's name is refreshed when
// a non-empty name is supplied.
func (r *UserRepository) FindOrCreateByEmail(ctx context.Context, name, email string) (*entity.User, error) {
	query := `
		INSERT INTO users (name, email, roles)
		VALUES ($1, $2, '{member}')
		ON CONFLICT (email) DO UPDATE
		SET name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
		    updated_at = NOW()
		RETURNING ` + userColumns

	var user entity.User
	err := r.DB.GetContext(ctx, &user, query, name, email)
	if err != nil {
		logger.Error("UserRepository:FindOrCreateByEmail", err)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, updated_at = NOW()
		WHERE id = $1
	`
	err := r.DB.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash)
	if err != nil {
		logger.Error("UserRepository:UpdateUser", err)
		return err
	}
	return nil
}

func (r *UserRepository) UpdateRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	query := `UPDATE users SET roles = $2, updated_at = NOW() WHERE id = $1`
	err := r.DB.ExecContext(ctx, query, id, pq.StringArray(roles))
	if err != nil {
		logger.Error("UserRepository:UpdateRoles", err)
		return err
	}
	return nil
}
