package service

import (
	"context"

	"tango-agenda/core/errors"
	"tango-agenda/core/rbac"
	"tango-agenda/core/utils"
	"tango-agenda/modules/user/dto"
	"tango-agenda/modules/user/repository"

	"github.com/google/uuid"
)

// UserService handles profile operations.
type UserService struct {
	repo repository.UserRepositoryInterface
}

// UserServiceInterface defines the service contract.
type UserServiceInterface interface {
	GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, *errors.AppError)
	UpdateProfile(ctx context.Context, targetID uuid.UUID, callerID uuid.UUID, roles []rbac.Role, req *dto.UpdateProfileRequest) (*dto.UserResponse, *errors.AppError)
	UpdateRoles(ctx context.Context, targetID uuid.UUID, roles []rbac.Role, req *dto.UpdateRolesRequest) (*dto.UserResponse, *errors.AppError)
}

// NewUserService creates the user service.
func NewUserService(repo repository.UserRepositoryInterface) UserServiceInterface {
	return &UserService{repo: repo}
}

// GetUser retrieves one user.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*dto.UserResponse, *errors.AppError) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}
	return dto.ToUserResponse(user), nil
}

// UpdateProfile changes name/email. Callers may edit themselves; editing
// someone else requires the user-management capability.
func (s *UserService) UpdateProfile(ctx context.Context, targetID uuid.UUID, callerID uuid.UUID, roles []rbac.Role, req *dto.UpdateProfileRequest) (*dto.UserResponse, *errors.AppError) {
	if targetID != callerID && !rbac.Can(roles, rbac.CapManageUsers) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Not allowed to edit this user", nil)
	}

	user, err := s.repo.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "User not found", nil)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		email := utils.NormalizeEmail(req.Email)
		if !utils.IsValidEmail(email) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "email: invalid address", nil)
		}
		user.Email = email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update user", err)
	}
	return dto.ToUserResponse(user), nil
}

// UpdateRoles replaces a user's role set. Admin only.
func (s *UserService) UpdateRoles(ctx context.Context, targetID uuid.UUID, roles []rbac.Role, req *dto.UpdateRolesRequest) (*dto.UserResponse, *errors.AppError) {
	if !rbac.Can(roles, rbac.CapManageUsers) {
		return nil, errors.NewAppError(errors.ErrForbidden, "Managing roles requires the admin role", nil)
	}

	parsed := rbac.ParseRoles(req.Roles)
	if len(parsed) != len(req.Roles) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "roles: unknown role in set", nil)
	}

	if err := s.repo.UpdateRoles(ctx, targetID, req.Roles); err != nil {
		return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update roles", err)
	}
	return s.GetUser(ctx, targetID)
}
