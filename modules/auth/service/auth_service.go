package service

import (
	"context"

	"tango-agenda/core/cache"
	"tango-agenda/core/constants"
	"tango-agenda/core/errors"
	"tango-agenda/core/logger"
	"tango-agenda/core/rbac"
	"tango-agenda/core/utils"
	"tango-agenda/modules/auth/dto"
	userdto "tango-agenda/modules/user/dto"
	userentity "tango-agenda/modules/user/entity"
	userrepo "tango-agenda/modules/user/repository"

	"github.com/lib/pq"
)

// AuthService handles registration, login and token lifecycle.
type AuthService struct {
	users userrepo.UserRepositoryInterface
	cache *cache.Cache
}

// AuthServiceInterface defines the service contract.
type AuthServiceInterface interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, *errors.AppError)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, *errors.AppError)
	Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, *errors.AppError)
	Logout(ctx context.Context, accessToken string) *errors.AppError
}

// NewAuthService creates the auth service.
func NewAuthService(users userrepo.UserRepositoryInterface, cache *cache.Cache) AuthServiceInterface {
	return &AuthService{users: users, cache: cache}
}

// Register creates a member account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, *errors.AppError) {
	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "email: invalid address", nil)
	}
	if len(req.Password) < 8 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "password: at least 8 characters", nil)
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to check existing user", err)
	}
	if existing != nil && existing.PasswordHash != nil {
		return nil, errors.NewAppError(errors.ErrAlreadyExists, "An account with this email already exists", nil)
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.Error("AuthService:Register:HashPassword", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to hash password", err)
	}

	var user *userentity.User
	if existing != nil {
		// Subscriber-only account claiming a login for the first time.
		existing.Name = req.Name
		existing.PasswordHash = &hash
		if err := s.users.UpdateUser(ctx, existing); err != nil {
			return nil, errors.NewAppError(errors.ErrUpdateFailed, "Failed to update user", err)
		}
		user = existing
	} else {
		user, err = s.users.CreateUser(ctx, &userentity.User{
			Name:         req.Name,
			Email:        email,
			PasswordHash: &hash,
			Roles:        pq.StringArray{string(rbac.RoleMember)},
		})
		if err != nil {
			return nil, errors.NewAppError(errors.ErrCreateFailed, "Failed to create user", err)
		}
	}

	return s.issueTokens(user)
}

// Login checks the password and issues a token pair. Repeated failures for
// one email are throttled through the cache.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, *errors.AppError) {
	email := utils.NormalizeEmail(req.Email)

	if s.cache.IsLoginBlocked(ctx, email) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Too many failed attempts, try again later", nil)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil || user.PasswordHash == nil || !utils.CheckPassword(req.Password, *user.PasswordHash) {
		if _, err := s.cache.IncrementLoginAttempt(ctx, email); err != nil {
			logger.Error("AuthService:Login:IncrementLoginAttempt", err)
		}
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid email or password", nil)
	}

	s.cache.ResetLoginAttempts(ctx, email)
	return s.issueTokens(user)
}

// Refresh validates the refresh token and issues a fresh pair. The used
// refresh token is blacklisted so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.TokenResponse, *errors.AppError) {
	if s.cache.IsTokenBlacklisted(ctx, req.RefreshToken) {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Refresh token revoked", nil)
	}

	claims, appErr := utils.ValidateAndParseToken(req.RefreshToken, constants.ScopeTokenRefresh)
	if appErr != nil {
		return nil, appErr
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get user", err)
	}
	if user == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Account no longer exists", nil)
	}

	if err := s.cache.AddToTokenBlacklist(ctx, req.RefreshToken, constants.RefreshTokenDuration); err != nil {
		logger.Error("AuthService:Refresh:AddToTokenBlacklist", err)
	}
	return s.issueTokens(user)
}

// Logout blacklists the presented access token for its remaining lifetime.
func (s *AuthService) Logout(ctx context.Context, accessToken string) *errors.AppError {
	if _, appErr := utils.ValidateAndParseToken(accessToken, constants.ScopeTokenAccess); appErr != nil {
		return appErr
	}
	if err := s.cache.AddToTokenBlacklist(ctx, accessToken, constants.AccessTokenDuration); err != nil {
		logger.Error("AuthService:Logout:AddToTokenBlacklist", err)
		return errors.NewAppError(errors.ErrInternalServer, "Failed to revoke token", err)
	}
	return nil
}

func (s *AuthService) issueTokens(user *userentity.User) (*dto.TokenResponse, *errors.AppError) {
	access, err := utils.GenerateToken(user.ID, user.Email, []string(user.Roles),
		constants.ScopeTokenAccess, constants.AccessTokenDuration)
	if err != nil {
		logger.Error("AuthService:issueTokens: access", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate token", err)
	}

	refresh, err := utils.GenerateToken(user.ID, user.Email, []string(user.Roles),
		constants.ScopeTokenRefresh, constants.RefreshTokenDuration)
	if err != nil {
		logger.Error("AuthService:issueTokens: refresh", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate token", err)
	}

	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         userdto.ToUserResponse(user),
	}, nil
}
