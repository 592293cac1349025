package middleware

import (
	"tango-agenda/core/cache"
	"tango-agenda/core/config"
	"tango-agenda/core/constants"
	"tango-agenda/core/controller"
	"tango-agenda/core/errors"
	"tango-agenda/core/utils"

	"github.com/labstack/echo/v4"
)

// Middleware bundles the request middlewares that need shared dependencies.
type Middleware struct {
	cache *cache.Cache
	base  controller.BaseController
}

// NewMiddleware creates the middleware set.
func NewMiddleware(c *cache.Cache) *Middleware {
	return &Middleware{
		cache: c,
		base:  controller.NewBaseController(),
	}
}

// AuthMiddleware validates the bearer token, rejects blacklisted tokens and
// places the parsed claims in the echo context under ContextTokenData.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, appErr := utils.GetTokenFromHeader(c)
			if appErr != nil {
				return m.base.Unauthorized(appErr.Code, appErr.Message)
			}

			if m.cache != nil && m.cache.IsTokenBlacklisted(c.Request().Context(), token) {
				return m.base.Unauthorized(errors.ErrUnauthorized, "Token has been revoked")
			}

			claims, appErr := utils.ValidateAndParseToken(token, constants.ScopeTokenAccess)
			if appErr != nil {
				return m.base.Unauthorized(appErr.Code, appErr.Message)
			}

			c.Set(constants.ContextTokenData, claims)
			return next(c)
		}
	}
}

// DigestTokenMiddleware gates the scheduled-digest endpoints on the shared
// secret provided by the external cron collaborator.
func (m *Middleware) DigestTokenMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cfg, ok := config.GetSafe()
			if !ok || cfg.Digest.Token == "" {
				return m.base.Unauthorized(errors.ErrUnauthorized, "Digest endpoint not configured")
			}
			if c.Request().Header.Get("X-Digest-Token") != cfg.Digest.Token {
				return m.base.Unauthorized(errors.ErrUnauthorized, "Invalid digest token")
			}
			return next(c)
		}
	}
}
