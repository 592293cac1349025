package router

import (
	"tango-agenda/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

// AuthRouter handles authentication routes.
type AuthRouter struct {
	AuthController *controller.AuthController
}

// NewAuthRouter creates a new router.
func NewAuthRouter(authController *controller.AuthController) *AuthRouter {
	return &AuthRouter{
		AuthController: authController,
	}
}

// Setup registers authentication routes.
func (r *AuthRouter) Setup(e *echo.Echo) {
	routes := e.Group("/api/v1/auth")
	routes.POST("/register", r.AuthController.Register)
	routes.POST("/login", r.AuthController.Login)
	routes.POST("/refresh", r.AuthController.Refresh)
	routes.POST("/logout", r.AuthController.Logout)
}
