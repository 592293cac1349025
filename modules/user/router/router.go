package router

import (
	"tango-agenda/core/middleware"
	"tango-agenda/modules/user/controller"

	"github.com/labstack/echo/v4"
)

// UserRouter handles user routes.
type UserRouter struct {
	UserController *controller.UserController
}

// NewUserRouter creates a new router.
func NewUserRouter(userController *controller.UserController) *UserRouter {
	return &UserRouter{
		UserController: userController,
	}
}

// Setup registers user routes.
func (r *UserRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	userRoutes := v1.Group("/private/users", mw.AuthMiddleware())
	userRoutes.GET("/me", r.UserController.GetMe)
	userRoutes.PATCH("/me", r.UserController.UpdateMe)
	userRoutes.PATCH("/:id", r.UserController.UpdateUser)
	userRoutes.PUT("/:id/roles", r.UserController.UpdateRoles)
}
