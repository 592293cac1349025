package auth

import (
	"tango-agenda/core/cache"
	"tango-agenda/modules/auth/controller"
	"tango-agenda/modules/auth/router"
	"tango-agenda/modules/auth/service"
	userrepo "tango-agenda/modules/user/repository"

	"github.com/labstack/echo/v4"
)

// Init initializes the auth module and registers routes.
func Init(e *echo.Echo, users userrepo.UserRepositoryInterface, c *cache.Cache) {
	svc := service.NewAuthService(users, c)
	ctrl := controller.NewAuthController(svc)
	rtr := router.NewAuthRouter(ctrl)

	rtr.Setup(e)
}
