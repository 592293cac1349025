package user

import (
	"tango-agenda/core/database"
	"tango-agenda/core/middleware"
	"tango-agenda/modules/user/controller"
	"tango-agenda/modules/user/repository"
	"tango-agenda/modules/user/router"
	"tango-agenda/modules/user/service"

	"github.com/labstack/echo/v4"
)

// Init initializes the user module and registers routes. The repository is
// returned so other modules (events, subscriptions) can resolve users.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) *repository.UserRepository {
	repo := repository.NewUserRepository(db)
	svc := service.NewUserService(repo)
	ctrl := controller.NewUserController(svc)
	rtr := router.NewUserRouter(ctrl)

	rtr.Setup(e, mw)
	return repo
}
