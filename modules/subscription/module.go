package subscription

import (
	"tango-agenda/core/database"
	"tango-agenda/core/middleware"
	"tango-agenda/modules/subscription/controller"
	"tango-agenda/modules/subscription/repository"
	"tango-agenda/modules/subscription/router"
	"tango-agenda/modules/subscription/service"
	userrepo "tango-agenda/modules/user/repository"

	"github.com/labstack/echo/v4"
)

// Init initializes the subscription module and registers routes.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware,
	users userrepo.UserRepositoryInterface) *repository.SubscriptionRepository {

	repo := repository.NewSubscriptionRepository(db)
	svc := service.NewSubscriptionService(repo, users)
	ctrl := controller.NewSubscriptionController(svc)
	rtr := router.NewSubscriptionRouter(ctrl)

	rtr.Setup(e, mw)
	return repo
}
