package event

import (
	"context"

	"tango-agenda/core/contentdb"
	"tango-agenda/core/database"
	"tango-agenda/core/mailer"
	"tango-agenda/core/middleware"
	"tango-agenda/core/storage"
	"tango-agenda/modules/event/controller"
	"tango-agenda/modules/event/repository"
	"tango-agenda/modules/event/router"
	"tango-agenda/modules/event/service"
	userrepo "tango-agenda/modules/user/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Init initializes the event module and registers routes. The returned
// service backs the digest dispatcher's occurrence queries.
func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware,
	cdb *contentdb.Client, store *storage.Storage, mail *mailer.Mailer,
	users userrepo.UserRepositoryInterface, baseURL string) service.EventServiceInterface {

	repo := repository.NewEventRepository(db)

	lookup := func(ctx context.Context, id uuid.UUID) (string, string, error) {
		u, err := users.GetUserByID(ctx, id)
		if err != nil || u == nil {
			return "", "", err
		}
		return u.Name, u.Email, nil
	}

	svc := service.NewEventService(repo, cdb, mail, lookup, baseURL)
	ctrl := controller.NewEventController(svc, store)
	rtr := router.NewEventRouter(ctrl)

	rtr.Setup(e, mw)
	return svc
}
