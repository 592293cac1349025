package router

import (
	"tango-agenda/core/middleware"
	"tango-agenda/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes.
type EventRouter struct {
	EventController *controller.EventController
}

// NewEventRouter creates a new router.
func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{
		EventController: eventController,
	}
}

// Setup registers event routes.
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	publicRoutes := v1.Group("/public/events")
	publicRoutes.GET("", r.EventController.ListOccurrences)
	publicRoutes.GET("/:id", r.EventController.GetEvent)

	privateRoutes := v1.Group("/private/events", mw.AuthMiddleware())
	privateRoutes.POST("", r.EventController.CreateEvent)
	privateRoutes.GET("/pending", r.EventController.ListPending)
	privateRoutes.PATCH("/status", r.EventController.BulkSetStatus)
	privateRoutes.POST("/import", r.EventController.ImportEvents)
	privateRoutes.PATCH("/:id", r.EventController.UpdateEvent)
	privateRoutes.DELETE("/:id", r.EventController.DeleteEvent)
	privateRoutes.POST("/:id/flyer", r.EventController.UploadFlyer)
	privateRoutes.PATCH("/:id/status", r.EventController.SetStatus)
}
