package router

import (
	"tango-agenda/core/middleware"
	"tango-agenda/modules/subscription/controller"

	"github.com/labstack/echo/v4"
)

// SubscriptionRouter handles subscription routes.
type SubscriptionRouter struct {
	SubscriptionController *controller.SubscriptionController
}

// NewSubscriptionRouter creates a new router.
func NewSubscriptionRouter(subscriptionController *controller.SubscriptionController) *SubscriptionRouter {
	return &SubscriptionRouter{
		SubscriptionController: subscriptionController,
	}
}

// Setup registers subscription routes.
func (r *SubscriptionRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	publicRoutes := v1.Group("/public")
	publicRoutes.GET("/subscriptions", r.SubscriptionController.ListPublic)
	publicRoutes.POST("/subscribers", r.SubscriptionController.Subscribe)

	privateRoutes := v1.Group("/private/subscriptions", mw.AuthMiddleware())
	privateRoutes.GET("", r.SubscriptionController.ListAll)
	privateRoutes.POST("", r.SubscriptionController.Create)
	privateRoutes.PATCH("/:id", r.SubscriptionController.Update)

	digestRoutes := v1.Group("/digest", mw.DigestTokenMiddleware())
	digestRoutes.GET("/due", r.SubscriptionController.ListDue)
}
