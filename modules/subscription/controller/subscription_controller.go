package controller

import (
	"time"

	"tango-agenda/core/constants"
	"tango-agenda/core/controller"
	"tango-agenda/core/errors"
	"tango-agenda/core/rbac"
	"tango-agenda/core/utils"
	"tango-agenda/modules/subscription/dto"
	"tango-agenda/modules/subscription/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SubscriptionController handles subscription HTTP requests.
type SubscriptionController struct {
	controller.BaseController
	SubscriptionService service.SubscriptionServiceInterface
}

// NewSubscriptionController creates a new controller.
func NewSubscriptionController(svc service.SubscriptionServiceInterface) *SubscriptionController {
	return &SubscriptionController{
		BaseController:      controller.NewBaseController(),
		SubscriptionService: svc,
	}
}

func (c *SubscriptionController) claimsFromContext(ctx echo.Context) (*utils.TokenClaims, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}
	return claims, nil
}

// ListPublic handles GET /public/subscriptions
// @Summary List public digest subscriptions
// @Tags Subscription
// @Produce json
// @Success 200 {array} dto.SubscriptionResponse
// @Router /public/subscriptions [get]
func (c *SubscriptionController) ListPublic(ctx echo.Context) error {
	result, appErr := c.SubscriptionService.List(ctx.Request().Context(), nil, false)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// ListAll handles GET /private/subscriptions
// @Summary List all active subscriptions, private ones included
// @Tags Subscription
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.SubscriptionResponse
// @Router /private/subscriptions [get]
func (c *SubscriptionController) ListAll(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, err.Error())
	}

	result, appErr := c.SubscriptionService.List(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), true)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// Subscribe handles POST /public/subscribers
// @Summary Subscribe an email address to a set of digests
// @Description Replaces the address's subscription set with the given slugs
// @Tags Subscription
// @Accept json
// @Produce json
// @Param request body dto.SubscribeRequest true "Subscription set"
// @Success 200 {array} dto.SubscriberResponse
// @Router /public/subscribers [post]
func (c *SubscriptionController) Subscribe(ctx echo.Context) error {
	var req dto.SubscribeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}

	result, appErr := c.SubscriptionService.Subscribe(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Subscription updated")
}

// Create handles POST /private/subscriptions
// @Summary Define a new digest subscription
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSubscriptionRequest true "Subscription details"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /private/subscriptions [post]
func (c *SubscriptionController) Create(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, err.Error())
	}

	var req dto.CreateSubscriptionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}

	result, appErr := c.SubscriptionService.Create(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Subscription created")
}

// Update handles PATCH /private/subscriptions/:id
// @Summary Patch a digest subscription
// @Tags Subscription
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Param request body dto.UpdateSubscriptionRequest true "Fields to patch"
// @Success 200 {object} dto.SubscriptionResponse
// @Router /private/subscriptions/{id} [patch]
func (c *SubscriptionController) Update(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, err.Error())
	}

	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid subscription ID")
	}

	var req dto.UpdateSubscriptionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "Invalid request data")
	}

	result, appErr := c.SubscriptionService.Update(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), id, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Subscription updated")
}

// ListDue handles GET /digest/due
// @Summary List due digests with their recipient lists
// @Description Used by the external dispatcher. Requires the digest token.
// @Tags Subscription
// @Produce json
// @Success 200 {array} dto.DueSubscriptionResponse
// @Router /digest/due [get]
func (c *SubscriptionController) ListDue(ctx echo.Context) error {
	result, appErr := c.SubscriptionService.Due(ctx.Request().Context(), time.Now())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}
