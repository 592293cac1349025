package controller

import (
	"path"
	"strings"

	"tango-agenda/core/constants"
	"tango-agenda/core/controller"
	"tango-agenda/core/errors"
	"tango-agenda/core/params"
	"tango-agenda/core/rbac"
	"tango-agenda/core/storage"
	"tango-agenda/core/utils"
	"tango-agenda/modules/event/dto"
	"tango-agenda/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests.
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
	Storage      *storage.Storage
}

// NewEventController creates a new controller.
func NewEventController(svc service.EventServiceInterface, store *storage.Storage) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
		Storage:        store,
	}
}

// claimsFromContext extracts the authenticated caller from the JWT context.
func (c *EventController) claimsFromContext(ctx echo.Context) (*utils.TokenClaims, error) {
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

// ListOccurrences handles GET /public/events
// @Summary List calendar occurrences
// @Description Expands validated events into occurrences within a date window
// @Tags Event
// @Produce json
// @Param from query string false "Window lower bound (YYYY-MM-DD)"
// @Param to query string false "Window upper bound (YYYY-MM-DD)"
// @Param categories query []string false "Category filter"
// @Param q query string false "Free-text filter"
// @Success 200 {array} dto.OccurrenceResponse
// @Router /public/events [get]
func (c *EventController) ListOccurrences(ctx echo.Context) error {
	var req dto.QueryEventsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid query parameters")
	}

	result, appErr := c.EventService.QueryOccurrences(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// GetEvent handles GET /public/events/:id
// @Summary Get one event
// @Tags Event
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /public/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetEvent(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// CreateEvent handles POST /private/events
// @Summary Submit an event
// @Description Contributors publish immediately, other submissions await moderation
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event details"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} errors.AppError
// @Router /private/events [post]
func (c *EventController) CreateEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.CreateEvent(ctx.Request().Context(), claims.UserID, rbac.ParseRoles(claims.Roles), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// UpdateEvent handles PATCH /private/events/:id
// @Summary Update an event
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.UpdateEventRequest true "Fields to update"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id} [patch]
func (c *EventController) UpdateEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.UpdateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.UpdateEvent(ctx.Request().Context(), eventID, claims.UserID, rbac.ParseRoles(claims.Roles), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Event updated successfully")
}

// DeleteEvent handles DELETE /private/events/:id
// @Summary Delete an event, one occurrence, or all following occurrences
// @Tags Event
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param mode query string false "all | occurrence | following"
// @Param date query string false "Occurrence date (YYYY-MM-DD)"
// @Success 200 {object} controller.SuccessResponse
// @Router /private/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	appErr := c.EventService.DeleteEvent(ctx.Request().Context(), eventID,
		rbac.ParseRoles(claims.Roles), ctx.QueryParam("mode"), ctx.QueryParam("date"))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}

// UploadFlyer handles POST /private/events/:id/flyer
// @Summary Attach a flyer image to an event
// @Tags Event
// @Security BearerAuth
// @Accept multipart/form-data
// @Param id path string true "Event ID"
// @Param flyer formData file true "Flyer image"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id}/flyer [post]
func (c *EventController) UploadFlyer(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if c.Storage == nil || !c.Storage.Enabled() {
		return c.BadRequest(errors.ErrInvalidInput, "Flyer uploads are not configured")
	}

	fileHeader, err := ctx.FormFile("flyer")
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Missing flyer file")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to read upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return c.BadRequest(errors.ErrInvalidInput, "Flyer must be an image")
	}

	key := "flyers/" + eventID.String() + "/" + utils.GenerateID() + path.Ext(fileHeader.Filename)
	url, err := c.Storage.Upload(ctx.Request().Context(), key, contentType, file)
	if err != nil {
		return c.InternalServerError(errors.ErrInternalServer, "Failed to store flyer")
	}

	result, appErr := c.EventService.SetFlyer(ctx.Request().Context(), eventID, claims.UserID, rbac.ParseRoles(claims.Roles), url)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Flyer uploaded successfully")
}

// ListPending handles GET /private/events/pending
// @Summary List the moderation queue
// @Tags Moderation
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param search query string false "Filter by title or city"
// @Success 200 {object} entity.Pagination[dto.EventResponse]
// @Failure 403 {object} errors.AppError
// @Router /private/events/pending [get]
func (c *EventController) ListPending(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	qp := params.NewQueryParams(ctx.QueryParam("page"), ctx.QueryParam("page_size"), ctx.QueryParam("search"))
	result, appErr := c.EventService.ListPending(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), qp)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// SetStatus handles PATCH /private/events/:id/status
// @Summary Transition an event's moderation status
// @Tags Moderation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.SetStatusRequest true "Target status"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id}/status [patch]
func (c *EventController) SetStatus(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.SetStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.SetStatus(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), eventID, req.Status)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Status updated successfully")
}

// BulkSetStatus handles PATCH /private/events/status
// @Summary Transition many events at once
// @Description Each id's outcome is reported independently; the batch never aborts
// @Tags Moderation
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BulkSetStatusRequest true "IDs and target status"
// @Success 200 {array} dto.ModerationOutcome
// @Router /private/events/status [patch]
func (c *EventController) BulkSetStatus(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.BulkSetStatusRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}

	result, appErr := c.EventService.BulkSetStatus(ctx.Request().Context(), rbac.ParseRoles(claims.Roles), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Success")
}

// ImportEvents handles POST /private/events/import
// @Summary Import events from the external content database
// @Tags Moderation
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Router /private/events/import [post]
func (c *EventController) ImportEvents(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.EventService.ImportFromContentDB(ctx.Request().Context(), rbac.ParseRoles(claims.Roles))
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "Import finished")
}
