package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tango-agenda/core/database"
	"tango-agenda/core/logger"
	"tango-agenda/core/params"
	"tango-agenda/modules/event/entity"

	"github.com/google/uuid"
)

// EventRepository handles event database operations.
type EventRepository struct {
	DB database.IDatabase
}

// NewEventRepository creates a new repository instance.
func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{DB: db}
}

// EventRepositoryInterface defines the repository contract.
type EventRepositoryInterface interface {
	CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	GetEventByContentRef(ctx context.Context, ref string) (*entity.Event, error)
	ListIntersecting(ctx context.Context, lbound, ubound time.Time, status entity.ValidationStatus) ([]entity.Event, error)
	ListByStatus(ctx context.Context, status entity.ValidationStatus, p params.QueryParams) ([]entity.Event, int, error)
	UpdateEvent(ctx context.Context, event *entity.Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ValidationStatus) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
}

const eventColumns = `
	id, title, link, start_date, end_date, city, country, categories,
	recurrence, excluded_dates, status, flyer_url, content_ref, created_by,
	created_at, updated_at
`

func (r *EventRepository) CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (title, link, start_date, end_date, city, country, categories,
		                    recurrence, excluded_dates, status, flyer_url, content_ref, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + eventColumns

	var created entity.Event
	err := r.DB.GetContext(ctx, &created, query,
		event.Title, event.Link, event.StartDate, event.EndDate, event.City, event.Country,
		event.Categories, event.Recurrence, event.ExcludedDates, event.Status,
		event.FlyerURL, event.ContentRef, event.CreatedBy)
	if err != nil {
		logger.Error("EventRepository:CreateEvent", err)
		return nil, err
	}
	return &created, nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetEventByID", err)
		return nil, err
	}
	return &event, nil
}

func (r *EventRepository) GetEventByContentRef(ctx context.Context, ref string) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE content_ref = $1`

	var event entity.Event
	err := r.DB.GetContext(ctx, &event, query, ref)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetEventByContentRef", err)
		return nil, err
	}
	return &event, nil
}

// ListIntersecting returns a superset of the events whose occurrences may
// fall inside [lbound, ubound]. Recurring events without an explicit end date
// must not be excluded at the store level, so the filter only rejects events
// that provably cannot intersect the window.
func (r *EventRepository) ListIntersecting(ctx context.Context, lbound, ubound time.Time, status entity.ValidationStatus) ([]entity.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status = $1
		  AND start_date <= $2
		  AND (end_date IS NULL OR end_date >= $3)
		ORDER BY start_date ASC
	`

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, status, ubound, lbound)
	if err != nil {
		logger.Error("EventRepository:ListIntersecting", err)
		return nil, err
	}
	return events, nil
}

// ListByStatus returns one page of events in a status, oldest first, plus the
// total match count. An optional search term narrows by title or city.
func (r *EventRepository) ListByStatus(ctx context.Context, status entity.ValidationStatus, p params.QueryParams) ([]entity.Event, int, error) {
	where := `WHERE status = $1`
	args := []any{status}
	if p.Search != "" {
		where += ` AND (title ILIKE $2 OR city ILIKE $2)`
		args = append(args, "%"+p.Search+"%")
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM events `+where, args...); err != nil {
		logger.Error("EventRepository:ListByStatus: count", err)
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		%s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, (p.PageNumber-1)*p.PageSize)

	var events []entity.Event
	err := r.DB.SelectContext(ctx, &events, query, args...)
	if err != nil {
		logger.Error("EventRepository:ListByStatus", err)
		return nil, 0, err
	}
	return events, total, nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event *entity.Event) error {
	query := `
		UPDATE events
		SET title = $2, link = $3, start_date = $4, end_date = $5, city = $6, country = $7,
		    categories = $8, recurrence = $9, excluded_dates = $10, status = $11,
		    flyer_url = $12, content_ref = $13, updated_at = NOW()
		WHERE id = $1
	`

	err := r.DB.ExecContext(ctx, query,
		event.ID, event.Title, event.Link, event.StartDate, event.EndDate, event.City,
		event.Country, event.Categories, event.Recurrence, event.ExcludedDates,
		event.Status, event.FlyerURL, event.ContentRef)
	if err != nil {
		logger.Error("EventRepository:UpdateEvent", err)
		return err
	}
	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ValidationStatus) error {
	query := `UPDATE events SET status = $2, updated_at = NOW() WHERE id = $1`
	err := r.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		logger.Error("EventRepository:UpdateStatus", err)
		return err
	}
	return nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM events WHERE id = $1`
	err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		logger.Error("EventRepository:DeleteEvent", err)
		return err
	}
	return nil
}
