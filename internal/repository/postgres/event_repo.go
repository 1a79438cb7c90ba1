package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventboard/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `
	e.id, e.title, e.annotation, e.description, e.category_id, e.initiator_id,
	e.paid, e.participant_limit, e.request_moderation, e.state, e.event_date,
	e.created_on, e.published_on, l.id, l.lat, l.lon
`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, annotation, description, category_id, initiator_id,
			location_id, paid, participant_limit, request_moderation, state, event_date,
			created_on, published_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Annotation, e.Description, e.CategoryID, e.InitiatorID,
		locationID(e), e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.EventDate, e.CreatedOn, e.PublishedOn,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		LEFT JOIN locations l ON l.id = e.location_id
		WHERE e.id = $1
	`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE initiator_id = $1`, initiatorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events e
		LEFT JOIN locations l ON l.id = e.location_id
		WHERE e.initiator_id = $1
		ORDER BY e.created_on DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, initiatorID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) Save(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET title = $2, annotation = $3, description = $4, category_id = $5,
			location_id = $6, paid = $7, participant_limit = $8,
			request_moderation = $9, state = $10, event_date = $11,
			published_on = $12
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		e.ID, e.Title, e.Annotation, e.Description, e.CategoryID,
		locationID(e), e.Paid, e.ParticipantLimit, e.RequestModeration,
		string(e.State), e.EventDate, e.PublishedOn,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*domain.Event, error) {
	e := &domain.Event{}
	var state string
	var publishedOn sql.NullTime
	var locID sql.NullString
	var lat, lon sql.NullFloat64
	err := s.Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.Paid, &e.ParticipantLimit, &e.RequestModeration, &state, &e.EventDate,
		&e.CreatedOn, &publishedOn, &locID, &lat, &lon,
	)
	if err != nil {
		return nil, err
	}
	e.State = domain.EventState(state)
	if publishedOn.Valid {
		e.PublishedOn = &publishedOn.Time
	}
	if locID.Valid {
		e.Location = &domain.Location{ID: locID.String, Lat: lat.Float64, Lon: lon.Float64}
	}
	return e, nil
}

func locationID(e *domain.Event) any {
	if e.Location == nil || e.Location.ID == "" {
		return nil
	}
	return e.Location.ID
}
