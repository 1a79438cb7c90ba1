package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"eventboard/internal/domain"
)

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

const requestColumns = `id, event_id, requester_id, status, created`

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE id = $1
	`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1
		ORDER BY created
	`
	return queryRequests(ctx, r.DB, query, eventID)
}

func (r *requestRepository) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE requester_id = $1
		ORDER BY created
	`
	return queryRequests(ctx, r.DB, query, requesterID)
}

func (r *requestRepository) CountByEventAndStatuses(ctx context.Context, eventID string, statuses []domain.RequestStatus) (int, error) {
	return countByStatuses(ctx, r.DB, eventID, statuses)
}

func (r *requestRepository) Save(ctx context.Context, req *domain.ParticipationRequest) error {
	return saveRequest(ctx, r.DB, req)
}

// WithEventLock serializes admission decisions per event: the event row is
// read with SELECT ... FOR UPDATE inside a transaction, so concurrent
// decisions for the same event queue up behind each other and every capacity
// recount observes the previous decision's committed writes.
func (r *requestRepository) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.AdmissionTx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin admission tx: %w", err)
	}

	event, err := lockEvent(ctx, tx, eventID)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := fn(ctx, &admissionTx{tx: tx, event: event}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit admission tx: %w", err)
	}
	return nil
}

func lockEvent(ctx context.Context, tx *sql.Tx, eventID string) (*domain.Event, error) {
	query := `
		SELECT id, title, annotation, description, category_id, initiator_id,
			paid, participant_limit, request_moderation, state, event_date,
			created_on, published_on
		FROM events
		WHERE id = $1
		FOR UPDATE
	`
	e := &domain.Event{}
	var state string
	var publishedOn sql.NullTime
	err := tx.QueryRowContext(ctx, query, eventID).Scan(
		&e.ID, &e.Title, &e.Annotation, &e.Description, &e.CategoryID, &e.InitiatorID,
		&e.Paid, &e.ParticipantLimit, &e.RequestModeration, &state, &e.EventDate,
		&e.CreatedOn, &publishedOn,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	e.State = domain.EventState(state)
	if publishedOn.Valid {
		e.PublishedOn = &publishedOn.Time
	}
	return e, nil
}

// admissionTx scopes request reads and writes to one locked event.
type admissionTx struct {
	tx    *sql.Tx
	event *domain.Event
}

func (a *admissionTx) Event() *domain.Event {
	return a.event
}

func (a *admissionTx) CountByStatuses(ctx context.Context, statuses ...domain.RequestStatus) (int, error) {
	return countByStatuses(ctx, a.tx, a.event.ID, statuses)
}

func (a *admissionTx) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1 AND id = ANY($2)
	`
	return queryRequests(ctx, a.tx, query, a.event.ID, pq.Array(ids))
}

func (a *admissionTx) ListPending(ctx context.Context) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1 AND status = $2
		ORDER BY created
	`
	return queryRequests(ctx, a.tx, query, a.event.ID, string(domain.RequestPending))
}

func (a *admissionTx) GetActiveByRequester(ctx context.Context, requesterID string) (*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM participation_requests
		WHERE event_id = $1 AND requester_id = $2 AND status <> $3
	`
	req, err := scanRequest(a.tx.QueryRowContext(ctx, query, a.event.ID, requesterID, string(domain.RequestCanceled)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (a *admissionTx) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	query := `
		INSERT INTO participation_requests (event_id, requester_id, status, created)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return a.tx.QueryRowContext(ctx, query,
		req.EventID, req.RequesterID, string(req.Status), req.Created,
	).Scan(&req.ID)
}

func (a *admissionTx) SaveAll(ctx context.Context, reqs []*domain.ParticipationRequest) error {
	for _, req := range reqs {
		if err := saveRequest(ctx, a.tx, req); err != nil {
			return err
		}
	}
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func countByStatuses(ctx context.Context, q querier, eventID string, statuses []domain.RequestStatus) (int, error) {
	ss := make([]string, len(statuses))
	for i, st := range statuses {
		ss[i] = string(st)
	}
	query := `
		SELECT COUNT(*)
		FROM participation_requests
		WHERE event_id = $1 AND status = ANY($2)
	`
	var count int
	if err := q.QueryRowContext(ctx, query, eventID, pq.Array(ss)).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func saveRequest(ctx context.Context, q querier, req *domain.ParticipationRequest) error {
	query := `
		UPDATE participation_requests
		SET status = $2
		WHERE id = $1
	`
	res, err := q.ExecContext(ctx, query, req.ID, string(req.Status))
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

func queryRequests(ctx context.Context, q querier, query string, args ...any) ([]*domain.ParticipationRequest, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.ParticipationRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func scanRequest(s scanner) (*domain.ParticipationRequest, error) {
	req := &domain.ParticipationRequest{}
	var status string
	if err := s.Scan(&req.ID, &req.EventID, &req.RequesterID, &status, &req.Created); err != nil {
		return nil, err
	}
	req.Status = domain.RequestStatus(status)
	return req, nil
}
