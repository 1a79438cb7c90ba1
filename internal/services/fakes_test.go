package services

import (
	"context"
	"fmt"
	"sync"

	"eventboard/internal/domain"
)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(ids ...string) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, id := range ids {
		r.users[id] = &domain.User{ID: id, Name: "user " + id, Email: id + "@example.com"}
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func newFakeCategoryRepo(ids ...string) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: map[string]*domain.Category{}}
	for _, id := range ids {
		r.categories[id] = &domain.Category{ID: id, Name: "category " + id}
	}
	return r
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

type fakeLocationRepo struct {
	saved int
}

func (r *fakeLocationRepo) Save(ctx context.Context, loc *domain.Location) error {
	r.saved++
	if loc.ID == "" {
		loc.ID = fmt.Sprintf("loc-%d", r.saved)
	}
	return nil
}

type fakeEventRepo struct {
	events map[string]*domain.Event
	nextID int
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: map[string]*domain.Event{}}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	r.nextID++
	e.ID = fmt.Sprintf("event-%d", r.nextID)
	r.events[e.ID] = e
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

func (r *fakeEventRepo) ListByInitiatorID(ctx context.Context, initiatorID string, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var events []*domain.Event
	for _, e := range r.events {
		if e.InitiatorID == initiatorID {
			events = append(events, e)
		}
	}
	return events, len(events), nil
}

func (r *fakeEventRepo) Save(ctx context.Context, e *domain.Event) error {
	if _, ok := r.events[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.events[e.ID] = e
	return nil
}

// fakeRequestRepo is an in-memory RequestRepository whose WithEventLock
// emulates transaction semantics: reads hand out copies and writes are
// buffered until fn returns nil.
type fakeRequestRepo struct {
	mu       sync.Mutex
	events   *fakeEventRepo
	requests map[string]*domain.ParticipationRequest
	nextID   int
}

func newFakeRequestRepo(events *fakeEventRepo, reqs ...*domain.ParticipationRequest) *fakeRequestRepo {
	r := &fakeRequestRepo{events: events, requests: map[string]*domain.ParticipationRequest{}}
	for _, req := range reqs {
		r.requests[req.ID] = req
	}
	return r
}

func (r *fakeRequestRepo) get(id string) *domain.ParticipationRequest {
	req, ok := r.requests[id]
	if !ok {
		return nil
	}
	cp := *req
	return &cp
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (*domain.ParticipationRequest, error) {
	if req := r.get(id); req != nil {
		return req, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRequestRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.ParticipationRequest, error) {
	var reqs []*domain.ParticipationRequest
	for id, req := range r.requests {
		if req.EventID == eventID {
			reqs = append(reqs, r.get(id))
		}
	}
	return reqs, nil
}

func (r *fakeRequestRepo) ListByRequesterID(ctx context.Context, requesterID string) ([]*domain.ParticipationRequest, error) {
	var reqs []*domain.ParticipationRequest
	for id, req := range r.requests {
		if req.RequesterID == requesterID {
			reqs = append(reqs, r.get(id))
		}
	}
	return reqs, nil
}

func (r *fakeRequestRepo) CountByEventAndStatuses(ctx context.Context, eventID string, statuses []domain.RequestStatus) (int, error) {
	count := 0
	for _, req := range r.requests {
		if req.EventID != eventID {
			continue
		}
		for _, st := range statuses {
			if req.Status == st {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeRequestRepo) Save(ctx context.Context, req *domain.ParticipationRequest) error {
	if _, ok := r.requests[req.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakeRequestRepo) WithEventLock(ctx context.Context, eventID string, fn func(ctx context.Context, tx domain.AdmissionTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, ok := r.events.events[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	eventCopy := *event
	tx := &fakeAdmissionTx{repo: r, event: &eventCopy}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

type fakeAdmissionTx struct {
	repo    *fakeRequestRepo
	event   *domain.Event
	writes  []*domain.ParticipationRequest
	created []*domain.ParticipationRequest
}

func (t *fakeAdmissionTx) Event() *domain.Event {
	return t.event
}

func (t *fakeAdmissionTx) CountByStatuses(ctx context.Context, statuses ...domain.RequestStatus) (int, error) {
	return t.repo.CountByEventAndStatuses(ctx, t.event.ID, statuses)
}

func (t *fakeAdmissionTx) ListByIDs(ctx context.Context, ids []string) ([]*domain.ParticipationRequest, error) {
	var reqs []*domain.ParticipationRequest
	for _, id := range ids {
		req := t.repo.get(id)
		if req != nil && req.EventID == t.event.ID {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

func (t *fakeAdmissionTx) ListPending(ctx context.Context) ([]*domain.ParticipationRequest, error) {
	var reqs []*domain.ParticipationRequest
	for id, req := range t.repo.requests {
		if req.EventID == t.event.ID && req.Status == domain.RequestPending {
			reqs = append(reqs, t.repo.get(id))
		}
	}
	return reqs, nil
}

func (t *fakeAdmissionTx) GetActiveByRequester(ctx context.Context, requesterID string) (*domain.ParticipationRequest, error) {
	for id, req := range t.repo.requests {
		if req.EventID == t.event.ID && req.RequesterID == requesterID && req.Status != domain.RequestCanceled {
			return t.repo.get(id), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *fakeAdmissionTx) Create(ctx context.Context, req *domain.ParticipationRequest) error {
	t.repo.nextID++
	req.ID = fmt.Sprintf("req-%d", t.repo.nextID)
	cp := *req
	t.created = append(t.created, &cp)
	return nil
}

func (t *fakeAdmissionTx) SaveAll(ctx context.Context, reqs []*domain.ParticipationRequest) error {
	for _, req := range reqs {
		cp := *req
		t.writes = append(t.writes, &cp)
	}
	return nil
}

func (t *fakeAdmissionTx) commit() {
	for _, req := range t.created {
		t.repo.requests[req.ID] = req
	}
	for _, req := range t.writes {
		t.repo.requests[req.ID] = req
	}
}
