package core

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/repository"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]model.User
	locked []int64
}

func newFakeUserRepo(seed ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]model.User{}}
	for _, u := range seed {
		r.users[u.ID] = u
		r.nextID = max(r.nextID, u.ID)
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return model.User{}, repository.ErrConflict
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u
	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.ID]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	existing.Name, existing.Email, existing.Role = u.Name, u.Email, u.Role
	r.users[u.ID] = existing
	return existing, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int64) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *fakeUserRepo) List(context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r *fakeUserRepo) LockSubject(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	r.locked = append(r.locked, id)
	return nil
}

type fakeAttendanceRepo struct {
	mu     sync.Mutex
	nextID int64
	events []model.AttendanceEvent
}

func (r *fakeAttendanceRepo) Create(_ context.Context, e model.AttendanceEvent) (model.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	r.events = append(r.events, e)
	return e, nil
}

func (r *fakeAttendanceRepo) FindLast(_ context.Context, userID int64) (*model.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last *model.AttendanceEvent
	for i := range r.events {
		e := r.events[i]
		if e.UserID != userID {
			continue
		}
		if last == nil || !e.Timestamp.Before(last.Timestamp) {
			last = &e
		}
	}
	return last, nil
}

func (r *fakeAttendanceRepo) FindByID(_ context.Context, id int64) (model.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			return e, nil
		}
	}
	return model.AttendanceEvent{}, repository.ErrNotFound
}

func (r *fakeAttendanceRepo) ListByUser(_ context.Context, userID int64) ([]model.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AttendanceEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.AttendanceEvent) int { return b.Timestamp.Compare(a.Timestamp) })
	return out, nil
}

func (r *fakeAttendanceRepo) MarkNotified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			r.events[i].Notified = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeAttendanceRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e.ID == id {
			r.events = slices.Delete(r.events, i, i+1)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeAttendanceRepo) DeleteByUser(_ context.Context, userID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.events)
	r.events = slices.DeleteFunc(r.events, func(e model.AttendanceEvent) bool { return e.UserID == userID })
	return int64(before - len(r.events)), nil
}

// serialTx runs transactions one at a time, like the row lock does in Postgres.
type serialTx struct {
	mu    sync.Mutex
	calls int
}

func (t *serialTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	return fn(ctx)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubCaptcha struct {
	ok  bool
	err error
}

func (s stubCaptcha) Verify(context.Context, string, string) (bool, error) {
	return s.ok, s.err
}

type stubGeocoder struct {
	address string
	err     error
	calls   int
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (string, error) {
	g.calls++
	return g.address, g.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AttendanceEvent
	err    error
}

func (p *recordingPublisher) PublishAttendance(_ context.Context, e model.AttendanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []model.AttendanceEvent
}

func (b *recordingBroadcaster) Broadcast(e model.AttendanceEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

var errBoom = errors.New("boom")
