package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	mw "github.com/iliyamo/resolvenow/internal/middleware"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/utils"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var (
	alice = authz.Principal{ID: 1, Role: authz.RoleUser, Name: "Alice", Email: "alice@example.com"}
	bob   = authz.Principal{ID: 2, Role: authz.RoleUser, Name: "Bob", Email: "bob@example.com"}
	admin = authz.Principal{ID: 9, Role: authz.RoleAdmin, Name: "Root", Email: "root@example.com"}
)

// memStore is an in-memory implementation of every store interface the
// handlers use.  Reads join the owner like the MySQL repositories do.
type memStore struct {
	mu         sync.Mutex
	users      map[uint64]*model.User
	complaints map[uint64]*model.Complaint
	feedback   map[uint64]*model.Feedback
	nextID     uint64
	clock      time.Time
	reads      int
	failWith   error
}

func newMemStore() *memStore {
	s := &memStore{
		users:      map[uint64]*model.User{},
		complaints: map[uint64]*model.Complaint{},
		feedback:   map[uint64]*model.Feedback{},
		nextID:     100,
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, p := range []authz.Principal{alice, bob, admin} {
		s.users[p.ID] = &model.User{ID: p.ID, Name: p.Name, Email: p.Email, Role: string(p.Role)}
	}
	return s
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *memStore) ref(id uint64) *model.UserRef {
	u := s.users[id]
	return &model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *memStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// complaintStore adapts memStore to ComplaintStore.
type complaintStore struct{ *memStore }

func (s complaintStore) Create(_ context.Context, c *model.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.nextID++
	cp := *c
	cp.ID = s.nextID
	cp.CreatedAt = s.tick()
	cp.UpdatedAt = cp.CreatedAt
	s.complaints[cp.ID] = &cp
	c.ID = cp.ID
	return nil
}

func (s complaintStore) GetByID(_ context.Context, id uint64) (*model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.failWith != nil {
		return nil, s.failWith
	}
	c, ok := s.complaints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	cp.User = s.ref(c.UserID)
	return &cp, nil
}

func (s complaintStore) ListByUser(_ context.Context, userID uint64) ([]*model.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := []*model.Complaint{}
	for _, c := range s.complaints {
		if c.UserID == userID {
			cp := *c
			cp.User = s.ref(c.UserID)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s complaintStore) Update(_ context.Context, id uint64, p model.ComplaintPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.AssignedTo != nil {
		if _, ok := s.users[*p.AssignedTo]; !ok {
			return repository.ErrInvalidReference
		}
	}
	p.Apply(c)
	c.UpdatedAt = s.tick()
	return nil
}

func (s complaintStore) Delete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.complaints, id)
	return nil
}

// feedbackStore adapts memStore to FeedbackStore and service.RatingCounter.
type feedbackStore struct{ *memStore }

func (s feedbackStore) Create(_ context.Context, f *model.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	if f.ComplaintID != nil {
		if _, ok := s.complaints[*f.ComplaintID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	s.nextID++
	cp := *f
	cp.ID = s.nextID
	cp.CreatedAt = s.tick()
	cp.UpdatedAt = cp.CreatedAt
	s.feedback[cp.ID] = &cp
	f.ID = cp.ID
	return nil
}

func (s feedbackStore) join(f *model.Feedback) *model.Feedback {
	cp := *f
	cp.User = s.ref(f.UserID)
	if f.ComplaintID != nil {
		if c, ok := s.complaints[*f.ComplaintID]; ok {
			cp.Complaint = &model.ComplaintRef{ID: c.ID, Title: c.Title, Category: c.Category}
		}
	}
	return &cp
}

func (s feedbackStore) GetByID(_ context.Context, id uint64) (*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	f, ok := s.feedback[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.join(f), nil
}

func (s feedbackStore) ListByUser(_ context.Context, userID uint64) ([]*model.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Feedback{}
	for _, f := range s.feedback {
		if f.UserID == userID {
			out = append(out, s.join(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s feedbackStore) RatingCounts(context.Context) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return nil, s.failWith
	}
	counts := map[int]int{}
	for _, f := range s.feedback {
		counts[f.Rating]++
	}
	return counts, nil
}

// userStore adapts memStore to UserStore.
type userStore struct {
	*memStore
	hashes map[uint64]string
}

func (s userStore) Create(_ context.Context, name, email, password, role string, cost int) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, err
	}
	s.nextID++
	u := &model.User{ID: s.nextID, Name: name, Email: email, Role: role, PasswordHash: hash}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s userStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s userStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []queue.ActivityEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.ActivityEvent(nil), p.events...)
}

var errStorage = errors.New("connection refused")

// call serves one request against a fresh echo instance that routes only
// route to h, with p attached as the principal when non-nil.
func call(h echo.HandlerFunc, method, route, target, body string, p *authz.Principal) *httptest.ResponseRecorder {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(discard)
	var mws []echo.MiddlewareFunc
	if p != nil {
		principal := *p
		mws = append(mws, func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				mw.WithPrincipal(c, principal)
				return next(c)
			}
		})
	}
	e.Add(method, route, h, mws...)

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
