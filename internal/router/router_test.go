package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resolvenow/internal/handler"
	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/service"
	"github.com/iliyamo/resolvenow/internal/utils"
)

const secret = "router-secret"

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type users map[uint64]*model.User

func (u users) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if v, ok := u[id]; ok {
		return v, nil
	}
	return nil, repository.ErrNotFound
}

func (u users) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, repository.ErrNotFound
}

func (u users) Create(context.Context, string, string, string, string, int) (*model.User, error) {
	return nil, repository.ErrEmailExists
}

// emptyStore answers every read with an empty result.
type emptyStore struct{}

func (emptyStore) Create(context.Context, *model.Complaint) error { return nil }
func (emptyStore) GetByID(context.Context, uint64) (*model.Complaint, error) {
	return nil, repository.ErrNotFound
}
func (emptyStore) ListByUser(context.Context, uint64) ([]*model.Complaint, error) {
	return []*model.Complaint{}, nil
}
func (emptyStore) Update(context.Context, uint64, model.ComplaintPatch) error { return nil }
func (emptyStore) Delete(context.Context, uint64) error                       { return nil }

type emptyFeedback struct{}

func (emptyFeedback) Create(context.Context, *model.Feedback) error { return nil }
func (emptyFeedback) GetByID(context.Context, uint64) (*model.Feedback, error) {
	return nil, repository.ErrNotFound
}
func (emptyFeedback) ListByUser(context.Context, uint64) ([]*model.Feedback, error) {
	return []*model.Feedback{}, nil
}
func (emptyFeedback) RatingCounts(context.Context) (map[int]int, error) { return map[int]int{}, nil }

func newServer(t *testing.T, statsAdminOnly bool) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(discard)

	u := users{
		1: {ID: 1, Name: "User", Email: "u@example.com", Role: model.RoleUser},
		2: {ID: 2, Name: "Admin", Email: "a@example.com", Role: model.RoleAdmin},
	}
	auth := Auth{Secret: secret, Users: u, Log: discard}
	em := handler.NewEmitter(nil, discard)

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	RegisterRoutes(e, metrics.Handler(reg))
	RegisterAuth(e, handler.NewAuthHandler(handler.AuthConfig{Secret: secret, TokenTTL: time.Hour, BcryptCost: 4}, u, discard), auth)
	RegisterComplaints(e, handler.NewComplaintHandler(emptyStore{}, em, discard), auth)
	stats := service.NewStatsService(emptyFeedback{}, nil, discard)
	RegisterFeedback(e, handler.NewFeedbackHandler(emptyFeedback{}, emptyStore{}, stats, em, discard), auth, statsAdminOnly)
	return e
}

func get(t *testing.T, e *echo.Echo, path string, uid uint64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if uid != 0 {
		tok, err := utils.NewAccessToken(secret, uid, time.Hour)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer(t, false)
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /api/health",
		"GET /metrics",
		"POST /api/auth/register",
		"POST /api/auth/login",
		"GET /api/auth/me",
		"GET /api/complaints",
		"POST /api/complaints",
		"GET /api/complaints/:id",
		"PUT /api/complaints/:id",
		"DELETE /api/complaints/:id",
		"GET /api/feedback",
		"POST /api/feedback",
		"GET /api/feedback/:id",
		"GET /api/feedback/stats",
	} {
		assert.True(t, have[want], want)
	}
	assert.False(t, have["PUT /api/feedback/:id"])
	assert.False(t, have["DELETE /api/feedback/:id"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newServer(t, false)
	for _, path := range []string{"/api/complaints", "/api/complaints/1", "/api/feedback", "/api/feedback/stats", "/api/auth/me"} {
		rec := get(t, e, path, 0)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"success":false,"message":"Not authorized to access this route"}`, rec.Body.String(), path)
	}
}

func TestPublicRoutes(t *testing.T) {
	e := newServer(t, false)
	assert.Equal(t, http.StatusOK, get(t, e, "/api/health", 0).Code)
	assert.Equal(t, http.StatusOK, get(t, e, "/metrics", 0).Code)
}

func TestStatsRoute(t *testing.T) {
	open := newServer(t, false)
	rec := get(t, open, "/api/feedback/stats", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"averageRating":0,"totalFeedback":0,"ratingDistribution":{}}}`, rec.Body.String())

	restricted := newServer(t, true)
	assert.Equal(t, http.StatusUnauthorized, get(t, restricted, "/api/feedback/stats", 1).Code)
	assert.Equal(t, http.StatusOK, get(t, restricted, "/api/feedback/stats", 2).Code)
}

func TestAuthenticatedList(t *testing.T) {
	e := newServer(t, false)
	rec := get(t, e, "/api/complaints", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"count":0,"data":[]}`, rec.Body.String())

	rec = get(t, e, "/api/complaints/7", 1)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
