package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/service"
	"github.com/iliyamo/resolvenow/internal/validation"
)

// countingStats wraps the real stats service and counts invalidations.
type countingStats struct {
	*service.StatsService
	invalidated int
}

func (s *countingStats) Invalidate(ctx context.Context) {
	s.invalidated++
	s.StatsService.Invalidate(ctx)
}

type feedbackFixture struct {
	store *memStore
	pub   *recordingPublisher
	em    *Emitter
	stats *countingStats
	h     *FeedbackHandler
}

func newFeedbackFixture() *feedbackFixture {
	store := newMemStore()
	pub := &recordingPublisher{}
	em := NewEmitter(pub, discard)
	stats := &countingStats{StatsService: service.NewStatsService(feedbackStore{store}, nil, discard)}
	return &feedbackFixture{
		store: store,
		pub:   pub,
		em:    em,
		stats: stats,
		h:     NewFeedbackHandler(feedbackStore{store}, complaintStore{store}, stats, em, discard),
	}
}

func (f *feedbackFixture) seedFeedback(t *testing.T, owner authz.Principal, rating int) uint64 {
	t.Helper()
	fb := &model.Feedback{Rating: rating, UserID: owner.ID}
	require.NoError(t, feedbackStore{f.store}.Create(context.Background(), fb))
	return fb.ID
}

func (f *feedbackFixture) seedComplaint(t *testing.T, owner authz.Principal) uint64 {
	t.Helper()
	c := &model.Complaint{Title: "Slow support", Description: "Nobody answered for days", Category: "Customer Service",
		Priority: model.DefaultPriority, Status: model.DefaultStatus, UserID: owner.ID}
	require.NoError(t, complaintStore{f.store}.Create(context.Background(), c))
	return c.ID
}

type feedbackEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *model.Feedback `json:"data"`
}

func decodeFeedback(t *testing.T, body []byte) feedbackEnvelope {
	t.Helper()
	var env feedbackEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func feedbackPath(id uint64) string { return "/api/feedback/" + strconv.FormatUint(id, 10) }

func TestCreateFeedback(t *testing.T) {
	f := newFeedbackFixture()
	cid := f.seedComplaint(t, bob)
	body := `{"rating":4,"comment":"  Quick fix  ","complaint":` + strconv.FormatUint(cid, 10) + `,"user":2}`

	rec := call(f.h.Create, http.MethodPost, "/api/feedback", "/api/feedback", body, &alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	env := decodeFeedback(t, rec.Body.Bytes())
	require.True(t, env.Success)
	assert.Equal(t, 4, env.Data.Rating)
	require.NotNil(t, env.Data.Comment)
	assert.Equal(t, "Quick fix", *env.Data.Comment)
	assert.Equal(t, alice.ID, env.Data.User.ID, "owner comes from the principal")
	require.NotNil(t, env.Data.Complaint)
	assert.Equal(t, model.ComplaintRef{ID: cid, Title: "Slow support", Category: "Customer Service"}, *env.Data.Complaint)
	assert.Equal(t, 1, f.stats.invalidated)

	f.em.Wait()
	events := f.pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, queue.FeedbackCreated, events[0].Type)
	assert.Equal(t, 4, events[0].Rating)
}

func TestCreateFeedback_WithoutComplaint(t *testing.T) {
	f := newFeedbackFixture()

	rec := call(f.h.Create, http.MethodPost, "/api/feedback", "/api/feedback", `{"rating":"5"}`, &alice)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeFeedback(t, rec.Body.Bytes())
	assert.Equal(t, 5, env.Data.Rating)
	assert.Nil(t, env.Data.Complaint)
	assert.Nil(t, env.Data.Comment)
}

func TestCreateFeedback_UnknownComplaint(t *testing.T) {
	f := newFeedbackFixture()

	rec := call(f.h.Create, http.MethodPost, "/api/feedback", "/api/feedback", `{"rating":3,"complaint":4242}`, &alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Complaint not found"}`, rec.Body.String())
	assert.Empty(t, f.store.feedback)
	assert.Zero(t, f.stats.invalidated)
}

func TestCreateFeedback_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing rating", `{"comment":"fine"}`, validation.MsgRating},
		{"zero", `{"rating":0}`, validation.MsgRating},
		{"six", `{"rating":6}`, validation.MsgRating},
		{"fraction", `{"rating":3.5}`, validation.MsgRating},
		{"word", `{"rating":"three"}`, validation.MsgRating},
		{"boolean", `{"rating":true}`, validation.MsgRating},
		{"long comment", `{"rating":3,"comment":"` + strings.Repeat("x", 501) + `"}`, validation.MsgComment},
		{"bad complaint ref", `{"rating":3,"complaint":"abc"}`, validation.MsgComplaint},
		{"malformed", `{"rating":`, MsgInvalidBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFeedbackFixture()
			rec := call(f.h.Create, http.MethodPost, "/api/feedback", "/api/feedback", tc.body, &alice)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"success":false,"message":"`+tc.msg+`"}`, rec.Body.String())
			assert.Empty(t, f.store.feedback)
			assert.Zero(t, f.store.readCount(), "no storage read before validation passes")
		})
	}
}

func TestGetFeedback(t *testing.T) {
	f := newFeedbackFixture()
	id := f.seedFeedback(t, alice, 5)

	rec := call(f.h.Get, http.MethodGet, "/api/feedback/:id", feedbackPath(id), "", &alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeFeedback(t, rec.Body.Bytes()).Data.ID)

	rec = call(f.h.Get, http.MethodGet, "/api/feedback/:id", feedbackPath(id), "", &admin)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(f.h.Get, http.MethodGet, "/api/feedback/:id", feedbackPath(id), "", &bob)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Not authorized to access this feedback"}`, rec.Body.String())

	rec = call(f.h.Get, http.MethodGet, "/api/feedback/:id", feedbackPath(9999), "", &alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Feedback not found"}`, rec.Body.String())

	rec = call(f.h.Get, http.MethodGet, "/api/feedback/:id", "/api/feedback/-1", "", &alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFeedback_ScopedToCaller(t *testing.T) {
	f := newFeedbackFixture()
	f.seedFeedback(t, alice, 5)
	f.seedFeedback(t, bob, 1)
	latest := f.seedFeedback(t, alice, 3)

	rec := call(f.h.List, http.MethodGet, "/api/feedback", "/api/feedback", "", &alice)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Count int              `json:"count"`
		Data  []model.Feedback `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Count)
	require.Len(t, env.Data, 2)
	assert.Equal(t, latest, env.Data[0].ID)
	for _, fb := range env.Data {
		assert.Equal(t, alice.ID, fb.User.ID)
	}
}

func TestFeedbackStats(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		f := newFeedbackFixture()
		rec := call(f.h.Stats, http.MethodGet, "/api/feedback/stats", "/api/feedback/stats", "", &alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"success":true,"data":{"averageRating":0,"totalFeedback":0,"ratingDistribution":{}}}`, rec.Body.String())
	})

	t.Run("all users counted", func(t *testing.T) {
		f := newFeedbackFixture()
		f.seedFeedback(t, alice, 5)
		f.seedFeedback(t, bob, 5)
		f.seedFeedback(t, bob, 4)
		f.seedFeedback(t, admin, 3)

		rec := call(f.h.Stats, http.MethodGet, "/api/feedback/stats", "/api/feedback/stats", "", &alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"success":true,"data":{"averageRating":4.3,"totalFeedback":4,"ratingDistribution":{"5":2,"4":1,"3":1}}}`,
			rec.Body.String())
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFeedbackFixture()
		f.store.failWith = errStorage
		rec := call(f.h.Stats, http.MethodGet, "/api/feedback/stats", "/api/feedback/stats", "", &alice)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"success":false,"message":"Server error"}`, rec.Body.String())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFeedbackFixture()
		rec := call(f.h.Stats, http.MethodGet, "/api/feedback/stats", "/api/feedback/stats", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
