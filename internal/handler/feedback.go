package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/service"
	"github.com/iliyamo/resolvenow/internal/validation"
)

const resourceFeedback = "feedback"

// FeedbackStore is the persistence used by FeedbackHandler.
// *repository.FeedbackRepo satisfies it.
type FeedbackStore interface {
	Create(ctx context.Context, f *model.Feedback) error
	GetByID(ctx context.Context, id uint64) (*model.Feedback, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.Feedback, error)
}

// ComplaintFinder resolves the optional complaint reference of new feedback.
type ComplaintFinder interface {
	GetByID(ctx context.Context, id uint64) (*model.Complaint, error)
}

// StatsProvider serves the aggregate statistics.  *service.StatsService
// satisfies it.
type StatsProvider interface {
	Stats(ctx context.Context) (*model.FeedbackStats, error)
	Invalidate(ctx context.Context)
}

// FeedbackHandler serves /api/feedback.
type FeedbackHandler struct {
	Feedback   FeedbackStore
	Complaints ComplaintFinder
	Reporter   StatsProvider
	Events     *Emitter
	Log        *slog.Logger
}

func NewFeedbackHandler(store FeedbackStore, complaints ComplaintFinder, stats StatsProvider, events *Emitter, log *slog.Logger) *FeedbackHandler {
	if store == nil || complaints == nil || stats == nil {
		panic("nil dependency passed to NewFeedbackHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackHandler{Feedback: store, Complaints: complaints, Reporter: stats, Events: events, Log: log}
}

// List handles GET /feedback: the caller's own entries, newest first.
func (h *FeedbackHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	list, err := h.Feedback.ListByUser(ctx, p.ID)
	if err != nil {
		return serverError(c, h.Log, "list feedback", err)
	}
	return respondList(c, list, len(list))
}

// Get handles GET /feedback/:id.
func (h *FeedbackHandler) Get(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := pathID(c)
	if !ok {
		return respondMessage(c, http.StatusNotFound, MsgFeedbackNotFound)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	fb, err := h.Feedback.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondMessage(c, http.StatusNotFound, MsgFeedbackNotFound)
		}
		return serverError(c, h.Log, "get feedback", err)
	}
	if err := authz.AuthorizeResource(p, fb, authz.ActionRead); err != nil {
		return denied(c, resourceFeedback, authz.ActionRead)
	}
	return respondData(c, http.StatusOK, fb)
}

// Create handles POST /feedback.  A complaint reference must name an
// existing complaint; ownership of that complaint is not required.
func (h *FeedbackHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	vals, ok, err := validateBody(c, validation.FeedbackCreate, resourceFeedback)
	if !ok {
		return err
	}

	rating, _ := vals.Int("rating")
	fb := &model.Feedback{
		Rating:  int(rating),
		Comment: vals.StringPtr("comment"),
		UserID:  p.ID,
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if n, ok := vals.Int("complaint"); ok {
		cid := uint64(n)
		if _, err := h.Complaints.GetByID(ctx, cid); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
			}
			return serverError(c, h.Log, "check complaint", err)
		}
		fb.ComplaintID = &cid
	}

	if err := h.Feedback.Create(ctx, fb); err != nil {
		// the complaint was deleted between the check and the insert
		if errors.Is(err, repository.ErrInvalidReference) {
			return respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
		}
		return serverError(c, h.Log, "create feedback", err)
	}
	created, err := h.Feedback.GetByID(ctx, fb.ID)
	if err != nil {
		return serverError(c, h.Log, "reload feedback", err)
	}

	h.Reporter.Invalidate(ctx)
	metrics.FeedbackCreatedTotal.WithLabelValues(strconv.Itoa(created.Rating)).Inc()
	ev := service.NewActivityEvent(queue.FeedbackCreated, created.ID, created.UserID, p.ID)
	ev.Rating = created.Rating
	h.Events.Emit(ev)
	return respondData(c, http.StatusCreated, created)
}

// Stats handles GET /feedback/stats over all feedback, whoever wrote it.
func (h *FeedbackHandler) Stats(c echo.Context) error {
	if _, ok := currentPrincipal(c); !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	stats, err := h.Reporter.Stats(ctx)
	if err != nil {
		return serverError(c, h.Log, "feedback stats", err)
	}
	return respondData(c, http.StatusOK, stats)
}
