package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/metrics"
	"github.com/iliyamo/resolvenow/internal/model"
	"github.com/iliyamo/resolvenow/internal/queue"
	"github.com/iliyamo/resolvenow/internal/repository"
	"github.com/iliyamo/resolvenow/internal/service"
	"github.com/iliyamo/resolvenow/internal/validation"
)

const resourceComplaint = "complaint"

// ComplaintStore is the persistence used by ComplaintHandler.
// *repository.ComplaintRepo satisfies it.
type ComplaintStore interface {
	Create(ctx context.Context, c *model.Complaint) error
	GetByID(ctx context.Context, id uint64) (*model.Complaint, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.Complaint, error)
	Update(ctx context.Context, id uint64, p model.ComplaintPatch) error
	Delete(ctx context.Context, id uint64) error
}

// ComplaintHandler serves /api/complaints.
type ComplaintHandler struct {
	Complaints ComplaintStore
	Events     *Emitter
	Log        *slog.Logger
}

func NewComplaintHandler(store ComplaintStore, events *Emitter, log *slog.Logger) *ComplaintHandler {
	if store == nil {
		panic("nil store passed to NewComplaintHandler")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ComplaintHandler{Complaints: store, Events: events, Log: log}
}

// List handles GET /complaints: the caller's own complaints, newest first.
// Admins get the same owner-scoped list.
func (h *ComplaintHandler) List(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	list, err := h.Complaints.ListByUser(ctx, p.ID)
	if err != nil {
		return serverError(c, h.Log, "list complaints", err)
	}
	return respondList(c, list, len(list))
}

// Get handles GET /complaints/:id.
func (h *ComplaintHandler) Get(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	cm, done, err := h.load(c, p, authz.ActionRead)
	if done {
		return err
	}
	return respondData(c, http.StatusOK, cm)
}

// Create handles POST /complaints.  The owner is always the caller; a
// client-supplied user field is ignored.
func (h *ComplaintHandler) Create(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	vals, ok, err := validateBody(c, validation.ComplaintCreate, resourceComplaint)
	if !ok {
		return err
	}

	cm := &model.Complaint{
		Priority: model.DefaultPriority,
		Status:   model.DefaultStatus,
		UserID:   p.ID,
	}
	cm.Title, _ = vals.String("title")
	cm.Description, _ = vals.String("description")
	cm.Category, _ = vals.String("category")
	if v, ok := vals.String("priority"); ok {
		cm.Priority = v
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Complaints.Create(ctx, cm); err != nil {
		return serverError(c, h.Log, "create complaint", err)
	}
	created, err := h.Complaints.GetByID(ctx, cm.ID)
	if err != nil {
		return serverError(c, h.Log, "reload complaint", err)
	}

	metrics.ComplaintsCreatedTotal.WithLabelValues(created.Category).Inc()
	h.Events.Emit(service.NewActivityEvent(queue.ComplaintCreated, created.ID, created.UserID, p.ID))
	return respondData(c, http.StatusCreated, created)
}

// Update handles PUT /complaints/:id.  The body is validated before the
// complaint is read; only fields present in the body change.
func (h *ComplaintHandler) Update(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	vals, ok, err := validateBody(c, validation.ComplaintUpdate, resourceComplaint)
	if !ok {
		return err
	}
	cm, done, err := h.load(c, p, authz.ActionUpdate)
	if done {
		return err
	}

	patch := complaintPatch(vals)
	if patch.Empty() {
		return respondData(c, http.StatusOK, cm)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Complaints.Update(ctx, cm.ID, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
		case errors.Is(err, repository.ErrInvalidReference):
			metrics.ValidationFailuresTotal.WithLabelValues(resourceComplaint).Inc()
			return respondMessage(c, http.StatusBadRequest, validation.MsgAssignee)
		}
		return serverError(c, h.Log, "update complaint", err)
	}
	updated, err := h.Complaints.GetByID(ctx, cm.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
		}
		return serverError(c, h.Log, "reload complaint", err)
	}

	ev := service.NewActivityEvent(queue.ComplaintUpdated, updated.ID, updated.UserID, p.ID)
	ev.Fields = patchFields(patch)
	h.Events.Emit(ev)
	return respondData(c, http.StatusOK, updated)
}

// Delete handles DELETE /complaints/:id.
func (h *ComplaintHandler) Delete(c echo.Context) error {
	p, ok := currentPrincipal(c)
	if !ok {
		return unauthorized(c)
	}
	cm, done, err := h.load(c, p, authz.ActionDelete)
	if done {
		return err
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Complaints.Delete(ctx, cm.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
		}
		return serverError(c, h.Log, "delete complaint", err)
	}

	h.Events.Emit(service.NewActivityEvent(queue.ComplaintDeleted, cm.ID, cm.UserID, p.ID))
	return respondMessage(c, http.StatusOK, MsgComplaintDeleted)
}

// load fetches the complaint named by :id and checks that p may perform
// action on it.  When done is true the response has been written and err is
// the write result.
func (h *ComplaintHandler) load(c echo.Context, p authz.Principal, action authz.Action) (*model.Complaint, bool, error) {
	id, ok := pathID(c)
	if !ok {
		return nil, true, respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	cm, err := h.Complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, true, respondMessage(c, http.StatusNotFound, MsgComplaintNotFound)
		}
		return nil, true, serverError(c, h.Log, "get complaint", err)
	}
	if err := authz.AuthorizeResource(p, cm, action); err != nil {
		return nil, true, denied(c, resourceComplaint, action)
	}
	return cm, false, nil
}

func complaintPatch(v validation.Values) model.ComplaintPatch {
	p := model.ComplaintPatch{
		Title:       v.StringPtr("title"),
		Description: v.StringPtr("description"),
		Category:    v.StringPtr("category"),
		Priority:    v.StringPtr("priority"),
		Status:      v.StringPtr("status"),
		Resolution:  v.StringPtr("resolution"),
	}
	if n, ok := v.Int("assignedTo"); ok {
		id := uint64(n)
		p.AssignedTo = &id
	}
	if t, ok := v.Time("resolvedAt"); ok {
		p.ResolvedAt = &t
	}
	return p
}

// patchFields lists the JSON names of the fields a patch changes.
func patchFields(p model.ComplaintPatch) []string {
	var out []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"title", p.Title != nil},
		{"description", p.Description != nil},
		{"category", p.Category != nil},
		{"priority", p.Priority != nil},
		{"status", p.Status != nil},
		{"assignedTo", p.AssignedTo != nil},
		{"resolution", p.Resolution != nil},
		{"resolvedAt", p.ResolvedAt != nil},
	} {
		if f.set {
			out = append(out, f.name)
		}
	}
	return out
}
