package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/resolvenow/internal/model"
)

// ComplaintRepo encapsulates the queries on the `complaints` table.  Reads
// join the owner's name and email for response shaping.
type ComplaintRepo struct {
	db *sql.DB
}

// NewComplaintRepo constructs a ComplaintRepo with the provided DB handle.
func NewComplaintRepo(db *sql.DB) *ComplaintRepo {
	return &ComplaintRepo{db: db}
}

const complaintSelect = `SELECT c.id, c.title, c.description, c.category, c.priority, c.status,
	c.user_id, u.name, u.email, c.assigned_to, c.resolution, c.resolved_at, c.created_at, c.updated_at
	FROM complaints c
	JOIN users u ON u.id = c.user_id`

// Create inserts the complaint.  On success c.ID holds the generated id.
func (r *ComplaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	const q = `INSERT INTO complaints (title, description, category, priority, status, user_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, c.Title, c.Description, c.Category, c.Priority, c.Status, c.UserID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// GetByID fetches a complaint regardless of owner.  Ownership is decided by
// the caller.  It returns ErrNotFound if no row matches.
func (r *ComplaintRepo) GetByID(ctx context.Context, id uint64) (*model.Complaint, error) {
	row := r.db.QueryRowContext(ctx, complaintSelect+" WHERE c.id = ?", id)
	c, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// ListByUser returns every complaint owned by userID, newest first.
func (r *ComplaintRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Complaint, error) {
	rows, err := r.db.QueryContext(ctx,
		complaintSelect+" WHERE c.user_id = ? ORDER BY c.created_at DESC, c.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes the present fields of p.  The owner column is never part of
// the statement.  It returns ErrNotFound when the row no longer exists.
func (r *ComplaintRepo) Update(ctx context.Context, id uint64, p model.ComplaintPatch) error {
	sets, args := patchAssignments(p)
	if len(sets) == 0 {
		// nothing to write; still report a vanished row
		_, err := r.GetByID(ctx, id)
		return err
	}
	q := "UPDATE complaints SET " + strings.Join(sets, ", ") + ", updated_at = CURRENT_TIMESTAMP(3) WHERE id = ?"
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for an update that changed nothing
		_, err := r.GetByID(ctx, id)
		return err
	}
	return nil
}

// Delete removes the complaint.  Feedback referencing it keeps its row with
// the reference cleared by the foreign key.
func (r *ComplaintRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM complaints WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func patchAssignments(p model.ComplaintPatch) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.AssignedTo != nil {
		add("assigned_to", *p.AssignedTo)
	}
	if p.Resolution != nil {
		add("resolution", *p.Resolution)
	}
	if p.ResolvedAt != nil {
		add("resolved_at", p.ResolvedAt.UTC())
	}
	return sets, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(s rowScanner) (*model.Complaint, error) {
	var (
		c          model.Complaint
		owner      model.UserRef
		assignedTo sql.NullInt64
		resolution sql.NullString
		resolvedAt sql.NullTime
	)
	err := s.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Priority, &c.Status,
		&c.UserID, &owner.Name, &owner.Email, &assignedTo, &resolution, &resolvedAt,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	owner.ID = c.UserID
	c.User = &owner
	if assignedTo.Valid {
		v := uint64(assignedTo.Int64)
		c.AssignedTo = &v
	}
	if resolution.Valid {
		v := resolution.String
		c.Resolution = &v
	}
	if resolvedAt.Valid {
		v := resolvedAt.Time.In(time.UTC)
		c.ResolvedAt = &v
	}
	return &c, nil
}
