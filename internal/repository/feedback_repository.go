package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/resolvenow/internal/model"
)

// FeedbackRepo encapsulates the queries on the `feedback` table.
type FeedbackRepo struct {
	db *sql.DB
}

func NewFeedbackRepo(db *sql.DB) *FeedbackRepo {
	return &FeedbackRepo{db: db}
}

const feedbackSelect = `SELECT f.id, f.rating, f.comment, f.user_id, u.name, u.email,
	f.complaint_id, c.title, c.category, f.created_at, f.updated_at
	FROM feedback f
	JOIN users u ON u.id = f.user_id
	LEFT JOIN complaints c ON c.id = f.complaint_id`

// Create inserts the feedback and sets f.ID.
func (r *FeedbackRepo) Create(ctx context.Context, f *model.Feedback) error {
	const q = "INSERT INTO feedback (rating, comment, user_id, complaint_id) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, f.Rating, f.Comment, f.UserID, f.ComplaintID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// GetByID fetches a feedback entry with its owner and complaint joined.
func (r *FeedbackRepo) GetByID(ctx context.Context, id uint64) (*model.Feedback, error) {
	f, err := scanFeedback(r.db.QueryRowContext(ctx, feedbackSelect+" WHERE f.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// ListByUser returns the feedback written by userID, newest first.
func (r *FeedbackRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		feedbackSelect+" WHERE f.user_id = ? ORDER BY f.created_at DESC, f.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*model.Feedback{}
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// RatingCounts returns how many feedback rows exist per rating value across
// all users.
func (r *FeedbackRepo) RatingCounts(ctx context.Context) (map[int]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rating, COUNT(*) FROM feedback GROUP BY rating")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, err
		}
		counts[rating] = n
	}
	return counts, rows.Err()
}

func scanFeedback(s rowScanner) (*model.Feedback, error) {
	var (
		f           model.Feedback
		owner       model.UserRef
		comment     sql.NullString
		complaintID sql.NullInt64
		title       sql.NullString
		category    sql.NullString
	)
	err := s.Scan(&f.ID, &f.Rating, &comment, &f.UserID, &owner.Name, &owner.Email,
		&complaintID, &title, &category, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	owner.ID = f.UserID
	f.User = &owner
	if comment.Valid {
		v := comment.String
		f.Comment = &v
	}
	if complaintID.Valid {
		id := uint64(complaintID.Int64)
		f.ComplaintID = &id
		f.Complaint = &model.ComplaintRef{ID: id, Title: title.String, Category: category.String}
	}
	return &f, nil
}
