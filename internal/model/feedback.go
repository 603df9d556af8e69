package model

import "time"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ComplaintRef is the complaint summary joined into feedback responses.
type ComplaintRef struct {
	ID       uint64 `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Feedback mirrors a row of the `feedback` table.  Feedback is append-only
// through the API.
type Feedback struct {
	ID          uint64        `json:"id"`
	Rating      int           `json:"rating"`
	Comment     *string       `json:"comment,omitempty"`
	UserID      uint64        `json:"-"`
	User        *UserRef      `json:"user,omitempty"`
	ComplaintID *uint64       `json:"-"`
	Complaint   *ComplaintRef `json:"complaint,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// OwnerID returns the id of the owning user.
func (f *Feedback) OwnerID() uint64 { return f.UserID }

// FeedbackStats is the aggregate document served by GET /feedback/stats.
// Distribution keys are rating values rendered as strings.
type FeedbackStats struct {
	AverageRating      float64        `json:"averageRating"`
	TotalFeedback      int            `json:"totalFeedback"`
	RatingDistribution map[string]int `json:"ratingDistribution"`
}
