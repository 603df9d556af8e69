package model

import "time"

// Categories is the closed set of complaint categories.
var Categories = []string{
	"Technical Issue",
	"Billing",
	"Service Quality",
	"Product Defect",
	"Delivery",
	"Customer Service",
	"Other",
}

// Priorities lists the accepted complaint priorities.
var Priorities = []string{"low", "medium", "high", "urgent"}

// Statuses lists the accepted complaint statuses.  No transition order is
// enforced between them.
var Statuses = []string{"pending", "in-progress", "resolved", "closed"}

const (
	DefaultPriority = "medium"
	DefaultStatus   = "pending"
)

// Complaint mirrors a row of the `complaints` table.  UserID is set once on
// creation and never updated.  User is only populated on reads that join the
// owner for display.
type Complaint struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	UserID      uint64     `json:"-"`
	User        *UserRef   `json:"user,omitempty"`
	AssignedTo  *uint64    `json:"assignedTo,omitempty"`
	Resolution  *string    `json:"resolution,omitempty"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// OwnerID returns the id of the owning user.
func (c *Complaint) OwnerID() uint64 { return c.UserID }

// ComplaintPatch carries the fields of a partial update.  A nil pointer
// means "leave unchanged".  The owner, id and timestamps are not patchable.
type ComplaintPatch struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
	AssignedTo  *uint64
	Resolution  *string
	ResolvedAt  *time.Time
}

// Empty reports whether the patch changes nothing.
func (p ComplaintPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedTo == nil &&
		p.Resolution == nil && p.ResolvedAt == nil
}

// Apply copies the present fields of the patch onto c.
func (p ComplaintPatch) Apply(c *Complaint) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Priority != nil {
		c.Priority = *p.Priority
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.AssignedTo != nil {
		v := *p.AssignedTo
		c.AssignedTo = &v
	}
	if p.Resolution != nil {
		v := *p.Resolution
		c.Resolution = &v
	}
	if p.ResolvedAt != nil {
		v := *p.ResolvedAt
		c.ResolvedAt = &v
	}
}
