package validation

import (
	"math"

	"github.com/iliyamo/resolvenow/internal/model"
)

// Messages returned to clients.  They are part of the API surface.
const (
	MsgTitle       = "Title must be between 5 and 100 characters"
	MsgDescription = "Description must be between 10 and 1000 characters"
	MsgCategory    = "Invalid category"
	MsgPriority    = "Invalid priority"
	MsgStatus      = "Invalid status"
	MsgResolution  = "Resolution cannot be more than 500 characters"
	MsgAssignee    = "Invalid assignee"
	MsgResolvedAt  = "Invalid resolution date"
	MsgRating      = "Rating must be between 1 and 5"
	MsgComment     = "Comment cannot be more than 500 characters"
	MsgComplaint   = "Invalid complaint reference"
)

func title(opt ...Constraint) Field {
	return Field{Name: "title", Chain: append(opt,
		Required(MsgTitle), Trim(), MinLength(5, MsgTitle), MaxLength(100, MsgTitle))}
}

func description(opt ...Constraint) Field {
	return Field{Name: "description", Chain: append(opt,
		Required(MsgDescription), Trim(), MinLength(10, MsgDescription), MaxLength(1000, MsgDescription))}
}

func category(opt ...Constraint) Field {
	return Field{Name: "category", Chain: append(opt, OneOf(model.Categories, MsgCategory))}
}

// ComplaintCreate validates POST /complaints.
var ComplaintCreate = Schema{
	title(),
	description(),
	category(),
	{Name: "priority", Chain: []Constraint{Optional(), OneOf(model.Priorities, MsgPriority)}},
}

// ComplaintUpdate validates PUT /complaints/:id.  Every field is optional;
// absent fields are left unchanged by the handler.
var ComplaintUpdate = Schema{
	title(Optional()),
	description(Optional()),
	category(Optional()),
	{Name: "priority", Chain: []Constraint{Optional(), OneOf(model.Priorities, MsgPriority)}},
	{Name: "status", Chain: []Constraint{Optional(), OneOf(model.Statuses, MsgStatus)}},
	{Name: "resolution", Chain: []Constraint{Optional(), Trim(), MaxLength(500, MsgResolution)}},
	{Name: "assignedTo", Chain: []Constraint{Optional(), Integer(MsgAssignee), Range(1, math.MaxInt64, MsgAssignee)}},
	{Name: "resolvedAt", Chain: []Constraint{Optional(), Timestamp(MsgResolvedAt)}},
}

// FeedbackCreate validates POST /feedback.
var FeedbackCreate = Schema{
	{Name: "rating", Chain: []Constraint{
		Required(MsgRating), Integer(MsgRating), Range(model.MinRating, model.MaxRating, MsgRating)}},
	{Name: "comment", Chain: []Constraint{Optional(), Trim(), MaxLength(500, MsgComment)}},
	{Name: "complaint", Chain: []Constraint{Optional(), Integer(MsgComplaint), Range(1, math.MaxInt64, MsgComplaint)}},
}
