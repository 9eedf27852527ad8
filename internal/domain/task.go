package domain

import "time"

// Task is a resource owned by exactly one account.
type Task struct {
	ID          string
	OwnerID     string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskSortField enumerates the columns a task listing may be ordered by.
type TaskSortField string

const (
	TaskSortDefault     TaskSortField = ""
	TaskSortDescription TaskSortField = "description"
	TaskSortCompleted   TaskSortField = "completed"
	TaskSortCreatedAt   TaskSortField = "created_at"
	TaskSortUpdatedAt   TaskSortField = "updated_at"
)

// TaskQuery narrows, orders and pages an owner's task listing.
// Zero values mean no filter, default order, no limit and no skip.
type TaskQuery struct {
	Completed *bool
	SortBy    TaskSortField
	Desc      bool
	Limit     int
	Skip      int
}

// TaskPatch carries the mutable task fields; nil leaves a field unchanged.
type TaskPatch struct {
	Description *string
	Completed   *bool
}
