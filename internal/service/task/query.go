package task

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/iranadryan/task-manager/internal/domain"
)

var sortFields = map[string]domain.TaskSortField{
	"description": domain.TaskSortDescription,
	"completed":   domain.TaskSortCompleted,
	"createdAt":   domain.TaskSortCreatedAt,
	"created_at":  domain.TaskSortCreatedAt,
	"updatedAt":   domain.TaskSortUpdatedAt,
	"updated_at":  domain.TaskSortUpdatedAt,
}

// ParseQuery reads the completed, sort, limit and skip listing parameters.
// Values that cannot be understood fall back to no filter, default order, no limit and no skip.
func ParseQuery(values url.Values) domain.TaskQuery {
	var q domain.TaskQuery
	if raw := values.Get("completed"); raw != "" {
		completed := raw == "true"
		q.Completed = &completed
	}
	if raw := values.Get("sort"); raw != "" {
		field, direction, _ := strings.Cut(raw, ":")
		q.SortBy = sortFields[field]
		q.Desc = q.SortBy != domain.TaskSortDefault && direction == "desc"
	}
	q.Limit = nonNegative(values.Get("limit"))
	q.Skip = nonNegative(values.Get("skip"))
	return q
}

func nonNegative(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
