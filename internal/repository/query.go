package repository

import "github.com/iranadryan/task-manager/internal/domain"

// taskSortColumns maps sortable task fields onto SQL columns.
var taskSortColumns = map[domain.TaskSortField]string{
	domain.TaskSortDescription: "description",
	domain.TaskSortCompleted:   "completed",
	domain.TaskSortCreatedAt:   "created_at",
	domain.TaskSortUpdatedAt:   "updated_at",
}

// TaskOrderBy renders the ORDER BY list for a task query. Ties, and queries without a
// sort field, fall back to creation order so repeated reads stay stable. tieBreaker is the
// final column used when creation times collide.
func TaskOrderBy(query domain.TaskQuery, tieBreaker string) string {
	order := ""
	if column, ok := taskSortColumns[query.SortBy]; ok {
		dir := "ASC"
		if query.Desc {
			dir = "DESC"
		}
		order = column + " " + dir + ", "
	}
	return order + "created_at ASC, " + tieBreaker + " ASC"
}
