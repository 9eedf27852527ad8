package postgres

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTask inserts a task. A missing owner surfaces as ErrNotFound.
func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	const query = `INSERT INTO tasks (` + taskColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.conn(ctx).Exec(ctx, query, task.ID, task.OwnerID, task.Description, task.Completed, task.CreatedAt, task.UpdatedAt)
	return translate(err)
}

// GetTask fetches a task owned by ownerID.
func (r *Repository) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	task, err := scanTask(r.conn(ctx).QueryRow(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// UpdateTask applies patch in a single statement scoped by owner.
func (r *Repository) UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	const query = `UPDATE tasks
		SET description = COALESCE($3, description),
			completed = COALESCE($4, completed),
			updated_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns
	task, err := scanTask(r.conn(ctx).QueryRow(ctx, query, taskID, ownerID, patch.Description, patch.Completed, time.Now().UTC()))
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// DeleteTask removes a task owned by ownerID and returns it.
func (r *Repository) DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	const query = `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING ` + taskColumns
	task, err := scanTask(r.conn(ctx).QueryRow(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// DeleteTasksByOwner removes every task of an owner.
func (r *Repository) DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

// ListTasks streams an owner's tasks; rows are read as the caller iterates.
func (r *Repository) ListTasks(ctx context.Context, ownerID string, query domain.TaskQuery) iter.Seq2[domain.Task, error] {
	return func(yield func(domain.Task, error) bool) {
		sql, args := buildListTasks(ownerID, query)
		rows, err := r.conn(ctx).Query(ctx, sql, args...)
		if err != nil {
			yield(domain.Task{}, translate(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				yield(domain.Task{}, err)
				return
			}
			if !yield(task, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(domain.Task{}, err)
		}
	}
}

func buildListTasks(ownerID string, query domain.TaskQuery) (string, []any) {
	var sb strings.Builder
	args := []any{ownerID}
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)
	if query.Completed != nil {
		args = append(args, *query.Completed)
		fmt.Fprintf(&sb, " AND completed = $%d", len(args))
	}
	sb.WriteString(" ORDER BY " + repository.TaskOrderBy(query, "id"))
	if query.Limit > 0 {
		args = append(args, query.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if query.Skip > 0 {
		args = append(args, query.Skip)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	return sb.String(), args
}
