package sqlite

import (
	"context"
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
	var (
		t                domain.Task
		created, updated int64
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Completed, &created, &updated); err != nil {
		return domain.Task{}, err
	}
	t.CreatedAt = fromMillis(created)
	t.UpdatedAt = fromMillis(updated)
	return t, nil
}

// CreateTask inserts a task. A missing owner surfaces as ErrNotFound.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) error {
	const query = `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.conn(ctx).ExecContext(ctx, query, task.ID, task.OwnerID, task.Description, task.Completed,
		toMillis(task.CreatedAt), toMillis(task.UpdatedAt))
	return translate(err)
}

// GetTask fetches a task owned by ownerID.
func (s *Store) GetTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`
	task, err := scanTask(s.conn(ctx).QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// UpdateTask applies patch in a single statement scoped by owner.
func (s *Store) UpdateTask(ctx context.Context, ownerID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	const query = `UPDATE tasks
		SET description = COALESCE(?, description),
			completed = COALESCE(?, completed),
			updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING ` + taskColumns
	var description, completed any
	if patch.Description != nil {
		description = *patch.Description
	}
	if patch.Completed != nil {
		completed = *patch.Completed
	}
	row := s.conn(ctx).QueryRowContext(ctx, query, description, completed, toMillis(time.Now()), taskID, ownerID)
	task, err := scanTask(row)
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// DeleteTask removes a task owned by ownerID and returns it.
func (s *Store) DeleteTask(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	const query = `DELETE FROM tasks WHERE id = ? AND owner_id = ? RETURNING ` + taskColumns
	task, err := scanTask(s.conn(ctx).QueryRowContext(ctx, query, taskID, ownerID))
	if err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// DeleteTasksByOwner removes every task of an owner.
func (s *Store) DeleteTasksByOwner(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, translate(err)
	}
	return res.RowsAffected()
}

// ListTasks reads the page into memory before yielding, so the single connection is
// free again by the time the caller sees the first task.
func (s *Store) ListTasks(ctx context.Context, ownerID string, query domain.TaskQuery) iter.Seq2[domain.Task, error] {
	return func(yield func(domain.Task, error) bool) {
		tasks, err := s.listTasks(ctx, ownerID, query)
		if err != nil {
			yield(domain.Task{}, err)
			return
		}
		for _, task := range tasks {
			if !yield(task, nil) {
				return
			}
		}
	}
}

func (s *Store) listTasks(ctx context.Context, ownerID string, query domain.TaskQuery) ([]domain.Task, error) {
	sql, args := buildListTasks(ownerID, query)
	rows, err := s.conn(ctx).QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func buildListTasks(ownerID string, query domain.TaskQuery) (string, []any) {
	var sb strings.Builder
	args := []any{ownerID}
	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`)
	if query.Completed != nil {
		sb.WriteString(" AND completed = ?")
		args = append(args, *query.Completed)
	}
	sb.WriteString(" ORDER BY " + repository.TaskOrderBy(query, "rowid"))
	switch {
	case query.Limit > 0:
		sb.WriteString(" LIMIT ?")
		args = append(args, query.Limit)
	case query.Skip > 0:
		// SQLite only accepts OFFSET after a LIMIT; -1 means unbounded.
		sb.WriteString(" LIMIT -1")
	}
	if query.Skip > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, query.Skip)
	}
	return sb.String(), args
}
