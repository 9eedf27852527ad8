package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/repository"
)

// EventType names a task lifecycle change.
type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// Event describes a change to one task.
type Event struct {
	Type EventType
	Task domain.Task
}

// Publisher delivers task events to the owner's live streams.
type Publisher interface {
	Publish(ownerID string, event Event)
}

var mutableFields = map[string]bool{
	"description": true,
	"completed":   true,
}

// Service exposes owner-scoped task operations.
type Service struct {
	tasks     repository.TaskRepository
	publisher Publisher
	logger    *slog.Logger
}

// New constructs a Service. publisher may be nil.
func New(tasks repository.TaskRepository, publisher Publisher, logger *slog.Logger) Service {
	return Service{tasks: tasks, publisher: publisher, logger: logger}
}

// Create stores a task for ownerID. Only description and completed may be supplied.
func (s Service) Create(ctx context.Context, ownerID string, fields map[string]json.RawMessage) (*domain.Task, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if _, ok := fields["description"]; !ok {
		return nil, domain.NewValidationError("description", "is required")
	}
	patch, err := decodePatch(fields)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Description: *patch.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.publish(EventCreated, *task)
	s.logger.Debug("task created", "owner_id", ownerID, "task_id", task.ID)
	return task, nil
}

// List returns the owner's tasks matching query.
func (s Service) List(ctx context.Context, ownerID string, query domain.TaskQuery) iter.Seq2[domain.Task, error] {
	return func(yield func(domain.Task, error) bool) {
		for task, err := range s.tasks.ListTasks(ctx, ownerID, query) {
			if err != nil {
				yield(domain.Task{}, fmt.Errorf("list tasks: %w", err))
				return
			}
			if !yield(task, nil) {
				return
			}
		}
	}
}

// Get loads one task. Tasks of other owners are reported as not found.
func (s Service) Get(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	if err := checkID(taskID); err != nil {
		return nil, err
	}
	task, err := s.tasks.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, notFound(err, "get task")
	}
	return task, nil
}

// Update applies fields to a task of ownerID. Unknown fields reject the whole update.
func (s Service) Update(ctx context.Context, ownerID, taskID string, fields map[string]json.RawMessage) (*domain.Task, error) {
	if err := checkFields(fields); err != nil {
		return nil, err
	}
	if err := checkID(taskID); err != nil {
		return nil, err
	}
	patch, err := decodePatch(fields)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.UpdateTask(ctx, ownerID, taskID, patch)
	if err != nil {
		return nil, notFound(err, "update task")
	}
	s.publish(EventUpdated, *task)
	return task, nil
}

// Delete removes a task of ownerID and returns it.
func (s Service) Delete(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	if err := checkID(taskID); err != nil {
		return nil, err
	}
	task, err := s.tasks.DeleteTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, notFound(err, "delete task")
	}
	s.publish(EventDeleted, *task)
	return task, nil
}

// CascadeDeleteByOwner removes every task of ownerID. Run it inside the
// account deletion transaction.
func (s Service) CascadeDeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	n, err := s.tasks.DeleteTasksByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("delete owner tasks: %w", err)
	}
	return n, nil
}

func (s Service) publish(kind EventType, task domain.Task) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(task.OwnerID, Event{Type: kind, Task: task})
}

func notFound(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func checkID(taskID string) error {
	if _, err := uuid.Parse(taskID); err != nil {
		return domain.NewValidationError("id", "is malformed")
	}
	return nil
}

func checkFields(fields map[string]json.RawMessage) error {
	for _, key := range slices.Sorted(maps.Keys(fields)) {
		if !mutableFields[key] {
			return domain.NewValidationError(key, "is not an updatable field")
		}
	}
	return nil
}

func decodePatch(fields map[string]json.RawMessage) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	if raw, ok := fields["description"]; ok {
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil || value == nil {
			return patch, domain.NewValidationError("description", "must be a string")
		}
		description := strings.TrimSpace(*value)
		if description == "" {
			return patch, domain.NewValidationError("description", "is required")
		}
		patch.Description = &description
	}
	if raw, ok := fields["completed"]; ok {
		var value *bool
		if err := json.Unmarshal(raw, &value); err != nil || value == nil {
			return patch, domain.NewValidationError("completed", "must be a boolean")
		}
		patch.Completed = value
	}
	return patch, nil
}
