package httpx

import (
	"time"

	"github.com/iranadryan/task-manager/internal/domain"
)

func marshalAccount(account *domain.Account) map[string]any {
	return map[string]any{
		"id":         account.ID,
		"name":       account.Name,
		"email":      account.Email,
		"age":        account.Age,
		"created_at": account.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at": account.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func marshalTask(task domain.Task) map[string]any {
	return map[string]any{
		"id":          task.ID,
		"description": task.Description,
		"completed":   task.Completed,
		"owner_id":    task.OwnerID,
		"created_at":  task.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":  task.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
