package httpx

import (
	"net/http"

	"github.com/iranadryan/task-manager/internal/service/task"
)

func (r *Router) handleCreateTask(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	fields, err := decodeFields(w, req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	created, err := r.tasks.Create(req.Context(), principal.Account.ID, fields)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, marshalTask(*created))
}

func (r *Router) handleListTasks(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	query := task.ParseQuery(req.URL.Query())
	payload := make([]map[string]any, 0)
	for item, err := range r.tasks.List(req.Context(), principal.Account.ID, query) {
		if err != nil {
			r.writeServiceError(w, req, err)
			return
		}
		payload = append(payload, marshalTask(item))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (r *Router) handleGetTask(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	found, err := r.tasks.Get(req.Context(), principal.Account.ID, req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalTask(*found))
}

func (r *Router) handleUpdateTask(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	fields, err := decodeFields(w, req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	updated, err := r.tasks.Update(req.Context(), principal.Account.ID, req.PathValue("id"), fields)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalTask(*updated))
}

func (r *Router) handleDeleteTask(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	removed, err := r.tasks.Delete(req.Context(), principal.Account.ID, req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalTask(*removed))
}
