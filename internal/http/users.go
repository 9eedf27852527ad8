package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/iranadryan/task-manager/internal/avatar"
	"github.com/iranadryan/task-manager/internal/domain"
	"github.com/iranadryan/task-manager/internal/service/account"
	"github.com/iranadryan/task-manager/internal/service/auth"
)

// multipartOverhead leaves room for boundaries and part headers around the avatar file.
const multipartOverhead = 64 << 10

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      int    `json:"age"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	acct, err := r.accounts.Register(req.Context(), account.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Age:      payload.Age,
	})
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	token, err := r.sessions.Issue(req.Context(), acct.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":  marshalAccount(acct),
		"token": token,
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxJSONBody)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	acct, err := r.accounts.Verify(req.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			writeError(w, http.StatusBadRequest, "unable to login")
			return
		}
		r.writeServiceError(w, req, err)
		return
	}
	token, err := r.sessions.Issue(req.Context(), acct.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  marshalAccount(acct),
		"token": token,
	})
}

func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	if err := r.sessions.RevokeOne(req.Context(), principal.Account.ID, principal.Token); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleLogoutAll(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	if err := r.sessions.RevokeAll(req.Context(), principal.Account.ID); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, marshalAccount(principal.Account))
}

func (r *Router) handleUpdateMe(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	fields, err := decodeFields(w, req)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	acct, err := r.accounts.UpdateProfile(req.Context(), principal.Account.ID, fields)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalAccount(acct))
}

func (r *Router) handleDeleteMe(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	acct, err := r.accounts.Delete(req.Context(), principal.Account.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, marshalAccount(acct))
}

func (r *Router) handleUploadAvatar(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, avatar.MaxUploadBytes+multipartOverhead)
	file, header, err := req.FormFile("avatar")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, avatar.ErrTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(io.LimitReader(file, avatar.MaxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read avatar")
		return
	}
	if err := avatar.CheckUpload(header.Filename, raw); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := r.accounts.SetAvatar(req.Context(), principal.Account.ID, raw); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *Router) handleDeleteAvatar(w http.ResponseWriter, req *http.Request) {
	principal, ok := r.principal(w, req)
	if !ok {
		return
	}
	if err := r.accounts.RemoveAvatar(req.Context(), principal.Account.ID); err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (r *Router) handleGetAvatar(w http.ResponseWriter, req *http.Request) {
	img, err := r.accounts.Avatar(req.Context(), req.PathValue("id"))
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", avatar.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// principal returns the caller stored by requireAuth.
func (r *Router) principal(w http.ResponseWriter, req *http.Request) (auth.Principal, bool) {
	principal, ok := principalFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
	}
	return principal, ok
}
