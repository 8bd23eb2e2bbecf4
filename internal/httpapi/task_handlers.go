package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"taskdesk.org/internal/auth"
	"taskdesk.org/internal/task"
)

func (a *API) handleSharedCollection(w http.ResponseWriter, r *http.Request) {
	a.handleCollection(w, r, auth.ScopeShared)
}

func (a *API) handleOwnerCollection(w http.ResponseWriter, r *http.Request) {
	a.handleCollection(w, r, auth.ScopeOwner)
}

func (a *API) handleSharedItem(w http.ResponseWriter, r *http.Request) {
	a.handleItem(w, r, auth.ScopeShared, "/v1/tasks/")
}

func (a *API) handleOwnerItem(w http.ResponseWriter, r *http.Request) {
	a.handleItem(w, r, auth.ScopeOwner, "/v1/my/tasks/")
}

func (a *API) handleCollection(w http.ResponseWriter, r *http.Request, scope auth.Scope) {
	identity, _ := auth.IdentityFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		items, err := a.tasks.List(r.Context(), identity, scope)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var in task.Input
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		created, err := a.tasks.Create(r.Context(), identity, scope, in)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		w.Header().Set("Location", r.URL.Path+"/"+created.ID)
		writeJSON(w, http.StatusCreated, created)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleItem(w http.ResponseWriter, r *http.Request, scope auth.Scope, prefix string) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	identity, _ := auth.IdentityFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		t, err := a.tasks.Get(r.Context(), identity, scope, id)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	case http.MethodPut:
		var in task.Input
		if err := decodeJSON(w, r, &in); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.tasks.Update(r.Context(), identity, scope, id, in)
		if err != nil {
			handleTaskError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := a.tasks.Delete(r.Context(), identity, scope, id); err != nil {
			handleTaskError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func handleTaskError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *task.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeFieldErrors(w, r, vErr.Fields)
	case errors.Is(err, auth.ErrUnauthenticated):
		unauthorized(w, r, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "operation not permitted")
	case errors.Is(err, task.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "task not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
