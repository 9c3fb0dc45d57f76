package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ramani.co.tz/internal/application"
	"ramani.co.tz/internal/auth"
)

type applicationPatchRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

func (a *API) handleApplicationsCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if err := auth.ConditionalAccess(user, false); err != nil {
		handleDomainError(w, err)
		return
	}

	apps, err := a.applications.List(r.Context(), "")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeApplicationList(w, apps)
}

func (a *API) handleApplicationsResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/applications/")
	if path == "" {
		a.handleApplicationsCollection(w, r)
		return
	}

	if path == "my" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		apps, err := a.applications.ListMine(r.Context(), user.ID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeApplicationList(w, apps)
		return
	}
	if id, ok := strings.CutPrefix(path, "my/"); ok {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		app, err := a.applications.GetMine(r.Context(), user.ID, id)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"application": app})
		return
	}
	if id, ok := strings.CutSuffix(path, "/approve"); ok {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.approveOne(w, r, user, id)
		return
	}
	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		app, err := a.applications.Get(r.Context(), user, path)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"application": app})
	case http.MethodPatch:
		a.updateApplication(w, r, user, path)
	case http.MethodDelete:
		if err := a.applications.Delete(r.Context(), user, path); err != nil {
			handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) approveOne(w http.ResponseWriter, r *http.Request, user auth.User, id string) {
	app, err := a.applications.ApproveOne(r.Context(), user, id)
	if errors.Is(err, application.ErrNotificationFailed) {
		// the approval itself is durable; report the email failure
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":      "error",
			"message":     err.Error(),
			"application": app,
		})
		return
	}
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"application": app})
}

func (a *API) updateApplication(w http.ResponseWriter, r *http.Request, user auth.User, id string) {
	var req applicationPatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	app, err := a.applications.Update(r.Context(), user, id, application.UpdateParams{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"application": app})
}

func writeApplicationList(w http.ResponseWriter, apps []*application.Application) {
	if apps == nil {
		apps = []*application.Application{}
	}
	writeJSON(w, http.StatusOK, listResponse[*application.Application]{Items: apps, Count: len(apps)})
}
