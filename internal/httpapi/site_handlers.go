package httpapi

import (
	"net/http"
	"strings"
	"time"

	"ramani.co.tz/internal/application"
	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/site"
)

type siteRequest struct {
	Title            string       `json:"title"`
	Address          site.Address `json:"address"`
	RequiredHandymen int          `json:"required_handymen"`
	SkillsRequired   []string     `json:"skills_required"`
	StartDate        time.Time    `json:"start_date"`
	EndDate          time.Time    `json:"end_date"`
	PaymentPerDay    string       `json:"payment_per_day"`
	Description      string       `json:"description"`
}

type sitePatchRequest struct {
	Title            *string       `json:"title"`
	Address          *site.Address `json:"address"`
	RequiredHandymen *int          `json:"required_handymen"`
	SkillsRequired   *[]string     `json:"skills_required"`
	StartDate        *time.Time    `json:"start_date"`
	EndDate          *time.Time    `json:"end_date"`
	PaymentPerDay    *string       `json:"payment_per_day"`
	Description      *string       `json:"description"`
}

func (a *API) handleSitesCollection(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}

	switch r.Method {
	case http.MethodGet:
		sites, err := a.sites.List(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if sites == nil {
			sites = []*site.Site{}
		}
		writeJSON(w, http.StatusOK, listResponse[*site.Site]{Items: sites, Count: len(sites)})
	case http.MethodPost:
		if err := auth.Authorize(user, auth.RoleEngineer, auth.RoleAdmin); err != nil {
			handleDomainError(w, err)
			return
		}
		a.createSite(w, r, user)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleSitesResource(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/v1/sites/")
	if path == "" {
		a.handleSitesCollection(w, r)
		return
	}

	if path == "my" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.listMySites(w, r, user)
		return
	}

	// nested application routes: {siteId}/applications[/approveAll]
	if siteID, rest, found := strings.Cut(path, "/"); found {
		switch rest {
		case "applications":
			a.handleSiteApplications(w, r, user, siteID)
		case "applications/approveAll":
			if r.Method != http.MethodPatch {
				methodNotAllowed(w, http.MethodPatch)
				return
			}
			a.approveAll(w, r, user, siteID)
		default:
			writeError(w, http.StatusNotFound, "resource not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		posting, err := a.sites.Get(r.Context(), path)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"site": posting})
	case http.MethodPatch:
		a.updateSite(w, r, user, path)
	case http.MethodDelete:
		if err := a.sites.Delete(r.Context(), user, path); err != nil {
			handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

func (a *API) createSite(w http.ResponseWriter, r *http.Request, user auth.User) {
	var req siteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posting, err := a.sites.Create(r.Context(), user, site.CreateParams{
		Title:            req.Title,
		Address:          req.Address,
		RequiredHandymen: req.RequiredHandymen,
		SkillsRequired:   req.SkillsRequired,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		PaymentPerDay:    req.PaymentPerDay,
		Description:      req.Description,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"site": posting})
}

func (a *API) listMySites(w http.ResponseWriter, r *http.Request, user auth.User) {
	if err := auth.Authorize(user, auth.RoleEngineer, auth.RoleAdmin); err != nil {
		handleDomainError(w, err)
		return
	}
	sites, err := a.sites.ListMine(r.Context(), user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if sites == nil {
		sites = []*site.Site{}
	}
	writeJSON(w, http.StatusOK, listResponse[*site.Site]{Items: sites, Count: len(sites)})
}

func (a *API) updateSite(w http.ResponseWriter, r *http.Request, user auth.User, id string) {
	var req sitePatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posting, err := a.sites.Update(r.Context(), user, id, site.UpdateParams{
		Title:            req.Title,
		Address:          req.Address,
		RequiredHandymen: req.RequiredHandymen,
		SkillsRequired:   req.SkillsRequired,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		PaymentPerDay:    req.PaymentPerDay,
		Description:      req.Description,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"site": posting})
}

func (a *API) handleSiteApplications(w http.ResponseWriter, r *http.Request, user auth.User, siteID string) {
	switch r.Method {
	case http.MethodPost:
		if err := auth.Authorize(user, auth.RoleApplicant); err != nil {
			handleDomainError(w, err)
			return
		}
		app, err := a.applications.Create(r.Context(), user, siteID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"application": app})
	case http.MethodGet:
		if err := auth.ConditionalAccess(user, true); err != nil {
			handleDomainError(w, err)
			return
		}
		// engineers only see applications for their own sites
		if user.Role == auth.RoleEngineer {
			posting, err := a.sites.Get(r.Context(), siteID)
			if err != nil {
				handleDomainError(w, err)
				return
			}
			if posting.EngineerID != user.ID {
				handleDomainError(w, auth.ErrForbidden)
				return
			}
		}
		apps, err := a.applications.List(r.Context(), siteID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if apps == nil {
			apps = []*application.Application{}
		}
		writeJSON(w, http.StatusOK, listResponse[*application.Application]{Items: apps, Count: len(apps)})
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) approveAll(w http.ResponseWriter, r *http.Request, user auth.User, siteID string) {
	result, err := a.applications.ApproveAll(r.Context(), user, siteID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
