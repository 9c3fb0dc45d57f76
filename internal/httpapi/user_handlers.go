package httpapi

import (
	"net/http"
	"strings"
	"time"

	"ramani.co.tz/internal/auth"
)

type signupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type updateMeRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUsersResource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/users/")
	if path == "" {
		a.handleUsersCollection(w, r)
		return
	}

	if rest, ok := strings.CutPrefix(path, "verifyEmail/"); ok {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.verifyEmail(w, r, rest)
		return
	}
	if rest, ok := strings.CutPrefix(path, "resetPassword/"); ok {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.resetPassword(w, r, rest)
		return
	}

	switch path {
	case "signup":
		requirePost(w, r, a.signup)
	case "login":
		requirePost(w, r, a.login)
	case "logout":
		requirePost(w, r, a.logout)
	case "resendVerificationEmail":
		requirePost(w, r, a.resendVerificationEmail)
	case "forgotPassword":
		requirePost(w, r, a.forgotPassword)
	case "me":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		a.me(w, r)
	case "updateMe":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.updateMe(w, r)
	case "updateMyPassword":
		if r.Method != http.MethodPatch {
			methodNotAllowed(w, http.MethodPatch)
			return
		}
		a.updateMyPassword(w, r)
	case "deleteMe":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, http.MethodDelete)
			return
		}
		a.deleteMe(w, r)
	default:
		if strings.Contains(path, "/") {
			writeError(w, http.StatusNotFound, "resource not found")
			return
		}
		a.userByID(w, r, path)
	}
}

func requirePost(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	h(w, r)
}

func (a *API) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.Signup(r.Context(), auth.SignupParams{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    user,
		"message": "verification email sent",
	})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	token, user, err := a.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	ttl := a.users.SessionTTL()
	a.setSessionCookie(w, token, ttl)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(ttl),
		User:      user,
	})
}

func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (a *API) verifyEmail(w http.ResponseWriter, r *http.Request, token string) {
	user, err := a.users.VerifyEmail(r.Context(), token)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) resendVerificationEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.users.ResendVerification(r.Context(), req.Email); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "verification email sent"})
}

func (a *API) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.users.ForgotPassword(r.Context(), req.Email); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "token sent to email"})
}

func (a *API) resetPassword(w http.ResponseWriter, r *http.Request, token string) {
	var req resetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, user, err := a.users.ResetPassword(r.Context(), token, req.Password, req.ConfirmPassword)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	ttl := a.users.SessionTTL()
	a.setSessionCookie(w, session, ttl)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     session,
		ExpiresAt: time.Now().UTC().Add(ttl),
		User:      user,
	})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	fresh, err := a.users.Me(r.Context(), user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": fresh})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	if err := auth.Authorize(user, auth.RoleAdmin); err != nil {
		handleDomainError(w, err)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.users.CreateUser(r.Context(), auth.SignupParams{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": created})
}

func (a *API) updateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}

	var req updateMeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fresh, err := a.users.UpdateMe(r.Context(), user.ID, auth.MePatch{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": fresh})
}

func (a *API) updateMyPassword(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, fresh, err := a.users.UpdatePassword(r.Context(), user.ID,
		req.CurrentPassword, req.Password, req.ConfirmPassword)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	ttl := a.users.SessionTTL()
	a.setSessionCookie(w, session, ttl)
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     session,
		ExpiresAt: time.Now().UTC().Add(ttl),
		User:      fresh,
	})
}

func (a *API) deleteMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	if err := a.users.DeleteMe(r.Context(), user.ID); err != nil {
		handleDomainError(w, err)
		return
	}
	a.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	if err := auth.Authorize(user, auth.RoleAdmin); err != nil {
		handleDomainError(w, err)
		return
	}
	users, err := a.users.ListUsers(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, listResponse[*auth.User]{Items: users, Count: len(users)})
}

func (a *API) userByID(w http.ResponseWriter, r *http.Request, id string) {
	user, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "you are not logged in! Please log in to get access")
		return
	}
	if err := auth.Authorize(user, auth.RoleAdmin); err != nil {
		handleDomainError(w, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		found, err := a.users.GetUser(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": found})
	case http.MethodPatch:
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		updated, err := a.users.UpdateUser(r.Context(), id, auth.UserPatch{
			Name:   req.Name,
			Phone:  req.Phone,
			Role:   req.Role,
			Status: req.Status,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": updated})
	case http.MethodDelete:
		if err := a.users.DeleteUser(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}
