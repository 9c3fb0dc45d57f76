package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ramani.co.tz/internal/application"
	"ramani.co.tz/internal/auth"
	"ramani.co.tz/internal/obs"
	"ramani.co.tz/internal/site"
)

// ReadyProbe pings the backing database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators.
type Options struct {
	Users        *auth.Service
	Sites        *site.Service
	Applications *application.Service
	Ready        ReadyProbe
	Version      string

	// CookieSecure marks the session cookie Secure.
	CookieSecure bool

	RateBurst     int
	RatePerSecond int
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	users        *auth.Service
	sites        *site.Service
	applications *application.Service
	readyProbe   ReadyProbe
	version      string
	cookieSecure bool
	rateBurst    int
	ratePerSec   int
}

func New(opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		users:        opts.Users,
		sites:        opts.Sites,
		applications: opts.Applications,
		readyProbe:   opts.Ready,
		version:      opts.Version,
		cookieSecure: opts.CookieSecure,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSecond,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUsersResource)
	a.mux.HandleFunc("/v1/sites", a.handleSitesCollection)
	a.mux.HandleFunc("/v1/sites/", a.handleSitesResource)
	a.mux.HandleFunc("/v1/applications", a.handleApplicationsCollection)
	a.mux.HandleFunc("/v1/applications/", a.handleApplicationsResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped handler: metrics instrumentation on the
// outside, then the hardening chain, authentication innermost.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	if a.rateBurst > 0 && a.ratePerSec > 0 {
		h = RateLimit(h, a.rateBurst, a.ratePerSec)
	}
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "ramani-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "error",
			"message": "not ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "ramani-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the uniform error envelope: "fail" for client faults,
// "error" for server faults.
func writeError(w http.ResponseWriter, code int, msg string) {
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	writeJSON(w, code, map[string]any{
		"status":  status,
		"message": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleDomainError translates service sentinels to HTTP statuses.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, site.ErrInvalidInput),
		errors.Is(err, application.ErrInvalidInput),
		errors.Is(err, application.ErrCapacityExceeded),
		errors.Is(err, application.ErrDuplicateApplication),
		errors.Is(err, application.ErrAlreadyDecided),
		errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpiredOrInvalid):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "you do not have permission to perform this action")
	case errors.Is(err, auth.ErrNotFound),
		errors.Is(err, site.ErrNotFound),
		errors.Is(err, application.ErrNotFound),
		errors.Is(err, application.ErrSiteNotFound),
		errors.Is(err, application.ErrNoPending):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, application.ErrNotificationFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
