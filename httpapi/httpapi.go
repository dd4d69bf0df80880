// Package httpapi wires the account service to its HTTP contract:
// user listing, signup, login, and the token-guarded current-user
// endpoint. Route wiring stays thin; all decisions live in the
// service, the store and the session guard.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/avictor/accountd"
	"github.com/avictor/accountd/middleware"
	"github.com/avictor/accountd/store"
)

// Handler serves the account service routes.
type Handler struct {
	svc   *accountd.Service
	guard *middleware.Guard
	log   *slog.Logger
}

// New creates a Handler around the service.
func New(svc *accountd.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		svc:   svc,
		guard: svc.Guard(),
		log:   log,
	}
}

// Routes returns the service's route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /users", h.listUsers)
	mux.HandleFunc("POST /users", h.createUser)
	mux.Handle("GET /users/me", h.guard.Authenticate(http.HandlerFunc(h.currentUser)))
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("/", h.notFound)

	return h.logRequests(mux)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, users)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	// Decoding into SignupRequest is the allow-list: any other field a
	// client submits never reaches the store.
	var req accountd.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tok, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set(middleware.DefaultHeader, tok)
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.writeMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	h.writeJSON(w, http.StatusOK, user.Public())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, tok, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set(middleware.DefaultHeader, tok)
	h.writeJSON(w, http.StatusOK, user)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.writeMessage(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	h.writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.writeMessage(w, http.StatusNotFound, "This route does not exist :)")
}

// writeError maps service and store failures onto the response
// contract. Unknown errors are logged and surfaced as a bare 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *store.ValidationError
	if errors.As(err, &ve) {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{
			"message": ve.Message,
			"field":   ve.Field,
		})
		return
	}

	var serr *accountd.Error
	if errors.As(err, &serr) {
		h.writeMessage(w, statusForCode(serr.Code), serr.Message)
		return
	}

	h.log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	h.writeMessage(w, http.StatusInternalServerError, "internal error")
}

func statusForCode(code string) int {
	switch code {
	case accountd.CodeNotFound:
		return http.StatusNotFound
	case accountd.CodeUnauthorized, accountd.CodeSessionExpired:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encoding response failed", "error", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"message": msg})
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
