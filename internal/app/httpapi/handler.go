// Package httpapi exposes the REST API: login plus the habit operations.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/habitloop/habitloop/internal/app"
	"github.com/habitloop/habitloop/internal/app/domain/habit"
	"github.com/habitloop/habitloop/internal/app/metrics"
	serrors "github.com/habitloop/habitloop/internal/errors"
	"github.com/habitloop/habitloop/internal/httputil"
	"github.com/habitloop/habitloop/internal/middleware"
)

// Options tune the request audit trail kept by the handler.
type Options struct {
	// AuditPath, when set, mirrors audit entries to a JSONL file.
	AuditPath string
	// AuditMaxEntries bounds the in-memory audit buffer.
	AuditMaxEntries int
}

// handler bundles the HTTP endpoints for the application services.
type handler struct {
	app   *app.Application
	audit *auditLog
}

// NewHandler returns a router exposing the REST API.
func NewHandler(application *app.Application, opts Options) (http.Handler, error) {
	sink, err := newFileAuditSink(opts.AuditPath)
	if err != nil {
		return nil, err
	}
	audit := newAuditLog(opts.AuditMaxEntries, sink)
	h := &handler{app: application, audit: audit}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/api/habits", h.createHabit).Methods(http.MethodPost)
	r.HandleFunc("/api/habits/{habitID}", h.getHabit).Methods(http.MethodGet)
	r.HandleFunc("/api/habits/{habitID}/complete", h.completeHabit).Methods(http.MethodPost)
	r.HandleFunc("/api/habits/{habitID}/miss", h.missHabit).Methods(http.MethodPost)
	r.HandleFunc("/api/habits/{habitID}/progress", h.getProgress).Methods(http.MethodGet)

	return audit.record(r), nil
}

// Wire views ------------------------------------------------------------------

type progressView struct {
	CompletedEntries int `json:"completedEntries"`
	TotalEntries     int `json:"totalEntries"`
	Percentage       int `json:"percentage"`
}

type streakView struct {
	Count int `json:"count"`
}

type habitView struct {
	HabitID     string       `json:"habitId"`
	UserID      string       `json:"userId"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Progress    progressView `json:"progress"`
	Streak      streakView   `json:"streak"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type completionView struct {
	HabitID  string       `json:"habitId"`
	Progress progressView `json:"progress"`
	Streak   streakView   `json:"streak"`
}

type progressOnlyView struct {
	Progress progressView `json:"progress"`
	Streak   streakView   `json:"streak"`
}

type tokenView struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

func toProgressView(h habit.Habit) progressView {
	return progressView{
		CompletedEntries: h.Progress.CompletedEntries,
		TotalEntries:     h.Progress.TotalEntries,
		Percentage:       h.Progress.Percentage(),
	}
}

func toHabitView(h habit.Habit) habitView {
	return habitView{
		HabitID:     h.ID,
		UserID:      h.UserID,
		Title:       h.Title,
		Description: h.Description,
		Progress:    toProgressView(h),
		Streak:      streakView{Count: h.Streak.Count},
		CreatedAt:   h.CreatedAt,
		UpdatedAt:   h.UpdatedAt,
	}
}

func toCompletionView(h habit.Habit) completionView {
	return completionView{
		HabitID:  h.ID,
		Progress: toProgressView(h),
		Streak:   streakView{Count: h.Streak.Count},
	}
}

// Handlers ----------------------------------------------------------------------

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Username *string `json:"username"`
		Password *string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, serrors.Validation("invalid request body"))
		return
	}
	if payload.Username == nil || payload.Password == nil {
		httputil.WriteServiceError(w, serrors.Validation("username and password are required"))
		return
	}

	u, err := h.app.Users.Authenticate(r.Context(), *payload.Username, *payload.Password)
	if err != nil {
		metrics.RecordAuthFailure("login")
		httputil.WriteServiceError(w, err)
		return
	}

	token, err := h.app.Tokens.Issue(u.ID)
	if err != nil {
		httputil.WriteServiceError(w, serrors.Internal("issue token", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tokenView{AccessToken: token, TokenType: "Bearer"})
}

func (h *handler) createHabit(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())

	var payload struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		httputil.WriteServiceError(w, serrors.Validation("invalid request body"))
		return
	}
	// Both keys must be present; empty strings are accepted.
	if payload.Title == nil || payload.Description == nil {
		httputil.WriteServiceError(w, serrors.Validation("title and description are required"))
		return
	}

	created, err := h.app.Habits.Create(r.Context(), callerID, *payload.Title, *payload.Description)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toHabitView(created))
}

func (h *handler) getHabit(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	habitID := mux.Vars(r)["habitID"]

	found, err := h.app.Habits.Get(r.Context(), callerID, habitID)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toHabitView(found))
}

func (h *handler) completeHabit(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	habitID := mux.Vars(r)["habitID"]

	updated, err := h.app.Habits.Complete(r.Context(), callerID, habitID)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompletionView(updated))
}

func (h *handler) missHabit(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	habitID := mux.Vars(r)["habitID"]

	updated, err := h.app.Habits.Miss(r.Context(), callerID, habitID)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCompletionView(updated))
}

func (h *handler) getProgress(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	habitID := mux.Vars(r)["habitID"]

	found, err := h.app.Habits.Progress(r.Context(), callerID, habitID)
	if err != nil {
		httputil.WriteServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, progressOnlyView{
		Progress: toProgressView(found),
		Streak:   streakView{Count: found.Streak.Count},
	})
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(dst)
}
