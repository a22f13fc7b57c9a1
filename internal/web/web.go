// Package web serves the playlist generator as a small local web application.
//
// # Routes
//
//	GET  /              → request form
//	POST /generate      → run a cycle and render the playlist or the failure
//	POST /api/generate  → JSON body {"description", "song_count"}, JSON result
//	GET  /healthz       → liveness
//	GET  /metrics       → Prometheus metrics
//
// Handlers are registered on a [server.Router] (gorilla/mux) and rendered with html/template from embedded files.
//
// # Concurrency
//
// The server is meant for one local user. Cycles are serialised with a mutex; a request that arrives while a cycle
// is running is answered with 409 Conflict instead of queueing behind it.
//
// # Metrics
//
// [Metrics] counts cycles by outcome, observes their duration and, as the engine's [tasks.Busy], exposes the
// external calls in flight.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playgen/internal/formatter"
	"github.com/desertthunder/playgen/internal/models"
	"github.com/desertthunder/playgen/internal/server"
	"github.com/desertthunder/playgen/internal/shared"
	"github.com/desertthunder/playgen/internal/tasks"
)

//go:embed templates/*.html
var templateFS embed.FS

const defaultCycleTimeout = 2 * time.Minute

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/*.html"))

// Runner runs one generation cycle. [tasks.Engine] implements it.
type Runner interface {
	Run(ctx context.Context, req models.PlaylistRequest, progress chan<- tasks.ProgressUpdate) (*tasks.GenerationResult, error)
}

// Handler serves the web surface.
type Handler struct {
	runner       Runner
	metrics      *Metrics
	logger       *log.Logger
	defaultCount int
	timeout      time.Duration
	mu           sync.Mutex
}

// NewHandler creates a new Handler. metrics may be shared with the engine as its [tasks.Busy].
func NewHandler(runner Runner, metrics *Metrics, logger *log.Logger, defaultCount int) *Handler {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if logger == nil {
		logger = log.Default()
	}
	if defaultCount < models.MinSongs || defaultCount > models.MaxSongs {
		defaultCount = models.MaxSongs
	}

	return &Handler{
		runner:       runner,
		metrics:      metrics,
		logger:       logger,
		defaultCount: defaultCount,
		timeout:      defaultCycleTimeout,
	}
}

// RegisterRoutes registers the web routes on router.
func (h *Handler) RegisterRoutes(router server.Router) {
	router.Handle(http.MethodGet, "/", http.HandlerFunc(h.Index))
	router.Handle(http.MethodPost, "/generate", http.HandlerFunc(h.Generate))
	router.Handle(http.MethodPost, "/api/generate", http.HandlerFunc(h.GenerateJSON))
	router.Handle(http.MethodGet, "/healthz", http.HandlerFunc(h.Health))
	router.Handle(http.MethodGet, "/metrics", h.metrics.Handler())
}

// NewRouter returns a router with logging and recovery middleware and all web routes registered.
func (h *Handler) NewRouter() *server.MuxRouter {
	router := server.NewRouter()
	router.Use(server.Recover(h.logger), server.Logging(h.logger))
	h.RegisterRoutes(router)
	return router
}

type indexData struct {
	Description string
	SongCount   int
	Min, Max    int
	Error       string
}

type resultData struct {
	Result  *tasks.GenerationResult
	Message string
}

// Index renders the request form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "index", indexData{SongCount: h.defaultCount, Min: models.MinSongs, Max: models.MaxSongs})
}

// Generate runs a cycle for the submitted form.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "index", h.formError("", h.defaultCount, "Could not read the form."))
		return
	}

	description := r.PostFormValue("description")
	count, err := strconv.Atoi(r.PostFormValue("song_count"))
	if err != nil {
		h.render(w, http.StatusBadRequest, "index", h.formError(description, h.defaultCount, "Songs must be a number."))
		return
	}

	req, err := models.NewPlaylistRequest(description, count)
	if err != nil {
		h.render(w, http.StatusBadRequest, "index", h.formError(description, count, tasks.Explain(err)))
		return
	}

	result, ok := h.run(r, req)
	if !ok {
		h.render(w, http.StatusConflict, "index", h.formError(description, count, "A playlist is already being generated. Try again shortly."))
		return
	}

	h.render(w, statusFor(result.Err), "result", resultData{Result: result, Message: tasks.Explain(result.Err)})
}

type generateRequest struct {
	Description string `json:"description"`
	SongCount   int    `json:"song_count"`
}

// GenerateJSON runs a cycle for a JSON request and answers with the JSON rendering of the result.
func (h *Handler) GenerateJSON(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.SongCount == 0 {
		body.SongCount = h.defaultCount
	}

	req, err := models.NewPlaylistRequest(body.Description, body.SongCount)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, tasks.Explain(err))
		return
	}

	result, ok := h.run(r, req)
	if !ok {
		h.respondWithError(w, http.StatusConflict, "a playlist is already being generated")
		return
	}

	data, err := formatter.ResultToJSON(result)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(result.Err))
	_, _ = w.Write(data)
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"ok"}`)
}

// run executes one cycle unless another is in progress, in which case ok is false.
func (h *Handler) run(r *http.Request, req models.PlaylistRequest) (result *tasks.GenerationResult, ok bool) {
	if !h.mu.TryLock() {
		return nil, false
	}
	defer h.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	result, err := h.runner.Run(ctx, req, nil)
	if result == nil {
		result = &tasks.GenerationResult{Request: req, State: tasks.Failed, Err: err}
	}
	h.metrics.Observe(result)

	if err != nil {
		h.logger.Warn("cycle failed", "cycle", result.CycleID, "outcome", Outcome(err), "error", err)
	} else {
		h.logger.Info("cycle succeeded", "cycle", result.CycleID, "playlist", result.Playlist.URL)
	}
	return result, true
}

func (h *Handler) formError(description string, count int, msg string) indexData {
	return indexData{Description: description, SongCount: count, Min: models.MinSongs, Max: models.MaxSongs, Error: msg}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps a cycle error to an HTTP status.
func statusFor(err error) int {
	var (
		malformed *tasks.MalformedCompletionError
		notFound  *tasks.TrackNotFoundError
		creation  *tasks.PlaylistCreationError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, shared.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusUnprocessableEntity
	case errors.As(err, &malformed), errors.As(err, &creation):
		return http.StatusBadGateway
	case errors.Is(err, shared.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
