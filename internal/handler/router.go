package handler

import (
	"context"
	"net/http"
	"time"

	"notes-server/internal/config"
	"notes-server/internal/middleware"
	"notes-server/pkg/response"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Pinger interface {
	Ping(ctx context.Context) error
	Driver() string
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"service": "notes-server",
		"store":   h.store.Driver(),
	}

	if err := h.store.Ping(ctx); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
		body["status"] = "unhealthy"
		response.JSON(w, http.StatusServiceUnavailable, body)
		return
	}

	body["status"] = "healthy"
	response.JSON(w, http.StatusOK, body)
}

type Dependencies struct {
	Logger    zerolog.Logger
	CORS      config.CORSConfig
	Gate      *middleware.Gate
	Auth      *AuthHandler
	Notes     *NoteHandler
	WebSocket *WebSocketHandler
	Health    *HealthHandler
}

func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	logger := middleware.LoggerMiddleware(deps.Logger)
	cors := middleware.CORSMiddleware(deps.CORS)
	r.Use(logger, cors)

	// mux skips the r.Use chain for unmatched requests.
	unmatched := func(h http.HandlerFunc) http.Handler {
		return logger(cors(h))
	}
	r.NotFoundHandler = unmatched(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowedHandler = unmatched(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	gate := deps.Gate

	r.HandleFunc("/create-account", deps.Auth.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/login", deps.Auth.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/get-user", gate.Require(deps.Auth.GetUser)).Methods("GET", "OPTIONS")

	r.HandleFunc("/notes", gate.Require(deps.Notes.List)).Methods("GET", "OPTIONS")
	r.HandleFunc("/search-notes", gate.Require(deps.Notes.Search)).Methods("GET", "OPTIONS")
	r.HandleFunc("/add-note", gate.Require(deps.Notes.Create)).Methods("POST", "OPTIONS")
	r.HandleFunc("/edit-note/{noteId}", gate.Require(deps.Notes.Update)).Methods("PUT", "OPTIONS")
	r.HandleFunc("/delete-note/{noteId}", gate.Require(deps.Notes.Delete)).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/update-note-pinned/{noteId}", gate.Require(deps.Notes.SetPinned)).Methods("PUT", "OPTIONS")

	if deps.WebSocket != nil {
		r.HandleFunc("/ws", gate.RequireWithQueryToken(deps.WebSocket.HandleConnection)).Methods("GET")
	}
	if deps.Health != nil {
		r.HandleFunc("/health", deps.Health.Health).Methods("GET")
	}

	return r
}
