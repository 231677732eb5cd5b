package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"pmdesk/internal/config"
	"pmdesk/internal/middleware"
	"pmdesk/internal/realtime"
	"pmdesk/internal/stubapi"
)

const APIPrefix = "/api"

type RouterConfig struct {
	JWTSecret string
	CORS      config.CORSConfig
	Logger    logrus.FieldLogger
}

// NewRouter mounts the REST contract under /api and the change feed at
// /ws. hub may be nil to run without the feed.
func NewRouter(backend *stubapi.Backend, hub *realtime.Hub, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.LoggerMiddleware(cfg.Logger))
	r.Use(middleware.CORSMiddleware(
		cfg.CORS.AllowedOrigins,
		cfg.CORS.AllowedMethods,
		cfg.CORS.AllowedHeaders,
	))

	api := r.PathPrefix(APIPrefix).Subrouter()

	authHandler := NewAuthHandler(backend.Auth)
	api.HandleFunc("/app-users/login", authHandler.Login).Methods("POST", "OPTIONS")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	NewEntityHandler(backend.Workspaces).Register(protected, "/workspaces")
	NewEntityHandler(backend.Projects).Register(protected, "/projects")
	NewEntityHandler(backend.Issues).Register(protected, "/issues")
	NewEntityHandler(backend.Tasks).Register(protected, "/tasks")
	NewEntityHandler(backend.Users).Register(protected, "/app-users")

	if hub != nil {
		ws := http.HandlerFunc(NewWebSocketHandler(hub).HandleConnection)
		r.Handle("/ws", middleware.AuthMiddleware(cfg.JWTSecret)(ws)).Methods("GET")
	}

	r.HandleFunc("/health", healthHandler).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","service":"pmdesk-stubapi"}`))
}
