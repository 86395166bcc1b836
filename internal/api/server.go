// Package api provides the REST and WebSocket server for pulseboard.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/randalmurphal/pulseboard/internal/auth"
	appconfig "github.com/randalmurphal/pulseboard/internal/config"
	"github.com/randalmurphal/pulseboard/internal/db"
	"github.com/randalmurphal/pulseboard/internal/db/driver"
	"github.com/randalmurphal/pulseboard/internal/events"
)

// Server is the pulseboard API server.
type Server struct {
	addr   string
	mux    *http.ServeMux
	logger *slog.Logger

	// Application configuration
	appConfig *appconfig.Config

	// Task store
	db *db.DB

	// Event publisher for live dashboard refresh
	publisher events.Publisher
	wsHandler *WSHandler

	// Delegated sign-in
	sessions *auth.Sessions
	flow     *auth.Flow

	// Pending OAuth state tokens
	states   map[string]time.Time
	statesMu sync.Mutex
}

// Config holds server configuration.
type Config struct {
	Addr   string
	Logger *slog.Logger

	// App is the loaded application config. Defaults are used when nil.
	App *appconfig.Config

	// DB is an already-open task store. When nil the server opens one
	// from App's database settings.
	DB *db.DB
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   ":8080",
		Logger: slog.Default(),
	}
}

// New creates a new API server.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.App
	if appCfg == nil {
		appCfg = appconfig.Default()
	}

	addr := cfg.Addr
	if addr == "" {
		addr = appCfg.Server.Addr
	}

	store := cfg.DB
	if store == nil {
		dialect, err := driver.ParseDialect(appCfg.Database.Dialect)
		if err != nil {
			return nil, err
		}
		store, err = db.OpenWithDialect(appCfg.Database.DSN, dialect)
		if err != nil {
			return nil, err
		}
	}

	pub := events.NewMemoryPublisher()

	s := &Server{
		addr:      addr,
		mux:       http.NewServeMux(),
		logger:    logger,
		appConfig: appCfg,
		db:        store,
		publisher: pub,
		sessions:  auth.NewSessions(),
		flow:      auth.NewFlow(appCfg.Auth.GitHubClientID, appCfg.Auth.GitHubClientSecret, callbackURL(addr)),
		states:    make(map[string]time.Time),
	}

	s.wsHandler = NewWSHandler(pub, logger)

	s.registerRoutes()
	return s, nil
}

// callbackURL derives the OAuth redirect URL from the listen address.
func callbackURL(addr string) string {
	host := addr
	if host == "" || host[0] == ':' {
		host = "localhost" + host
	}
	return "http://" + host + "/auth/callback"
}

// registerRoutes sets up all API routes.
func (s *Server) registerRoutes() {
	// CORS middleware wrapper
	cors := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			setCORSHeaders(w)
			h(w, r)
		}
	}

	// Method-qualified patterns never match OPTIONS, so preflight
	// requests need their own catch-all.
	s.mux.HandleFunc("OPTIONS /", s.handlePreflight)

	// Health check
	s.mux.HandleFunc("GET /api/health", cors(s.handleHealth))

	// Import
	s.mux.HandleFunc("POST /api/import", cors(s.handleImport))

	// Tasks
	s.mux.HandleFunc("GET /api/tasks", cors(s.handleListTasks))
	s.mux.HandleFunc("GET /api/tasks/{id}", cors(s.handleGetTask))

	// Activity heatmap and summary stats
	s.mux.HandleFunc("GET /api/activity", cors(s.handleGetActivity))
	s.mux.HandleFunc("GET /api/stats", cors(s.handleGetStats))

	// Sign-in
	s.mux.HandleFunc("GET /api/user", cors(s.handleGetUser))
	s.mux.HandleFunc("GET /auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /auth/callback", s.handleCallback)
	s.mux.HandleFunc("POST /auth/logout", cors(s.handleLogout))

	// WebSocket for live refresh
	s.mux.HandleFunc("GET /api/ws", s.wsHandler.ServeHTTP)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}

// StartContext starts the API server with context for graceful shutdown.
func (s *Server) StartContext(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		s.wsHandler.Close()
		s.publisher.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", s.addr)
	return server.ListenAndServe()
}

// DB returns the task store (for testing).
func (s *Server) DB() *db.DB {
	return s.db
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePreflight answers CORS preflight for every route.
func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusOK)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
