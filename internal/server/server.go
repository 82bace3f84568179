// package server contains middleware & handlers for the sortifyr backend API
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/repositories"
	"github.com/desertthunder/sortifyr/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows which paths it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

const shutdownTimeout = 5 * time.Second

// Server is the local sortifyr backend: the link, directory and playlist API on top of sqlite.
type Server struct {
	addr   string
	router *BasicRouter
	logger *log.Logger
}

// New wires repositories on db into a router with request id, logging and recovery middleware.
func New(db *sql.DB, addr string, logger *log.Logger) *Server {
	router := NewBasicRouter()
	router.Use(RequestID(), Logging(logger), Recover(logger))

	links := NewLinkHandler(repositories.NewLinkRepository(db), logger)
	router.Handler(links)

	directories := repositories.NewDirectoryRepository(db)
	router.Handle(http.MethodGet, "/api/directory", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tree, err := directories.Tree(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tree)
	}))

	playlists := repositories.NewPlaylistRepository(db)
	router.Handle(http.MethodGet, "/api/playlist", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		all, err := playlists.List(r.Context())
		if err != nil {
			writeError(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, all)
	}))

	router.Handle(http.MethodGet, "/api/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			writeError(w, r, logger, fmt.Errorf("database: %w", shared.ErrServiceUnavailable))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	return &Server{addr: addr, router: router, logger: logger}
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
