package server

import (
	"net/http"
	"slices"
	"strings"
	"sync"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. Several methods may share a
// path; other methods get a JSON 405 with an Allow header.
type BasicRouter struct {
	mu          sync.Mutex
	mux         *http.ServeMux
	middlewares []Middleware
	routes      map[string]*methodSet
}

type methodSet struct {
	mu       sync.RWMutex
	handlers map[string]http.Handler
}

func (m *methodSet) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.mu.RLock()
	handler, ok := m.handlers[strings.ToUpper(req.Method)]
	allowed := make([]string, 0, len(m.handlers))
	for method := range m.handlers {
		allowed = append(allowed, method)
	}
	m.mu.RUnlock()
	slices.Sort(allowed)

	if !ok {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}
	handler.ServeHTTP(w, req)
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		routes:      make(map[string]*methodSet),
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
// Only routes registered afterwards are wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The path is wrapped with the middleware registered at the time of its first handler.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mu.Lock()
	set, ok := r.routes[path]
	if !ok {
		set = &methodSet{handlers: make(map[string]http.Handler)}
		r.routes[path] = set
	}
	r.mu.Unlock()

	if !ok {
		r.mux.Handle(path, r.Apply(set))
	}

	set.mu.Lock()
	set.handlers[strings.ToUpper(method)] = handler
	set.mu.Unlock()
}

// Handler registers a custom Handler implementation.
//
// All routes returned by [Handler.Routes] are registered with this handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	r.mu.Lock()
	middlewares := append([]Middleware(nil), r.middlewares...)
	r.mu.Unlock()

	wrapped := handler
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}
