// Package server is the local sortifyr backend: the JSON API the link editor
// talks to, served from the sqlite repositories.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with per-path method tables.
//
// # Endpoints
//
//   - GET  /api/link         all links
//   - POST /api/link/sync    full replacement; 400 on a malformed or invalid link set
//   - GET  /api/directory    directory tree with nested children and playlists
//   - GET  /api/playlist     all playlists
//   - GET  /api/health       database liveness
//
// Errors are returned as {"error": "...", "request_id": "..."}.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
