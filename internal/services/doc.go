// Package services implements the HTTP side of sortifyr: a [Client] for the
// backend JSON API that satisfies [Service] and [linker.LinkStore].
//
// # Endpoints
//
//   - GET  /api/link         all links
//   - POST /api/link/sync    full replacement of the link set
//   - GET  /api/directory    directory tree
//   - GET  /api/playlist     playlists
//
// # Error Handling
//
// Non-2xx responses are reported as [shared.ErrAPIRequest] with the status
// code and the server's error message. Transport failures are wrapped as-is.
//
// Requests are throttled with a token bucket from golang.org/x/time/rate so
// bulk loads cannot flood the backend.
package services
