// Package models defines the entities shared by the link editor, the HTTP client and the local backend.
//
// The package contains three groups of types:
//
// 1. Catalog entities handed to the editor by the directory/playlist source:
//   - [Directory] : a named node with nested children and contained playlists
//   - [Playlist] : playlist metadata synced from the music provider
//
// 2. Persisted link records:
//   - [Link] : one directed edge, exactly one source and one target reference
//
// 3. Helpers walking the directory tree ([Walk], [CollectPlaylists], [Unassigned]).
//
// Link records are validated with go-playground/validator before they are sent to
// or accepted by the backend. See [ValidateLinks].
package models
