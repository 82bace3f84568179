// Package repositories implements SQLite persistence for the local backend.
//
// Key Implementations:
//   - [DirectoryRepository] : Directory tree with playlist membership
//   - [PlaylistRepository] : Playlists keyed by their Spotify id
//   - [LinkRepository] : Links between directories and playlists, including the
//     full-replacement [LinkRepository.Sync] used by POST /api/link/sync
//
// Ids are sqlite row ids. Nullable foreign keys map to the zero id in
// [models.Link]. Multi-statement writes go through [WithTx].
package repositories
