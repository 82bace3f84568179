// Package tasks runs long operations over the link catalog with real-time progress reporting.
//
// # Core Operations
//
// [LinkEngine] provides three operations:
//
//  1. [LinkEngine.Load] : Fetch the catalog from the backend
//     - Requests directories, playlists and links concurrently
//     - Collects per endpoint failures in [LoadResult.Errors]
//
//  2. [LinkEngine.Plan] : Expand links into playlist routes
//     - A directory end stands for the playlists directly inside it
//     - Identical source and target playlists are dropped
//     - Links whose ends are missing from the catalog are reported as skipped
//
//  3. [LinkEngine.BulkExport] : Write the catalog in several formats at once
//     - Worker pool over the requested [formatter.Format] values
//     - Writes a manifest summarizing the files produced
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
