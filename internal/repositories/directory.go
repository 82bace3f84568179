package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/models"
)

// DirectoryRepository handles the directory tree and playlist membership.
type DirectoryRepository struct {
	db *sql.DB
}

// NewDirectoryRepository creates a new DirectoryRepository with the given database connection
func NewDirectoryRepository(db *sql.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Create inserts a directory under parentID (0 for a root) and returns its id.
func (r *DirectoryRepository) Create(ctx context.Context, name string, parentID int) (int, error) {
	return createDirectory(ctx, r.db, 0, name, parentID)
}

func createDirectory(ctx context.Context, q querier, id int, name string, parentID int) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("validation failed: directory name is required")
	}

	var (
		result sql.Result
		err    error
	)
	if id != 0 {
		result, err = q.ExecContext(ctx, `INSERT INTO directories (id, name, parent_id) VALUES (?, ?, ?)`, id, name, nullID(parentID))
	} else {
		result, err = q.ExecContext(ctx, `INSERT INTO directories (name, parent_id) VALUES (?, ?)`, name, nullID(parentID))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert directory: %w", err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get directory id: %w", err)
	}
	return int(newID), nil
}

// AddPlaylist puts a playlist into a directory. Adding it twice is a no-op.
func (r *DirectoryRepository) AddPlaylist(ctx context.Context, directoryID, playlistID int) error {
	return addPlaylist(ctx, r.db, directoryID, playlistID)
}

func addPlaylist(ctx context.Context, q querier, directoryID, playlistID int) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO directory_playlists (directory_id, playlist_id) VALUES (?, ?)`,
		directoryID, playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to add playlist %d to directory %d: %w", playlistID, directoryID, err)
	}
	return nil
}

// RemovePlaylist takes a playlist out of a directory.
func (r *DirectoryRepository) RemovePlaylist(ctx context.Context, directoryID, playlistID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM directory_playlists WHERE directory_id = ? AND playlist_id = ?`,
		directoryID, playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove playlist %d from directory %d: %w", playlistID, directoryID, err)
	}
	return nil
}

// Delete removes a directory together with its subdirectories.
func (r *DirectoryRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM directories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete directory: %w", err)
	}
	return affected(result, "directory", id)
}

type directoryRow struct {
	id       int
	name     string
	parentID int
}

// Tree returns the directory forest with nested children and playlists, ordered by name.
func (r *DirectoryRepository) Tree(ctx context.Context) ([]models.Directory, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, parent_id FROM directories ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query directories: %w", err)
	}
	defer rows.Close()

	var dirs []directoryRow
	for rows.Next() {
		var (
			d      directoryRow
			parent sql.NullInt64
		)
		if err := rows.Scan(&d.id, &d.name, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		d.parentID = fromNull(parent)
		dirs = append(dirs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	members, err := r.memberships(ctx)
	if err != nil {
		return nil, err
	}

	return buildTree(dirs, members, 0), nil
}

func (r *DirectoryRepository) memberships(ctx context.Context) (map[int][]models.Playlist, error) {
	query := `
		SELECT dp.directory_id, p.id, p.spotify_id, p.name, p.description, p.track_amount, p.public, p.collaborative
		FROM directory_playlists dp
		JOIN playlists p ON p.id = dp.playlist_id
		ORDER BY p.name ASC, p.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query directory playlists: %w", err)
	}
	defer rows.Close()

	members := make(map[int][]models.Playlist)
	for rows.Next() {
		var (
			dirID int
			p     models.Playlist
		)
		if err := rows.Scan(&dirID, &p.ID, &p.SpotifyID, &p.Name, &p.Description, &p.TrackAmount, &p.Public, &p.Collaborative); err != nil {
			return nil, fmt.Errorf("failed to scan directory playlist: %w", err)
		}
		members[dirID] = append(members[dirID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return members, nil
}

func buildTree(dirs []directoryRow, members map[int][]models.Playlist, parentID int) []models.Directory {
	tree := []models.Directory{}
	for _, d := range dirs {
		if d.parentID != parentID {
			continue
		}
		playlists := members[d.id]
		if playlists == nil {
			playlists = []models.Playlist{}
		}
		tree = append(tree, models.Directory{
			ID:        d.id,
			Name:      d.name,
			Children:  buildTree(dirs, members, d.id),
			Playlists: playlists,
		})
	}
	return tree
}
