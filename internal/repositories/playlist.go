package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/models"
)

// PlaylistRepository handles playlist CRUD operations.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = `id, spotify_id, name, description, track_amount, public, collaborative`

// Create inserts p and sets its id.
func (r *PlaylistRepository) Create(ctx context.Context, p *models.Playlist) error {
	return createPlaylist(ctx, r.db, p)
}

func createPlaylist(ctx context.Context, q querier, p *models.Playlist) error {
	if p.SpotifyID == "" {
		return fmt.Errorf("validation failed: playlist %q has no spotify id", p.Name)
	}

	query := `
		INSERT INTO playlists (spotify_id, name, description, track_amount, public, collaborative)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	args := []any{p.SpotifyID, p.Name, p.Description, p.TrackAmount, p.Public, p.Collaborative}
	if p.ID != 0 {
		query = `
			INSERT INTO playlists (id, spotify_id, name, description, track_amount, public, collaborative)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`
		args = append([]any{p.ID}, args...)
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get playlist id: %w", err)
	}
	p.ID = int(id)
	return nil
}

// Get retrieves a playlist by id.
func (r *PlaylistRepository) Get(ctx context.Context, id int) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = ?`, id)
	p, err := scanPlaylist(row)
	if err != nil {
		return nil, notFound(err, "playlist", id)
	}
	return p, nil
}

// GetBySpotifyID retrieves a playlist by its Spotify id.
func (r *PlaylistRepository) GetBySpotifyID(ctx context.Context, spotifyID string) (*models.Playlist, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE spotify_id = ?`, spotifyID)
	p, err := scanPlaylist(row)
	if err != nil {
		return nil, notFound(err, "playlist", spotifyID)
	}
	return p, nil
}

// Update modifies an existing playlist.
func (r *PlaylistRepository) Update(ctx context.Context, p *models.Playlist) error {
	query := `
		UPDATE playlists
		SET name = ?, description = ?, track_amount = ?, public = ?, collaborative = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, p.Name, p.Description, p.TrackAmount, p.Public, p.Collaborative, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return affected(result, "playlist", p.ID)
}

// Delete removes a playlist. Memberships and links referencing it cascade.
func (r *PlaylistRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return affected(result, "playlist", id)
}

// List retrieves all playlists ordered by name.
func (r *PlaylistRepository) List(ctx context.Context) ([]models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+playlistColumns+` FROM playlists ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (*models.Playlist, error) {
	var p models.Playlist
	if err := s.Scan(&p.ID, &p.SpotifyID, &p.Name, &p.Description, &p.TrackAmount, &p.Public, &p.Collaborative); err != nil {
		return nil, err
	}
	return &p, nil
}
