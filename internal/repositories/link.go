package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/mattn/go-sqlite3"
)

// LinkRepository handles link persistence.
type LinkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new LinkRepository with the given database connection
func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// SyncResult summarizes a [LinkRepository.Sync].
type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Links   []models.Link
}

// List retrieves all links in insertion order.
func (r *LinkRepository) List(ctx context.Context) ([]models.Link, error) {
	return listLinks(ctx, r.db)
}

func listLinks(ctx context.Context, q querier) ([]models.Link, error) {
	query := `
		SELECT id, source_directory_id, source_playlist_id, target_directory_id, target_playlist_id
		FROM links
		ORDER BY id ASC
	`
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return links, nil
}

// Get retrieves a link by id.
func (r *LinkRepository) Get(ctx context.Context, id int) (*models.Link, error) {
	query := `
		SELECT id, source_directory_id, source_playlist_id, target_directory_id, target_playlist_id
		FROM links
		WHERE id = ?
	`
	l, err := scanLink(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "link", id)
	}
	return &l, nil
}

// Create validates and inserts l, setting its id.
func (r *LinkRepository) Create(ctx context.Context, l *models.Link) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return createLink(ctx, r.db, l)
}

func createLink(ctx context.Context, q querier, l *models.Link) error {
	query := `
		INSERT INTO links (source_directory_id, source_playlist_id, target_directory_id, target_playlist_id)
		VALUES (?, ?, ?, ?)
	`
	result, err := q.ExecContext(ctx, query,
		nullID(l.SourceDirectoryID),
		nullID(l.SourcePlaylistID),
		nullID(l.TargetDirectoryID),
		nullID(l.TargetPlaylistID),
	)
	if err != nil {
		if missingEndpoint(err) {
			return fmt.Errorf("%w: link %s references a missing directory or playlist", shared.ErrValidation, l)
		}
		return fmt.Errorf("failed to insert link %s: %w", l, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get link id: %w", err)
	}
	l.ID = int(id)
	return nil
}

// Update validates and rewrites the endpoints of an existing link.
func (r *LinkRepository) Update(ctx context.Context, l models.Link) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return updateLink(ctx, r.db, l)
}

func updateLink(ctx context.Context, q querier, l models.Link) error {
	query := `
		UPDATE links
		SET source_directory_id = ?, source_playlist_id = ?, target_directory_id = ?, target_playlist_id = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query,
		nullID(l.SourceDirectoryID),
		nullID(l.SourcePlaylistID),
		nullID(l.TargetDirectoryID),
		nullID(l.TargetPlaylistID),
		l.ID,
	)
	if err != nil {
		if missingEndpoint(err) {
			return fmt.Errorf("%w: link %s references a missing directory or playlist", shared.ErrValidation, l)
		}
		return fmt.Errorf("failed to update link %d: %w", l.ID, err)
	}
	return affected(result, "link", l.ID)
}

// Delete removes a link by id.
func (r *LinkRepository) Delete(ctx context.Context, id int) error {
	return deleteLink(ctx, r.db, id)
}

func deleteLink(ctx context.Context, q querier, id int) error {
	result, err := q.ExecContext(ctx, `DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete link %d: %w", id, err)
	}
	return affected(result, "link", id)
}

// Sync makes the stored links equal to links in one transaction.
//
// Records with a zero or unknown id are created, known ids whose endpoints
// changed are updated, and stored links missing from links are deleted.
// The whole set is validated first; on any failure nothing is written.
func (r *LinkRepository) Sync(ctx context.Context, links []models.Link) (SyncResult, error) {
	if err := models.ValidateLinks(links); err != nil {
		return SyncResult{}, err
	}

	var result SyncResult
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stored, err := listLinks(ctx, tx)
		if err != nil {
			return err
		}

		byID := make(map[int]models.Link, len(stored))
		for _, l := range stored {
			byID[l.ID] = l
		}

		keep := make(map[int]bool, len(links))
		var toCreate, toUpdate []models.Link
		for _, l := range links {
			existing, ok := byID[l.ID]
			switch {
			case l.ID == 0 || !ok:
				l.ID = 0
				toCreate = append(toCreate, l)
			case keep[l.ID]:
				// the same id twice; the second copy becomes a new link
				l.ID = 0
				toCreate = append(toCreate, l)
				continue
			case !existing.SameEdge(l):
				toUpdate = append(toUpdate, l)
			}
			if l.ID != 0 {
				keep[l.ID] = true
			}
		}

		for _, l := range stored {
			if keep[l.ID] {
				continue
			}
			if err := deleteLink(ctx, tx, l.ID); err != nil {
				return err
			}
			result.Deleted++
		}

		for _, l := range toUpdate {
			if err := updateLink(ctx, tx, l); err != nil {
				return err
			}
			result.Updated++
		}

		for i := range toCreate {
			if err := createLink(ctx, tx, &toCreate[i]); err != nil {
				return err
			}
			result.Created++
		}

		result.Links, err = listLinks(ctx, tx)
		return err
	})
	if err != nil {
		return SyncResult{}, err
	}

	return result, nil
}

// missingEndpoint reports whether err is a foreign key violation, which for
// links means an endpoint id names no stored directory or playlist.
func missingEndpoint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func scanLink(s scanner) (models.Link, error) {
	var l models.Link
	var srcDir, srcPlaylist, tgtDir, tgtPlaylist sql.NullInt64
	if err := s.Scan(&l.ID, &srcDir, &srcPlaylist, &tgtDir, &tgtPlaylist); err != nil {
		return models.Link{}, err
	}
	l.SourceDirectoryID = fromNull(srcDir)
	l.SourcePlaylistID = fromNull(srcPlaylist)
	l.TargetDirectoryID = fromNull(tgtDir)
	l.TargetPlaylistID = fromNull(tgtPlaylist)
	return l, nil
}
