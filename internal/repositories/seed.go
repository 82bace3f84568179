package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/sortifyr/internal/models"
)

// SeedData is the JSON document accepted by `setup seed`. It uses the same
// shapes as the API so a dump of GET /api/directory, /api/playlist and
// /api/link can be replayed into a fresh database.
type SeedData struct {
	Directories []models.Directory `json:"directories"`
	Playlists   []models.Playlist  `json:"playlists"`
	Links       []models.Link      `json:"links"`
}

// SeedCounts reports how many rows [Seed] wrote.
type SeedCounts struct {
	Directories int
	Playlists   int
	Links       int
}

// LoadSeed reads a [SeedData] document from path.
func LoadSeed(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedData
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Seed inserts data in one transaction. Playlists listed inside directories
// are created on first sight and matched by id afterwards. Ids from the
// document are kept so links can reference them.
func Seed(ctx context.Context, db *sql.DB, data *SeedData) (SeedCounts, error) {
	if err := models.ValidateLinks(data.Links); err != nil {
		return SeedCounts{}, err
	}

	var counts SeedCounts
	err := WithTx(ctx, db, func(tx *sql.Tx) error {
		seen := make(map[int]bool)

		ensure := func(p models.Playlist) (int, error) {
			if p.ID != 0 && seen[p.ID] {
				return p.ID, nil
			}
			if err := createPlaylist(ctx, tx, &p); err != nil {
				return 0, err
			}
			seen[p.ID] = true
			counts.Playlists++
			return p.ID, nil
		}

		for _, p := range data.Playlists {
			if _, err := ensure(p); err != nil {
				return err
			}
		}

		var insert func(dirs []models.Directory, parentID int) error
		insert = func(dirs []models.Directory, parentID int) error {
			for _, d := range dirs {
				id, err := createDirectory(ctx, tx, d.ID, d.Name, parentID)
				if err != nil {
					return err
				}
				counts.Directories++

				for _, p := range d.Playlists {
					playlistID, err := ensure(p)
					if err != nil {
						return err
					}
					if err := addPlaylist(ctx, tx, id, playlistID); err != nil {
						return err
					}
				}

				if err := insert(d.Children, id); err != nil {
					return err
				}
			}
			return nil
		}
		if err := insert(data.Directories, 0); err != nil {
			return err
		}

		for _, l := range data.Links {
			l.ID = 0
			if err := createLink(ctx, tx, &l); err != nil {
				return err
			}
			counts.Links++
		}
		return nil
	})
	if err != nil {
		return SeedCounts{}, err
	}

	return counts, nil
}
