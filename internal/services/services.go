// package services defines interface Service for talking to the sortifyr backend API
package services

import (
	"context"

	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
)

// Service is the backend the link editor reads directories, playlists and
// links from and syncs links to.
type Service interface {
	linker.LinkStore

	// GetDirectories returns the directory forest with nested children and playlists.
	GetDirectories(ctx context.Context) ([]models.Directory, error)

	// GetPlaylists returns every playlist, including those in no directory.
	GetPlaylists(ctx context.Context) ([]models.Playlist, error)
}

var _ Service = (*Client)(nil)
