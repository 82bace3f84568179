package linker

import (
	"github.com/desertthunder/sortifyr/internal/models"
)

// LinkRefs returns the entities on each end of l. A missing end is a zero ref.
func LinkRefs(l models.Link) (source, target AnchorRef) {
	switch {
	case l.SourceDirectoryID != 0:
		source = DirectoryRef(l.SourceDirectoryID)
	case l.SourcePlaylistID != 0:
		source = PlaylistRef(l.SourcePlaylistID)
	}
	switch {
	case l.TargetDirectoryID != 0:
		target = DirectoryRef(l.TargetDirectoryID)
	case l.TargetPlaylistID != 0:
		target = PlaylistRef(l.TargetPlaylistID)
	}
	return source, target
}

// LinkToConnection converts a persisted link into an edge between derived anchor ids.
// It fails when the record lacks a source or a target.
func LinkToConnection(l models.Link) (Connection, bool) {
	from, to := LinkRefs(l)
	if from.IsZero() || to.IsZero() {
		return Connection{}, false
	}
	return Connection{From: NewAnchorID(from, SideSource), To: NewAnchorID(to, SideTarget)}, true
}

// LinkFromRefs builds the persisted record for an edge from source to target.
// A zero ref leaves its side empty, which fails validation.
func LinkFromRefs(source, target AnchorRef) models.Link {
	var l models.Link
	switch source.Kind {
	case KindDirectory:
		l.SourceDirectoryID = source.ID
	case KindPlaylist:
		l.SourcePlaylistID = source.ID
	}
	switch target.Kind {
	case KindDirectory:
		l.TargetDirectoryID = target.ID
	case KindPlaylist:
		l.TargetPlaylistID = target.ID
	}
	return l
}
