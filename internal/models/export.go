package models

import "fmt"

// LinkExport bundles links with the catalog used to name their endpoints.
type LinkExport struct {
	Directories []Directory `json:"directories"`
	Playlists   []Playlist  `json:"playlists"`
	Links       []Link      `json:"links"`
}

// DirectoryName returns the name of directory id, or "#id" when it is not in the tree.
func (e LinkExport) DirectoryName(id int) string {
	if d, ok := FindDirectory(e.Directories, id); ok {
		return d.Name
	}
	return fmt.Sprintf("#%d", id)
}

// PlaylistName returns the name of playlist id, looking at the flat list first and the tree second.
func (e LinkExport) PlaylistName(id int) string {
	for _, p := range e.Playlists {
		if p.ID == id {
			return p.Name
		}
	}

	name := ""
	Walk(e.Directories, func(d Directory, _ int) bool {
		for _, p := range d.Playlists {
			if p.ID == id {
				name = p.Name
			}
		}
		return name == ""
	})
	if name != "" {
		return name
	}
	return fmt.Sprintf("#%d", id)
}

// SourceName returns the display name of the source of l.
func (e LinkExport) SourceName(l Link) string {
	if l.SourceDirectoryID != 0 {
		return e.DirectoryName(l.SourceDirectoryID)
	}
	return e.PlaylistName(l.SourcePlaylistID)
}

// TargetName returns the display name of the target of l.
func (e LinkExport) TargetName(l Link) string {
	if l.TargetDirectoryID != 0 {
		return e.DirectoryName(l.TargetDirectoryID)
	}
	return e.PlaylistName(l.TargetPlaylistID)
}

// SourceKind returns "directory" or "playlist" for the source of l.
func (l Link) SourceKind() string {
	if l.SourceDirectoryID != 0 {
		return "directory"
	}
	return "playlist"
}

// TargetKind returns "directory" or "playlist" for the target of l.
func (l Link) TargetKind() string {
	if l.TargetDirectoryID != 0 {
		return "directory"
	}
	return "playlist"
}

// SourceID returns the id of the source entity of l.
func (l Link) SourceID() int {
	if l.SourceDirectoryID != 0 {
		return l.SourceDirectoryID
	}
	return l.SourcePlaylistID
}

// TargetID returns the id of the target entity of l.
func (l Link) TargetID() int {
	if l.TargetDirectoryID != 0 {
		return l.TargetDirectoryID
	}
	return l.TargetPlaylistID
}
