package models

// Playlist represents a music playlist synced from the provider.
type Playlist struct {
	ID            int    `json:"id"`
	SpotifyID     string `json:"spotify_id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	TrackAmount   int    `json:"track_amount"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
}

// Directory is a user defined folder of playlists. Directories nest through Children.
type Directory struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Children  []Directory `json:"children,omitempty"`
	Playlists []Playlist  `json:"playlists"`
}

// Size returns the number of direct entries (playlists and child directories).
func (d Directory) Size() int {
	return len(d.Playlists) + len(d.Children)
}

// Walk visits every directory in roots depth first, parents before children.
// Returning false from fn skips the children of that directory.
func Walk(roots []Directory, fn func(d Directory, depth int) bool) {
	var visit func(dirs []Directory, depth int)
	visit = func(dirs []Directory, depth int) {
		for _, d := range dirs {
			if fn(d, depth) {
				visit(d.Children, depth+1)
			}
		}
	}
	visit(roots, 0)
}

// CollectPlaylists returns every playlist contained in d or one of its descendants.
func CollectPlaylists(d Directory) []Playlist {
	playlists := append([]Playlist{}, d.Playlists...)
	for _, child := range d.Children {
		playlists = append(playlists, CollectPlaylists(child)...)
	}
	return playlists
}

// Unassigned returns the playlists from all that are not contained in any directory of roots.
func Unassigned(roots []Directory, all []Playlist) []Playlist {
	assigned := make(map[int]bool)
	for _, root := range roots {
		for _, p := range CollectPlaylists(root) {
			assigned[p.ID] = true
		}
	}

	result := []Playlist{}
	for _, p := range all {
		if !assigned[p.ID] {
			result = append(result, p)
		}
	}
	return result
}

// FindDirectory returns the directory with id anywhere in roots.
func FindDirectory(roots []Directory, id int) (Directory, bool) {
	var found Directory
	var ok bool
	Walk(roots, func(d Directory, _ int) bool {
		if d.ID == id {
			found, ok = d, true
		}
		return !ok
	})
	return found, ok
}
