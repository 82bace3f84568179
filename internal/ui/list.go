package ui

import (
	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
)

const unassignedLabel = "Unassigned"

// row is one line of the tree shown in both columns. The unassigned group
// header has a zero ref and no anchors.
type row struct {
	ref    linker.AnchorRef
	label  string
	depth  int
	parent int // index of the enclosing folder row, -1 at the top level
	folder bool
}

func (r row) anchored() bool { return !r.ref.IsZero() }

// buildRows flattens the directory tree: each directory, its subdirectories,
// then its playlists, followed by the unassigned group.
func buildRows(roots []models.Directory, playlists []models.Playlist) []row {
	var rows []row
	var visit func(d models.Directory, depth, parent int)
	visit = func(d models.Directory, depth, parent int) {
		at := len(rows)
		rows = append(rows, row{ref: linker.DirectoryRef(d.ID), label: d.Name, depth: depth, parent: parent, folder: true})
		for _, child := range d.Children {
			visit(child, depth+1, at)
		}
		for _, p := range d.Playlists {
			rows = append(rows, row{ref: linker.PlaylistRef(p.ID), label: p.Name, depth: depth + 1, parent: at})
		}
	}
	for _, d := range roots {
		visit(d, 0, -1)
	}

	if unassigned := models.Unassigned(roots, playlists); len(unassigned) > 0 {
		at := len(rows)
		rows = append(rows, row{label: unassignedLabel, parent: -1, folder: true})
		for _, p := range unassigned {
			rows = append(rows, row{ref: linker.PlaylistRef(p.ID), label: p.Name, depth: 1, parent: at})
		}
	}
	return rows
}

// shownRows returns the indexes of rows not hidden by a collapsed ancestor.
func shownRows(rows []row, collapsed map[int]bool) []int {
	shown := make([]int, 0, len(rows))
	for i, r := range rows {
		hidden := false
		for p := r.parent; p >= 0; p = rows[p].parent {
			if collapsed[p] {
				hidden = true
				break
			}
		}
		if !hidden {
			shown = append(shown, i)
		}
	}
	return shown
}
