package formatter

import (
	"fmt"

	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/disiqueira/gotree/v3"
)

// UnassignedLabel names the pseudo directory holding playlists that are in no directory.
const UnassignedLabel = "Unassigned"

type linkCounts struct {
	out map[linker.AnchorRef]int
	in  map[linker.AnchorRef]int
}

func countLinks(links []models.Link) linkCounts {
	c := linkCounts{out: map[linker.AnchorRef]int{}, in: map[linker.AnchorRef]int{}}
	for _, l := range links {
		source, target := linker.LinkRefs(l)
		if !source.IsZero() {
			c.out[source]++
		}
		if !target.IsZero() {
			c.in[target]++
		}
	}
	return c
}

func (c linkCounts) label(name string, ref linker.AnchorRef) string {
	out, in := c.out[ref], c.in[ref]
	if out == 0 && in == 0 {
		return name
	}
	return fmt.Sprintf("%s [out %d, in %d]", name, out, in)
}

// ExportToTree renders the directory tree with per entity link counts.
//
// Unassigned playlists are grouped under [UnassignedLabel].
func ExportToTree(export *models.LinkExport, rootLabel string) string {
	if rootLabel == "" {
		rootLabel = "Library"
	}
	counts := countLinks(export.Links)
	root := gotree.New(rootLabel)

	var add func(parent gotree.Tree, d models.Directory)
	add = func(parent gotree.Tree, d models.Directory) {
		node := parent.Add(counts.label(d.Name+"/", linker.DirectoryRef(d.ID)))
		for _, child := range d.Children {
			add(node, child)
		}
		for _, p := range d.Playlists {
			node.Add(counts.label(p.Name, linker.PlaylistRef(p.ID)))
		}
	}
	for _, d := range export.Directories {
		add(root, d)
	}

	if unassigned := models.Unassigned(export.Directories, export.Playlists); len(unassigned) > 0 {
		group := root.Add(UnassignedLabel)
		for _, p := range unassigned {
			group.Add(counts.label(p.Name, linker.PlaylistRef(p.ID)))
		}
	}

	return root.Print()
}
