package formatter

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
)

// DiagramOptions controls the SVG layout. All values are in pixels.
type DiagramOptions struct {
	RowHeight   float64
	ColumnWidth float64
	Gap         float64
	Padding     float64
	Indent      float64
}

// DefaultDiagramOptions returns the layout used by `links render`.
func DefaultDiagramOptions() DiagramOptions {
	return DiagramOptions{RowHeight: 28, ColumnWidth: 220, Gap: 180, Padding: 16, Indent: 14}
}

// row is one line of a diagram column. Group headers have a zero ref.
type row struct {
	ref   linker.AnchorRef
	label string
	depth int
}

// layoutRows flattens the catalog in display order: each directory, its
// subdirectories, then its playlists, followed by the unassigned group.
func layoutRows(export *models.LinkExport) []row {
	var rows []row
	var visit func(d models.Directory, depth int)
	visit = func(d models.Directory, depth int) {
		rows = append(rows, row{ref: linker.DirectoryRef(d.ID), label: d.Name, depth: depth})
		for _, child := range d.Children {
			visit(child, depth+1)
		}
		for _, p := range d.Playlists {
			rows = append(rows, row{ref: linker.PlaylistRef(p.ID), label: p.Name, depth: depth + 1})
		}
	}
	for _, d := range export.Directories {
		visit(d, 0)
	}

	if unassigned := models.Unassigned(export.Directories, export.Playlists); len(unassigned) > 0 {
		rows = append(rows, row{label: UnassignedLabel})
		for _, p := range unassigned {
			rows = append(rows, row{ref: linker.PlaylistRef(p.ID), label: p.Name, depth: 1})
		}
	}
	return rows
}

// ExportToSVG draws the catalog twice, sources on the left and targets on the
// right, with one bezier curve per link. Links whose ends are not in the
// catalog are left out.
func ExportToSVG(export *models.LinkExport, opts DiagramOptions) ([]byte, error) {
	if opts.RowHeight <= 0 || opts.ColumnWidth <= 0 {
		opts = DefaultDiagramOptions()
	}

	rows := layoutRows(export)
	index := make(map[linker.AnchorRef]int, len(rows))
	for i, r := range rows {
		if _, seen := index[r.ref]; !r.ref.IsZero() && !seen {
			index[r.ref] = i
		}
	}

	left := opts.Padding
	right := opts.Padding + opts.ColumnWidth + opts.Gap
	width := 2*opts.Padding + 2*opts.ColumnWidth + opts.Gap
	height := 2*opts.Padding + float64(len(rows))*opts.RowHeight

	rowTop := func(i int) float64 { return opts.Padding + float64(i)*opts.RowHeight }
	anchor := func(x float64, i int) linker.Point {
		return linker.Rect{X: x - 4, Y: rowTop(i) + opts.RowHeight/2 - 4, Width: 8, Height: 8}.Center()
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%g" height="%g" viewBox="0 0 %g %g" font-family="sans-serif" font-size="12">`+"\n",
		width, height, width, height)
	buf.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>` + "\n")

	for i, r := range rows {
		y := rowTop(i) + opts.RowHeight/2 + 4
		for _, x := range []float64{left, right} {
			weight := "normal"
			if r.ref.Kind != linker.KindPlaylist {
				weight = "bold"
			}
			fmt.Fprintf(&buf, `<text x="%g" y="%g" font-weight="%s">`, x+12+float64(r.depth)*opts.Indent, y, weight)
			if err := xml.EscapeText(&buf, []byte(r.label)); err != nil {
				return nil, fmt.Errorf("failed to escape label: %w", err)
			}
			buf.WriteString("</text>\n")
		}
		if r.ref.IsZero() {
			continue
		}
		src := anchor(left+opts.ColumnWidth, i)
		dst := anchor(right, i)
		fmt.Fprintf(&buf, `<circle cx="%g" cy="%g" r="4" fill="#89b4fa"/>`+"\n", src.X, src.Y)
		fmt.Fprintf(&buf, `<circle cx="%g" cy="%g" r="4" fill="#a6e3a1"/>`+"\n", dst.X, dst.Y)
	}

	for _, l := range export.Links {
		source, target := linker.LinkRefs(l)
		from, okFrom := index[source]
		to, okTo := index[target]
		if !okFrom || !okTo {
			continue
		}
		path := linker.Between(anchor(left+opts.ColumnWidth, from), anchor(right, to))
		fmt.Fprintf(&buf, `<path d="%s" fill="none" stroke="#6c7086" stroke-width="2"/>`+"\n", path)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}
