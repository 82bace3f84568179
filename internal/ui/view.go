package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/shared"
	"github.com/muesli/reflow/truncate"
)

// cellKind orders what a gutter cell shows; higher kinds win.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellFaded
	cellCurve
	cellHovered
	cellPending
)

type gutter [][]cellKind

// plot samples every curve of scene onto the character grid between the two columns.
func (m *Model) plot(scene linker.Scene) gutter {
	h := m.listHeight()
	g := make(gutter, h)
	for i := range g {
		g[i] = make([]cellKind, gutterWidth)
	}

	left := float64(m.columnWidth())
	draw := func(p linker.Path, kind cellKind) {
		steps := gutterWidth * 6
		for s := 0; s <= steps; s++ {
			pt := p.At(float64(s) / float64(steps))
			col := int(math.Floor(pt.X - left))
			line := int(math.Floor(pt.Y))
			if col < 0 || col >= gutterWidth || line < 0 || line >= h {
				continue
			}
			if kind > g[line][col] {
				g[line][col] = kind
			}
		}
	}

	for _, c := range scene.Curves {
		kind := cellCurve
		if !c.Visible {
			kind = cellFaded
		}
		if c.Hovered {
			kind = cellHovered
		}
		draw(c.Path, kind)
	}
	if scene.Pending != nil {
		draw(*scene.Pending, cellPending)
	}
	return g
}

func (g gutter) render(line int) string {
	var b strings.Builder
	for _, cell := range g[line] {
		switch cell {
		case cellFaded:
			b.WriteString(styles.faded.Render("·"))
		case cellCurve:
			b.WriteString(styles.curve.Render("•"))
		case cellHovered:
			b.WriteString(styles.err.Render("•"))
		case cellPending:
			b.WriteString(styles.warn.Render("∙"))
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// View renders the two columns with the connection gutter between them.
func (m *Model) View() string {
	title := styles.title.Render("Link Editor")
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if m.loading {
		return fmt.Sprintf("%s\n%s", title, styles.help.Render("Loading links..."))
	}

	scene := m.editor.Scene()
	grid := m.plot(scene)
	connected := make(map[linker.AnchorID]bool)
	for _, c := range scene.Curves {
		connected[c.Connection.From] = true
		connected[c.Connection.To] = true
	}
	origin, _ := m.editor.Dragging()

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	w := m.columnWidth()
	b.WriteString(styles.header.Render(pad("Sources", w)))
	b.WriteString(strings.Repeat(" ", gutterWidth))
	b.WriteString(styles.header.Render("Targets"))
	b.WriteString("\n")

	for line := 0; line < m.listHeight(); line++ {
		pos := m.offset + line
		if pos < len(m.shown) {
			idx := m.shown[pos]
			b.WriteString(m.renderCell(idx, pos, linker.SideSource, connected, origin))
			b.WriteString(grid.render(line))
			b.WriteString(m.renderCell(idx, pos, linker.SideTarget, connected, origin))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.renderBadges(scene))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderCell draws one row in one column: label and badge, with the anchor
// glyph on the edge facing the gutter.
func (m *Model) renderCell(idx, pos int, side linker.Side, connected map[linker.AnchorID]bool, origin linker.AnchorID) string {
	r := m.rows[idx]
	w := m.columnWidth()

	marker := "  "
	if r.folder {
		marker = "▾ "
		if m.collapsed[idx] {
			marker = "▸ "
		}
	}

	anchor := " "
	badge := ""
	if r.anchored() {
		id := linker.NewAnchorID(r.ref, side)
		switch {
		case id == origin:
			anchor = styles.warn.Render("◆")
		case connected[id]:
			anchor = styles.curve.Render("●")
		default:
			anchor = styles.help.Render("○")
		}
		if n := m.editor.HiddenCount(id); n > 0 {
			badge = fmt.Sprintf(" +%d", n)
		}
	}

	text := clip(strings.Repeat("  ", r.depth)+marker+r.label, w-2-lipgloss.Width(badge))
	style := lipgloss.NewStyle()
	switch {
	case pos == m.cursor && side == m.side:
		style = styles.focus
	case !r.anchored():
		style = styles.header
	case r.folder:
		style = styles.dir
	}
	label := style.Render(text) + styles.err.Render(badge)
	plain := lipgloss.Width(text) + lipgloss.Width(badge)

	if side == linker.SideSource {
		return label + strings.Repeat(" ", max(0, w-1-plain)) + anchor
	}
	return anchor + " " + label
}

func (m *Model) renderBadges(scene linker.Scene) string {
	parts := []string{styles.help.Render(shared.Plural(scene.Total, "connection"))}
	if scene.Hidden > 0 {
		parts = append(parts, styles.err.Render(fmt.Sprintf("%d hidden", scene.Hidden)))
	}
	if m.editor.Dirty() {
		parts = append(parts, styles.warn.Render("unsaved changes"))
	}
	if m.saving {
		parts = append(parts, styles.warn.Render("saving..."))
	}
	return strings.Join(parts, styles.help.Render(" · "))
}

func (m *Model) renderStatus() string {
	switch m.confirm {
	case confirmReset:
		return styles.warn.Render("Discard unsaved changes? (y/n)")
	case confirmSave:
		return styles.warn.Render(fmt.Sprintf("Save %s? (y/n)", shared.Plural(len(m.editor.Connections()), "link")))
	}
	if m.statusErr {
		return styles.err.Render(m.status)
	}
	return styles.ok.Render(m.status)
}

func pad(s string, w int) string {
	return s + strings.Repeat(" ", max(0, w-lipgloss.Width(s)))
}

func clip(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	if n <= 1 {
		return ""
	}
	return truncate.StringWithTail(s, uint(n), "…")
}
