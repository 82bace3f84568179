package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/linker"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/services"
	"github.com/desertthunder/sortifyr/internal/shared"
)

const (
	gutterWidth   = 18
	minColumn     = 24
	chromeHeight  = 7
	defaultWidth  = 100
	defaultHeight = 24
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmReset
	confirmSave
)

// Options configures [NewModel].
type Options struct {
	Debounce time.Duration
	Logger   *log.Logger
}

type elementKey struct {
	side  linker.Side
	index int
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	svc      services.Service
	editor   *linker.Editor
	observer *viewportObserver
	layoutCh chan uint64
	logger   *log.Logger

	rows      []row
	names     map[linker.AnchorRef]string
	collapsed map[int]bool
	shown     []int       // row indexes in display order
	lines     map[int]int // row index to display line
	elements  map[elementKey]*rowElement
	owners    map[linker.AnchorID]int // row index whose element is registered for the anchor

	side     linker.Side
	cursor   int // display line of the focused row
	offset   int // first display line in the viewport
	hoverIdx int
	width    int
	height   int
	version  uint64

	confirm   confirmKind
	status    string
	statusErr bool
	loading   bool
	saving    bool
	err       error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model backed by svc.
func NewModel(ctx context.Context, svc services.Service, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	m := &Model{
		ctx:       ctx,
		svc:       svc,
		layoutCh:  make(chan uint64, 1),
		logger:    opts.Logger,
		names:     make(map[linker.AnchorRef]string),
		collapsed: make(map[int]bool),
		lines:     make(map[int]int),
		elements:  make(map[elementKey]*rowElement),
		owners:    make(map[linker.AnchorID]int),
		side:      linker.SideSource,
		hoverIdx:  -1,
		width:     defaultWidth,
		height:    defaultHeight,
		loading:   true,
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.observer = newViewportObserver(m.listHeight)

	var store linker.LinkStore
	if svc != nil {
		store = svc
	}
	m.editor = linker.New(linker.Options{
		Store:    store,
		Observe:  m.observer.observe,
		Debounce: opts.Debounce,
		OnLayout: m.notifyLayout,
		Logger:   opts.Logger,
	})
	return m
}

// Editor returns the link editor driven by the model.
func (m *Model) Editor() *linker.Editor {
	return m.editor
}

// Close releases the editor's observers and timers.
func (m *Model) Close() {
	m.editor.Dispose()
}

func (m *Model) notifyLayout(version uint64) {
	select {
	case m.layoutCh <- version:
	default:
	}
}

// Init loads the catalog and links and starts listening for layout changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCatalog(), m.waitForLayout())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.relayout()
		return m, nil

	case tea.BlurMsg:
		m.editor.CancelConnection()
		return m, nil

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll(-1)
		case tea.MouseButtonWheelDown:
			m.scroll(1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgCatalogLoaded:
		data := msg.data.(catalogData)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.setCatalog(data.directories, data.playlists)
		m.setStatus(fmt.Sprintf("Loaded %s", shared.Plural(len(m.editor.Connections()), "link")), false)
		return m, nil

	case MsgLayout:
		m.version = msg.data.(uint64)
		return m, m.waitForLayout()

	case MsgSaved:
		data := msg.data.(savedData)
		m.saving = false
		if data.err != nil {
			m.logger.Error("save failed", "error", data.err)
			m.setStatus(fmt.Sprintf("Save failed: %v", data.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Saved %s", shared.Plural(len(data.links), "link")), false)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) && msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}
	if m.err != nil || m.loading {
		if key.Matches(msg, m.keys.quit) {
			m.Close()
			return m, tea.Quit
		}
		return m, nil
	}
	if m.confirm != confirmNone {
		return m.handleConfirmKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.side):
		m.side = m.side.Opposite()
		m.hoverIdx = -1
		m.followCursor()
	case key.Matches(msg, m.keys.start):
		m.startLink()
	case key.Matches(msg, m.keys.enter):
		if _, dragging := m.editor.Dragging(); dragging {
			m.finishLink()
		} else {
			m.toggleFold()
		}
	case key.Matches(msg, m.keys.cancel):
		if _, dragging := m.editor.Dragging(); dragging {
			m.editor.CancelConnection()
			m.setStatus("Cancelled", false)
		} else {
			m.editor.SetHovered(nil)
			m.hoverIdx = -1
		}
	case key.Matches(msg, m.keys.hover):
		m.cycleHover()
	case key.Matches(msg, m.keys.remove):
		m.removeHovered()
	case key.Matches(msg, m.keys.reset):
		if m.editor.Dirty() {
			m.confirm = confirmReset
		} else {
			m.setStatus("Nothing to reset", false)
		}
	case key.Matches(msg, m.keys.save):
		if m.saving {
			m.setStatus("Save already in progress", true)
		} else {
			m.confirm = confirmSave
		}
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		kind := m.confirm
		m.confirm = confirmNone
		switch kind {
		case confirmReset:
			m.editor.ResetConnections()
			m.hoverIdx = -1
			m.setStatus("Reset to the last saved links", false)
		case confirmSave:
			m.saving = true
			m.setStatus("Saving...", false)
			return m, m.saveLinks()
		}
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.confirm = confirmNone
		m.setStatus("", false)
	}
	return m, nil
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// setCatalog rebuilds the rows for a new directory tree and mounts their anchors.
func (m *Model) setCatalog(directories []models.Directory, playlists []models.Playlist) {
	m.editor.SetTree(directories, playlists)

	for id := range m.owners {
		ref, side, _ := linker.ParseAnchorID(id)
		m.editor.RegisterAnchor(id, side, nil, ref)
	}

	m.rows = buildRows(directories, playlists)
	m.names = make(map[linker.AnchorRef]string, len(m.rows))
	for _, r := range m.rows {
		if _, ok := m.names[r.ref]; r.anchored() && !ok {
			m.names[r.ref] = r.label
		}
	}
	m.collapsed = make(map[int]bool)
	m.elements = make(map[elementKey]*rowElement)
	m.owners = make(map[linker.AnchorID]int)
	m.cursor, m.offset = 0, 0
	m.relayout()
}

// relayout recomputes the shown rows, mounts the anchors of shown rows,
// unmounts the rest and reports the new viewport.
func (m *Model) relayout() {
	m.shown = shownRows(m.rows, m.collapsed)
	m.lines = make(map[int]int, len(m.shown))
	for line, idx := range m.shown {
		m.lines[idx] = line
	}

	for _, side := range []linker.Side{linker.SideSource, linker.SideTarget} {
		desired := make(map[linker.AnchorID]int)
		for _, idx := range m.shown {
			r := m.rows[idx]
			if !r.anchored() {
				continue
			}
			id := linker.NewAnchorID(r.ref, side)
			if _, ok := desired[id]; !ok {
				desired[id] = idx
			}
		}

		for id, idx := range m.owners {
			if _, s, _ := linker.ParseAnchorID(id); s != side {
				continue
			}
			if want, ok := desired[id]; !ok || want != idx {
				m.editor.RegisterAnchor(id, side, nil, m.rows[idx].ref)
				delete(m.owners, id)
			}
		}
		for id, idx := range desired {
			if _, ok := m.owners[id]; ok {
				continue
			}
			m.editor.RegisterAnchor(id, side, m.element(side, idx), m.rows[idx].ref)
			m.owners[id] = idx
		}
	}

	if m.cursor >= len(m.shown) {
		m.cursor = len(m.shown) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
	m.viewportChanged()
}

func (m *Model) element(side linker.Side, index int) *rowElement {
	k := elementKey{side, index}
	el, ok := m.elements[k]
	if !ok {
		el = &rowElement{m: m, side: side, index: index}
		m.elements[k] = el
	}
	return el
}

func (m *Model) viewportChanged() {
	m.observer.refresh()
	m.editor.ViewportChanged()
}

func (m *Model) listHeight() int {
	return max(1, m.height-chromeHeight)
}

func (m *Model) columnWidth() int {
	return max(minColumn, (m.width-gutterWidth)/2)
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, len(m.shown)-h))
}

func (m *Model) moveCursor(delta int) {
	if len(m.shown) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.shown)-1, m.cursor+delta))
	m.hoverIdx = -1

	prev := m.offset
	m.ensureVisible()
	if m.offset != prev {
		m.viewportChanged()
	}
	m.followCursor()
}

func (m *Model) scroll(delta int) {
	h := m.listHeight()
	prev := m.offset
	m.offset = max(0, min(m.offset+delta, len(m.shown)-h))
	if m.offset == prev {
		return
	}
	m.cursor = max(m.offset, min(m.cursor, m.offset+h-1))
	m.viewportChanged()
	m.followCursor()
}

// focusedRow returns the row index under the cursor.
func (m *Model) focusedRow() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.shown) {
		return 0, false
	}
	return m.shown[m.cursor], true
}

// focused returns the anchor under the cursor on the focused side.
func (m *Model) focused() (linker.AnchorID, bool) {
	idx, ok := m.focusedRow()
	if !ok || !m.rows[idx].anchored() {
		return "", false
	}
	return linker.NewAnchorID(m.rows[idx].ref, m.side), true
}

// followCursor moves the pending curve's free end to the focused cell.
func (m *Model) followCursor() {
	if _, dragging := m.editor.Dragging(); !dragging {
		return
	}
	idx, ok := m.focusedRow()
	if !ok {
		return
	}
	p := m.element(m.side, idx).Bounds().Center()
	m.editor.MoveCursor(p.X, p.Y)
}

func (m *Model) startLink() {
	id, ok := m.focused()
	if !ok {
		return
	}
	m.editor.StartConnection(id)
	m.followCursor()
	m.setStatus(fmt.Sprintf("Linking from %s, move to the other side and press enter", m.anchorName(id)), false)
}

func (m *Model) finishLink() {
	origin, _ := m.editor.Dragging()
	id, ok := m.focused()
	if !ok {
		m.editor.CancelConnection()
		m.setStatus("Cancelled", false)
		return
	}

	if m.editor.FinishConnection(id) {
		m.setStatus(fmt.Sprintf("Linked %s and %s", m.anchorName(origin), m.anchorName(id)), false)
	} else {
		m.setStatus("No link added", true)
	}
}

func (m *Model) toggleFold() {
	idx, ok := m.focusedRow()
	if !ok || !m.rows[idx].folder {
		return
	}
	m.collapsed[idx] = !m.collapsed[idx]
	m.relayout()
}

// touching returns the connections with an end on the focused anchor.
func (m *Model) touching() []linker.Connection {
	id, ok := m.focused()
	if !ok {
		return nil
	}
	var conns []linker.Connection
	for _, c := range m.editor.Connections() {
		if c.From == id || c.To == id {
			conns = append(conns, c)
		}
	}
	return conns
}

func (m *Model) cycleHover() {
	conns := m.touching()
	if len(conns) == 0 {
		m.editor.SetHovered(nil)
		m.hoverIdx = -1
		m.setStatus("No links on this side of the row", false)
		return
	}
	m.hoverIdx = (m.hoverIdx + 1) % len(conns)
	c := conns[m.hoverIdx]
	m.editor.SetHovered(&c)
	m.setStatus(fmt.Sprintf("Selected %s, press x to delete", m.describe(c)), false)
}

func (m *Model) removeHovered() {
	c, ok := m.editor.Hovered()
	if !ok {
		m.setStatus("Select a link with c first", true)
		return
	}
	m.editor.RemoveConnection(c.From, c.To)
	m.hoverIdx = -1
	m.setStatus(fmt.Sprintf("Deleted %s", m.describe(c)), false)
}

func (m *Model) anchorName(id linker.AnchorID) string {
	ref, _, err := linker.ParseAnchorID(id)
	if err != nil {
		return string(id)
	}
	if name, ok := m.names[ref]; ok {
		return name
	}
	return ref.String()
}

func (m *Model) describe(c linker.Connection) string {
	return m.anchorName(c.From) + " → " + m.anchorName(c.To)
}

func (m *Model) loadCatalog() tea.Cmd {
	return func() tea.Msg {
		if m.svc == nil {
			return catalogLoadedMsg(nil, nil, fmt.Errorf("%w: no backend configured", shared.ErrServiceUnavailable))
		}

		directories, err := m.svc.GetDirectories(m.ctx)
		if err != nil {
			return catalogLoadedMsg(nil, nil, fmt.Errorf("failed to fetch directories: %w", err))
		}
		playlists, err := m.svc.GetPlaylists(m.ctx)
		if err != nil {
			return catalogLoadedMsg(nil, nil, fmt.Errorf("failed to fetch playlists: %w", err))
		}
		if err := m.editor.Load(m.ctx); err != nil {
			return catalogLoadedMsg(directories, playlists, err)
		}
		return catalogLoadedMsg(directories, playlists, nil)
	}
}

func (m *Model) saveLinks() tea.Cmd {
	return func() tea.Msg {
		links, err := m.editor.SaveConnections(m.ctx)
		return savedMsg(links, err)
	}
}

func (m *Model) waitForLayout() tea.Cmd {
	return func() tea.Msg {
		select {
		case v := <-m.layoutCh:
			return layoutMsg(v)
		case <-m.ctx.Done():
			return nil
		}
	}
}
