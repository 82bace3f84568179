package linker

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
)

// DefaultDebounce is the window used to coalesce layout changes.
const DefaultDebounce = 40 * time.Millisecond

// LinkStore is the link persistence collaborator.
type LinkStore interface {
	// GetLinks returns every persisted link.
	GetLinks(ctx context.Context) ([]models.Link, error)

	// SyncLinks replaces the persisted links with links and returns the stored result.
	SyncLinks(ctx context.Context, links []models.Link) ([]models.Link, error)
}

// SelectionGuard suppresses text selection in the host UI while a drag is active.
// Implementations must not call back into the [Editor].
type SelectionGuard interface {
	Suppress()
	Restore()
}

// Options configures an [Editor].
type Options struct {
	Store     LinkStore
	Observe   ObserveFunc
	Selection SelectionGuard

	// Debounce defaults to [DefaultDebounce]; a negative value fires on the next timer tick.
	Debounce time.Duration

	// OnLayout is called with the new layout version, from any goroutine and with no lock held.
	OnLayout func(version uint64)

	Logger *log.Logger
}

// Editor is the link-authoring state for one canvas: live anchors, their
// visibility, the connection graph and the drag gesture.
//
// All methods are safe for concurrent use. Renderers register anchors when
// nodes mount or unmount, forward press/move/release, and redraw from
// [Editor.Scene] whenever the layout version changes.
type Editor struct {
	mu        sync.Mutex
	store     LinkStore
	selection SelectionGuard
	logger    *log.Logger
	onLayout  func(uint64)

	registry  *Registry
	tracker   *Tracker
	graph     *Graph
	gesture   Gesture
	debouncer *Debouncer
	catalog   map[AnchorRef]bool
	ids       map[Connection]int
	hovered   *Connection

	version  atomic.Uint64
	loaded   bool
	saving   bool
	disposed bool
}

// New creates an [Editor]. Call [Editor.Dispose] to release observers and timers.
func New(opts Options) *Editor {
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	e := &Editor{
		store:     opts.Store,
		selection: opts.Selection,
		logger:    opts.Logger,
		onLayout:  opts.OnLayout,
		registry:  NewRegistry(),
		graph:     NewGraph(),
		catalog:   make(map[AnchorRef]bool),
		ids:       make(map[Connection]int),
	}
	e.debouncer = NewDebouncer(opts.Debounce, e.bump)
	e.tracker = NewTracker(opts.Observe, e.debouncer.Trigger)

	return e
}

// Dispose cancels any drag, detaches every observer and stops pending layout updates.
func (e *Editor) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	if e.gesture.Cancel() {
		e.restoreSelection()
	}
	e.mu.Unlock()

	e.debouncer.Stop()
	e.tracker.Close()
}

func (e *Editor) bump() {
	v := e.version.Add(1)
	if e.onLayout != nil {
		e.onLayout(v)
	}
}

// LayoutVersion returns the current layout version.
func (e *Editor) LayoutVersion() uint64 {
	return e.version.Load()
}

// FlushLayout applies a pending debounced layout change now.
func (e *Editor) FlushLayout() bool {
	return e.debouncer.Flush()
}

// ViewportChanged forces a layout version bump after the viewport was resized or scrolled.
func (e *Editor) ViewportChanged() {
	e.mu.Lock()
	disposed := e.disposed
	e.mu.Unlock()
	if !disposed {
		e.bump()
	}
}

// Load fetches the persisted links and makes them both the baseline and the edit buffer.
func (e *Editor) Load(ctx context.Context) error {
	store, err := e.collaborator()
	if err != nil {
		return err
	}

	links, err := store.GetLinks(ctx)
	if err != nil {
		e.logger.Error("failed to load links", "error", err)
		return fmt.Errorf("failed to load links: %w", err)
	}

	return e.LoadLinks(links)
}

// LoadLinks installs links that the caller already fetched as the baseline and
// the edit buffer, exactly as a successful [Editor.Load] would.
func (e *Editor) LoadLinks(links []models.Link) error {
	conns, ids := e.connections(links)

	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return shared.ErrDisposed
	}
	e.graph.Load(conns)
	e.ids = ids
	e.loaded = true
	e.hovered = nil
	e.mu.Unlock()

	e.logger.Info("links loaded", "count", len(conns))
	e.debouncer.Trigger()
	return nil
}

// Loaded reports whether links were loaded or saved at least once.
func (e *Editor) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// connections converts stored links to edges and remembers their record ids so
// that a later sync updates existing rows instead of recreating them.
func (e *Editor) connections(links []models.Link) ([]Connection, map[Connection]int) {
	conns := make([]Connection, 0, len(links))
	ids := make(map[Connection]int, len(links))
	for _, l := range links {
		c, ok := LinkToConnection(l)
		if !ok {
			e.logger.Warn("skipping incomplete link", "id", l.ID)
			continue
		}
		if _, seen := ids[c]; seen {
			continue
		}
		ids[c] = l.ID
		conns = append(conns, c)
	}
	return conns, ids
}

func (e *Editor) collaborator() (LinkStore, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil, shared.ErrDisposed
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: no link store configured", shared.ErrServiceUnavailable)
	}
	return e.store, nil
}

// SetTree replaces the catalog of known entities with the directories (recursively)
// and playlists handed in by the directory/playlist source. Saving resolves
// anchors that are not mounted through this catalog.
func (e *Editor) SetTree(roots []models.Directory, playlists []models.Playlist) {
	catalog := make(map[AnchorRef]bool)
	models.Walk(roots, func(d models.Directory, _ int) bool {
		catalog[DirectoryRef(d.ID)] = true
		for _, p := range d.Playlists {
			catalog[PlaylistRef(p.ID)] = true
		}
		return true
	})
	for _, p := range playlists {
		catalog[PlaylistRef(p.ID)] = true
	}

	e.mu.Lock()
	e.catalog = catalog
	e.mu.Unlock()
}

// RegisterAnchor mounts (non-nil el) or unmounts (nil el) the anchor id.
//
// While an anchor is mounted the first registration wins and later calls with
// another element are ignored. Unmounting keeps the anchor's last known
// visibility. Every call schedules a layout update.
func (e *Editor) RegisterAnchor(id AnchorID, side Side, el Element, ref AnchorRef) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}

	if el != nil {
		e.registry.Register(Anchor{ID: id, Side: side, Ref: ref, Element: el})
		live, _ := e.registry.Get(id)
		e.tracker.Attach(id, live.Element)
	} else {
		e.registry.Unregister(id)
		e.tracker.Detach(id)
	}
	e.mu.Unlock()

	e.debouncer.Trigger()
}

// Anchor returns the live anchor with id.
func (e *Editor) Anchor(id AnchorID) (Anchor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Get(id)
}

// Anchors returns the ids of all live anchors.
func (e *Editor) Anchors() []AnchorID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.IDs()
}

// StartConnection begins a drag from id. Pressing while dragging restarts from id.
func (e *Editor) StartConnection(id AnchorID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}

	if !e.gesture.Press(id) && e.selection != nil {
		e.selection.Suppress()
	}
}

// MoveCursor updates the pointer position of the active drag.
func (e *Editor) MoveCursor(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gesture.Move(x, y)
}

// FinishConnection releases the active drag over id and commits the edge when
// both anchors are live, belong to different entities and sit on opposite
// sides. The drag always ends. Reports whether a new edge was added.
func (e *Editor) FinishConnection(id AnchorID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	origin, ok := e.gesture.Release()
	if !ok {
		return false
	}
	e.restoreSelection()

	from, okFrom := e.registry.Get(origin)
	to, okTo := e.registry.Get(id)
	if !okFrom || !okTo {
		return false
	}

	c, ok := NormalizeDirection(from, to)
	if !ok {
		return false
	}

	return e.graph.Add(c)
}

// CancelConnection abandons the active drag, e.g. on release over empty space,
// Escape or window blur.
func (e *Editor) CancelConnection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gesture.Cancel() {
		e.restoreSelection()
	}
}

func (e *Editor) restoreSelection() {
	if e.selection != nil {
		e.selection.Restore()
	}
}

// Dragging returns the origin of the active drag.
func (e *Editor) Dragging() (AnchorID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture.Origin()
}

// Cursor returns the pointer position of the active drag.
func (e *Editor) Cursor() (Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture.Cursor()
}

// AddConnection adds the edge between two anchor ids without a gesture, normalizing
// its direction from the sides encoded in the ids. Reports whether an edge was added.
func (e *Editor) AddConnection(a, b AnchorID) bool {
	refA, sideA, errA := ParseAnchorID(a)
	refB, sideB, errB := ParseAnchorID(b)
	if errA != nil || errB != nil {
		return false
	}

	c, ok := NormalizeDirection(
		Anchor{ID: a, Side: sideA, Ref: refA},
		Anchor{ID: b, Side: sideB, Ref: refB},
	)
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return false
	}
	return e.graph.Add(c)
}

// RemoveConnection deletes the edge from -> to.
func (e *Editor) RemoveConnection(from, to AnchorID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.hovered != nil && e.hovered.From == from && e.hovered.To == to {
		e.hovered = nil
	}
	return e.graph.Remove(from, to) > 0
}

// Connections returns a copy of the current edges.
func (e *Editor) Connections() []Connection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Connections()
}

// Dirty reports whether there are unsaved edits.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Dirty()
}

// Diff returns the unsaved additions and removals.
func (e *Editor) Diff() (added, removed []Connection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Diff()
}

// SetHovered marks c as the connection under the pointer; nil clears it.
func (e *Editor) SetHovered(c *Connection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c == nil {
		e.hovered = nil
		return
	}
	hovered := *c
	e.hovered = &hovered
}

// Hovered returns the connection under the pointer.
func (e *Editor) Hovered() (Connection, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hovered == nil {
		return Connection{}, false
	}
	return *e.hovered, true
}

// ResetConnections discards unsaved edits and restores the links from the most
// recent load or save. Before the first load there is no baseline and it does nothing.
func (e *Editor) ResetConnections() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return
	}
	e.graph.Reset()
	e.hovered = nil
}

// Saving reports whether a save is in flight.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// Links maps every edge to its persisted record, resolving anchors through the
// live registry first and the entity catalog second. The result is validated.
func (e *Editor) Links() ([]models.Link, error) {
	e.mu.Lock()
	links := e.linksLocked()
	e.mu.Unlock()

	if err := models.ValidateLinks(links); err != nil {
		return nil, err
	}
	return links, nil
}

func (e *Editor) linksLocked() []models.Link {
	edges := e.graph.Connections()
	links := make([]models.Link, 0, len(edges))
	for _, c := range edges {
		source, _ := e.resolveLocked(c.From, SideSource)
		target, _ := e.resolveLocked(c.To, SideTarget)
		l := LinkFromRefs(source, target)
		l.ID = e.ids[c]
		links = append(links, l)
	}
	return links
}

func (e *Editor) resolveLocked(id AnchorID, side Side) (AnchorRef, bool) {
	if a, ok := e.registry.Get(id); ok {
		if a.Side != side {
			return AnchorRef{}, false
		}
		return a.Ref, true
	}

	ref, s, err := ParseAnchorID(id)
	if err != nil || s != side || !e.catalog[ref] {
		return AnchorRef{}, false
	}
	return ref, true
}

// SaveConnections validates the current edges and sends them to the store as a
// full replacement. On validation failure nothing is sent and no state
// changes. On a network failure the local edits are kept. Only one save may
// be in flight. Saving before a successful load fails with [shared.ErrNotLoaded]
// since the replacement would erase links the editor never saw.
func (e *Editor) SaveConnections(ctx context.Context) ([]models.Link, error) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return nil, shared.ErrDisposed
	}
	if e.store == nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: no link store configured", shared.ErrServiceUnavailable)
	}
	if e.saving {
		e.mu.Unlock()
		return nil, shared.ErrSaveInFlight
	}
	if !e.loaded {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: load links before saving", shared.ErrNotLoaded)
	}

	links := e.linksLocked()
	if err := models.ValidateLinks(links); err != nil {
		e.mu.Unlock()
		e.logger.Warn("refusing to save links", "error", err)
		return nil, err
	}

	e.saving = true
	rev := e.graph.Revision()
	store := e.store
	e.mu.Unlock()

	saved, err := store.SyncLinks(ctx, links)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false

	if err != nil {
		e.logger.Error("failed to save links", "error", err)
		return nil, fmt.Errorf("failed to save links: %w", err)
	}

	baseline, ids := e.connections(saved)
	e.ids = ids

	// edits made while the request was in flight stay in the buffer
	if e.graph.Revision() == rev {
		e.graph.Load(baseline)
	} else {
		e.graph.SetBaseline(baseline)
	}
	e.loaded = true

	e.logger.Info("links saved", "count", len(saved))
	return saved, nil
}

// SetVisible records the visibility of id directly, for hosts that compute
// intersection themselves instead of providing an [ObserveFunc].
func (e *Editor) SetVisible(id AnchorID, visible bool) bool {
	return e.tracker.Set(id, visible)
}

// Visible reports whether id is visible; ids never observed count as visible.
func (e *Editor) Visible(id AnchorID) bool {
	return e.tracker.Visible(id)
}

// HiddenCount returns how many partners of id are currently not visible.
func (e *Editor) HiddenCount(id AnchorID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	hidden := 0
	for _, partner := range e.graph.Partners(id) {
		if !e.tracker.Visible(partner) {
			hidden++
		}
	}
	return hidden
}

// TotalHidden returns how many connections have at least one end not visible.
func (e *Editor) TotalHidden() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totalHiddenLocked()
}

func (e *Editor) totalHiddenLocked() int {
	hidden := 0
	for _, c := range e.graph.Connections() {
		if !e.tracker.Visible(c.From) || !e.tracker.Visible(c.To) {
			hidden++
		}
	}
	return hidden
}
