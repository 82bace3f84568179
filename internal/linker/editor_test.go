package linker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/sortifyr/internal/models"
	"github.com/desertthunder/sortifyr/internal/shared"
	tu "github.com/desertthunder/sortifyr/internal/testing"
)

type fixture struct {
	editor    *Editor
	store     *tu.MockService
	observer  *manualObserver
	selection *fakeSelection
	elements  map[AnchorID]*fakeElement
	layouts   *atomic.Int32
}

func newFixture(t *testing.T, debounce time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		store:     &tu.MockService{},
		observer:  newManualObserver(),
		selection: &fakeSelection{},
		elements:  make(map[AnchorID]*fakeElement),
		layouts:   &atomic.Int32{},
	}
	f.editor = New(Options{
		Store:     f.store,
		Observe:   f.observer.observe,
		Selection: f.selection,
		Debounce:  debounce,
		OnLayout:  func(uint64) { f.layouts.Add(1) },
	})
	t.Cleanup(f.editor.Dispose)
	return f
}

// load installs the store's links so that saves are allowed.
func (f *fixture) load(t *testing.T) {
	t.Helper()
	if err := f.editor.Load(context.Background()); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
}

// mount registers ref on side with a fresh element placed by side.
func (f *fixture) mount(ref AnchorRef, side Side) AnchorID {
	id := NewAnchorID(ref, side)
	x := 0.0
	if side == SideTarget {
		x = 400
	}
	el := newElement(x, float64(len(f.elements))*30)
	f.elements[id] = el
	f.editor.RegisterAnchor(id, side, el, ref)
	return id
}

func (f *fixture) connect(t *testing.T, from, to AnchorID) bool {
	t.Helper()
	f.editor.StartConnection(from)
	f.editor.MoveCursor(200, 200)
	return f.editor.FinishConnection(to)
}

func countMatching(conns []Connection, want Connection) int {
	n := 0
	for _, c := range conns {
		if c == want {
			n++
		}
	}
	return n
}

func TestEditorGesture(t *testing.T) {
	t.Run("Drag Source To Target", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)

		if !f.connect(t, a, b) {
			t.Fatal("expected connection to be added")
		}
		if f.connect(t, a, b) {
			t.Error("expected duplicate connection to be ignored")
		}

		want := Connection{From: dirASource, To: dirBTarget}
		if n := countMatching(f.editor.Connections(), want); n != 1 {
			t.Errorf("expected exactly one %v, got %d", want, n)
		}
	})

	t.Run("Drag Target To Source Normalizes", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)

		f.connect(t, b, a)

		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0] != (Connection{From: a, To: b}) {
			t.Errorf("expected %s -> %s, got %v", a, b, conns)
		}
	})

	t.Run("Same Entity Is Rejected", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		aTarget := f.mount(dirA, SideTarget)

		if f.connect(t, a, aTarget) {
			t.Error("expected self link to be rejected")
		}
		if len(f.editor.Connections()) != 0 {
			t.Error("expected no connections")
		}
	})

	t.Run("Same Side Is Rejected", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		p := f.mount(plA, SideSource)
		b := f.mount(dirB, SideTarget)
		q := f.mount(plB, SideTarget)

		if f.connect(t, a, p) || f.connect(t, b, q) {
			t.Error("expected same-side links to be rejected")
		}
		if len(f.editor.Connections()) != 0 {
			t.Error("expected no connections")
		}
	})

	t.Run("Release Over Unmounted Anchor", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)

		if f.connect(t, a, dirBTarget) {
			t.Error("expected release over unknown anchor to be rejected")
		}
		if _, dragging := f.editor.Dragging(); dragging {
			t.Error("expected drag to end on release")
		}
	})

	t.Run("Release Without Drag", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		b := f.mount(dirB, SideTarget)

		if f.editor.FinishConnection(b) {
			t.Error("expected release without press to do nothing")
		}
	})

	t.Run("Selection Is Suppressed While Dragging", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		p := f.mount(plA, SideSource)
		b := f.mount(dirB, SideTarget)

		f.editor.StartConnection(a)
		f.editor.StartConnection(p)
		if s, r := f.selection.counts(); s != 1 || r != 0 {
			t.Errorf("expected 1 suppress and 0 restores while dragging, got %d/%d", s, r)
		}
		f.editor.FinishConnection(b)
		if s, r := f.selection.counts(); s != 1 || r != 1 {
			t.Errorf("expected 1 suppress and 1 restore, got %d/%d", s, r)
		}

		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0].From != p {
			t.Errorf("expected restarted drag to connect from %s, got %v", p, conns)
		}
	})

	t.Run("Cancel", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)

		f.editor.StartConnection(a)
		f.editor.CancelConnection()
		if f.editor.FinishConnection(b) {
			t.Error("expected release after cancel to do nothing")
		}
		if _, r := f.selection.counts(); r != 1 {
			t.Errorf("expected selection restored once, got %d", r)
		}
	})
}

func TestEditorConnections(t *testing.T) {
	t.Run("Add By ID", func(t *testing.T) {
		f := newFixture(t, time.Hour)

		if !f.editor.AddConnection(dirBTarget, dirASource) {
			t.Fatal("expected add to succeed")
		}
		if f.editor.AddConnection(dirASource, dirBTarget) {
			t.Error("expected duplicate add to be ignored")
		}
		if f.editor.AddConnection(dirASource, dirATarget) {
			t.Error("expected self link to be rejected")
		}
		if f.editor.AddConnection("bogus", dirATarget) {
			t.Error("expected malformed id to be rejected")
		}

		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0] != (Connection{From: dirASource, To: dirBTarget}) {
			t.Errorf("unexpected connections %v", conns)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.editor.AddConnection(dirASource, dirBTarget)
		f.editor.AddConnection(dirASource, plATarget)

		hovered := Connection{From: dirASource, To: dirBTarget}
		f.editor.SetHovered(&hovered)

		if !f.editor.RemoveConnection(dirASource, dirBTarget) {
			t.Error("expected remove to succeed")
		}
		if f.editor.RemoveConnection(dirASource, dirBTarget) {
			t.Error("expected second remove to be a no-op")
		}
		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0].To != plATarget {
			t.Errorf("expected other connection to remain, got %v", conns)
		}
		if _, ok := f.editor.Hovered(); ok {
			t.Error("expected hover to clear with its connection")
		}
	})

	t.Run("Load And Reset", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.store.Links = []models.Link{
			{ID: 1, SourceDirectoryID: 1, TargetDirectoryID: 2},
			{ID: 2, SourcePlaylistID: 10, TargetDirectoryID: 2},
			{ID: 3, SourceDirectoryID: 1},
		}

		if err := f.editor.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.editor.Loaded() {
			t.Error("expected editor to be loaded")
		}
		if got := len(f.editor.Connections()); got != 2 {
			t.Fatalf("expected incomplete link skipped, got %d connections", got)
		}

		f.editor.AddConnection(dirASource, plBTarget)
		f.editor.RemoveConnection(dirASource, dirBTarget)
		if !f.editor.Dirty() {
			t.Error("expected editor to be dirty")
		}

		f.editor.ResetConnections()
		conns := f.editor.Connections()
		want := []Connection{{From: dirASource, To: dirBTarget}, {From: plASource, To: dirBTarget}}
		if len(conns) != len(want) || conns[0] != want[0] || conns[1] != want[1] {
			t.Errorf("expected %v after reset, got %v", want, conns)
		}
		if f.editor.Dirty() {
			t.Error("expected editor to be clean after reset")
		}
	})

	t.Run("Load Failure", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.store.GetErr = errors.New("boom")

		if err := f.editor.Load(context.Background()); err == nil {
			t.Error("expected error")
		}
		if f.editor.Loaded() {
			t.Error("expected editor not to be loaded")
		}
	})

	t.Run("Reset Before Load", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.editor.AddConnection(dirASource, dirBTarget)

		f.editor.ResetConnections()
		if got := len(f.editor.Connections()); got != 1 {
			t.Errorf("expected reset before load to keep edits, got %d connections", got)
		}
	})

	t.Run("Prefetched Links", func(t *testing.T) {
		f := newFixture(t, time.Hour)

		err := f.editor.LoadLinks([]models.Link{
			{ID: 4, SourceDirectoryID: 1, TargetDirectoryID: 2},
			{ID: 5, SourceDirectoryID: 1, TargetDirectoryID: 2},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !f.editor.Loaded() {
			t.Error("expected editor to be loaded")
		}
		if f.editor.Dirty() {
			t.Error("expected editor to be clean")
		}
		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0] != (Connection{From: dirASource, To: dirBTarget}) {
			t.Errorf("expected duplicate link collapsed, got %v", conns)
		}

		f.editor.SetTree([]models.Directory{{ID: 1, Children: []models.Directory{{ID: 2}}}}, nil)
		if _, err := f.editor.SaveConnections(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.store.Synced[0][0].ID != 4 {
			t.Errorf("expected stored id 4 to be kept, got %+v", f.store.Synced[0][0])
		}
	})
}

func TestEditorSave(t *testing.T) {
	t.Run("Replaces Connections With Stored Links", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.store.Links = []models.Link{{ID: 7, SourceDirectoryID: 1, TargetDirectoryID: 2}}
		if err := f.editor.Load(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		f.mount(dirA, SideSource)
		f.mount(dirB, SideTarget)
		f.mount(plA, SideTarget)
		f.editor.AddConnection(dirASource, plATarget)

		saved, err := f.editor.SaveConnections(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(saved) != 2 {
			t.Fatalf("expected 2 stored links, got %d", len(saved))
		}

		sent := f.store.Synced[0]
		if sent[0] != (models.Link{ID: 7, SourceDirectoryID: 1, TargetDirectoryID: 2}) {
			t.Errorf("expected existing link to keep its id, got %+v", sent[0])
		}
		if sent[1] != (models.Link{SourceDirectoryID: 1, TargetPlaylistID: 10}) {
			t.Errorf("expected new link without id, got %+v", sent[1])
		}
		if f.editor.Dirty() {
			t.Error("expected editor to be clean after save")
		}
	})

	t.Run("Unresolvable Anchor Fails Validation", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.load(t)
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)
		f.connect(t, a, b)

		f.editor.RegisterAnchor(b, SideTarget, nil, dirB)

		_, err := f.editor.SaveConnections(context.Background())
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if f.store.SyncCount() != 0 {
			t.Error("expected no network call")
		}
		conns := f.editor.Connections()
		if len(conns) != 1 || conns[0] != (Connection{From: a, To: b}) {
			t.Errorf("expected connections unchanged, got %v", conns)
		}
		if f.editor.Saving() {
			t.Error("expected no save in flight")
		}
	})

	t.Run("Catalog Resolves Unmounted Anchors", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.load(t)
		f.editor.SetTree(
			[]models.Directory{{ID: 1, Children: []models.Directory{{ID: 2}}}},
			[]models.Playlist{{ID: 10}},
		)
		f.editor.AddConnection(dirASource, dirBTarget)
		f.editor.AddConnection(plASource, dirBTarget)

		if _, err := f.editor.SaveConnections(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.store.SyncCount() != 1 {
			t.Errorf("expected 1 sync, got %d", f.store.SyncCount())
		}
	})

	t.Run("Network Failure Keeps Edits", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.load(t)
		f.store.SyncErr = errors.New("connection refused")
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)
		f.connect(t, a, b)

		if _, err := f.editor.SaveConnections(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if len(f.editor.Connections()) != 1 {
			t.Error("expected local edits to be kept")
		}
		if !f.editor.Dirty() {
			t.Error("expected editor to stay dirty")
		}
		if f.editor.Saving() {
			t.Error("expected save flag to clear")
		}
	})

	t.Run("One Save In Flight", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.load(t)
		f.store.Gate = make(chan struct{})
		a := f.mount(dirA, SideSource)
		b := f.mount(dirB, SideTarget)
		f.mount(plA, SideTarget)
		f.connect(t, a, b)

		done := make(chan error, 1)
		go func() {
			_, err := f.editor.SaveConnections(context.Background())
			done <- err
		}()

		deadline := time.Now().Add(time.Second)
		for !f.editor.Saving() {
			if time.Now().After(deadline) {
				t.Fatal("save never started")
			}
			time.Sleep(time.Millisecond)
		}

		if _, err := f.editor.SaveConnections(context.Background()); !errors.Is(err, shared.ErrSaveInFlight) {
			t.Errorf("expected ErrSaveInFlight, got %v", err)
		}

		f.editor.AddConnection(dirASource, plATarget)
		close(f.store.Gate)

		if err := <-done; err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := len(f.editor.Connections()); got != 2 {
			t.Errorf("expected edit made during save to survive, got %d connections", got)
		}
		if !f.editor.Dirty() {
			t.Error("expected the in-flight edit to be unsaved")
		}
	})

	t.Run("Requires Load", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.store.Links = []models.Link{{ID: 1, SourceDirectoryID: 1, TargetDirectoryID: 2}}

		if _, err := f.editor.SaveConnections(context.Background()); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
		if f.store.SyncCount() != 0 {
			t.Errorf("expected no sync, got %d", f.store.SyncCount())
		}
		if len(f.store.Links) != 1 {
			t.Errorf("expected stored links untouched, got %v", f.store.Links)
		}
	})

	t.Run("Failed Load Blocks Save", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		f.store.Links = []models.Link{{ID: 1, SourceDirectoryID: 1, TargetDirectoryID: 2}}
		f.store.GetErr = errors.New("connection refused")

		if err := f.editor.Load(context.Background()); err == nil {
			t.Fatal("expected load error")
		}
		f.store.GetErr = nil

		if _, err := f.editor.SaveConnections(context.Background()); !errors.Is(err, shared.ErrNotLoaded) {
			t.Errorf("expected ErrNotLoaded, got %v", err)
		}
		if f.store.SyncCount() != 0 {
			t.Errorf("expected no sync, got %d", f.store.SyncCount())
		}
		if f.editor.Saving() {
			t.Error("expected no save in flight")
		}

		f.load(t)
		if got := len(f.editor.Connections()); got != 1 {
			t.Errorf("expected retried load to restore 1 connection, got %d", got)
		}
	})

	t.Run("No Store", func(t *testing.T) {
		e := New(Options{})
		defer e.Dispose()

		if _, err := e.SaveConnections(context.Background()); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestEditorVisibility(t *testing.T) {
	t.Run("Unmount Keeps Visibility", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		f.observer.set(f.elements[a], false)

		f.editor.RegisterAnchor(a, SideSource, nil, dirA)

		if _, ok := f.editor.Anchor(a); ok {
			t.Error("expected anchor removed from registry")
		}
		if f.editor.Visible(a) {
			t.Error("expected hidden state to be retained")
		}
		if _, detached := f.observer.counts(); detached != 1 {
			t.Errorf("expected observer disconnected, got %d", detached)
		}
	})

	t.Run("First Registration Wins", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		first := f.elements[a]

		f.editor.RegisterAnchor(a, SideSource, newElement(999, 999), dirA)

		live, _ := f.editor.Anchor(a)
		if live.Element != first {
			t.Error("expected first element to stay registered")
		}
		if attached, _ := f.observer.counts(); attached != 1 {
			t.Errorf("expected one observation, got %d", attached)
		}
	})

	t.Run("Hidden Counts", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		a := f.mount(dirA, SideSource)
		p := f.mount(plA, SideSource)
		b := f.mount(dirB, SideTarget)
		q := f.mount(plA, SideTarget)
		f.editor.AddConnection(a, b)
		f.editor.AddConnection(a, q)
		f.editor.AddConnection(p, b)

		f.observer.set(f.elements[q], false)

		if got := f.editor.HiddenCount(a); got != 1 {
			t.Errorf("expected 1 hidden partner for %s, got %d", a, got)
		}
		if got := f.editor.HiddenCount(b); got != 0 {
			t.Errorf("expected no hidden partners for %s, got %d", b, got)
		}
		if got := f.editor.TotalHidden(); got != 1 {
			t.Errorf("expected 1 hidden connection, got %d", got)
		}

		f.editor.SetVisible(a, false)
		if got := f.editor.TotalHidden(); got != 2 {
			t.Errorf("expected 2 hidden connections, got %d", got)
		}
		if got := f.editor.HiddenCount(b); got != 1 {
			t.Errorf("expected 1 hidden partner for %s, got %d", b, got)
		}
	})

	t.Run("Rapid Flips Bump Once", func(t *testing.T) {
		f := newFixture(t, 20*time.Millisecond)
		a := f.mount(dirA, SideSource)
		f.editor.FlushLayout()
		before := f.editor.LayoutVersion()

		el := f.elements[a]
		f.observer.set(el, false)
		f.observer.set(el, true)
		f.observer.set(el, false)

		time.Sleep(150 * time.Millisecond)

		if got := f.editor.LayoutVersion(); got != before+1 {
			t.Errorf("expected version %d, got %d", before+1, got)
		}
	})

	t.Run("Viewport Change Bumps Immediately", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		before := f.editor.LayoutVersion()

		f.editor.ViewportChanged()

		if got := f.editor.LayoutVersion(); got != before+1 {
			t.Errorf("expected version %d, got %d", before+1, got)
		}
		if got := f.layouts.Load(); got != 1 {
			t.Errorf("expected 1 layout callback, got %d", got)
		}
	})

	t.Run("Connections Do Not Bump Layout", func(t *testing.T) {
		f := newFixture(t, time.Hour)
		before := f.editor.LayoutVersion()

		f.editor.AddConnection(dirASource, dirBTarget)
		f.editor.RemoveConnection(dirASource, dirBTarget)

		if f.editor.LayoutVersion() != before {
			t.Error("expected graph edits to leave the layout version alone")
		}
	})
}

func TestEditorScene(t *testing.T) {
	f := newFixture(t, time.Hour)
	a := f.mount(dirA, SideSource)
	b := f.mount(dirB, SideTarget)
	f.editor.AddConnection(a, b)
	f.editor.AddConnection(a, plBTarget)

	hovered := Connection{From: a, To: b}
	f.editor.SetHovered(&hovered)

	scene := f.editor.Scene()
	if scene.Total != 2 {
		t.Errorf("expected 2 connections, got %d", scene.Total)
	}
	if len(scene.Curves) != 1 {
		t.Fatalf("expected only mounted connections drawn, got %d", len(scene.Curves))
	}

	c := scene.Curves[0]
	want := Between(f.elements[a].Bounds().Center(), f.elements[b].Bounds().Center())
	if c.Path != want {
		t.Errorf("expected %v, got %v", want, c.Path)
	}
	if !c.Hovered || !c.Visible {
		t.Errorf("expected hovered visible curve, got %+v", c)
	}
	if scene.Pending != nil {
		t.Error("expected no pending curve while idle")
	}

	t.Run("Follows Element Bounds", func(t *testing.T) {
		f.elements[b].moveTo(500, 300)
		got := f.editor.Scene().Curves[0].Path
		if got.End != f.elements[b].Bounds().Center() {
			t.Errorf("expected curve to end at %v, got %v", f.elements[b].Bounds().Center(), got.End)
		}
	})

	t.Run("Pending Curve", func(t *testing.T) {
		f.editor.StartConnection(a)
		if f.editor.Scene().Pending != nil {
			t.Error("expected no pending curve before the pointer moves")
		}
		f.editor.MoveCursor(250, 80)
		pending := f.editor.Scene().Pending
		if pending == nil {
			t.Fatal("expected pending curve")
		}
		if pending.End != (Point{X: 250, Y: 80}) {
			t.Errorf("expected pending curve to end at cursor, got %v", pending.End)
		}
		f.editor.CancelConnection()
	})
}

func TestEditorDispose(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	a := f.mount(dirA, SideSource)
	f.mount(dirB, SideTarget)
	f.editor.StartConnection(a)

	f.editor.Dispose()

	if _, r := f.selection.counts(); r != 1 {
		t.Errorf("expected selection restored on dispose, got %d", r)
	}
	if _, detached := f.observer.counts(); detached != 2 {
		t.Errorf("expected all observers disconnected, got %d", detached)
	}

	before := f.editor.LayoutVersion()
	f.editor.RegisterAnchor(plASource, SideSource, newElement(0, 0), plA)
	time.Sleep(50 * time.Millisecond)
	if f.editor.LayoutVersion() != before {
		t.Error("expected no layout updates after dispose")
	}
	if _, err := f.editor.SaveConnections(context.Background()); !errors.Is(err, shared.ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
}
