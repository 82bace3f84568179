package linker

import (
	"sync"
)

type fakeElement struct {
	mu   sync.Mutex
	rect Rect
}

func newElement(x, y float64) *fakeElement {
	return &fakeElement{rect: Rect{X: x, Y: y, Width: 100, Height: 20}}
}

func (f *fakeElement) Bounds() Rect {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rect
}

func (f *fakeElement) moveTo(x, y float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rect.X, f.rect.Y = x, y
}

// manualObserver hands out observations whose visibility the test flips by hand.
type manualObserver struct {
	mu        sync.Mutex
	callbacks map[Element]func(bool)
	attached  int
	detached  int
}

func newManualObserver() *manualObserver {
	return &manualObserver{callbacks: make(map[Element]func(bool))}
}

type manualObservation struct {
	m  *manualObserver
	el Element
}

func (o *manualObservation) Disconnect() {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	delete(o.m.callbacks, o.el)
	o.m.detached++
}

func (m *manualObserver) observe(el Element, onChange func(bool)) Observer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[el] = onChange
	m.attached++
	return &manualObservation{m: m, el: el}
}

func (m *manualObserver) set(el Element, visible bool) bool {
	m.mu.Lock()
	cb, ok := m.callbacks[el]
	m.mu.Unlock()
	if ok {
		cb(visible)
	}
	return ok
}

func (m *manualObserver) counts() (attached, detached int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached, m.detached
}

type fakeSelection struct {
	mu         sync.Mutex
	suppressed int
	restored   int
}

func (f *fakeSelection) Suppress() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suppressed++
}

func (f *fakeSelection) Restore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored++
}

func (f *fakeSelection) counts() (suppressed, restored int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.suppressed, f.restored
}

var (
	dirA = DirectoryRef(1)
	dirB = DirectoryRef(2)
	plA  = PlaylistRef(10)
	plB  = PlaylistRef(11)

	dirASource = NewAnchorID(dirA, SideSource)
	dirATarget = NewAnchorID(dirA, SideTarget)
	dirBSource = NewAnchorID(dirB, SideSource)
	dirBTarget = NewAnchorID(dirB, SideTarget)
	plASource  = NewAnchorID(plA, SideSource)
	plATarget  = NewAnchorID(plA, SideTarget)
	plBTarget  = NewAnchorID(plB, SideTarget)
)
