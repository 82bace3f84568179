package ui

import (
	"sync"

	"github.com/desertthunder/sortifyr/internal/linker"
)

// rowElement is the anchor cell of one row in one column. Its bounds follow
// the row as the tree folds and scrolls.
type rowElement struct {
	m     *Model
	side  linker.Side
	index int
}

// Bounds places the cell in terminal cells relative to the top of the list.
// A row folded away reports a line far above the viewport.
func (el *rowElement) Bounds() linker.Rect {
	line, ok := el.m.lines[el.index]
	if !ok {
		line = -1 << 20
	}

	x := float64(el.m.columnWidth() - 1)
	if el.side == linker.SideTarget {
		x = float64(el.m.columnWidth() + gutterWidth)
	}
	return linker.Rect{X: x, Y: float64(line - el.m.offset), Width: 1, Height: 1}
}

// viewportObserver reports whether elements intersect the list viewport. It
// is re-evaluated after every scroll, fold or resize.
type viewportObserver struct {
	mu      sync.Mutex
	watches map[*watch]struct{}
	height  func() int
}

type watch struct {
	o        *viewportObserver
	el       linker.Element
	onChange func(visible bool)
}

func newViewportObserver(height func() int) *viewportObserver {
	return &viewportObserver{watches: make(map[*watch]struct{}), height: height}
}

func (o *viewportObserver) inView(el linker.Element) bool {
	y := el.Bounds().Y
	return y >= 0 && y < float64(o.height())
}

// observe implements [linker.ObserveFunc]. The initial state is reported synchronously.
func (o *viewportObserver) observe(el linker.Element, onChange func(bool)) linker.Observer {
	w := &watch{o: o, el: el, onChange: onChange}
	o.mu.Lock()
	o.watches[w] = struct{}{}
	o.mu.Unlock()

	onChange(o.inView(el))
	return w
}

// refresh reports the current state of every watched element.
func (o *viewportObserver) refresh() {
	o.mu.Lock()
	watches := make([]*watch, 0, len(o.watches))
	for w := range o.watches {
		watches = append(watches, w)
	}
	o.mu.Unlock()

	for _, w := range watches {
		w.onChange(o.inView(w.el))
	}
}

func (o *viewportObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watches)
}

func (w *watch) Disconnect() {
	w.o.mu.Lock()
	delete(w.o.watches, w)
	w.o.mu.Unlock()
}
