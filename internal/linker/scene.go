package linker

// Curve is one connection ready to draw.
type Curve struct {
	Connection Connection
	Path       Path
	// Visible is false when either end is scrolled out of view; renderers fade such curves out.
	Visible bool
	Hovered bool
}

// Scene is everything a renderer needs to draw the connection overlay.
type Scene struct {
	Version uint64
	Curves  []Curve
	// Pending is the in-progress curve from the drag origin to the pointer.
	Pending *Path
	// Total and Hidden feed the "N connections" and "N hidden" badges.
	Total  int
	Hidden int
}

// Scene computes curve geometry from the current element bounds. Connections
// with an end that is not mounted are counted but not drawn.
func (e *Editor) Scene() Scene {
	e.mu.Lock()
	defer e.mu.Unlock()

	scene := Scene{
		Version: e.version.Load(),
		Total:   e.graph.Len(),
		Hidden:  e.totalHiddenLocked(),
	}

	for _, c := range e.graph.Connections() {
		from, okFrom := e.registry.Get(c.From)
		to, okTo := e.registry.Get(c.To)
		if !okFrom || !okTo {
			continue
		}
		p1, ok1 := from.Center()
		p2, ok2 := to.Center()
		if !ok1 || !ok2 {
			continue
		}

		scene.Curves = append(scene.Curves, Curve{
			Connection: c,
			Path:       Between(p1, p2),
			Visible:    e.tracker.Visible(c.From) && e.tracker.Visible(c.To),
			Hovered:    e.hovered != nil && *e.hovered == c,
		})
	}

	if origin, ok := e.gesture.Origin(); ok {
		if cursor, ok := e.gesture.Cursor(); ok {
			if a, ok := e.registry.Get(origin); ok {
				if start, ok := a.Center(); ok {
					pending := Between(start, cursor)
					scene.Pending = &pending
				}
			}
		}
	}

	return scene
}
