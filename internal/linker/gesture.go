package linker

// GestureState is the state of the drag-to-connect interaction.
type GestureState int

const (
	Idle GestureState = iota
	Dragging
)

func (s GestureState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Gesture tracks a single press-move-release interaction.
//
// It is not safe for concurrent use; [Editor] serializes access.
type Gesture struct {
	state  GestureState
	origin AnchorID
	cursor *Point
}

// Press starts dragging from id. A press while already dragging abandons the
// previous drag and starts over; the return value reports that case.
func (g *Gesture) Press(id AnchorID) (restarted bool) {
	restarted = g.state == Dragging
	g.state = Dragging
	g.origin = id
	g.cursor = nil
	return restarted
}

// Move records the pointer position. Ignored while idle.
func (g *Gesture) Move(x, y float64) bool {
	if g.state != Dragging {
		return false
	}
	g.cursor = &Point{X: x, Y: y}
	return true
}

// Release ends the drag and returns its origin. The gesture is idle afterwards.
func (g *Gesture) Release() (AnchorID, bool) {
	if g.state != Dragging {
		return "", false
	}
	origin := g.origin
	g.reset()
	return origin, true
}

// Cancel abandons the drag. Reports whether one was active.
func (g *Gesture) Cancel() bool {
	if g.state != Dragging {
		return false
	}
	g.reset()
	return true
}

// State returns the current state.
func (g *Gesture) State() GestureState { return g.state }

// Origin returns the anchor the drag started from.
func (g *Gesture) Origin() (AnchorID, bool) {
	return g.origin, g.state == Dragging
}

// Cursor returns the last pointer position of the drag.
func (g *Gesture) Cursor() (Point, bool) {
	if g.state != Dragging || g.cursor == nil {
		return Point{}, false
	}
	return *g.cursor, true
}

func (g *Gesture) reset() {
	g.state = Idle
	g.origin = ""
	g.cursor = nil
}

// NormalizeDirection builds the edge between a and b with From on the source
// side and To on the target side, whichever anchor the drag started on.
// It fails for anchors on the same side and for two sides of the same entity.
func NormalizeDirection(a, b Anchor) (Connection, bool) {
	if a.Ref.IsZero() || b.Ref.IsZero() || a.Ref == b.Ref {
		return Connection{}, false
	}

	switch {
	case a.Side == SideSource && b.Side == SideTarget:
		return Connection{From: a.ID, To: b.ID}, true
	case a.Side == SideTarget && b.Side == SideSource:
		return Connection{From: b.ID, To: a.ID}, true
	default:
		return Connection{}, false
	}
}
