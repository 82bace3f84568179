package linker

// Connection is a directed edge from a source-side anchor to a target-side anchor.
type Connection struct {
	From AnchorID `json:"from"`
	To   AnchorID `json:"to"`
}

func (c Connection) String() string {
	return string(c.From) + " -> " + string(c.To)
}

// Graph is the edit buffer of connections plus the baseline last loaded from
// or saved to the backend.
//
// Edges keep insertion order and never contain duplicates. It is not safe for
// concurrent use; [Editor] serializes access.
type Graph struct {
	edges    []Connection
	baseline []Connection
	rev      uint64
}

// NewGraph creates an empty [Graph].
func NewGraph() *Graph {
	return &Graph{}
}

// Add appends c unless an identical edge exists. Reports whether c was added.
func (g *Graph) Add(c Connection) bool {
	if g.Has(c.From, c.To) {
		return false
	}
	g.edges = append(g.edges, c)
	g.rev++
	return true
}

// Remove deletes every edge matching from and to and returns how many were removed.
func (g *Graph) Remove(from, to AnchorID) int {
	kept := g.edges[:0]
	removed := 0
	for _, c := range g.edges {
		if c.From == from && c.To == to {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	g.edges = kept
	if removed > 0 {
		g.rev++
	}
	return removed
}

// Load replaces both the baseline and the edit buffer with conns.
func (g *Graph) Load(conns []Connection) {
	g.baseline = dedup(conns)
	g.edges = append([]Connection(nil), g.baseline...)
	g.rev++
}

// SetBaseline replaces the baseline and keeps the edit buffer.
func (g *Graph) SetBaseline(conns []Connection) {
	g.baseline = dedup(conns)
}

// Reset discards unsaved edits by restoring the baseline.
func (g *Graph) Reset() {
	g.edges = append([]Connection(nil), g.baseline...)
	g.rev++
}

// Connections returns a copy of the current edges.
func (g *Graph) Connections() []Connection {
	return append([]Connection{}, g.edges...)
}

// Baseline returns a copy of the baseline edges.
func (g *Graph) Baseline() []Connection {
	return append([]Connection{}, g.baseline...)
}

// Has reports whether the edge from -> to exists.
func (g *Graph) Has(from, to AnchorID) bool {
	for _, c := range g.edges {
		if c.From == from && c.To == to {
			return true
		}
	}
	return false
}

// Len returns the number of edges.
func (g *Graph) Len() int {
	return len(g.edges)
}

// Revision changes on every mutation of the edit buffer.
func (g *Graph) Revision() uint64 {
	return g.rev
}

// Partners returns the anchors connected to id: targets when id is a source
// and sources when id is a target.
func (g *Graph) Partners(id AnchorID) []AnchorID {
	var partners []AnchorID
	for _, c := range g.edges {
		switch id {
		case c.From:
			partners = append(partners, c.To)
		case c.To:
			partners = append(partners, c.From)
		}
	}
	return partners
}

// Diff returns the edges added to and removed from the baseline.
func (g *Graph) Diff() (added, removed []Connection) {
	base := make(map[Connection]bool, len(g.baseline))
	for _, c := range g.baseline {
		base[c] = true
	}
	current := make(map[Connection]bool, len(g.edges))
	for _, c := range g.edges {
		current[c] = true
		if !base[c] {
			added = append(added, c)
		}
	}
	for _, c := range g.baseline {
		if !current[c] {
			removed = append(removed, c)
		}
	}
	return added, removed
}

// Dirty reports whether the edit buffer differs from the baseline.
func (g *Graph) Dirty() bool {
	added, removed := g.Diff()
	return len(added) > 0 || len(removed) > 0
}

func dedup(conns []Connection) []Connection {
	seen := make(map[Connection]bool, len(conns))
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
