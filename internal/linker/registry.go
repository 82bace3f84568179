package linker

import "sort"

// Registry holds the live anchors keyed by id.
//
// It is not safe for concurrent use; [Editor] serializes access.
type Registry struct {
	anchors map[AnchorID]Anchor
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{anchors: make(map[AnchorID]Anchor)}
}

// Register stores a unless an anchor with the same id is already live, in which
// case the first registration wins. Reports whether a was stored.
func (r *Registry) Register(a Anchor) bool {
	if _, ok := r.anchors[a.ID]; ok {
		return false
	}
	r.anchors[a.ID] = a
	return true
}

// Unregister removes the live anchor with id and returns it.
func (r *Registry) Unregister(id AnchorID) (Anchor, bool) {
	a, ok := r.anchors[id]
	if ok {
		delete(r.anchors, id)
	}
	return a, ok
}

// Get returns the live anchor with id.
func (r *Registry) Get(id AnchorID) (Anchor, bool) {
	a, ok := r.anchors[id]
	return a, ok
}

// Len returns the number of live anchors.
func (r *Registry) Len() int {
	return len(r.anchors)
}

// IDs returns the ids of all live anchors in sorted order.
func (r *Registry) IDs() []AnchorID {
	ids := make([]AnchorID, 0, len(r.anchors))
	for id := range r.anchors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
