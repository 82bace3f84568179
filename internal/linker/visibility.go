package linker

import "sync"

// Observer is an attached visibility observation for one element.
//
// Disconnect must not call back into the [Editor].
type Observer interface {
	Disconnect()
}

// ObserveFunc starts observing el and calls onChange with its viewport
// intersection state whenever the state may have changed. onChange may be
// called from any goroutine, including synchronously from ObserveFunc.
type ObserveFunc func(el Element, onChange func(visible bool)) Observer

type observation struct {
	observer Observer
}

// Tracker keeps the visibility flag of every anchor id it has seen.
//
// Flags outlive the anchors: detaching an observer keeps the last known
// state. Ids never observed are reported visible.
type Tracker struct {
	mu        sync.Mutex
	visible   map[AnchorID]bool
	observers map[AnchorID]*observation
	observe   ObserveFunc
	onChange  func()
}

// NewTracker creates a [Tracker]. onChange runs, with no lock held, after
// every visibility transition. observe may be nil, in which case state only
// changes through [Tracker.Set].
func NewTracker(observe ObserveFunc, onChange func()) *Tracker {
	return &Tracker{
		visible:   make(map[AnchorID]bool),
		observers: make(map[AnchorID]*observation),
		observe:   observe,
		onChange:  onChange,
	}
}

// Attach starts observing el for id unless id is already observed.
// Reports whether a new observation was started.
func (t *Tracker) Attach(id AnchorID, el Element) bool {
	t.mu.Lock()
	if _, ok := t.observers[id]; ok || t.observe == nil || el == nil {
		t.mu.Unlock()
		return false
	}
	obs := &observation{}
	t.observers[id] = obs
	t.mu.Unlock()

	observer := t.observe(el, func(visible bool) { t.report(id, obs, visible) })

	t.mu.Lock()
	if t.observers[id] == obs {
		obs.observer = observer
		t.mu.Unlock()
		return true
	}
	t.mu.Unlock()

	// detached while the observation was being set up
	if observer != nil {
		observer.Disconnect()
	}
	return true
}

// Detach stops observing id. The last known visibility is kept.
func (t *Tracker) Detach(id AnchorID) {
	t.mu.Lock()
	obs, ok := t.observers[id]
	delete(t.observers, id)
	t.mu.Unlock()

	if ok && obs.observer != nil {
		obs.observer.Disconnect()
	}
}

// Observed reports whether id currently has an attached observer.
func (t *Tracker) Observed(id AnchorID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.observers[id]
	return ok
}

func (t *Tracker) report(id AnchorID, obs *observation, visible bool) {
	t.mu.Lock()
	if t.observers[id] != obs {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.Set(id, visible)
}

// Set records the visibility of id. Reports whether it changed.
func (t *Tracker) Set(id AnchorID, visible bool) bool {
	t.mu.Lock()
	prev, known := t.visible[id]
	if known && prev == visible {
		t.mu.Unlock()
		return false
	}
	t.visible[id] = visible
	t.mu.Unlock()

	// an unknown id already counted as visible
	if !known && visible {
		return false
	}

	if t.onChange != nil {
		t.onChange()
	}
	return true
}

// Visible reports the last known visibility of id, true when unknown.
func (t *Tracker) Visible(id AnchorID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.visible[id]
	return !ok || v
}

// Known reports whether a visibility state was ever recorded for id.
func (t *Tracker) Known(id AnchorID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.visible[id]
	return ok
}

// Close disconnects every observer.
func (t *Tracker) Close() {
	t.mu.Lock()
	observers := t.observers
	t.observers = make(map[AnchorID]*observation)
	t.mu.Unlock()

	for _, obs := range observers {
		if obs.observer != nil {
			obs.observer.Disconnect()
		}
	}
}
