// Package gesture models pointer-driven drag interactions as explicit
// finite-state machines.
//
// Each controller owns a Tracker for its gesture kind; the shared Arbiter
// enforces that only one gesture is active at a time. A press starts in
// StatePending; the gesture only becomes StateDragging once the pointer
// moves at least Threshold logical pixels from the press position, so a
// press-release with little movement resolves as a click.
package gesture

import "sync"

// Threshold is the logical-pixel movement distinguishing a click from a
// drag start. The observed contract is "a few pixels"; 4 is the fixed
// value used throughout the engine and it may be overridden per tracker.
const Threshold = 4

// Kind identifies a gesture owner.
type Kind uint8

const (
	// KindNone means no gesture.
	KindNone Kind = iota
	// KindSelect is a cell-selection rectangle drag.
	KindSelect
	// KindResize is a column-boundary resize drag.
	KindResize
	// KindReorder is a row/column grip reorder drag.
	KindReorder
	// KindAddRemove is an add/remove-button quantized drag.
	KindAddRemove
)

// String returns the gesture kind name.
func (k Kind) String() string {
	switch k {
	case KindSelect:
		return "select"
	case KindResize:
		return "resize"
	case KindReorder:
		return "reorder"
	case KindAddRemove:
		return "add-remove"
	default:
		return "none"
	}
}

// State is a tracker's lifecycle state.
type State uint8

const (
	// StateIdle means no pointer is held.
	StateIdle State = iota
	// StatePending means the pointer is down but below the drag threshold.
	StatePending
	// StateDragging means the drag threshold was crossed.
	StateDragging
)

// Point is a logical-pixel coordinate.
type Point struct {
	X int
	Y int
}

// Distance returns the Manhattan distance (|dx| + |dy|) to another point.
// Manhattan distance is cheap and close enough for threshold detection.
func (p Point) Distance(other Point) int {
	dx := p.X - other.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - other.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Tracker is the drag FSM for one gesture kind.
type Tracker struct {
	kind      Kind
	state     State
	threshold int
	start     Point
	current   Point
}

// NewTracker creates an idle tracker for the given kind.
func NewTracker(kind Kind) *Tracker {
	return &Tracker{kind: kind, threshold: Threshold}
}

// SetThreshold overrides the drag threshold. Values below 1 keep the
// default.
func (t *Tracker) SetThreshold(px int) {
	if px >= 1 {
		t.threshold = px
	}
}

// Kind returns the tracker's gesture kind.
func (t *Tracker) Kind() Kind { return t.kind }

// State returns the current lifecycle state.
func (t *Tracker) State() State { return t.state }

// Start returns the press position.
func (t *Tracker) Start() Point { return t.start }

// Current returns the latest pointer position.
func (t *Tracker) Current() Point { return t.current }

// Delta returns the displacement from the press position.
func (t *Tracker) Delta() Point {
	return Point{X: t.current.X - t.start.X, Y: t.current.Y - t.start.Y}
}

// Press begins a pending gesture at pos.
func (t *Tracker) Press(pos Point) {
	t.state = StatePending
	t.start = pos
	t.current = pos
}

// Move updates the pointer position. It returns true exactly once, on the
// transition from StatePending to StateDragging.
func (t *Tracker) Move(pos Point) bool {
	switch t.state {
	case StateIdle:
		return false
	case StatePending:
		t.current = pos
		if t.start.Distance(pos) >= t.threshold {
			t.state = StateDragging
			return true
		}
		return false
	default:
		t.current = pos
		return false
	}
}

// Release ends the gesture and reports whether it had become a drag. A
// release out of StatePending is a click.
func (t *Tracker) Release() (wasDrag bool) {
	wasDrag = t.state == StateDragging
	t.state = StateIdle
	return wasDrag
}

// Cancel aborts the gesture without commit semantics.
func (t *Tracker) Cancel() {
	t.state = StateIdle
}

// Active reports whether a pointer is held (pending or dragging).
func (t *Tracker) Active() bool {
	return t.state != StateIdle
}

// Arbiter enforces the one-active-gesture rule. Controllers register a
// cancel function per kind; beginning a gesture cancels whichever other
// gesture is active so no two gestures can straddle updates.
type Arbiter struct {
	mu      sync.Mutex
	active  Kind
	cancels map[Kind]func()
}

// NewArbiter creates an arbiter with no active gesture.
func NewArbiter() *Arbiter {
	return &Arbiter{cancels: make(map[Kind]func())}
}

// Register installs the cancel function invoked when kind's gesture must
// yield to another.
func (a *Arbiter) Register(kind Kind, cancel func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancels[kind] = cancel
}

// Begin makes kind the active gesture, cancelling any other active
// gesture first.
func (a *Arbiter) Begin(kind Kind) {
	a.mu.Lock()
	prev := a.active
	var cancel func()
	if prev != KindNone && prev != kind {
		cancel = a.cancels[prev]
	}
	a.active = kind
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// End clears the active gesture if kind still owns it.
func (a *Arbiter) End(kind Kind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == kind {
		a.active = KindNone
	}
}

// Active returns the currently active gesture kind.
func (a *Arbiter) Active() Kind {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}
