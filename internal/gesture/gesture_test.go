package gesture

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindNone, "none"},
		{KindSelect, "select"},
		{KindResize, "resize"},
		{KindReorder, "reorder"},
		{KindAddRemove, "add-remove"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTrackerClickBelowThreshold(t *testing.T) {
	tr := NewTracker(KindSelect)
	tr.Press(Point{X: 10, Y: 10})

	if tr.Move(Point{X: 11, Y: 11}) {
		t.Error("2px movement started a drag, want below threshold")
	}
	if tr.State() != StatePending {
		t.Errorf("state = %v, want StatePending", tr.State())
	}
	if tr.Release() {
		t.Error("Release() = drag, want click")
	}
	if tr.Active() {
		t.Error("tracker active after release")
	}
}

func TestTrackerDragTransition(t *testing.T) {
	tr := NewTracker(KindResize)
	tr.Press(Point{X: 0, Y: 0})

	if !tr.Move(Point{X: 5, Y: 0}) {
		t.Fatal("threshold crossing did not report drag start")
	}
	if tr.Move(Point{X: 8, Y: 0}) {
		t.Error("drag start reported twice")
	}
	if tr.State() != StateDragging {
		t.Errorf("state = %v, want StateDragging", tr.State())
	}
	if d := tr.Delta(); d.X != 8 || d.Y != 0 {
		t.Errorf("Delta() = %+v, want {8 0}", d)
	}
	if !tr.Release() {
		t.Error("Release() = click, want drag")
	}
}

func TestTrackerMoveWhileIdle(t *testing.T) {
	tr := NewTracker(KindReorder)
	if tr.Move(Point{X: 100, Y: 100}) {
		t.Error("Move while idle started a drag")
	}
}

func TestTrackerCustomThreshold(t *testing.T) {
	tr := NewTracker(KindSelect)
	tr.SetThreshold(10)
	tr.Press(Point{})
	if tr.Move(Point{X: 6, Y: 0}) {
		t.Error("drag started below custom threshold")
	}
	if !tr.Move(Point{X: 10, Y: 0}) {
		t.Error("drag did not start at custom threshold")
	}
}

func TestArbiterCancelsPriorGesture(t *testing.T) {
	a := NewArbiter()
	cancelled := map[Kind]int{}
	for _, k := range []Kind{KindSelect, KindResize, KindReorder} {
		k := k
		a.Register(k, func() { cancelled[k]++ })
	}

	a.Begin(KindSelect)
	if a.Active() != KindSelect {
		t.Fatalf("Active() = %v, want KindSelect", a.Active())
	}

	a.Begin(KindResize)
	if cancelled[KindSelect] != 1 {
		t.Errorf("select cancelled %d times, want 1", cancelled[KindSelect])
	}
	if a.Active() != KindResize {
		t.Errorf("Active() = %v, want KindResize", a.Active())
	}

	// Re-beginning the same kind does not self-cancel.
	a.Begin(KindResize)
	if cancelled[KindResize] != 0 {
		t.Errorf("resize cancelled %d times, want 0", cancelled[KindResize])
	}

	a.End(KindResize)
	if a.Active() != KindNone {
		t.Errorf("Active() after End = %v, want KindNone", a.Active())
	}
}

func TestArbiterEndByNonOwner(t *testing.T) {
	a := NewArbiter()
	a.Begin(KindSelect)
	a.End(KindResize)
	if a.Active() != KindSelect {
		t.Errorf("End by non-owner cleared active gesture: %v", a.Active())
	}
}
