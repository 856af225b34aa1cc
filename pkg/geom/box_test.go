package geom

import "testing"

// TestBoxBasics verifies corner, extent and emptiness bookkeeping.
func TestBoxBasics(t *testing.T) {
	b := NewBox(Point{X: 2, Y: 3}, Extent{Width: 4, Height: 5})

	if b.Max() != (Point{X: 6, Y: 8}) {
		t.Errorf("Expected max (6,8), got %v", b.Max())
	}
	if b.Area() != 20 {
		t.Errorf("Expected area 20, got %d", b.Area())
	}
	if b.Empty() {
		t.Errorf("Box %v should not be empty", b)
	}

	empty := NewBox(Point{X: 1, Y: 1}, Extent{Width: 0, Height: 5})
	if !empty.Empty() {
		t.Errorf("Zero-width box should be empty")
	}
	if empty.Area() != 0 {
		t.Errorf("Empty box should have area 0, got %d", empty.Area())
	}

	neg := NewBox(Point{}, Extent{Width: -3, Height: 4})
	if !neg.Empty() {
		t.Errorf("Negative extent should normalize to the empty box")
	}
}

// TestBoxContains verifies point and box containment including edges.
func TestBoxContains(t *testing.T) {
	b := NewBox(Point{X: 0, Y: 0}, Extent{Width: 10, Height: 20})

	if !b.Contains(Point{X: 0, Y: 0}) {
		t.Errorf("Minimum corner should be inside")
	}
	if !b.Contains(Point{X: 9, Y: 19}) {
		t.Errorf("Last pixel should be inside")
	}
	if b.Contains(Point{X: 10, Y: 0}) {
		t.Errorf("Exclusive maximum should be outside")
	}

	if !b.ContainsBox(NewBox(Point{X: 3, Y: 4}, Extent{Width: 7, Height: 16})) {
		t.Errorf("Flush sub-box should be contained")
	}
	if b.ContainsBox(NewBox(Point{X: 3, Y: 4}, Extent{Width: 8, Height: 16})) {
		t.Errorf("Box poking out in x should not be contained")
	}
	if !b.ContainsBox(Box{}) {
		t.Errorf("Empty box should be contained in anything")
	}
}

// TestBoxIntersectUnion verifies the lattice operations.
func TestBoxIntersectUnion(t *testing.T) {
	a := NewBox(Point{X: 0, Y: 0}, Extent{Width: 10, Height: 10})
	b := NewBox(Point{X: 5, Y: 5}, Extent{Width: 10, Height: 10})

	got := a.Intersect(b)
	want := NewBox(Point{X: 5, Y: 5}, Extent{Width: 5, Height: 5})
	if got != want {
		t.Errorf("Expected intersection %v, got %v", want, got)
	}

	if !a.Overlaps(b) {
		t.Errorf("Boxes %v and %v should overlap", a, b)
	}

	far := NewBox(Point{X: 20, Y: 20}, Extent{Width: 3, Height: 3})
	if !a.Intersect(far).Empty() {
		t.Errorf("Disjoint boxes should intersect to empty, got %v", a.Intersect(far))
	}
	if a.Overlaps(far) {
		t.Errorf("Disjoint boxes should not overlap")
	}

	u := a.Union(far)
	if u != NewBox(Point{X: 0, Y: 0}, Extent{Width: 23, Height: 23}) {
		t.Errorf("Unexpected union %v", u)
	}
	if a.Union(Box{}) != a {
		t.Errorf("Union with empty should be identity")
	}
	if (Box{}).Union(a) != a {
		t.Errorf("Union with empty should be identity")
	}
}

// TestBoxTranslated verifies shifting.
func TestBoxTranslated(t *testing.T) {
	b := NewBox(Point{X: 1, Y: 2}, Extent{Width: 3, Height: 4})
	got := b.Translated(10, -2)
	want := NewBox(Point{X: 11, Y: 0}, Extent{Width: 3, Height: 4})
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

// TestBoxFlippedWithin verifies reflection of a sub-box inside a parent.
func TestBoxFlippedWithin(t *testing.T) {
	parent := NewBox(Point{X: 0, Y: 0}, Extent{Width: 15, Height: 20})
	sub := NewBox(Point{X: 0, Y: 0}, Extent{Width: 10, Height: 20})

	gotX := sub.FlippedWithin(parent, true, false)
	wantX := NewBox(Point{X: 5, Y: 0}, Extent{Width: 10, Height: 20})
	if gotX != wantX {
		t.Errorf("Expected x-flip %v, got %v", wantX, gotX)
	}

	gotY := NewBox(Point{X: 2, Y: 3}, Extent{Width: 4, Height: 5}).FlippedWithin(parent, false, true)
	wantY := NewBox(Point{X: 2, Y: 12}, Extent{Width: 4, Height: 5})
	if gotY != wantY {
		t.Errorf("Expected y-flip %v, got %v", wantY, gotY)
	}

	// Double flip restores the original.
	if sub.FlippedWithin(parent, true, true).FlippedWithin(parent, true, true) != sub {
		t.Errorf("Flipping twice should restore the original box")
	}
}
