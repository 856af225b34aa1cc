// Package geom provides the integer rectangle algebra used throughout the
// amplifier image code. Boxes are half-open: a box with minimum corner
// (x, y) and size (w, h) covers pixels with x <= px < x+w and y <= py < y+h.
package geom

// Point is an integer pixel position.
type Point struct {
	X int
	Y int
}

// Extent is an integer width/height pair.
type Extent struct {
	// Width is the extent along x in pixels.
	Width int

	// Height is the extent along y in pixels.
	Height int
}

// Area returns Width*Height, or zero for degenerate extents.
func (e Extent) Area() int {
	if e.Width <= 0 || e.Height <= 0 {
		return 0
	}
	return e.Width * e.Height
}

// Box is an immutable integer rectangle described by its minimum corner and
// its extent. The zero Box is the empty box.
type Box struct {
	// Min is the minimum (inclusive) corner of the box.
	Min Point

	// Size is the extent of the box.
	Size Extent
}

// NewBox constructs a box from a minimum corner and an extent. Negative
// extents are normalized to the empty box at the given corner.
func NewBox(min Point, size Extent) Box {
	if size.Width <= 0 || size.Height <= 0 {
		return Box{Min: min}
	}
	return Box{Min: min, Size: size}
}

// BoxFromCorners constructs a box spanning [min, max) in both axes.
func BoxFromCorners(min, max Point) Box {
	return NewBox(min, Extent{Width: max.X - min.X, Height: max.Y - min.Y})
}

// Max returns the exclusive maximum corner of the box.
func (b Box) Max() Point {
	return Point{X: b.Min.X + b.Size.Width, Y: b.Min.Y + b.Size.Height}
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.Size.Width <= 0 || b.Size.Height <= 0
}

// Area returns the number of pixels the box covers.
func (b Box) Area() int {
	return b.Size.Area()
}

// Contains reports whether the given point lies inside the box.
func (b Box) Contains(p Point) bool {
	return p.X >= b.Min.X && p.X < b.Min.X+b.Size.Width &&
		p.Y >= b.Min.Y && p.Y < b.Min.Y+b.Size.Height
}

// ContainsBox reports whether other lies entirely inside the box. The empty
// box is contained in every box.
func (b Box) ContainsBox(other Box) bool {
	if other.Empty() {
		return true
	}
	return other.Min.X >= b.Min.X && other.Min.Y >= b.Min.Y &&
		other.Max().X <= b.Max().X && other.Max().Y <= b.Max().Y
}

// Intersect returns the largest box contained in both b and other. The
// result is the empty box when the two do not overlap.
func (b Box) Intersect(other Box) Box {
	min := Point{X: maxInt(b.Min.X, other.Min.X), Y: maxInt(b.Min.Y, other.Min.Y)}
	max := Point{X: minInt(b.Max().X, other.Max().X), Y: minInt(b.Max().Y, other.Max().Y)}
	return BoxFromCorners(min, max)
}

// Overlaps reports whether b and other share at least one pixel.
func (b Box) Overlaps(other Box) bool {
	return !b.Intersect(other).Empty()
}

// Union returns the smallest box containing both b and other. Empty operands
// are ignored.
func (b Box) Union(other Box) Box {
	if b.Empty() {
		return other
	}
	if other.Empty() {
		return b
	}
	min := Point{X: minInt(b.Min.X, other.Min.X), Y: minInt(b.Min.Y, other.Min.Y)}
	max := Point{X: maxInt(b.Max().X, other.Max().X), Y: maxInt(b.Max().Y, other.Max().Y)}
	return BoxFromCorners(min, max)
}

// Translated returns the box shifted by (dx, dy).
func (b Box) Translated(dx, dy int) Box {
	return Box{Min: Point{X: b.Min.X + dx, Y: b.Min.Y + dy}, Size: b.Size}
}

// FlippedWithin returns the box reflected inside parent about the parent's
// vertical center line (flipX), horizontal center line (flipY), or both.
// The box must be contained in parent for the result to be meaningful.
func (b Box) FlippedWithin(parent Box, flipX, flipY bool) Box {
	min := b.Min
	if flipX {
		min.X = parent.Min.X + (parent.Max().X - b.Max().X)
	}
	if flipY {
		min.Y = parent.Min.Y + (parent.Max().Y - b.Max().Y)
	}
	return Box{Min: min, Size: b.Size}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
