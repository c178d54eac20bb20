package grid

import (
	"math"
	"math/rand"
)

// Coord is an integer grid location or offset.
type Coord struct {
	X, Y int16
}

// XY is a convenience constructor.
func XY(x, y int) Coord {
	return Coord{X: int16(x), Y: int16(y)}
}

func (c Coord) Add(o Coord) Coord { return Coord{c.X + o.X, c.Y + o.Y} }
func (c Coord) Sub(o Coord) Coord { return Coord{c.X - o.X, c.Y - o.Y} }

// Length returns the Euclidean length of the vector.
func (c Coord) Length() float64 {
	return math.Hypot(float64(c.X), float64(c.Y))
}

// AsDir snaps an arbitrary vector to the nearest of the eight compass
// directions. The zero vector maps to Center.
func (c Coord) AsDir() Dir {
	if c.X == 0 && c.Y == 0 {
		return Center
	}
	angle := math.Atan2(float64(c.Y), float64(c.X))
	sector := int(math.Round(angle/(math.Pi/4))) & 7
	return sectorDirs[sector]
}

// Normalize returns the unit step closest in direction to c.
func (c Coord) Normalize() Coord {
	return c.AsDir().AsNormalizedCoord()
}

// sectorDirs maps 45 degree sectors, counter-clockwise from east, to compass
// directions.
var sectorDirs = [8]Dir{East, NorthEast, North, NorthWest, West, SouthWest, South, SouthEast}

// Dir is one of the eight compass directions or Center. Values follow
// the layout (y+1)*3 + (x+1) of the unit offset.
type Dir uint8

const (
	SouthWest Dir = iota
	South
	SouthEast
	West
	Center
	East
	NorthWest
	North
	NorthEast
)

var dirNames = [9]string{"SW", "S", "SE", "W", "C", "E", "NW", "N", "NE"}

func (d Dir) String() string {
	if int(d) < len(dirNames) {
		return dirNames[d]
	}
	return "?"
}

// AsNormalizedCoord returns the unit offset for d.
func (d Dir) AsNormalizedCoord() Coord {
	return Coord{X: int16(d%3) - 1, Y: int16(d/3) - 1}
}

func dirFromOffset(x, y int16) Dir {
	return Dir((y+1)*3 + (x + 1))
}

// Rotate90CW turns d a quarter turn clockwise (N -> E -> S -> W).
func (d Dir) Rotate90CW() Dir {
	c := d.AsNormalizedCoord()
	return dirFromOffset(c.Y, -c.X)
}

// Rotate90CCW turns d a quarter turn counter-clockwise.
func (d Dir) Rotate90CCW() Dir {
	c := d.AsNormalizedCoord()
	return dirFromOffset(-c.Y, c.X)
}

// Rotate180 reverses d.
func (d Dir) Rotate180() Dir {
	c := d.AsNormalizedCoord()
	return dirFromOffset(-c.X, -c.Y)
}

// Random8 returns one of the eight non-center directions.
func Random8(rng *rand.Rand) Dir {
	d := Dir(rng.Intn(8))
	if d >= Center {
		d++
	}
	return d
}

// Bounds is the extent of a sizeX x sizeY arena. Layers that share the
// grid's coordinates but not its cells use it for range checks.
type Bounds struct {
	SizeX, SizeY int
}

// Contains reports whether loc lies inside the arena.
func (b Bounds) Contains(loc Coord) bool {
	return loc.X >= 0 && int(loc.X) < b.SizeX && loc.Y >= 0 && int(loc.Y) < b.SizeY
}

// VisitNeighborhood calls fn once for every in-bounds cell within radius of
// center, the center included. Cells are visited by increasing x, then
// increasing y.
func (b Bounds) VisitNeighborhood(center Coord, radius float64, fn func(Coord)) {
	if radius < 0 {
		return
	}
	cx, cy := int(center.X), int(center.Y)
	r := int(radius)
	for dx := -min(r, cx); dx <= min(r, b.SizeX-cx-1); dx++ {
		extentY := int(math.Sqrt(radius*radius - float64(dx*dx)))
		for dy := -min(extentY, cy); dy <= min(extentY, b.SizeY-cy-1); dy++ {
			fn(XY(cx+dx, cy+dy))
		}
	}
}
