// Package grid provides the occupancy grid individuals live on.
package grid

import (
	"errors"
	"fmt"
	"math/rand"
)

// Reserved cell values. Any other value is a 1-based individual index.
const (
	Empty   uint16 = 0
	Barrier uint16 = 0xffff
)

// ErrOutOfBounds is raised (as a panic) when a cell outside the grid is read or written.
var ErrOutOfBounds = errors.New("grid: coordinate out of bounds")

// Grid is a sizeX x sizeY array of cell values stored column-major.
type Grid struct {
	sizeX, sizeY int
	cells        []uint16

	barrierLocations []Coord
	barrierCenters   []Coord
}

// New allocates a grid filled with Empty.
func New(sizeX, sizeY int) *Grid {
	return &Grid{
		sizeX: sizeX,
		sizeY: sizeY,
		cells: make([]uint16, sizeX*sizeY),
	}
}

func (g *Grid) SizeX() int { return g.sizeX }
func (g *Grid) SizeY() int { return g.sizeY }

// ZeroFill resets every cell to Empty and forgets the barrier layout.
func (g *Grid) ZeroFill() {
	clear(g.cells)
	g.barrierLocations = g.barrierLocations[:0]
	g.barrierCenters = g.barrierCenters[:0]
}

// IsInBounds reports whether loc lies inside the grid.
func (g *Grid) IsInBounds(loc Coord) bool {
	return g.Bounds().Contains(loc)
}

// Bounds returns the dimensions of the grid without its cells.
func (g *Grid) Bounds() Bounds { return Bounds{SizeX: g.sizeX, SizeY: g.sizeY} }

func (g *Grid) index(loc Coord) int {
	if !g.IsInBounds(loc) {
		panic(fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, loc.X, loc.Y, g.sizeX, g.sizeY))
	}
	return int(loc.X)*g.sizeY + int(loc.Y)
}

// At returns the value stored at loc. Panics with ErrOutOfBounds when loc is outside the grid.
func (g *Grid) At(loc Coord) uint16 {
	return g.cells[g.index(loc)]
}

// Set stores val at loc. Panics with ErrOutOfBounds when loc is outside the grid.
func (g *Grid) Set(loc Coord, val uint16) {
	g.cells[g.index(loc)] = val
}

func (g *Grid) IsEmptyAt(loc Coord) bool   { return g.At(loc) == Empty }
func (g *Grid) IsBarrierAt(loc Coord) bool { return g.At(loc) == Barrier }

// IsOccupiedAt reports whether an individual is living at loc.
func (g *Grid) IsOccupiedAt(loc Coord) bool {
	v := g.At(loc)
	return v != Empty && v != Barrier
}

// IsBorder reports whether loc is on the outermost ring of cells.
func (g *Grid) IsBorder(loc Coord) bool {
	return loc.X == 0 || int(loc.X) == g.sizeX-1 || loc.Y == 0 || int(loc.Y) == g.sizeY-1
}

// EmptyCount returns the number of Empty cells.
func (g *Grid) EmptyCount() int {
	n := 0
	for _, v := range g.cells {
		if v == Empty {
			n++
		}
	}
	return n
}

// FindEmptyLocation draws uniform random cells until an empty one is found.
// The caller must make sure at least one empty cell exists.
func (g *Grid) FindEmptyLocation(rng *rand.Rand) Coord {
	for {
		loc := XY(rng.Intn(g.sizeX), rng.Intn(g.sizeY))
		if g.IsEmptyAt(loc) {
			return loc
		}
	}
}

// VisitNeighborhood calls fn once for every in-bounds cell within radius of
// center. See Bounds.VisitNeighborhood.
func (g *Grid) VisitNeighborhood(center Coord, radius float64, fn func(Coord)) {
	g.Bounds().VisitNeighborhood(center, radius, fn)
}

// BarrierLocations returns every cell that holds a barrier.
func (g *Grid) BarrierLocations() []Coord { return g.barrierLocations }

// BarrierCenters returns the recorded centers of barrier shapes that have one.
func (g *Grid) BarrierCenters() []Coord { return g.barrierCenters }
