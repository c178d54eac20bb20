package grid

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestVisitNeighborhood(t *testing.T) {
	tests := []struct {
		name   string
		sizeX  int
		sizeY  int
		center Coord
		radius float64
		want   int
	}{
		{"center only", 10, 10, XY(5, 5), 0, 1},
		{"radius 1 interior", 10, 10, XY(5, 5), 1, 5},
		{"radius 1.5 interior", 10, 10, XY(5, 5), 1.5, 9},
		{"radius 2 interior", 10, 10, XY(5, 5), 2, 13},
		{"radius 1.5 corner", 10, 10, XY(0, 0), 1.5, 4},
		{"radius 1.5 edge", 10, 10, XY(0, 5), 1.5, 6},
		{"negative radius", 10, 10, XY(5, 5), -1, 0},
		{"radius larger than grid", 4, 3, XY(1, 1), 10, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.sizeX, tt.sizeY)
			seen := make(map[Coord]int)
			g.VisitNeighborhood(tt.center, tt.radius, func(c Coord) {
				if !g.IsInBounds(c) {
					t.Fatalf("visited out-of-bounds cell %v", c)
				}
				seen[c]++
			})
			if len(seen) != tt.want {
				t.Errorf("visited %d distinct cells, want %d", len(seen), tt.want)
			}
			for c, n := range seen {
				if n != 1 {
					t.Errorf("cell %v visited %d times", c, n)
				}
				if d := c.Sub(tt.center).Length(); d > tt.radius {
					t.Errorf("cell %v at distance %v outside radius %v", c, d, tt.radius)
				}
			}
		})
	}
}

func TestBoundsMatchesGrid(t *testing.T) {
	g := New(7, 5)
	b := Bounds{SizeX: 7, SizeY: 5}
	if g.Bounds() != b {
		t.Fatalf("Bounds() = %+v, want %+v", g.Bounds(), b)
	}

	for _, center := range []Coord{XY(0, 0), XY(3, 2), XY(6, 4)} {
		var fromGrid, fromBounds []Coord
		g.VisitNeighborhood(center, 2.5, func(c Coord) { fromGrid = append(fromGrid, c) })
		b.VisitNeighborhood(center, 2.5, func(c Coord) { fromBounds = append(fromBounds, c) })
		if len(fromGrid) != len(fromBounds) {
			t.Fatalf("center %v: grid visited %d, bounds %d", center, len(fromGrid), len(fromBounds))
		}
		for i := range fromGrid {
			if fromGrid[i] != fromBounds[i] {
				t.Errorf("center %v: visit %d = %v, want %v", center, i, fromBounds[i], fromGrid[i])
			}
		}
	}

	for _, loc := range []Coord{XY(-1, 0), XY(7, 0), XY(0, 5)} {
		if b.Contains(loc) {
			t.Errorf("Contains(%v) = true", loc)
		}
	}
}

func TestVisitNeighborhoodCoversDisc(t *testing.T) {
	g := New(16, 12)
	center := XY(3, 9)
	radius := 4.0

	seen := make(map[Coord]bool)
	var order []Coord
	g.VisitNeighborhood(center, radius, func(c Coord) {
		seen[c] = true
		order = append(order, c)
	})

	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			c := XY(x, y)
			inside := c.Sub(center).Length() <= radius
			if inside != seen[c] {
				t.Errorf("cell %v: inside=%v visited=%v", c, inside, seen[c])
			}
		}
	}

	for i := 1; i < len(order); i++ {
		a, b := order[i-1], order[i]
		if a.X > b.X || (a.X == b.X && a.Y >= b.Y) {
			t.Fatalf("visit order not increasing x then y: %v before %v", a, b)
		}
	}
}

func TestOutOfBoundsPanics(t *testing.T) {
	g := New(8, 8)
	for _, loc := range []Coord{XY(-1, 0), XY(0, -1), XY(8, 0), XY(0, 8)} {
		func() {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrOutOfBounds) {
					t.Errorf("At(%v) recovered %v, want ErrOutOfBounds", loc, r)
				}
			}()
			g.At(loc)
		}()
	}
}

func TestCellPredicates(t *testing.T) {
	g := New(8, 8)
	g.Set(XY(1, 1), Barrier)
	g.Set(XY(2, 2), 7)

	if !g.IsBarrierAt(XY(1, 1)) || g.IsOccupiedAt(XY(1, 1)) || g.IsEmptyAt(XY(1, 1)) {
		t.Error("barrier cell predicates wrong")
	}
	if !g.IsOccupiedAt(XY(2, 2)) || g.IsEmptyAt(XY(2, 2)) {
		t.Error("occupied cell predicates wrong")
	}
	if !g.IsEmptyAt(XY(3, 3)) {
		t.Error("empty cell predicates wrong")
	}
	if !g.IsBorder(XY(0, 4)) || !g.IsBorder(XY(7, 4)) || g.IsBorder(XY(4, 4)) {
		t.Error("border predicate wrong")
	}
	if got := g.EmptyCount(); got != 62 {
		t.Errorf("EmptyCount() = %d, want 62", got)
	}

	g.ZeroFill()
	if got := g.EmptyCount(); got != 64 {
		t.Errorf("EmptyCount() after ZeroFill = %d, want 64", got)
	}
}

func TestFindEmptyLocation(t *testing.T) {
	g := New(4, 4)
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			g.Set(XY(x, y), Barrier)
		}
	}
	g.Set(XY(2, 3), Empty)

	rng := rand.New(rand.NewSource(1))
	if got := g.FindEmptyLocation(rng); got != XY(2, 3) {
		t.Errorf("FindEmptyLocation() = %v, want (2,3)", got)
	}
}

func TestCreateBarrier(t *testing.T) {
	tests := []struct {
		kind        BarrierKind
		wantCenters int
		wantCells   bool
	}{
		{BarrierNone, 0, false},
		{BarrierVerticalBarConstant, 0, true},
		{BarrierVerticalBarRandom, 0, true},
		{BarrierFiveBlocksStaggered, 0, true},
		{BarrierHorizontalBarConstant, 0, true},
		{BarrierFloatingIslands, 3, true},
		{BarrierSpots, 5, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			g := New(128, 128)
			g.CreateBarrier(tt.kind, rand.New(rand.NewSource(42)))

			if got := len(g.BarrierCenters()); got != tt.wantCenters {
				t.Errorf("centers = %d, want %d", got, tt.wantCenters)
			}
			if (len(g.BarrierLocations()) > 0) != tt.wantCells {
				t.Errorf("barrier cells = %d, want any=%v", len(g.BarrierLocations()), tt.wantCells)
			}
			for _, loc := range g.BarrierLocations() {
				if !g.IsBarrierAt(loc) {
					t.Fatalf("recorded barrier %v not set in grid", loc)
				}
			}
			if got := 128*128 - g.EmptyCount(); got != len(g.BarrierLocations()) {
				t.Errorf("non-empty cells = %d, recorded = %d", got, len(g.BarrierLocations()))
			}
		})
	}
}

func TestCreateBarrierNoiseDeterministic(t *testing.T) {
	a := New(64, 64)
	b := New(64, 64)
	a.CreateBarrier(BarrierNoiseBlobs, rand.New(rand.NewSource(7)))
	b.CreateBarrier(BarrierNoiseBlobs, rand.New(rand.NewSource(7)))

	if len(a.BarrierLocations()) != len(b.BarrierLocations()) {
		t.Fatalf("noise barrier not deterministic: %d vs %d cells", len(a.BarrierLocations()), len(b.BarrierLocations()))
	}
	for _, c := range a.BarrierCenters() {
		if !a.IsBarrierAt(c) {
			t.Errorf("center %v is not a barrier cell", c)
		}
	}
}

func TestDirRotation(t *testing.T) {
	tests := []struct {
		d         Dir
		cw, ccw   Dir
		reverse   Dir
		wantCoord Coord
	}{
		{North, East, West, South, XY(0, 1)},
		{East, South, North, West, XY(1, 0)},
		{SouthWest, NorthWest, SouthEast, NorthEast, XY(-1, -1)},
		{NorthEast, SouthEast, NorthWest, SouthWest, XY(1, 1)},
		{Center, Center, Center, Center, XY(0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := tt.d.Rotate90CW(); got != tt.cw {
				t.Errorf("Rotate90CW = %v, want %v", got, tt.cw)
			}
			if got := tt.d.Rotate90CCW(); got != tt.ccw {
				t.Errorf("Rotate90CCW = %v, want %v", got, tt.ccw)
			}
			if got := tt.d.Rotate180(); got != tt.reverse {
				t.Errorf("Rotate180 = %v, want %v", got, tt.reverse)
			}
			if got := tt.d.AsNormalizedCoord(); got != tt.wantCoord {
				t.Errorf("AsNormalizedCoord = %v, want %v", got, tt.wantCoord)
			}
			if tt.d != Center && tt.wantCoord.AsDir() != tt.d {
				t.Errorf("AsDir round trip = %v", tt.wantCoord.AsDir())
			}
		})
	}
}

func TestCoordAsDir(t *testing.T) {
	if got := XY(10, 1).AsDir(); got != East {
		t.Errorf("(10,1).AsDir() = %v, want E", got)
	}
	if got := XY(-3, -4).AsDir(); got != SouthWest {
		t.Errorf("(-3,-4).AsDir() = %v, want SW", got)
	}
	if got := XY(0, -7).Normalize(); got != XY(0, -1) {
		t.Errorf("(0,-7).Normalize() = %v", got)
	}
	if got := XY(3, 4).Length(); math.Abs(got-5) > 1e-9 {
		t.Errorf("Length = %v, want 5", got)
	}
}

func TestRandom8NeverCenter(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		if d := Random8(rng); d == Center || d > NorthEast {
			t.Fatalf("Random8 returned %v", d)
		}
	}
}
