package grid

import (
	"fmt"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
)

// BarrierKind selects one of the fixed barrier layouts.
type BarrierKind int

const (
	BarrierNone BarrierKind = iota
	BarrierVerticalBarConstant
	BarrierVerticalBarRandom
	BarrierFiveBlocksStaggered
	BarrierHorizontalBarConstant
	BarrierFloatingIslands
	BarrierSpots
	BarrierNoiseBlobs

	numBarrierKinds
)

var barrierNames = [numBarrierKinds]string{
	"none",
	"vertical_bar_constant",
	"vertical_bar_random",
	"five_blocks_staggered",
	"horizontal_bar_constant",
	"floating_islands",
	"spots",
	"noise_blobs",
}

func (k BarrierKind) String() string {
	if k.Valid() {
		return barrierNames[k]
	}
	return fmt.Sprintf("barrier(%d)", int(k))
}

// Valid reports whether k names a known layout.
func (k BarrierKind) Valid() bool {
	return k >= 0 && k < numBarrierKinds
}

const (
	islandRadius = 3.0
	spotCount    = 5
	spotRadius   = 5.0

	noiseScale     = 0.06
	noiseThreshold = 0.45
)

// CreateBarrier draws the given layout onto the grid and records barrier
// locations and centers. Call it after ZeroFill.
func (g *Grid) CreateBarrier(kind BarrierKind, rng *rand.Rand) {
	g.barrierLocations = g.barrierLocations[:0]
	g.barrierCenters = g.barrierCenters[:0]

	sx, sy := g.sizeX, g.sizeY
	switch kind {
	case BarrierVerticalBarConstant:
		minX := sx / 2
		minY := sy / 4
		g.drawBox(minX, minY, minX+1, minY+sy/2)

	case BarrierVerticalBarRandom:
		minX := randRange(rng, 20, sx-20)
		minY := randRange(rng, 20, sy/2-20)
		g.drawBox(minX, minY, minX+1, minY+sy/2)

	case BarrierFiveBlocksStaggered:
		bw, bh := 2, sx/3
		x0, y0 := sx/4-bw/2, sy/4-bh/2
		g.drawBox(x0, y0, x0+bw, y0+bh)
		x0 += sx / 2
		g.drawBox(x0, y0, x0+bw, y0+bh)
		y0 += sy / 2
		x0 -= sx / 2
		g.drawBox(x0, y0, x0+bw, y0+bh)
		x0 += sx / 2
		g.drawBox(x0, y0, x0+bw, y0+bh)
		x0, y0 = sx/2-bw/2, sy/2-bh/2
		g.drawBox(x0, y0, x0+bw, y0+bh)

	case BarrierHorizontalBarConstant:
		minX := sx / 4
		minY := sy/2 + sy/4
		g.drawBox(minX, minY, minX+sx/2, minY+2)

	case BarrierFloatingIslands:
		margin := 2 * int(islandRadius)
		randomLoc := func() Coord {
			return XY(randRange(rng, margin, sx-margin), randRange(rng, margin, sy-margin))
		}
		centers := make([]Coord, 0, 3)
		for attempts := 0; len(centers) < 3 && attempts < 1000; attempts++ {
			c := randomLoc()
			if farFromAll(c, centers, float64(margin)) {
				centers = append(centers, c)
			}
		}
		for _, c := range centers {
			g.drawDisc(c, islandRadius)
			g.barrierCenters = append(g.barrierCenters, c)
		}

	case BarrierSpots:
		slice := sy / (spotCount + 1)
		for n := 1; n <= spotCount; n++ {
			c := XY(sx/2, n*slice)
			g.drawDisc(c, spotRadius)
			g.barrierCenters = append(g.barrierCenters, c)
		}

	case BarrierNoiseBlobs:
		g.drawNoise(rng.Int63())
	}
}

func (g *Grid) drawBox(minX, minY, maxX, maxY int) {
	for x := max(minX, 0); x <= min(maxX, g.sizeX-1); x++ {
		for y := max(minY, 0); y <= min(maxY, g.sizeY-1); y++ {
			g.setBarrier(XY(x, y))
		}
	}
}

func (g *Grid) drawDisc(center Coord, radius float64) {
	if !g.IsInBounds(center) {
		return
	}
	g.VisitNeighborhood(center, radius, g.setBarrier)
}

func (g *Grid) setBarrier(loc Coord) {
	if g.At(loc) == Barrier {
		return
	}
	g.Set(loc, Barrier)
	g.barrierLocations = append(g.barrierLocations, loc)
}

// drawNoise thresholds an opensimplex field into blobs. The local maxima of
// the field inside each blob are recorded as centers.
func (g *Grid) drawNoise(seed int64) {
	noise := opensimplex.New(seed)
	field := make([]float64, len(g.cells))
	for x := 0; x < g.sizeX; x++ {
		for y := 0; y < g.sizeY; y++ {
			field[x*g.sizeY+y] = noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale)
		}
	}
	for x := 0; x < g.sizeX; x++ {
		for y := 0; y < g.sizeY; y++ {
			v := field[x*g.sizeY+y]
			if v < noiseThreshold {
				continue
			}
			loc := XY(x, y)
			g.setBarrier(loc)

			peak := true
			g.VisitNeighborhood(loc, 1.5, func(n Coord) {
				if field[int(n.X)*g.sizeY+int(n.Y)] > v {
					peak = false
				}
			})
			if peak {
				g.barrierCenters = append(g.barrierCenters, loc)
			}
		}
	}
}

func farFromAll(c Coord, others []Coord, dist float64) bool {
	for _, o := range others {
		if c.Sub(o).Length() < dist {
			return false
		}
	}
	return true
}

// randRange returns a uniform integer in [lo, hi]. A collapsed range yields lo.
func randRange(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
