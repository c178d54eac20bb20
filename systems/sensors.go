// Package systems turns world state into network inputs and network outputs
// into deferred intents.
package systems

import (
	"math"

	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/neural"
	"github.com/pthm-cable/biosim/peeps"
	"github.com/pthm-cable/biosim/signals"
)

// SensorParams holds sensor ranges and scaling.
type SensorParams struct {
	PopulationRadius          float64
	SignalRadius              float64
	ShortProbeBarrierDistance int
	StepsPerGeneration        int
	Kin                       genome.Comparer
}

// World is the read-only view sensors evaluate against. During the parallel
// decision phase nothing writes to the grid, signals or other individuals'
// genomes, so a World can be shared by all workers.
type World struct {
	Grid    *grid.Grid
	Signals *signals.Signals
	Peeps   *peeps.Peeps
	Sensors SensorParams
	Actions ActionParams
	Step    int
}

// Sense returns the value of sensor s for ind, in [0, 1].
func (w *World) Sense(ind *peeps.Individual, s neural.Sensor) float32 {
	g := w.Grid
	sx, sy := g.SizeX(), g.SizeY()
	x, y := int(ind.Loc.X), int(ind.Loc.Y)

	switch s {
	case neural.LocX:
		return float32(x) / float32(sx-1)
	case neural.LocY:
		return float32(y) / float32(sy-1)
	case neural.BoundaryDistX:
		return float32(min(x, sx-x-1)) / (float32(sx) / 2)
	case neural.BoundaryDistY:
		return float32(min(y, sy-y-1)) / (float32(sy) / 2)
	case neural.BoundaryDist:
		closest := min(x, sx-x-1, y, sy-y-1)
		maxPossible := max(1, sx/2-1, sy/2-1)
		return clamp01(float32(closest) / float32(maxPossible))
	case neural.GeneticSimFwd:
		ahead := ind.Loc.Add(ind.LastMoveDir.AsNormalizedCoord())
		if !g.IsInBounds(ahead) {
			return 0
		}
		if other := w.Peeps.At(g, ahead); other != nil {
			return float32(w.Sensors.Kin.Similarity(ind.Genome, other.Genome))
		}
		return 0
	case neural.LastMoveDirX:
		return unitComponent(ind.LastMoveDir.AsNormalizedCoord().X)
	case neural.LastMoveDirY:
		return unitComponent(ind.LastMoveDir.AsNormalizedCoord().Y)
	case neural.LongProbePopFwd:
		return float32(w.longProbePopulation(ind.Loc, ind.LastMoveDir, ind.LongProbeDist)) / float32(ind.LongProbeDist)
	case neural.LongProbeBarFwd:
		return float32(w.longProbeBarrier(ind.Loc, ind.LastMoveDir, ind.LongProbeDist)) / float32(ind.LongProbeDist)
	case neural.Population:
		return w.populationDensity(ind.Loc)
	case neural.PopulationFwd:
		return w.populationAlongAxis(ind.Loc, ind.LastMoveDir)
	case neural.PopulationLR:
		return w.populationAlongAxis(ind.Loc, ind.LastMoveDir.Rotate90CW())
	case neural.Osc1:
		phase := float64(w.Step%ind.OscPeriod) / float64(ind.OscPeriod)
		return clamp01(float32((1 - math.Cos(phase*2*math.Pi)) / 2))
	case neural.Age:
		return clamp01(float32(ind.Age) / float32(w.Sensors.StepsPerGeneration))
	case neural.BarrierFwd:
		return w.shortProbeBarrier(ind.Loc, ind.LastMoveDir)
	case neural.BarrierLR:
		return w.shortProbeBarrier(ind.Loc, ind.LastMoveDir.Rotate90CW())
	case neural.Random:
		return ind.Rand.Float32()
	case neural.Signal0:
		return w.Signals.Density(0, ind.Loc, w.Sensors.SignalRadius)
	case neural.Signal0Fwd:
		return w.signalAlongAxis(0, ind.Loc, ind.LastMoveDir)
	case neural.Signal0LR:
		return w.signalAlongAxis(0, ind.Loc, ind.LastMoveDir.Rotate90CW())
	}
	return 0
}

// unitComponent maps -1, 0, 1 to 0, 0.5, 1.
func unitComponent(v int16) float32 {
	return (float32(v) + 1) / 2
}

// longProbePopulation counts empty cells ahead until an individual is found.
// Running into a barrier or the edge counts as seeing nobody, so the full
// distance is returned.
func (w *World) longProbePopulation(loc grid.Coord, dir grid.Dir, dist int) int {
	step := dir.AsNormalizedCoord()
	count := 0
	loc = loc.Add(step)
	remaining := dist
	for remaining > 0 && w.Grid.IsInBounds(loc) && w.Grid.IsEmptyAt(loc) {
		count++
		loc = loc.Add(step)
		remaining--
	}
	if remaining > 0 && (!w.Grid.IsInBounds(loc) || w.Grid.IsBarrierAt(loc)) {
		return dist
	}
	return count
}

// longProbeBarrier counts non-barrier cells ahead until a barrier is found.
// Reaching the edge first returns the full distance.
func (w *World) longProbeBarrier(loc grid.Coord, dir grid.Dir, dist int) int {
	step := dir.AsNormalizedCoord()
	count := 0
	loc = loc.Add(step)
	remaining := dist
	for remaining > 0 && w.Grid.IsInBounds(loc) && !w.Grid.IsBarrierAt(loc) {
		count++
		loc = loc.Add(step)
		remaining--
	}
	if remaining > 0 && !w.Grid.IsInBounds(loc) {
		return dist
	}
	return count
}

// shortProbeBarrier compares the free distance forward with the free
// distance backward along dir. 0.5 means balanced; higher means more room
// ahead.
func (w *World) shortProbeBarrier(loc grid.Coord, dir grid.Dir) float32 {
	dist := w.Sensors.ShortProbeBarrierDistance
	fwd := w.longProbeBarrier(loc, dir, dist)
	rev := w.longProbeBarrier(loc, dir.Rotate180(), dist)
	return float32(fwd-rev+dist) / 2 / float32(dist)
}

func (w *World) populationDensity(loc grid.Coord) float32 {
	cells, occupied := 0, 0
	w.Grid.VisitNeighborhood(loc, w.Sensors.PopulationRadius, func(c grid.Coord) {
		cells++
		if w.Grid.IsOccupiedAt(c) {
			occupied++
		}
	})
	return float32(occupied) / float32(cells)
}

// axis returns the unit vector of dir, or false for Center.
func axis(dir grid.Dir) (float64, float64, bool) {
	v := dir.AsNormalizedCoord()
	if v.X == 0 && v.Y == 0 {
		return 0, 0, false
	}
	l := math.Hypot(float64(v.X), float64(v.Y))
	return float64(v.X) / l, float64(v.Y) / l, true
}

// alongAxis sums weight(c) projected onto dir and divided by the squared
// distance, over the neighbourhood of loc, then maps the result from
// [-1, 1] to [0, 1] given the largest possible magnitude.
func (w *World) alongAxis(loc grid.Coord, dir grid.Dir, radius, maxMag float64, weight func(grid.Coord) float64) float32 {
	ax, ay, ok := axis(dir)
	if !ok {
		return 0.5
	}
	var sum float64
	w.Grid.VisitNeighborhood(loc, radius, func(c grid.Coord) {
		if c == loc {
			return
		}
		wt := weight(c)
		if wt == 0 {
			return
		}
		off := c.Sub(loc)
		ox, oy := float64(off.X), float64(off.Y)
		sum += (ax*ox + ay*oy) * wt / (ox*ox + oy*oy)
	})
	v := sum / maxMag
	return clamp01(float32((v + 1) / 2))
}

func (w *World) populationAlongAxis(loc grid.Coord, dir grid.Dir) float32 {
	r := w.Sensors.PopulationRadius
	return w.alongAxis(loc, dir, r, 6*r, func(c grid.Coord) float64 {
		if w.Grid.IsOccupiedAt(c) {
			return 1
		}
		return 0
	})
}

func (w *World) signalAlongAxis(layer int, loc grid.Coord, dir grid.Dir) float32 {
	r := w.Sensors.SignalRadius
	return w.alongAxis(loc, dir, r, 6*r*signals.Max, func(c grid.Coord) float64 {
		return float64(w.Signals.Magnitude(layer, c))
	})
}
