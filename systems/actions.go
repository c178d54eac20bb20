package systems

import (
	"math"

	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/neural"
	"github.com/pthm-cable/biosim/peeps"
)

// ActionParams holds action executor settings.
type ActionParams struct {
	ResponsivenessCurveK float64
	KillEnable           bool
}

const (
	maxLongProbeDistance = 32
	emitThreshold        = 0.5
	killThreshold        = 0.5
)

// Intent is everything one individual wants to do this step. Intents are
// computed in parallel and applied in handle order by the commit phase.
type Intent struct {
	Index          uint16
	Responsiveness float32
	OscPeriod      int
	LongProbeDist  int
	Emit           bool
	Kill           uint16 // handle of the individual ahead to kill, 0 for none
	Move           bool
	MoveTo         grid.Coord
}

// Decide runs ind's network against the world and converts the action
// levels into an Intent. Only ind's own network state and random stream
// are modified.
func (w *World) Decide(ind *peeps.Individual) Intent {
	levels := ind.Net.FeedForward(func(s neural.Sensor) float32 {
		return w.Sense(ind, s)
	})
	return w.ExecuteActions(ind, levels)
}

// ExecuteActions turns action levels into an Intent.
func (w *World) ExecuteActions(ind *peeps.Individual, levels [neural.NumActions]float32) Intent {
	in := Intent{Index: ind.Index}

	in.Responsiveness = squash(levels[neural.SetResponsiveness])
	response := responseCurve(float64(in.Responsiveness), w.Actions.ResponsivenessCurveK)

	period := squash(levels[neural.SetOscillatorPeriod])
	in.OscPeriod = 1 + int(1.5+math.Exp(7*float64(period)))

	in.LongProbeDist = int(1 + squash(levels[neural.SetLongProbeDist])*maxLongProbeDistance)

	if level := squash(levels[neural.EmitSignal0]) * response; level > emitThreshold && chance(ind.Rand, level) {
		in.Emit = true
	}

	if w.Actions.KillEnable {
		if level := squash(levels[neural.KillForward]) * response; level > killThreshold && chance(ind.Rand, level) {
			ahead := ind.Loc.Add(ind.LastMoveDir.AsNormalizedCoord())
			if w.Grid.IsInBounds(ahead) && w.Grid.IsOccupiedAt(ahead) {
				in.Kill = w.Grid.At(ahead)
			}
		}
	}

	last := ind.LastMoveDir.AsNormalizedCoord()
	moveX := levels[neural.MoveX] + levels[neural.MoveEast] - levels[neural.MoveWest]
	moveY := levels[neural.MoveY] + levels[neural.MoveNorth] - levels[neural.MoveSouth]

	push := func(off grid.Coord, level float32) {
		moveX += float32(off.X) * level
		moveY += float32(off.Y) * level
	}
	push(last, levels[neural.MoveForward])
	push(last, -levels[neural.MoveReverse])
	push(ind.LastMoveDir.Rotate90CCW().AsNormalizedCoord(), levels[neural.MoveLeft])
	push(ind.LastMoveDir.Rotate90CW().AsNormalizedCoord(), levels[neural.MoveRight])
	if rl := levels[neural.MoveRL]; rl < 0 {
		push(ind.LastMoveDir.Rotate90CCW().AsNormalizedCoord(), rl)
	} else if rl > 0 {
		push(ind.LastMoveDir.Rotate90CW().AsNormalizedCoord(), rl)
	}
	if level := levels[neural.MoveRandom]; level != 0 {
		push(grid.Random8(ind.Rand).AsNormalizedCoord(), level)
	}

	mx := float32(math.Tanh(float64(moveX))) * response
	my := float32(math.Tanh(float64(moveY))) * response
	var off grid.Coord
	if chance(ind.Rand, float32(math.Abs(float64(mx)))) {
		off.X = sign(mx)
	}
	if chance(ind.Rand, float32(math.Abs(float64(my)))) {
		off.Y = sign(my)
	}

	if off != (grid.Coord{}) {
		to := ind.Loc.Add(off)
		if w.Grid.IsInBounds(to) && w.Grid.IsEmptyAt(to) {
			in.Move = true
			in.MoveTo = to
		}
	}
	return in
}

func sign(v float32) int16 {
	if v < 0 {
		return -1
	}
	return 1
}

// Apply writes the settings part of an Intent back to its individual.
func (in Intent) Apply(ind *peeps.Individual) {
	ind.Responsiveness = in.Responsiveness
	ind.OscPeriod = in.OscPeriod
	ind.LongProbeDist = in.LongProbeDist
}
