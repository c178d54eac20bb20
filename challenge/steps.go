package challenge

import (
	"math"

	"github.com/pthm-cable/biosim/peeps"
)

// stepRadioactiveWalls makes the west wall deadly for the first half of the
// generation and the east wall for the second. Within reach of the active
// wall the chance of death is 1/distance, so standing on it is fatal.
func stepRadioactiveWalls(ind *peeps.Individual, env StepEnv) {
	sx := env.Grid.SizeX()
	wallX := 0
	if env.Step >= env.StepsPerGeneration/2 {
		wallX = sx - 1
	}
	distance := math.Abs(float64(int(ind.Loc.X) - wallX))
	if distance >= float64(sx)*env.Params.RadioactiveReachFrac {
		return
	}
	chance := 1.0
	if distance > 0 {
		chance = 1 / distance
	}
	if ind.Rand.Float64() < chance {
		env.Peeps.QueueForDeath(ind.Index)
	}
}

// stepTouchAnyWall flags individuals standing on the border.
func stepTouchAnyWall(ind *peeps.Individual, env StepEnv) {
	if env.Grid.IsBorder(ind.Loc) {
		ind.ChallengeBits.Set(0)
	}
}

// stepLocationSequence records the next unvisited barrier centre once the
// individual comes within range of it. Centres must be visited in order.
func stepLocationSequence(ind *peeps.Individual, env StepEnv) {
	for n, c := range env.Grid.BarrierCenters() {
		bit := uint(n)
		if ind.ChallengeBits.Test(bit) {
			continue
		}
		if ind.Loc.Sub(c).Length() <= env.Params.LocationSequenceRadius {
			ind.ChallengeBits.Set(bit)
		}
		return
	}
}
