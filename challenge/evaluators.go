package challenge

import (
	"math"

	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
)

// within passes if loc is no further than radius from target, scoring
// (radius-d)/radius when weighted and 1 otherwise.
func within(loc, target grid.Coord, radius float64, weighted bool) Result {
	d := target.Sub(loc).Length()
	if d > radius {
		return fail
	}
	if !weighted {
		return pass(1)
	}
	return pass((radius - d) / radius)
}

func center(g *grid.Grid) grid.Coord {
	return grid.XY(int(math.Round(float64(g.SizeX())/2)), int(math.Round(float64(g.SizeY())/2)))
}

func corners(g *grid.Grid) [4]grid.Coord {
	maxX, maxY := g.SizeX()-1, g.SizeY()-1
	return [4]grid.Coord{grid.XY(0, 0), grid.XY(0, maxY), grid.XY(maxX, 0), grid.XY(maxX, maxY)}
}

// neighbors counts occupied cells within radius of loc, loc included.
func neighbors(g *grid.Grid, loc grid.Coord, radius float64) int {
	count := 0
	g.VisitNeighborhood(loc, radius, func(c grid.Coord) {
		if g.IsOccupiedAt(c) {
			count++
		}
	})
	return count
}

func boolResult(ok bool) Result {
	if ok {
		return pass(1)
	}
	return fail
}

func evalAlive(*peeps.Individual, Env) Result { return pass(1) }

func evalCircle(ind *peeps.Individual, env Env) Result {
	sx, sy := float64(env.Grid.SizeX()), float64(env.Grid.SizeY())
	target := grid.XY(int(math.Round(sx/4)), int(math.Round(sy/4)))
	return within(ind.Loc, target, sx*env.Params.CircleRadiusFrac, true)
}

func evalCenterWeighted(ind *peeps.Individual, env Env) Result {
	radius := float64(env.Grid.SizeX()) * env.Params.CenterRadiusFrac
	return within(ind.Loc, center(env.Grid), radius, true)
}

func evalCenterUnweighted(ind *peeps.Individual, env Env) Result {
	radius := float64(env.Grid.SizeX()) * env.Params.CenterRadiusFrac
	return within(ind.Loc, center(env.Grid), radius, false)
}

func evalCorner(ind *peeps.Individual, env Env) Result {
	radius := float64(env.Grid.SizeX()) * env.Params.CornerRadiusFrac
	for _, c := range corners(env.Grid) {
		if r := within(ind.Loc, c, radius, false); r.Passed {
			return r
		}
	}
	return fail
}

// evalCornerWeighted checks all four corners and keeps the best score.
func evalCornerWeighted(ind *peeps.Individual, env Env) Result {
	radius := float64(env.Grid.SizeX()) * env.Params.CornerWeightedFrac
	best := fail
	for _, c := range corners(env.Grid) {
		if r := within(ind.Loc, c, radius, true); r.Passed && (!best.Passed || r.Score > best.Score) {
			best = r
		}
	}
	return best
}

func evalNearBarrier(ind *peeps.Individual, env Env) Result {
	centers := env.Grid.BarrierCenters()
	if len(centers) == 0 {
		return fail
	}
	minDist := math.Inf(1)
	for _, c := range centers {
		minDist = math.Min(minDist, ind.Loc.Sub(c).Length())
	}
	radius := float64(env.Grid.SizeX()) * env.Params.NearBarrierRadiusFrac
	if minDist > radius {
		return fail
	}
	return pass(1 - minDist/radius)
}

func evalRightHalf(ind *peeps.Individual, env Env) Result {
	return boolResult(int(ind.Loc.X) > env.Grid.SizeX()/2)
}

func evalRightQuarter(ind *peeps.Individual, env Env) Result {
	sx := env.Grid.SizeX()
	return boolResult(int(ind.Loc.X) > sx/2+sx/4)
}

func evalLeftEighth(ind *peeps.Individual, env Env) Result {
	return boolResult(int(ind.Loc.X) < env.Grid.SizeX()/8)
}

func evalEastWestEighths(ind *peeps.Individual, env Env) Result {
	sx := env.Grid.SizeX()
	x := int(ind.Loc.X)
	return boolResult(x < sx/8 || x >= sx-sx/8)
}

func evalAgainstAnyWall(ind *peeps.Individual, env Env) Result {
	return boolResult(env.Grid.IsBorder(ind.Loc))
}

func evalTouchAnyWall(ind *peeps.Individual, _ Env) Result {
	return boolResult(ind.ChallengeBits.Any())
}

func evalString(ind *peeps.Individual, env Env) Result {
	if env.Grid.IsBorder(ind.Loc) {
		return fail
	}
	n := neighbors(env.Grid, ind.Loc, env.Params.StringRadius)
	return boolResult(n >= env.Params.StringMinNeighbors && n <= env.Params.StringMaxNeighbors)
}

func evalCenterSparse(ind *peeps.Individual, env Env) Result {
	outer := float64(env.Grid.SizeX()) * env.Params.SparseOuterRadiusFrac
	if center(env.Grid).Sub(ind.Loc).Length() > outer {
		return fail
	}
	n := neighbors(env.Grid, ind.Loc, env.Params.SparseInnerRadius)
	return boolResult(n >= env.Params.SparseMinNeighbors && n <= env.Params.SparseMaxNeighbors)
}

// evalPairs passes individuals off the border with exactly one neighbour
// in the surrounding 3x3 block, where that neighbour has no neighbour of
// its own other than ind.
func evalPairs(ind *peeps.Individual, env Env) Result {
	g := env.Grid
	if g.IsBorder(ind.Loc) {
		return fail
	}
	var partner grid.Coord
	count := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			c := grid.XY(int(ind.Loc.X)+dx, int(ind.Loc.Y)+dy)
			if c == ind.Loc || !g.IsInBounds(c) || !g.IsOccupiedAt(c) {
				continue
			}
			count++
			if count > 1 {
				return fail
			}
			partner = c
		}
	}
	if count != 1 {
		return fail
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			c := grid.XY(int(partner.X)+dx, int(partner.Y)+dy)
			if c == partner || c == ind.Loc || !g.IsInBounds(c) {
				continue
			}
			if g.IsOccupiedAt(c) {
				return fail
			}
		}
	}
	return pass(1)
}

func evalMigrateDistance(ind *peeps.Individual, env Env) Result {
	d := ind.Loc.Sub(ind.Birth).Length()
	return pass(d / float64(max(env.Grid.SizeX(), env.Grid.SizeY())))
}

// evalLocationSequence scores by the fraction of barrier centres visited.
func evalLocationSequence(ind *peeps.Individual, env Env) Result {
	total := len(env.Grid.BarrierCenters())
	visited := int(ind.ChallengeBits.Count())
	if total == 0 || visited == 0 {
		return fail
	}
	return pass(float64(visited) / float64(total))
}

func evalAltruism(ind *peeps.Individual, env Env) Result {
	sx, sy := env.Grid.SizeX(), env.Grid.SizeY()
	target := grid.XY(sx/4, sy/4)
	return within(ind.Loc, target, float64(sx)*env.Params.AltruismRadiusFrac, true)
}

func evalAltruismSacrifice(ind *peeps.Individual, env Env) Result {
	sx, sy := env.Grid.SizeX(), env.Grid.SizeY()
	target := grid.XY(sx-sx/4, sy-sy/4)
	return within(ind.Loc, target, float64(sx)*env.Params.SacrificeRadiusFrac, true)
}
