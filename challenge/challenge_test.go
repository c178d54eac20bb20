package challenge

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
)

func newEnv(t *testing.T, size int) (Env, *peeps.Peeps) {
	t.Helper()
	cfg, err := config.Defaults()
	require.NoError(t, err)
	return Env{Grid: grid.New(size, size), Params: cfg.Challenge}, peeps.New(16)
}

func place(env Env, p *peeps.Peeps, index uint16, x, y int) *peeps.Individual {
	p.Initialize(env.Grid, index, grid.XY(x, y), nil, int64(index), peeps.Birth{MaxNeurons: 1, LongProbeDist: 16})
	return p.Get(index)
}

// move relocates ind on the grid without going through the move queue.
func move(env Env, ind *peeps.Individual, x, y int) {
	env.Grid.Set(ind.Loc, grid.Empty)
	ind.Loc = grid.XY(x, y)
	env.Grid.Set(ind.Loc, ind.Index)
}

func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, 20)

	names := map[string]bool{}
	for _, c := range all {
		assert.NotNil(t, c.Evaluate, c.Name)
		assert.False(t, names[c.Name], "duplicate name %s", c.Name)
		names[c.Name] = true

		got, err := Lookup(c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.Name, got.Name)
	}

	_, err := Lookup(99)
	assert.ErrorIs(t, err, ErrUnknown)
	assert.Equal(t, "corner_weighted", CornerWeighted.String())
	assert.Equal(t, "challenge(99)", ID(99).String())
}

func TestDeadAlwaysFails(t *testing.T) {
	env, p := newEnv(t, 128)
	ind := place(env, p, 1, 0, 0)
	ind.ChallengeBits.Set(0)
	ind.Alive = false

	for _, c := range All() {
		t.Run(c.Name, func(t *testing.T) {
			r, err := Evaluate(ind, c.ID, env)
			require.NoError(t, err)
			assert.Equal(t, Result{}, r)
		})
	}
}

func TestRightHalf(t *testing.T) {
	env, p := newEnv(t, 128)

	r, err := Evaluate(place(env, p, 1, 100, 10), RightHalf, env)
	require.NoError(t, err)
	assert.Equal(t, Result{Passed: true, Score: 1}, r)

	r, err = Evaluate(place(env, p, 2, 60, 10), RightHalf, env)
	require.NoError(t, err)
	assert.Equal(t, Result{}, r)
}

func TestCornerWeighted(t *testing.T) {
	env, p := newEnv(t, 128)
	require.InDelta(t, 32.0, 128*env.Params.CornerWeightedFrac, 1e-9)

	tests := []struct {
		name       string
		x, y       int
		wantPassed bool
		wantScore  float64
	}{
		{"origin corner", 0, 0, true, 1},
		{"far corner", 127, 127, true, 1},
		{"along edge", 8, 0, true, 0.75},
		{"outside every corner", 32, 32, false, 0},
		{"near south-east corner", 127, 119, true, 0.75},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := place(env, p, uint16(i+1), tt.x, tt.y)
			r := mustLookup(t, CornerWeighted).Run(ind, env)
			assert.Equal(t, tt.wantPassed, r.Passed)
			assert.InDelta(t, tt.wantScore, r.Score, 1e-9)
		})
	}
}

func mustLookup(t *testing.T, id ID) Challenge {
	t.Helper()
	c, err := Lookup(id)
	require.NoError(t, err)
	return c
}

func TestDistanceScoresMonotonic(t *testing.T) {
	tests := []struct {
		id     ID
		target grid.Coord
		radius float64
	}{
		{Circle, grid.XY(32, 32), 32},
		{CenterWeighted, grid.XY(64, 64), 32},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			env, p := newEnv(t, 128)
			env.Params.CircleRadiusFrac = 0.25
			env.Params.CenterRadiusFrac = 0.25
			c := mustLookup(t, tt.id)
			ind := place(env, p, 1, int(tt.target.X), int(tt.target.Y))

			prev := 2.0
			for dx := 0; dx <= 40; dx++ {
				move(env, ind, int(tt.target.X)+dx, int(tt.target.Y))
				r := c.Run(ind, env)
				assert.LessOrEqual(t, r.Score, prev, "dx=%d", dx)
				prev = r.Score

				switch {
				case dx == 0:
					assert.Equal(t, Result{Passed: true, Score: 1}, r)
				case float64(dx) == tt.radius:
					assert.True(t, r.Passed)
					assert.Zero(t, r.Score)
				case float64(dx) > tt.radius:
					assert.Equal(t, Result{}, r)
				}
			}
		})
	}
}

func TestStripChallenges(t *testing.T) {
	tests := []struct {
		id   ID
		x    int
		want bool
	}{
		{RightQuarter, 96, false},
		{RightQuarter, 97, true},
		{LeftEighth, 15, true},
		{LeftEighth, 16, false},
		{EastWestEighths, 0, true},
		{EastWestEighths, 112, true},
		{EastWestEighths, 64, false},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			env, p := newEnv(t, 128)
			r := mustLookup(t, tt.id).Run(place(env, p, 1, tt.x, 50), env)
			assert.Equal(t, tt.want, r.Passed, "x=%d", tt.x)
		})
	}
}

func TestPairs(t *testing.T) {
	env, p := newEnv(t, 32)
	a := place(env, p, 1, 10, 10)
	b := place(env, p, 2, 11, 11)
	c := mustLookup(t, Pairs)

	assert.True(t, c.Run(a, env).Passed)
	assert.True(t, c.Run(b, env).Passed)

	// A third individual next to b breaks the pair for both.
	place(env, p, 3, 12, 12)
	assert.False(t, c.Run(a, env).Passed)
	assert.False(t, c.Run(b, env).Passed)

	lone := place(env, p, 4, 20, 20)
	assert.False(t, c.Run(lone, env).Passed)

	edge := place(env, p, 5, 0, 5)
	place(env, p, 6, 1, 5)
	assert.False(t, c.Run(edge, env).Passed)
}

func TestString(t *testing.T) {
	env, p := newEnv(t, 32)
	c := mustLookup(t, String)

	a := place(env, p, 1, 10, 10)
	assert.False(t, c.Run(a, env).Passed, "alone")

	place(env, p, 2, 11, 10)
	assert.True(t, c.Run(a, env).Passed, "one neighbour")

	place(env, p, 3, 9, 10)
	assert.True(t, c.Run(a, env).Passed, "two neighbours")

	place(env, p, 4, 10, 11)
	assert.False(t, c.Run(a, env).Passed, "three neighbours")
}

func TestMigrateDistance(t *testing.T) {
	env, p := newEnv(t, 100)
	ind := place(env, p, 1, 10, 10)
	c := mustLookup(t, MigrateDistance)

	assert.Equal(t, Result{Passed: true, Score: 0}, c.Run(ind, env))
	move(env, ind, 60, 10)
	r := c.Run(ind, env)
	assert.True(t, r.Passed)
	assert.InDelta(t, 0.5, r.Score, 1e-9)
}

func TestTouchAnyWall(t *testing.T) {
	env, p := newEnv(t, 32)
	ind := place(env, p, 1, 5, 5)
	c := mustLookup(t, TouchAnyWall)
	step := StepEnv{Env: env, StepsPerGeneration: 10, Peeps: p}

	c.Step(ind, step)
	assert.False(t, c.Run(ind, env).Passed)

	move(env, ind, 0, 5)
	c.Step(ind, step)
	move(env, ind, 5, 5)
	assert.True(t, c.Run(ind, env).Passed, "bit persists after leaving the wall")
}

func TestRadioactiveWalls(t *testing.T) {
	env, p := newEnv(t, 32)
	env.Params.RadioactiveReachFrac = 0.25
	c := mustLookup(t, RadioactiveWalls)
	west := place(env, p, 1, 0, 5)
	east := place(env, p, 2, 31, 5)
	far := place(env, p, 3, 16, 5)

	step := StepEnv{Env: env, Step: 0, StepsPerGeneration: 10, Peeps: p}
	for _, ind := range []*peeps.Individual{west, east, far} {
		c.Step(ind, step)
	}
	require.Equal(t, 1, p.DeathQueueLen(), "only the west wall is active early")
	assert.Equal(t, 1, p.DrainDeathQueue(env.Grid))
	assert.False(t, west.Alive)

	step.Step = 5
	for _, ind := range []*peeps.Individual{east, far} {
		c.Step(ind, step)
	}
	assert.Equal(t, 1, p.DrainDeathQueue(env.Grid))
	assert.False(t, east.Alive)
	assert.True(t, far.Alive)

	assert.Equal(t, Result{Passed: true, Score: 1}, c.Run(far, env))
}

func TestLocationSequence(t *testing.T) {
	env, p := newEnv(t, 128)
	env.Grid.CreateBarrier(grid.BarrierKind(6), rand.New(rand.NewSource(1)))
	centers := env.Grid.BarrierCenters()
	require.Len(t, centers, 5)

	c := mustLookup(t, LocationSequence)
	ind := place(env, p, 1, 2, 2)
	step := StepEnv{Env: env, StepsPerGeneration: 10, Peeps: p}
	assert.False(t, c.Run(ind, env).Passed)

	// Visiting the second centre first does not count.
	ind.Loc = centers[1].Add(grid.XY(6, 0))
	c.Step(ind, step)
	assert.False(t, c.Run(ind, env).Passed)

	ind.Loc = centers[0].Add(grid.XY(6, 0))
	c.Step(ind, step)
	ind.Loc = centers[1].Add(grid.XY(6, 0))
	c.Step(ind, step)

	r := c.Run(ind, env)
	assert.True(t, r.Passed)
	assert.InDelta(t, 2.0/5.0, r.Score, 1e-9)
}

func TestNearBarrier(t *testing.T) {
	env, p := newEnv(t, 128)
	c := mustLookup(t, NearBarrier)
	ind := place(env, p, 1, 3, 3)
	assert.False(t, c.Run(ind, env).Passed, "no barrier centres")

	env.Grid.ZeroFill()
	env.Grid.CreateBarrier(grid.BarrierKind(6), rand.New(rand.NewSource(1)))
	ind.Loc = env.Grid.BarrierCenters()[2].Add(grid.XY(8, 0))
	r := c.Run(ind, env)
	assert.True(t, r.Passed)
	assert.InDelta(t, 1-8.0/64.0, r.Score, 1e-9)
}

func TestAltruismAreas(t *testing.T) {
	env, p := newEnv(t, 128)
	spawn := place(env, p, 1, 32, 32)
	sacrifice := place(env, p, 2, 96, 96)

	assert.Equal(t, Result{Passed: true, Score: 1}, mustLookup(t, Altruism).Run(spawn, env))
	assert.False(t, mustLookup(t, Altruism).Run(sacrifice, env).Passed)
	assert.Equal(t, Result{Passed: true, Score: 1}, mustLookup(t, AltruismSacrifice).Run(sacrifice, env))
	assert.False(t, mustLookup(t, AltruismSacrifice).Run(spawn, env).Passed)
}
