package spawn

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/biosim/challenge"
	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
	"github.com/pthm-cable/biosim/signals"
	"github.com/pthm-cable/biosim/telemetry"
)

const arena = 32

type recordingSink struct {
	epochs []telemetry.Epoch
	err    error
}

func (r *recordingSink) AppendEpoch(e telemetry.Epoch) error {
	r.epochs = append(r.epochs, e)
	return r.err
}

func newSpawner(t *testing.T, seed int64, mutate func(*config.Config)) (*Spawner, *recordingSink) {
	t.Helper()
	cfg, err := config.Defaults()
	require.NoError(t, err)
	cfg.World.SizeX, cfg.World.SizeY = arena, arena
	cfg.Population.Size = 40
	cfg.Genome.InitialLengthMin, cfg.Genome.InitialLengthMax = 4, 8
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	sink := &recordingSink{}
	return &Spawner{
		Config:  cfg,
		Grid:    grid.New(arena, arena),
		Signals: signals.New(cfg.Signals.Layers, arena, arena),
		Peeps:   peeps.New(cfg.Population.Size),
		Rand:    rand.New(rand.NewSource(seed)),
		Sink:    sink,
		RunID:   "test",
	}, sink
}

// wired has one sensor to action connection, so it survives pruning.
var wired = genome.Genome{{SourceType: genome.Sensor, SourceNum: 0, SinkType: genome.Action, SinkNum: 0, Weight: 1000}}

// unrelated shares no gene with wired.
var unrelated = genome.Genome{{SourceType: genome.Neuron, SourceNum: 3, SinkType: genome.Action, SinkNum: 5, Weight: -2000}}

// placeAll replaces the population: slot i+1 goes to locs[i] with gens[i],
// every other slot stays dead.
func placeAll(s *Spawner, locs []grid.Coord, gens []genome.Genome) {
	s.Peeps.Kill()
	s.Grid.ZeroFill()
	birth := peeps.Birth{MaxNeurons: 5, LongProbeDist: 16}
	for i, loc := range locs {
		s.Peeps.Initialize(s.Grid, uint16(i+1), loc, gens[i], int64(i), birth)
	}
}

func indexes(top []Scored) []uint16 {
	out := make([]uint16, len(top))
	for i, sc := range top {
		out[i] = sc.Index
	}
	return out
}

func TestSpawnRightHalf(t *testing.T) {
	s, sink := newSpawner(t, 1, func(c *config.Config) {
		c.Challenge.ID = int(challenge.RightHalf)
	})

	var locs []grid.Coord
	var gens []genome.Genome
	for i := 0; i < 10; i++ {
		locs = append(locs, grid.XY(12+2*i, 5))
		gens = append(gens, wired)
	}
	// Slot 5 stands in the right half but has no wiring.
	gens[4] = genome.Genome{}
	placeAll(s, locs, gens)
	s.Peeps.Get(6).Alive = false

	n, err := s.SpawnNewGeneration(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []uint16{4, 7, 8, 9, 10}, indexes(s.TopGenomes(100)))
	assert.Len(t, s.TopGenomes(2), 2)
	assert.Nil(t, s.TopGenomes(0))

	require.Len(t, sink.epochs, 1)
	e := sink.epochs[0]
	assert.Equal(t, "test", e.RunID)
	assert.Equal(t, 3, e.Generation)
	assert.Equal(t, 5, e.Survivors)
	assert.Equal(t, 2, e.Murders)
	assert.Equal(t, int(challenge.RightHalf), e.Challenge)
	assert.Equal(t, 1.0, e.ScoreMean)

	assert.Equal(t, 40, s.Peeps.CountAlive())
}

func TestSpawnExtinctionRestarts(t *testing.T) {
	s, sink := newSpawner(t, 1, func(c *config.Config) {
		c.Challenge.ID = int(challenge.RightHalf)
	})
	placeAll(s, []grid.Coord{grid.XY(2, 2)}, []genome.Genome{wired})

	n, err := s.SpawnNewGeneration(7, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Empty(t, s.TopGenomes(5))
	require.Len(t, sink.epochs, 1)
	assert.Equal(t, 0, sink.epochs[0].Survivors)

	assert.Equal(t, 40, s.Peeps.CountAlive())
	for i := 1; i <= 40; i++ {
		ind := s.Peeps.Get(uint16(i))
		assert.Equal(t, ind.Index, s.Grid.At(ind.Loc), "slot %d not on its cell", i)
		assert.GreaterOrEqual(t, len(ind.Genome), 4)
		assert.LessOrEqual(t, len(ind.Genome), 8)
	}
}

func TestSpawnSortsByScoreThenIndex(t *testing.T) {
	s, _ := newSpawner(t, 1, func(c *config.Config) {
		c.Challenge.ID = int(challenge.CornerWeighted)
	})
	placeAll(s,
		[]grid.Coord{grid.XY(4, 0), grid.XY(0, 0), grid.XY(31, 31), grid.XY(2, 0), grid.XY(16, 16)},
		[]genome.Genome{wired, wired, wired, wired, wired},
	)

	n, err := s.SpawnNewGeneration(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	top := s.TopGenomes(10)
	assert.Equal(t, []uint16{2, 3, 4, 1}, indexes(top))
	assert.InDelta(t, 0.75, top[2].Score, 1e-9)
	assert.InDelta(t, 0.5, top[3].Score, 1e-9)
	assert.Equal(t, wired, top[0].Genome)
}

func altruismSpawner(t *testing.T, policy string, factor, kinStart int) *Spawner {
	s, _ := newSpawner(t, 1, func(c *config.Config) {
		c.Challenge.ID = int(challenge.Altruism)
		c.Altruism.Policy = policy
		c.Altruism.Factor = factor
		c.Altruism.KinshipStartGeneration = kinStart
	})
	return s
}

func TestSpawnAltruismKinSearch(t *testing.T) {
	s := altruismSpawner(t, config.PolicyKinSearch, 2, 0)
	placeAll(s,
		[]grid.Coord{grid.XY(8, 8), grid.XY(9, 8), grid.XY(24, 24)},
		[]genome.Genome{wired, unrelated, wired.Clone()},
	)
	sink := s.Sink.(*recordingSink)

	n, err := s.SpawnNewGeneration(1, 0)
	require.NoError(t, err)
	// Each of the two passes saves the sacrificed individual's kin again.
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint16{1, 1}, indexes(s.TopGenomes(10)))
	require.Len(t, sink.epochs, 1)
	assert.Equal(t, 1, sink.epochs[0].Sacrificed)
	assert.Equal(t, 2, sink.epochs[0].Saved)
}

func TestSpawnAltruismBeforeKinship(t *testing.T) {
	s := altruismSpawner(t, config.PolicyKinSearch, 2, 10)
	placeAll(s,
		[]grid.Coord{grid.XY(9, 8), grid.XY(8, 8), grid.XY(24, 24)},
		[]genome.Genome{unrelated, wired, wired},
	)

	n, err := s.SpawnNewGeneration(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint16{2, 1}, indexes(s.TopGenomes(10)))
}

func TestSpawnAltruismFixedRatio(t *testing.T) {
	tests := []struct {
		name   string
		locs   []grid.Coord
		want   int
		wantTo []uint16
	}{
		{
			name:   "one sacrifice saves the best parent",
			locs:   []grid.Coord{grid.XY(9, 8), grid.XY(8, 8), grid.XY(24, 24)},
			want:   1,
			wantTo: []uint16{2},
		},
		{
			name: "no sacrifice saves nobody",
			locs: []grid.Coord{grid.XY(9, 8), grid.XY(8, 8), grid.XY(2, 30)},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := altruismSpawner(t, config.PolicyFixedRatio, 1, 0)
			placeAll(s, tt.locs, []genome.Genome{wired, wired, wired})

			n, err := s.SpawnNewGeneration(1, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			if tt.want > 0 {
				assert.Equal(t, tt.wantTo, indexes(s.TopGenomes(10)))
			}
		})
	}
}

func TestSpawnSinkErrorIsNotFatal(t *testing.T) {
	s, sink := newSpawner(t, 1, nil)
	sink.err = errors.New("disk full")
	require.NoError(t, s.InitializeGeneration0())

	_, err := s.SpawnNewGeneration(0, 0)
	assert.NoError(t, err)
	assert.Len(t, sink.epochs, 1)
}

func TestInitializeGridSaturated(t *testing.T) {
	s, _ := newSpawner(t, 1, nil)
	s.Peeps = peeps.New(arena*arena + 1)

	err := s.InitializeGeneration0()
	assert.ErrorIs(t, err, ErrGridSaturated)
}

func TestInitializeNewGenerationNeedsParents(t *testing.T) {
	s, _ := newSpawner(t, 1, nil)
	assert.Error(t, s.InitializeNewGeneration(nil, 1))
}

func TestInitializeAppliesSignalSettings(t *testing.T) {
	s, _ := newSpawner(t, 1, func(c *config.Config) {
		c.Signals.Fade = 3
		c.Signals.Diffusion = 0.25
	})
	s.Signals.Increment(0, grid.XY(3, 3))
	require.NoError(t, s.InitializeGeneration0())

	assert.Equal(t, float32(3), s.Signals.Fade)
	assert.Equal(t, float32(0.25), s.Signals.Diffusion)
	assert.Zero(t, s.Signals.Total(0))
}

func TestSpawnDeterministic(t *testing.T) {
	run := func() (*Spawner, int) {
		s, _ := newSpawner(t, 42, func(c *config.Config) {
			c.Challenge.ID = int(challenge.RightHalf)
			c.World.Barrier = int(grid.BarrierSpots)
		})
		require.NoError(t, s.InitializeGeneration0())
		n, err := s.SpawnNewGeneration(0, 0)
		require.NoError(t, err)
		return s, n
	}

	a, na := run()
	b, nb := run()
	assert.Equal(t, na, nb)
	for i := 1; i <= a.Peeps.Population(); i++ {
		ia, ib := a.Peeps.Get(uint16(i)), b.Peeps.Get(uint16(i))
		assert.Equal(t, ia.Loc, ib.Loc, "slot %d location", i)
		assert.Equal(t, ia.Genome, ib.Genome, "slot %d genome", i)
	}
}

func TestBarrierFor(t *testing.T) {
	cfg := &config.Config{World: config.WorldConfig{
		Barrier:                  int(grid.BarrierSpots),
		ReplaceBarrier:           int(grid.BarrierVerticalBarConstant),
		ReplaceBarrierGeneration: 10,
	}}
	tests := []struct {
		generation int
		want       grid.BarrierKind
	}{
		{0, grid.BarrierSpots},
		{9, grid.BarrierSpots},
		{10, grid.BarrierVerticalBarConstant},
		{500, grid.BarrierVerticalBarConstant},
	}
	for _, tt := range tests {
		if got := BarrierFor(cfg, tt.generation); got != tt.want {
			t.Errorf("BarrierFor(%d) = %v, want %v", tt.generation, got, tt.want)
		}
	}

	cfg.World.ReplaceBarrierGeneration = -1
	if got := BarrierFor(cfg, 1000); got != grid.BarrierSpots {
		t.Errorf("BarrierFor with replacement disabled = %v", got)
	}
}
