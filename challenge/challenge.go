// Package challenge holds the survival criteria that decide which
// individuals become parents at the end of a generation.
package challenge

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/biosim/config"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/peeps"
)

// ErrUnknown is returned for challenge ids with no registered evaluator.
var ErrUnknown = errors.New("unknown challenge")

// ID identifies a challenge. The numeric values are stable and appear in
// parameter files and epoch logs.
type ID int

const (
	Circle            ID = 0
	RightHalf         ID = 1
	RightQuarter      ID = 2
	String            ID = 3
	CenterWeighted    ID = 4
	CenterUnweighted  ID = 40
	Corner            ID = 5
	CornerWeighted    ID = 6
	MigrateDistance   ID = 7
	CenterSparse      ID = 8
	LeftEighth        ID = 9
	RadioactiveWalls  ID = 10
	AgainstAnyWall    ID = 11
	TouchAnyWall      ID = 12
	EastWestEighths   ID = 13
	NearBarrier       ID = 14
	Pairs             ID = 15
	LocationSequence  ID = 16
	Altruism          ID = 17
	AltruismSacrifice ID = 18
)

// Result is the outcome of evaluating one individual. Score is in [0,1] and
// is 0 whenever Passed is false.
type Result struct {
	Passed bool
	Score  float64
}

var fail = Result{}

// pass returns a passing result with score clamped to [0,1].
func pass(score float64) Result {
	return Result{Passed: true, Score: math.Max(0, math.Min(1, score))}
}

// Env is the read-only world state a challenge is evaluated against.
type Env struct {
	Grid   *grid.Grid
	Params config.ChallengeConfig
}

// StepEnv extends Env with what per-step hooks need. Hooks run in the
// single-threaded commit phase, so they may queue deaths.
type StepEnv struct {
	Env
	Step               int
	StepsPerGeneration int
	Peeps              *peeps.Peeps
}

// Challenge is one registered survival criterion.
type Challenge struct {
	ID          ID
	Name        string
	Description string

	// Evaluate decides survival at generation end. It is only called for
	// living individuals.
	Evaluate func(ind *peeps.Individual, env Env) Result

	// Step, when set, runs for every living individual at the end of each
	// simulation step.
	Step func(ind *peeps.Individual, env StepEnv)
}

// Lookup returns the challenge registered under id.
func Lookup(id ID) (Challenge, error) {
	c, ok := defaultRegistry.Get(id)
	if !ok {
		return Challenge{}, fmt.Errorf("%w: %d", ErrUnknown, id)
	}
	return c, nil
}

// Evaluate runs challenge id against ind. Dead individuals always fail.
func Evaluate(ind *peeps.Individual, id ID, env Env) (Result, error) {
	c, err := Lookup(id)
	if err != nil {
		return fail, err
	}
	return c.Run(ind, env), nil
}

// Run evaluates ind, failing dead individuals without consulting the
// challenge.
func (c Challenge) Run(ind *peeps.Individual, env Env) Result {
	if !ind.Alive {
		return fail
	}
	return c.Evaluate(ind, env)
}

// String returns the challenge name.
func (id ID) String() string {
	if c, ok := defaultRegistry.Get(id); ok {
		return c.Name
	}
	return fmt.Sprintf("challenge(%d)", int(id))
}
