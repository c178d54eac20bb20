// Package components defines the ECS components that make up an individual.
package components

import (
	"math/rand"

	"github.com/bits-and-blooms/bitset"

	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/neural"
)

// Default per-individual settings applied at birth.
const (
	DefaultOscPeriod      = 34
	DefaultResponsiveness = 0.5
)

// ChallengeBitCount is the capacity of an individual's challenge bitset.
const ChallengeBitCount = 64

// Position holds where an individual is and how it got there.
type Position struct {
	Loc         grid.Coord
	Birth       grid.Coord
	LastMoveDir grid.Dir
}

// Vitals holds life state. Age counts simulation steps in this generation.
type Vitals struct {
	Alive         bool
	Age           int
	ChallengeBits *bitset.BitSet
}

// Brain holds the heritable genome, its wiring and the settings the network
// can adjust through actions.
type Brain struct {
	Genome         genome.Genome
	Net            *neural.Net
	Responsiveness float32 // [0,1]
	OscPeriod      int     // steps, >= 2
	LongProbeDist  int     // cells, >= 1
}

// Stream is a private random source, reseeded each generation.
type Stream struct {
	Rand *rand.Rand
}
