package genome

import (
	"math/rand"
)

// Reproduction holds the parameters of child genome generation.
type Reproduction struct {
	PointMutationRate         float64
	GeneInsertionDeletionRate float64
	DeletionRatio             float64
	MaxLength                 int
	SexualReproduction        bool
	ChooseParentsByFitness    bool
}

// Child builds a new genome from the parent pool. Parents earlier in the
// pool are preferred when ChooseParentsByFitness is set, so the pool should
// be sorted best first. The pool must not be empty.
func (r Reproduction) Child(rng *rand.Rand, parents []Genome) Genome {
	var i1, i2 int
	if r.ChooseParentsByFitness && len(parents) > 1 {
		i1 = 1 + rng.Intn(len(parents)-1)
		i2 = rng.Intn(i1)
	} else {
		i1 = rng.Intn(len(parents))
		i2 = rng.Intn(len(parents))
	}
	g1, g2 := parents[i1], parents[i2]

	var child Genome
	if r.SexualReproduction {
		if len(g1) > len(g2) {
			child = g1.Clone()
			overlaySlice(rng, child, g2)
		} else {
			child = g2.Clone()
			overlaySlice(rng, child, g1)
		}
		sum := len(g1) + len(g2)
		if sum&1 == 1 && rng.Intn(2) == 1 {
			sum++
		}
		child = cropLength(rng, child, sum/2)
	} else {
		child = g2.Clone()
	}

	child = r.insertOrDelete(rng, child)
	r.pointMutations(rng, child)
	return child
}

// overlaySlice copies a random slice of shorter into dst at the same offsets.
func overlaySlice(rng *rand.Rand, dst, shorter Genome) {
	if len(shorter) == 0 {
		return
	}
	i0 := rng.Intn(len(shorter))
	i1 := rng.Intn(len(shorter) + 1)
	if i0 > i1 {
		i0, i1 = i1, i0
	}
	copy(dst[i0:i1], shorter[i0:i1])
}

// cropLength trims g to length, dropping genes from the front or the back
// with equal probability.
func cropLength(rng *rand.Rand, g Genome, length int) Genome {
	if len(g) <= length || length <= 0 {
		return g
	}
	if rng.Float64() < 0.5 {
		return g[len(g)-length:]
	}
	return g[:length]
}

func (r Reproduction) insertOrDelete(rng *rand.Rand, g Genome) Genome {
	if rng.Float64() >= r.GeneInsertionDeletionRate {
		return g
	}
	if rng.Float64() < r.DeletionRatio {
		if len(g) > 1 {
			i := rng.Intn(len(g))
			g = append(g[:i], g[i+1:]...)
		}
		return g
	}
	if r.MaxLength <= 0 || len(g) < r.MaxLength {
		g = append(g, RandomGene(rng))
	}
	return g
}

func (r Reproduction) pointMutations(rng *rand.Rand, g Genome) {
	for range len(g) {
		if rng.Float64() < r.PointMutationRate {
			randomBitFlip(rng, g)
		}
	}
}

// randomBitFlip flips one bit in one field of a random gene.
func randomBitFlip(rng *rand.Rand, g Genome) {
	if len(g) == 0 {
		return
	}
	gene := &g[rng.Intn(len(g))]
	bit8 := uint16(1) << rng.Intn(8)

	switch chance := rng.Float64(); {
	case chance < 0.2:
		if gene.SourceType == Sensor {
			gene.SourceType = Neuron
		} else {
			gene.SourceType = Sensor
		}
	case chance < 0.4:
		if gene.SinkType == Action {
			gene.SinkType = Neuron
		} else {
			gene.SinkType = Action
		}
	case chance < 0.6:
		gene.SourceNum ^= bit8
	case chance < 0.8:
		gene.SinkNum ^= bit8
	default:
		gene.Weight ^= int16(uint16(1) << rng.Intn(16))
	}
}
