package genome

import (
	"fmt"
	"math/bits"

	"gonum.org/v1/gonum/stat"
)

// SimilarityMethod selects how two genomes are compared.
type SimilarityMethod int

const (
	// Jaro compares gene sequences with the Jaro string metric, treating
	// each gene as a character.
	Jaro SimilarityMethod = iota
	// HammingBits compares the packed gene words bit by bit.
	HammingBits
	// HammingBytes compares the packed gene words byte by byte.
	HammingBytes
)

func (m SimilarityMethod) String() string {
	switch m {
	case Jaro:
		return "jaro"
	case HammingBits:
		return "hamming_bits"
	case HammingBytes:
		return "hamming_bytes"
	}
	return fmt.Sprintf("similarity(%d)", int(m))
}

// jaroMaxGenes caps how many leading genes take part in a Jaro comparison.
const jaroMaxGenes = 20

// Comparer computes genome similarity in [0,1].
type Comparer struct {
	Method SimilarityMethod
	// WeightTolerance is the largest raw weight difference at which two
	// otherwise identical genes still match under Jaro.
	WeightTolerance int
}

// Similarity returns 1 for identical genomes and values near 0 for
// unrelated ones.
func (c Comparer) Similarity(a, b Genome) float64 {
	switch c.Method {
	case HammingBits:
		return hammingBits(a, b)
	case HammingBytes:
		return hammingBytes(a, b)
	default:
		return jaro(a, b, c.WeightTolerance)
	}
}

func jaro(s, a Genome, tolerance int) float64 {
	sl := min(len(s), jaroMaxGenes)
	al := min(len(a), jaroMaxGenes)
	if sl == 0 || al == 0 {
		return 0
	}

	sflags := make([]bool, sl)
	aflags := make([]bool, al)
	window := max(0, max(sl, al)/2-1)

	matches := 0
	for i := 0; i < al; i++ {
		for j := max(i-window, 0); j < min(i+window+1, sl); j++ {
			if !sflags[j] && a[i].sameWiring(s[j], tolerance) {
				sflags[j] = true
				aflags[i] = true
				matches++
				break
			}
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < al; i++ {
		if !aflags[i] {
			continue
		}
		for k < sl && !sflags[k] {
			k++
		}
		if k < sl && !a[i].sameWiring(s[k], tolerance) {
			transpositions++
		}
		k++
	}
	transpositions /= 2

	m := float64(matches)
	return (m/float64(sl) + m/float64(al) + (m-float64(transpositions))/m) / 3
}

// hammingBits scores 1 - 2*differingBits/totalBits, floored at 0. Two
// random genomes differ in about half their bits and score near 0. Genes
// missing from the shorter genome count as fully different.
func hammingBits(a, b Genome) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 1
	}
	diff := 0
	for i := 0; i < n; i++ {
		if i >= len(a) || i >= len(b) {
			diff += 32
			continue
		}
		diff += bits.OnesCount32(a[i].Packed() ^ b[i].Packed())
	}
	return 1 - min(1, 2*float64(diff)/float64(32*n))
}

// hammingBytes scores the fraction of identical bytes in the packed words.
func hammingBytes(a, b Genome) float64 {
	n := max(len(a), len(b))
	if n == 0 {
		return 1
	}
	same := 0
	for i := 0; i < min(len(a), len(b)); i++ {
		x := a[i].Packed() ^ b[i].Packed()
		for shift := 0; shift < 32; shift += 8 {
			if (x>>shift)&0xff == 0 {
				same++
			}
		}
	}
	return float64(same) / float64(4*n)
}

// diversitySamples caps the number of neighbour pairs compared by Diversity.
const diversitySamples = 1000

// Diversity estimates the genetic diversity of a population as one minus
// the mean similarity of neighbouring genomes. Pairs are taken at evenly
// spaced positions so the result does not consume randomness.
func (c Comparer) Diversity(genomes []Genome) float64 {
	pairs := len(genomes) - 1
	if pairs < 1 {
		return 0
	}
	samples := min(diversitySamples, pairs)
	sims := make([]float64, samples)
	for s := range sims {
		i := s * pairs / samples
		sims[s] = c.Similarity(genomes[i], genomes[i+1])
	}
	return 1 - stat.Mean(sims, nil)
}

// MeanLength returns the average genome length.
func MeanLength(genomes []Genome) float64 {
	if len(genomes) == 0 {
		return 0
	}
	lengths := make([]float64, len(genomes))
	for i, g := range genomes {
		lengths[i] = float64(len(g))
	}
	return stat.Mean(lengths, nil)
}
