// Package genome defines genes, genomes and the operators that copy,
// mutate and compare them.
package genome

import (
	"fmt"
	"math/rand"
	"strings"
)

// NodeType identifies what a gene endpoint refers to.
type NodeType uint8

const (
	Neuron NodeType = iota // internal neuron, valid as source or sink
	Sensor                 // sensor input, valid as source only
	Action                 // action output, valid as sink only
)

func (t NodeType) String() string {
	switch t {
	case Neuron:
		return "N"
	case Sensor:
		return "S"
	case Action:
		return "A"
	}
	return "?"
}

// WeightDivisor scales the integer weight into a float.
const WeightDivisor = 8192.0

// Gene encodes one candidate connection. SourceType is Sensor or Neuron,
// SinkType is Neuron or Action. Node numbers are raw and get reduced modulo
// the node counts during wiring.
type Gene struct {
	SourceType NodeType
	SourceNum  uint16
	SinkType   NodeType
	SinkNum    uint16
	Weight     int16
}

// WeightAsFloat returns the connection weight, roughly in [-4, 4).
func (g Gene) WeightAsFloat() float32 {
	return float32(g.Weight) / WeightDivisor
}

// Packed folds the gene into 32 bits: source type (1), source number (7),
// sink type (1), sink number (7), weight (16).
func (g Gene) Packed() uint32 {
	var w uint32
	if g.SourceType == Sensor {
		w |= 1 << 31
	}
	w |= uint32(g.SourceNum&0x7f) << 24
	if g.SinkType == Action {
		w |= 1 << 23
	}
	w |= uint32(g.SinkNum&0x7f) << 16
	w |= uint32(uint16(g.Weight))
	return w
}

// Unpack is the inverse of Packed for numbers below 128.
func Unpack(w uint32) Gene {
	g := Gene{
		SourceType: Neuron,
		SourceNum:  uint16(w>>24) & 0x7f,
		SinkType:   Neuron,
		SinkNum:    uint16(w>>16) & 0x7f,
		Weight:     int16(uint16(w)),
	}
	if w&(1<<31) != 0 {
		g.SourceType = Sensor
	}
	if w&(1<<23) != 0 {
		g.SinkType = Action
	}
	return g
}

func (g Gene) String() string {
	return fmt.Sprintf("%08x", g.Packed())
}

// sameWiring reports whether two genes connect the same endpoints and their
// weights differ by at most tolerance.
func (g Gene) sameWiring(o Gene, tolerance int) bool {
	if g.SourceType != o.SourceType || g.SourceNum != o.SourceNum ||
		g.SinkType != o.SinkType || g.SinkNum != o.SinkNum {
		return false
	}
	d := int(g.Weight) - int(o.Weight)
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

// RandomGene draws every field uniformly.
func RandomGene(rng *rand.Rand) Gene {
	g := Gene{
		SourceType: Neuron,
		SourceNum:  uint16(rng.Intn(0x8000)),
		SinkType:   Neuron,
		SinkNum:    uint16(rng.Intn(0x8000)),
		Weight:     RandomWeight(rng),
	}
	if rng.Intn(2) == 1 {
		g.SourceType = Sensor
	}
	if rng.Intn(2) == 1 {
		g.SinkType = Action
	}
	return g
}

// RandomWeight draws a weight uniformly over the int16 range.
func RandomWeight(rng *rand.Rand) int16 {
	return int16(rng.Intn(0x10000) - 0x8000)
}

// Genome is an ordered gene sequence. Genomes are treated as immutable once
// built; operators that change genes work on a Clone.
type Genome []Gene

// Random returns a genome whose length is uniform in [minLen, maxLen].
func Random(rng *rand.Rand, minLen, maxLen int) Genome {
	n := minLen
	if maxLen > minLen {
		n += rng.Intn(maxLen - minLen + 1)
	}
	g := make(Genome, n)
	for i := range g {
		g[i] = RandomGene(rng)
	}
	return g
}

// Clone returns an independent copy.
func (g Genome) Clone() Genome {
	return append(Genome(nil), g...)
}

// String renders the genome as space separated hex words.
func (g Genome) String() string {
	var sb strings.Builder
	for i, gene := range g {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(gene.String())
	}
	return sb.String()
}

// Packed returns the 32-bit words of the genome.
func (g Genome) Packed() []uint32 {
	out := make([]uint32, len(g))
	for i, gene := range g {
		out[i] = gene.Packed()
	}
	return out
}
