// Package neural wires genomes into small recurrent networks and evaluates
// them once per simulation step.
package neural

import (
	"math"
	"sort"

	"github.com/pthm-cable/biosim/genome"
)

// initialNeuronOutput is the output of every neuron before its first update.
const initialNeuronOutput = 0.5

// Conn is a wired connection with renumbered endpoints.
type Conn struct {
	SourceType genome.NodeType
	SourceNum  uint16
	SinkType   genome.NodeType
	SinkNum    uint16
	Weight     float32
}

// Neuron is an internal node. Outputs persist between steps; a neuron that
// is not driven by any sensor or other neuron keeps its initial output.
type Neuron struct {
	Output float32
	Driven bool
}

// Net is the wired form of a genome. Connections into neurons come first,
// followed by connections into actions.
type Net struct {
	Connections []Conn
	Neurons     []Neuron
}

// Wire builds the network for g with at most maxNeurons internal neurons.
// Connections into neurons that cannot reach any action are removed, so
// every surviving connection contributes to an action. Wire is a pure
// function of its inputs.
func Wire(g genome.Genome, maxNeurons int) *Net {
	if maxNeurons < 1 {
		maxNeurons = 1
	}
	conns := renumber(g, maxNeurons)
	conns = pruneUseless(conns)

	// Neurons that survive, in ascending order of their renumbered id.
	ids := make(map[uint16]struct{})
	for _, c := range conns {
		if c.SourceType == genome.Neuron {
			ids[c.SourceNum] = struct{}{}
		}
		if c.SinkType == genome.Neuron {
			ids[c.SinkNum] = struct{}{}
		}
	}
	order := make([]int, 0, len(ids))
	for id := range ids {
		order = append(order, int(id))
	}
	sort.Ints(order)
	remap := make(map[uint16]uint16, len(order))
	for i, id := range order {
		remap[uint16(id)] = uint16(i)
	}

	net := &Net{
		Connections: make([]Conn, 0, len(conns)),
		Neurons:     make([]Neuron, len(order)),
	}
	for i := range net.Neurons {
		net.Neurons[i].Output = initialNeuronOutput
	}

	for _, sinkType := range []genome.NodeType{genome.Neuron, genome.Action} {
		for _, c := range conns {
			if c.SinkType != sinkType {
				continue
			}
			if c.SourceType == genome.Neuron {
				c.SourceNum = remap[c.SourceNum]
			}
			if c.SinkType == genome.Neuron {
				c.SinkNum = remap[c.SinkNum]
				if c.SourceType != genome.Neuron || c.SourceNum != c.SinkNum {
					net.Neurons[c.SinkNum].Driven = true
				}
			}
			net.Connections = append(net.Connections, c)
		}
	}
	return net
}

// renumber reduces raw node numbers modulo the node counts.
func renumber(g genome.Genome, maxNeurons int) []Conn {
	conns := make([]Conn, len(g))
	for i, gene := range g {
		c := Conn{
			SourceType: gene.SourceType,
			SinkType:   gene.SinkType,
			Weight:     gene.WeightAsFloat(),
		}
		if gene.SourceType == genome.Sensor {
			c.SourceNum = gene.SourceNum % uint16(NumSensors)
		} else {
			c.SourceType = genome.Neuron
			c.SourceNum = gene.SourceNum % uint16(maxNeurons)
		}
		if gene.SinkType == genome.Action {
			c.SinkNum = gene.SinkNum % uint16(NumActions)
		} else {
			c.SinkType = genome.Neuron
			c.SinkNum = gene.SinkNum % uint16(maxNeurons)
		}
		conns[i] = c
	}
	return conns
}

// pruneUseless keeps connections into actions and into neurons from which
// an action is reachable. Reachability is grown to a fixed point backwards
// from the action sinks.
func pruneUseless(conns []Conn) []Conn {
	useful := make(map[uint16]bool)
	for changed := true; changed; {
		changed = false
		for _, c := range conns {
			if c.SourceType != genome.Neuron || useful[c.SourceNum] {
				continue
			}
			if c.SinkType == genome.Action || useful[c.SinkNum] {
				useful[c.SourceNum] = true
				changed = true
			}
		}
	}

	kept := conns[:0]
	for _, c := range conns {
		if c.SinkType == genome.Action || useful[c.SinkNum] {
			kept = append(kept, c)
		}
	}
	return kept
}

// FeedForward evaluates the network once. Neuron-sink connections are
// accumulated first, driven neurons then take tanh of their input, and
// finally action levels are accumulated. The sense callback is consulted
// at most once per sensor.
func (n *Net) FeedForward(sense func(Sensor) float32) [NumActions]float32 {
	var levels [NumActions]float32
	var sensorCache [NumSensors]float32
	var sensed [NumSensors]bool

	input := func(c Conn) float32 {
		if c.SourceType == genome.Sensor {
			if !sensed[c.SourceNum] {
				sensorCache[c.SourceNum] = sense(Sensor(c.SourceNum))
				sensed[c.SourceNum] = true
			}
			return sensorCache[c.SourceNum]
		}
		return n.Neurons[c.SourceNum].Output
	}

	acc := make([]float32, len(n.Neurons))
	updated := false
	for _, c := range n.Connections {
		if c.SinkType == genome.Action && !updated {
			for i := range n.Neurons {
				if n.Neurons[i].Driven {
					n.Neurons[i].Output = float32(math.Tanh(float64(acc[i])))
				}
			}
			updated = true
		}
		v := input(c) * c.Weight
		if c.SinkType == genome.Action {
			levels[c.SinkNum] += v
		} else {
			acc[c.SinkNum] += v
		}
	}
	return levels
}

// Clone returns an independent copy of n.
func (n *Net) Clone() *Net {
	return &Net{
		Connections: append([]Conn(nil), n.Connections...),
		Neurons:     append([]Neuron(nil), n.Neurons...),
	}
}
