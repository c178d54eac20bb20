// Package peeps owns the population: one ECS entity per fixed slot, plus the
// deferred death and move queues committed at the end of every step.
package peeps

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/biosim/components"
	"github.com/pthm-cable/biosim/genome"
	"github.com/pthm-cable/biosim/grid"
	"github.com/pthm-cable/biosim/neural"
)

// Individual is a view over the components of one population slot. The
// embedded pointers stay valid for the lifetime of the Peeps because slots
// are created once and never removed.
type Individual struct {
	Index uint16
	*components.Position
	*components.Vitals
	*components.Brain
	Rand *rand.Rand
}

// Birth holds the settings applied to every newborn.
type Birth struct {
	MaxNeurons    int
	LongProbeDist int
}

type move struct {
	index uint16
	to    grid.Coord
}

// Peeps is the population arena. Handles run from 1 to Population(); the
// zero handle is reserved because grid cells use 0 for Empty.
type Peeps struct {
	world  *ecs.World
	mapper *ecs.Map4[components.Position, components.Vitals, components.Brain, components.Stream]
	vitals *ecs.Filter1[components.Vitals]

	entities []ecs.Entity
	slots    []Individual

	deathQueue []uint16
	moveQueue  []move
}

// New creates population slots. Every slot starts dead and off-grid.
func New(population int) *Peeps {
	if population < 1 || population >= int(grid.Barrier) {
		panic(fmt.Sprintf("peeps: population %d out of range", population))
	}
	world := ecs.NewWorld()
	p := &Peeps{
		world:    world,
		mapper:   ecs.NewMap4[components.Position, components.Vitals, components.Brain, components.Stream](world),
		vitals:   ecs.NewFilter1[components.Vitals](world),
		entities: make([]ecs.Entity, population+1),
		slots:    make([]Individual, population+1),
	}

	for i := 1; i <= population; i++ {
		pos := components.Position{}
		vit := components.Vitals{ChallengeBits: bitset.New(components.ChallengeBitCount)}
		brain := components.Brain{}
		stream := components.Stream{Rand: rand.New(rand.NewSource(int64(i)))}
		p.entities[i] = p.mapper.NewEntity(&pos, &vit, &brain, &stream)
	}

	// Component storage only settles once all entities exist.
	posMap := ecs.NewMap1[components.Position](world)
	vitMap := ecs.NewMap1[components.Vitals](world)
	brainMap := ecs.NewMap1[components.Brain](world)
	streamMap := ecs.NewMap1[components.Stream](world)
	for i := 1; i <= population; i++ {
		e := p.entities[i]
		p.slots[i] = Individual{
			Index:    uint16(i),
			Position: posMap.Get(e),
			Vitals:   vitMap.Get(e),
			Brain:    brainMap.Get(e),
			Rand:     streamMap.Get(e).Rand,
		}
	}
	return p
}

// Population returns the number of slots.
func (p *Peeps) Population() int { return len(p.slots) - 1 }

// Get returns the individual with the given handle.
func (p *Peeps) Get(index uint16) *Individual {
	if index == 0 || int(index) >= len(p.slots) {
		panic(fmt.Sprintf("peeps: invalid handle %d", index))
	}
	return &p.slots[index]
}

// At returns the individual occupying loc, or nil.
func (p *Peeps) At(g *grid.Grid, loc grid.Coord) *Individual {
	if !g.IsOccupiedAt(loc) {
		return nil
	}
	return p.Get(g.At(loc))
}

// Initialize places a newborn into slot index at loc and wires its genome.
// The slot's random stream is reseeded with seed.
func (p *Peeps) Initialize(g *grid.Grid, index uint16, loc grid.Coord, gen genome.Genome, seed int64, b Birth) {
	ind := p.Get(index)
	ind.Rand.Seed(seed)

	ind.Loc = loc
	ind.Birth = loc
	ind.LastMoveDir = grid.Random8(ind.Rand)

	ind.Alive = true
	ind.Age = 0
	ind.ChallengeBits.ClearAll()

	ind.Genome = gen
	ind.Net = neural.Wire(gen, b.MaxNeurons)
	ind.Responsiveness = components.DefaultResponsiveness
	ind.OscPeriod = components.DefaultOscPeriod
	ind.LongProbeDist = b.LongProbeDist

	g.Set(loc, index)
}

// Living appends the handles of all living individuals, in handle order.
func (p *Peeps) Living(dst []uint16) []uint16 {
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].Alive {
			dst = append(dst, uint16(i))
		}
	}
	return dst
}

// CountAlive returns the number of living individuals.
func (p *Peeps) CountAlive() int {
	n := 0
	query := p.vitals.Query()
	for query.Next() {
		if query.Get().Alive {
			n++
		}
	}
	return n
}

// Genomes returns the genomes of all slots in handle order.
func (p *Peeps) Genomes() []genome.Genome {
	out := make([]genome.Genome, 0, p.Population())
	for i := 1; i < len(p.slots); i++ {
		out = append(out, p.slots[i].Genome)
	}
	return out
}

// QueueForDeath defers the death of index to the commit phase.
func (p *Peeps) QueueForDeath(index uint16) {
	p.deathQueue = append(p.deathQueue, index)
}

// QueueForMove defers a move of index to the commit phase.
func (p *Peeps) QueueForMove(index uint16, to grid.Coord) {
	p.moveQueue = append(p.moveQueue, move{index: index, to: to})
}

// DeathQueueLen returns the number of pending deaths.
func (p *Peeps) DeathQueueLen() int { return len(p.deathQueue) }

// DrainDeathQueue kills every queued individual in handle order and frees
// their cells. It returns how many individuals died.
func (p *Peeps) DrainDeathQueue(g *grid.Grid) int {
	slices.Sort(p.deathQueue)
	died := 0
	for _, index := range p.deathQueue {
		ind := p.Get(index)
		if !ind.Alive {
			continue
		}
		g.Set(ind.Loc, grid.Empty)
		ind.Alive = false
		died++
	}
	p.deathQueue = p.deathQueue[:0]
	return died
}

// DrainMoveQueue applies queued moves in handle order. A move succeeds only
// if the mover is still alive and the target is still empty, so the lowest
// handle wins a contested cell. It returns how many moves succeeded.
func (p *Peeps) DrainMoveQueue(g *grid.Grid) int {
	slices.SortStableFunc(p.moveQueue, func(a, b move) int {
		return int(a.index) - int(b.index)
	})
	moved := 0
	for _, m := range p.moveQueue {
		ind := p.Get(m.index)
		if !ind.Alive || !g.IsInBounds(m.to) || !g.IsEmptyAt(m.to) {
			continue
		}
		g.Set(ind.Loc, grid.Empty)
		g.Set(m.to, m.index)
		ind.LastMoveDir = m.to.Sub(ind.Loc).AsDir()
		ind.Loc = m.to
		moved++
	}
	p.moveQueue = p.moveQueue[:0]
	return moved
}

// Kill marks every individual dead without touching the grid. Used when a
// generation ends and the grid is about to be cleared.
func (p *Peeps) Kill() {
	for i := 1; i < len(p.slots); i++ {
		p.slots[i].Alive = false
	}
	p.deathQueue = p.deathQueue[:0]
	p.moveQueue = p.moveQueue[:0]
}
