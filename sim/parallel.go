package sim

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/biosim/systems"
)

// parallelThreshold is the minimum number of living individuals for the
// worker pool. Below this, deciding inline is faster.
const parallelThreshold = 64

// workChunk is a range of the snapshot for one worker.
type workChunk struct {
	start, end int
}

// parallelState holds the decision phase buffers and worker pool.
type parallelState struct {
	living     []uint16         // snapshot of living handles, ascending
	intents    []systems.Intent // intents[i] belongs to living[i]
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(workers, population int) *parallelState {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: workers,
		living:     make([]uint16, 0, population),
		intents:    make([]systems.Intent, 0, population),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(s *Simulator) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(s)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *parallelState) worker(s *Simulator) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			s.decideChunk(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// decide snapshots the living population and computes one intent per
// individual. Each individual only touches its own network and random
// stream, so chunks can run concurrently.
func (s *Simulator) decide() {
	p := s.parallel
	p.living = s.peeps.Living(p.living[:0])
	for _, index := range p.living {
		s.peeps.Get(index).Age++
	}

	n := len(p.living)
	if cap(p.intents) < n {
		p.intents = make([]systems.Intent, n)
	}
	p.intents = p.intents[:n]
	if n == 0 {
		return
	}

	if n < parallelThreshold || p.numWorkers == 1 {
		s.decideChunk(0, n)
		return
	}
	s.decideParallel(n)
}

// decideParallel dispatches work to the worker pool and waits for it.
func (s *Simulator) decideParallel(n int) {
	p := s.parallel
	if !p.running {
		p.startWorkers(s)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

func (s *Simulator) decideChunk(i0, i1 int) {
	p := s.parallel
	for i := i0; i < i1; i++ {
		p.intents[i] = s.world.Decide(s.peeps.Get(p.living[i]))
	}
}
