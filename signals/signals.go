// Package signals implements the pheromone layers that overlay the grid.
package signals

import (
	"fmt"

	"github.com/pthm-cable/biosim/grid"
)

// Max is the saturation intensity of a signal cell.
const Max = 255.0

const (
	depositRadius   = 1.5
	centerIncrement = 2
	neighborIncr    = 1
)

// Signals holds independent intensity layers aligned with a grid.
type Signals struct {
	sizeX, sizeY int
	layers       [][]float32
	scratch      []float32

	// Fade is subtracted from every cell each step.
	Fade float32
	// Diffusion is the fraction of a cell's intensity spread evenly to its
	// eight neighbours each step.
	Diffusion float32

	bounds grid.Bounds
}

// New allocates layers zero-filled planes of sizeX x sizeY.
func New(layers, sizeX, sizeY int) *Signals {
	s := &Signals{
		sizeX:   sizeX,
		sizeY:   sizeY,
		layers:  make([][]float32, layers),
		scratch: make([]float32, sizeX*sizeY),
		Fade:    1,
		bounds:  grid.Bounds{SizeX: sizeX, SizeY: sizeY},
	}
	for i := range s.layers {
		s.layers[i] = make([]float32, sizeX*sizeY)
	}
	return s
}

// NumLayers returns the number of layers.
func (s *Signals) NumLayers() int { return len(s.layers) }

// ZeroFill resets every layer.
func (s *Signals) ZeroFill() {
	for _, l := range s.layers {
		clear(l)
	}
}

func (s *Signals) idx(loc grid.Coord) int {
	if !s.bounds.Contains(loc) {
		panic(fmt.Errorf("%w: signal cell (%d,%d)", grid.ErrOutOfBounds, loc.X, loc.Y))
	}
	return int(loc.X)*s.sizeY + int(loc.Y)
}

// Magnitude returns the intensity of layer at loc.
func (s *Signals) Magnitude(layer int, loc grid.Coord) float32 {
	return s.layers[layer][s.idx(loc)]
}

// Increment deposits signal around loc: every cell within radius 1.5 gains
// one unit and loc itself gains two more, clamped to Max.
func (s *Signals) Increment(layer int, loc grid.Coord) {
	l := s.layers[layer]
	s.bounds.VisitNeighborhood(loc, depositRadius, func(c grid.Coord) {
		i := s.idx(c)
		l[i] = min(Max, l[i]+neighborIncr)
	})
	i := s.idx(loc)
	l[i] = min(Max, l[i]+centerIncrement)
}

// FadeLayer decays one layer toward zero and then diffuses it.
func (s *Signals) FadeLayer(layer int) {
	l := s.layers[layer]
	for i, v := range l {
		l[i] = max(0, v-s.Fade)
	}
	if s.Diffusion <= 0 {
		return
	}

	copy(s.scratch, l)
	share := s.Diffusion / 8
	for x := 0; x < s.sizeX; x++ {
		for y := 0; y < s.sizeY; y++ {
			v := s.scratch[x*s.sizeY+y]
			if v == 0 {
				continue
			}
			out := v * share
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= s.sizeX || ny < 0 || ny >= s.sizeY {
						continue
					}
					l[nx*s.sizeY+ny] += out
					l[x*s.sizeY+y] -= out
				}
			}
		}
	}
	for i, v := range l {
		l[i] = min(Max, max(0, v))
	}
}

// FadeAll fades every layer.
func (s *Signals) FadeAll() {
	for i := range s.layers {
		s.FadeLayer(i)
	}
}

// Density returns the mean intensity of layer over the neighbourhood of loc,
// normalised to [0,1].
func (s *Signals) Density(layer int, loc grid.Coord, radius float64) float32 {
	var sum float64
	count := 0
	s.bounds.VisitNeighborhood(loc, radius, func(c grid.Coord) {
		count++
		sum += float64(s.layers[layer][s.idx(c)])
	})
	if count == 0 {
		return 0
	}
	return float32(sum / (float64(count) * Max))
}

// Total returns the summed intensity of a layer.
func (s *Signals) Total(layer int) float64 {
	var sum float64
	for _, v := range s.layers[layer] {
		sum += float64(v)
	}
	return sum
}
