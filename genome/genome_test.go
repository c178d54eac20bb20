package genome

import (
	"math"
	"math/rand"
	"testing"
)

func TestPackedRoundTrip(t *testing.T) {
	g := Gene{SourceType: Sensor, SourceNum: 17, SinkType: Action, SinkNum: 5, Weight: -1234}
	if got := Unpack(g.Packed()); got != g {
		t.Errorf("Unpack(Packed()) = %+v, want %+v", got, g)
	}
	if got := g.String(); len(got) != 8 {
		t.Errorf("String() = %q, want 8 hex digits", got)
	}
}

func TestWeightAsFloat(t *testing.T) {
	tests := []struct {
		w    int16
		want float32
	}{
		{0, 0},
		{8192, 1},
		{-8192, -1},
		{-32768, -4},
	}
	for _, tt := range tests {
		if got := (Gene{Weight: tt.w}).WeightAsFloat(); got != tt.want {
			t.Errorf("WeightAsFloat(%d) = %v, want %v", tt.w, got, tt.want)
		}
	}
}

func TestRandomLength(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		g := Random(rng, 4, 9)
		if len(g) < 4 || len(g) > 9 {
			t.Fatalf("len = %d, want within [4,9]", len(g))
		}
		for _, gene := range g {
			if gene.SourceType == Action || gene.SinkType == Sensor {
				t.Fatalf("invalid endpoint types in %+v", gene)
			}
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := Random(rng, 5, 5)
	b := a.Clone()
	b[0].Weight++
	if a[0].Weight == b[0].Weight {
		t.Error("clone shares storage with original")
	}
}

func TestChildLeavesParentsUntouched(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	parents := []Genome{Random(rng, 10, 10), Random(rng, 14, 14), Random(rng, 8, 8)}
	snapshot := make([]string, len(parents))
	for i, p := range parents {
		snapshot[i] = p.String()
	}

	r := Reproduction{
		PointMutationRate:         0.5,
		GeneInsertionDeletionRate: 0.5,
		DeletionRatio:             0.5,
		MaxLength:                 20,
		SexualReproduction:        true,
		ChooseParentsByFitness:    true,
	}
	for i := 0; i < 200; i++ {
		child := r.Child(rng, parents)
		if len(child) == 0 || len(child) > 20 {
			t.Fatalf("child length %d out of range", len(child))
		}
	}
	for i, p := range parents {
		if p.String() != snapshot[i] {
			t.Errorf("parent %d was modified", i)
		}
	}
}

func TestChildWithoutMutationCopiesParent(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	parent := Random(rng, 12, 12)
	child := Reproduction{}.Child(rng, []Genome{parent})
	if child.String() != parent.String() {
		t.Errorf("child = %s, want copy of %s", child, parent)
	}
}

func TestSimilarityKin(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	a := Random(rng, 16, 16)
	b := a.Clone()
	b[7].Weight += 40

	c := Comparer{Method: Jaro, WeightTolerance: 64}
	if got := c.Similarity(a, b); got < 0.7 {
		t.Errorf("similarity of near-identical genomes = %v, want >= 0.7", got)
	}
	if got := c.Similarity(a, a); math.Abs(got-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", got)
	}

	// Disjoint: every gene of d wires a different sink than any gene of a.
	d := a.Clone()
	for i := range d {
		d[i].SinkNum = a[i].SinkNum ^ 0x4000
		d[i].SourceNum = 0x7fff - a[i].SourceNum
	}
	for i := range d {
		for j := range a {
			if d[i].sameWiring(a[j], 64) {
				t.Fatalf("test genomes not disjoint at %d/%d", i, j)
			}
		}
	}
	if got := c.Similarity(a, d); got >= 0.7 {
		t.Errorf("similarity of disjoint genomes = %v, want < 0.7", got)
	}
}

func TestSimilarityMethods(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	a := Random(rng, 30, 30)
	b := Random(rng, 30, 30)

	for _, m := range []SimilarityMethod{Jaro, HammingBits, HammingBytes} {
		t.Run(m.String(), func(t *testing.T) {
			c := Comparer{Method: m}
			if got := c.Similarity(a, a); math.Abs(got-1) > 1e-9 {
				t.Errorf("self similarity = %v, want 1", got)
			}
			got := c.Similarity(a, b)
			if got < 0 || got > 1 {
				t.Errorf("similarity %v outside [0,1]", got)
			}
			if got > 0.5 {
				t.Errorf("random genomes look related: %v", got)
			}
			if got := c.Similarity(a, nil); got < 0 || got > 1 {
				t.Errorf("similarity to empty genome %v outside [0,1]", got)
			}
		})
	}
}

func TestDiversity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := Random(rng, 10, 10)
	clones := []Genome{base, base.Clone(), base.Clone(), base.Clone()}

	c := Comparer{Method: Jaro}
	if got := c.Diversity(clones); math.Abs(got) > 1e-9 {
		t.Errorf("diversity of clones = %v, want 0", got)
	}
	if got := c.Diversity(clones[:1]); got != 0 {
		t.Errorf("diversity of single genome = %v, want 0", got)
	}

	mixed := []Genome{Random(rng, 10, 10), Random(rng, 10, 10), Random(rng, 10, 10)}
	if got := c.Diversity(mixed); got < 0.5 {
		t.Errorf("diversity of random genomes = %v, want high", got)
	}
}

func TestMeanLength(t *testing.T) {
	gs := []Genome{make(Genome, 2), make(Genome, 4), make(Genome, 9)}
	if got := MeanLength(gs); got != 5 {
		t.Errorf("MeanLength = %v, want 5", got)
	}
	if got := MeanLength(nil); got != 0 {
		t.Errorf("MeanLength(nil) = %v, want 0", got)
	}
}
