package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gocarina/gocsv"
)

func TestParamListMarshalCSV(t *testing.T) {
	tests := []struct {
		name string
		in   paramList
		want string
	}{
		{"empty", nil, ""},
		{"single", paramList{0.5}, "0.500000"},
		{"several", paramList{0.001, 5, 2.25}, "0.001000 5.000000 2.250000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.MarshalCSV()
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("MarshalCSV() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalRecordCSV(t *testing.T) {
	var buf bytes.Buffer
	rec := []evalRecord{{Eval: 1, Fitness: -0.5, Ratio: 0.5, Params: paramList{1, 2}}}
	if err := gocsv.Marshal(rec, &buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header and one row", len(lines))
	}
	if lines[0] != "eval,fitness,survivor_ratio,params" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",1.000000 2.000000") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestClampRoundsIntegers(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		v[i] = spec.Max + 1
	}
	v[3] = 4.6 // max_neurons

	got := pv.Clamp(v)
	for i, spec := range pv.Specs {
		if i == 3 {
			continue
		}
		if got[i] != spec.Max {
			t.Errorf("%s = %v, want %v", spec.Name, got[i], spec.Max)
		}
	}
	if got[3] != 5 {
		t.Errorf("max_neurons = %v, want 5", got[3])
	}
}
