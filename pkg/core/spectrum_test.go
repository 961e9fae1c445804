package core

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestSpectrumValidation(t *testing.T) {
	tests := []struct {
		name    string
		spec    *Spectrum
		wantErr bool
	}{
		{
			name: "valid spectrum",
			spec: &Spectrum{
				Elements: []SpectrumElement{
					{Mz: 100.0, Abundance: 1000.0},
					{Mz: 200.0, Abundance: 2000.0},
				},
			},
			wantErr: false,
		},
		{
			name:    "empty spectrum",
			spec:    &Spectrum{},
			wantErr: false,
		},
		{
			name: "unsorted elements",
			spec: &Spectrum{
				Elements: []SpectrumElement{
					{Mz: 200.0, Abundance: 2000.0},
					{Mz: 100.0, Abundance: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "NaN m/z",
			spec: &Spectrum{
				Elements: []SpectrumElement{
					{Mz: math.NaN(), Abundance: 1000.0},
				},
			},
			wantErr: true,
		},
		{
			name: "negative abundance",
			spec: &Spectrum{
				Elements: []SpectrumElement{
					{Mz: 100.0, Abundance: -1.0},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrPreconditionViolation) {
				t.Errorf("Validate() error %v does not match ErrPreconditionViolation", err)
			}
		})
	}
}

func TestSortElements(t *testing.T) {
	spec := &Spectrum{
		Elements: []SpectrumElement{
			{Mz: 300.0, Abundance: 100.0},
			{Mz: 100.0, Abundance: 200.0},
			{Mz: 200.0, Abundance: 150.0},
		},
	}

	spec.Sort()

	if !spec.IsSorted() {
		t.Fatal("Expected sorted spectrum")
	}
	expected := []float64{100.0, 200.0, 300.0}
	for i, el := range spec.Elements {
		if el.Mz != expected[i] {
			t.Errorf("Element %d: expected m/z %.1f, got %.1f", i, expected[i], el.Mz)
		}
	}
}

func TestTotalAbundanceAndBasePeak(t *testing.T) {
	spec := &Spectrum{
		Elements: []SpectrumElement{
			{Mz: 100.0, Abundance: 0.25},
			{Mz: 101.0, Abundance: 0.5},
			{Mz: 102.0, Abundance: 0.25},
		},
	}

	if total := spec.TotalAbundance(); math.Abs(total-1) > 1e-12 {
		t.Errorf("Expected total abundance 1, got %f", total)
	}
	bp, ok := spec.BasePeak()
	if !ok || bp.Mz != 101.0 {
		t.Errorf("Expected base peak at 101.0, got %v (ok=%v)", bp, ok)
	}

	empty := &Spectrum{}
	if _, ok := empty.BasePeak(); ok {
		t.Error("Expected no base peak for an empty spectrum")
	}
}

func TestClone(t *testing.T) {
	spec := Spectrum{
		Elements:      []SpectrumElement{{Mz: 100.0, Abundance: 1.0}},
		ScanNumber:    12,
		RetentionTime: 34.5,
	}
	c := spec.Clone()
	c.Elements[0].Abundance = 2.0

	if spec.Elements[0].Abundance != 1.0 {
		t.Error("Clone shares elements with the original")
	}
	if c.ScanNumber != 12 || c.RetentionTime != 34.5 {
		t.Errorf("Clone lost metadata: %+v", c)
	}
}

func TestCentroidValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Centroid
		wantErr bool
	}{
		{"valid", Centroid{Mz: 500.0, RetentionTime: 12.0, ScanNumber: 3, Abundance: 10.0}, false},
		{"zero abundance", Centroid{Mz: 500.0, RetentionTime: 12.0}, false},
		{"infinite m/z", Centroid{Mz: math.Inf(1)}, true},
		{"negative rt", Centroid{Mz: 500.0, RetentionTime: -1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCentroidsOf(t *testing.T) {
	spec := Spectrum{
		Elements:      []SpectrumElement{{Mz: 100.0, Abundance: 1.0}, {Mz: 200.0, Abundance: 2.0}},
		ScanNumber:    7,
		RetentionTime: 60.0,
	}
	cs := CentroidsOf(spec)
	if len(cs) != 2 {
		t.Fatalf("Expected 2 centroids, got %d", len(cs))
	}
	for _, c := range cs {
		if c.ScanNumber != 7 || c.RetentionTime != 60.0 {
			t.Errorf("Centroid %+v does not carry the scan metadata", c)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err      error
		sentinel error
		kind     Kind
	}{
		{Precondition("op", "bad %d", 1), ErrPreconditionViolation, KindPreconditionViolation},
		{Invariant("op", "broken"), ErrInvariantViolation, KindInvariantViolation},
		{NotFound("op", "missing %q", "X"), ErrNotFound, KindNotFound},
		{Starvation("op", "no data"), ErrStarvation, KindStarvation},
		{Runtime("op", errors.New("disk full")), ErrRuntime, KindRuntimeError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			if got := KindOf(wrapped); got != tt.kind {
				t.Errorf("KindOf() = %v, want %v", got, tt.kind)
			}
			if errors.Is(tt.err, ErrRuntime) != (tt.kind == KindRuntimeError) {
				t.Errorf("%v matches the wrong sentinel", tt.err)
			}
		})
	}

	if KindOf(errors.New("plain")) != 0 {
		t.Error("Expected kind 0 for a foreign error")
	}
	cause := errors.New("disk full")
	if !errors.Is(Runtime("op", cause), cause) {
		t.Error("Runtime error does not unwrap to its cause")
	}
}
