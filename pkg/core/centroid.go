package core

import (
	"fmt"
	"math"
	"strings"
)

// Centroid is a single (m/z, rt, scan#, abundance) observation.
type Centroid struct {
	Mz            float64
	RetentionTime float64
	ScanNumber    uint32
	Abundance     float64
}

// Validate checks that the centroid coordinates are finite and non-negative.
func (c Centroid) Validate() error {
	var errs []string
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"m/z", c.Mz},
		{"retention time", c.RetentionTime},
		{"abundance", c.Abundance},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Sprintf("%s is not finite", f.name))
		} else if f.v < 0 {
			errs = append(errs, fmt.Sprintf("%s cannot be negative", f.name))
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Field: "Centroid", Message: strings.Join(errs, "; ")}
	}
	return nil
}

// CentroidsOf turns every element of a spectrum into a centroid carrying the
// spectrum's scan number and retention time.
func CentroidsOf(s Spectrum) []Centroid {
	out := make([]Centroid, 0, len(s.Elements))
	for _, el := range s.Elements {
		out = append(out, Centroid{
			Mz:            el.Mz,
			RetentionTime: s.RetentionTime,
			ScanNumber:    uint32(s.ScanNumber),
			Abundance:     el.Abundance,
		})
	}
	return out
}
