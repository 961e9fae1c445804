// Package filter provides centroid and spectrum pre-filters
package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Window is an inclusive [Min, Max] range. A zero Max means no upper bound.
type Window struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains reports whether v lies in w.
func (w Window) Contains(v float64) bool {
	if v < w.Min {
		return false
	}
	return w.Max == 0 || v <= w.Max
}

func (w Window) validate(name string) error {
	if w.Min < 0 || w.Max < 0 || (w.Max != 0 && w.Max < w.Min) {
		return core.Precondition("filter.Config.Validate", "invalid %s window [%g, %g]", name, w.Min, w.Max)
	}
	return nil
}

// Config holds filtering configuration
type Config struct {
	TopN            int     `yaml:"top_n"`            // Keep only top N most abundant centroids per scan (0 = no limit)
	AbundanceCutoff float64 `yaml:"abundance_cutoff"` // Keep only centroids above this % of the scan's base peak (0 = no cutoff)
	MinAbundance    float64 `yaml:"min_abundance"`    // Absolute abundance floor
	Mz              Window  `yaml:"mz"`
	RetentionTime   Window  `yaml:"rt"`
}

// Validate checks the configured bounds.
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return core.Precondition("filter.Config.Validate", "top_n must not be negative, got %d", c.TopN)
	}
	if c.AbundanceCutoff < 0 || c.AbundanceCutoff > 100 {
		return core.Precondition("filter.Config.Validate", "abundance cutoff %g out of [0, 100]", c.AbundanceCutoff)
	}
	if err := c.Mz.validate("m/z"); err != nil {
		return err
	}
	return c.RetentionTime.validate("rt")
}

// Apply applies all configured filters to a set of centroids and returns
// the survivors in their original order. The input is not modified.
func (c *Config) Apply(cs []core.Centroid) ([]core.Centroid, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	// Filter by position first
	kept := make([]core.Centroid, 0, len(cs))
	for _, ct := range cs {
		if math.IsNaN(ct.Mz) || math.IsNaN(ct.Abundance) {
			return nil, core.Precondition("filter.Config.Apply", "centroid of scan %d has NaN coordinates", ct.ScanNumber)
		}
		if !c.Mz.Contains(ct.Mz) || !c.RetentionTime.Contains(ct.RetentionTime) {
			continue
		}
		if ct.Abundance < c.MinAbundance {
			continue
		}
		kept = append(kept, ct)
	}

	if c.AbundanceCutoff == 0 && c.TopN == 0 {
		return kept, nil
	}

	// Apply the per-scan filters
	byScan := make(map[uint32][]int)
	for i, ct := range kept {
		byScan[ct.ScanNumber] = append(byScan[ct.ScanNumber], i)
	}
	drop := make([]bool, len(kept))
	for _, idx := range byScan {
		c.filterScan(kept, idx, drop)
	}

	out := kept[:0]
	for i, ct := range kept {
		if !drop[i] {
			out = append(out, ct)
		}
	}
	return out, nil
}

// filterScan marks the centroids of one scan that fail the cutoff or top-N
// filters.
func (c *Config) filterScan(cs []core.Centroid, idx []int, drop []bool) {
	maxAbundance := 0.0
	for _, i := range idx {
		maxAbundance = math.Max(maxAbundance, cs[i].Abundance)
	}
	threshold := (c.AbundanceCutoff / 100.0) * maxAbundance

	var survivors []int
	for _, i := range idx {
		if cs[i].Abundance < threshold {
			drop[i] = true
			continue
		}
		survivors = append(survivors, i)
	}

	if c.TopN == 0 || len(survivors) <= c.TopN {
		return
	}
	sort.SliceStable(survivors, func(a, b int) bool {
		return cs[survivors[a]].Abundance > cs[survivors[b]].Abundance
	})
	for _, i := range survivors[c.TopN:] {
		drop[i] = true
	}
}

// ApplySpectrum applies the abundance filters to a single spectrum in place.
// The position windows apply to m/z and to the spectrum's retention time.
func (c *Config) ApplySpectrum(spec *core.Spectrum) error {
	cs, err := c.Apply(core.CentroidsOf(*spec))
	if err != nil {
		return fmt.Errorf("filtering scan %d: %w", spec.ScanNumber, err)
	}
	spec.Elements = spec.Elements[:0]
	for _, ct := range cs {
		spec.Elements = append(spec.Elements, core.SpectrumElement{Mz: ct.Mz, Abundance: ct.Abundance})
	}

	// Ensure elements are sorted after all filtering
	spec.Sort()
	return nil
}

// RemoveZeroAbundance removes centroids with zero or negative abundance.
func RemoveZeroAbundance(cs []core.Centroid) []core.Centroid {
	var filtered []core.Centroid
	for _, ct := range cs {
		if ct.Abundance > 0 {
			filtered = append(filtered, ct)
		}
	}
	return filtered
}
