// Package core provides the shared data model (spectra, centroids) and the
// typed error kinds used across mstk.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SpectrumElement is a single (m/z, abundance) pair.
type SpectrumElement struct {
	Mz        float64
	Abundance float64
}

// Spectrum is an ordered sequence of spectrum elements with optional scan metadata.
type Spectrum struct {
	Elements []SpectrumElement

	// Optional metadata, set by readers
	ScanNumber      int
	RetentionTime   float64
	PrecursorCharge int // 0 when unknown
	SourceFile      string
}

// ValidationError represents an error found during spectrum or centroid validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Is lets a ValidationError match ErrPreconditionViolation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrPreconditionViolation
}

// Validate checks that all elements are finite, non-negative and sorted by m/z.
func (s *Spectrum) Validate() error {
	var errs []string

	for i, el := range s.Elements {
		if math.IsNaN(el.Mz) || math.IsInf(el.Mz, 0) {
			errs = append(errs, fmt.Sprintf("element %d has invalid m/z", i))
		}
		if math.IsNaN(el.Abundance) || math.IsInf(el.Abundance, 0) {
			errs = append(errs, fmt.Sprintf("element %d has invalid abundance", i))
		}
		if el.Mz < 0 {
			errs = append(errs, fmt.Sprintf("element %d m/z must be non-negative", i))
		}
		if el.Abundance < 0 {
			errs = append(errs, fmt.Sprintf("element %d abundance must be non-negative", i))
		}
	}

	if !s.IsSorted() {
		errs = append(errs, "elements must be sorted by m/z")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Spectrum",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// Len returns the number of elements.
func (s *Spectrum) Len() int {
	return len(s.Elements)
}

// IsSorted checks if elements are sorted by m/z in ascending order.
func (s *Spectrum) IsSorted() bool {
	for i := 1; i < len(s.Elements); i++ {
		if s.Elements[i].Mz < s.Elements[i-1].Mz {
			return false
		}
	}
	return true
}

// Sort sorts elements by m/z in ascending order.
func (s *Spectrum) Sort() {
	sort.SliceStable(s.Elements, func(i, j int) bool {
		return s.Elements[i].Mz < s.Elements[j].Mz
	})
}

// TotalAbundance returns the sum of all abundances.
func (s *Spectrum) TotalAbundance() float64 {
	total := 0.0
	for _, el := range s.Elements {
		total += el.Abundance
	}
	return total
}

// BasePeak returns the most abundant element; ok is false for an empty spectrum.
func (s *Spectrum) BasePeak() (el SpectrumElement, ok bool) {
	for i, e := range s.Elements {
		if i == 0 || e.Abundance > el.Abundance {
			el = e
		}
	}
	return el, len(s.Elements) > 0
}

// Clone returns a deep copy.
func (s Spectrum) Clone() Spectrum {
	c := s
	c.Elements = append([]SpectrumElement(nil), s.Elements...)
	return c
}

// ElementMz and ElementAbundance extract the coordinates of a SpectrumElement.
func ElementMz(e SpectrumElement) float64        { return e.Mz }
func ElementAbundance(e SpectrumElement) float64 { return e.Abundance }
