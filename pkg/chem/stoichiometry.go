package chem

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Stoichiometry is a multiset of elements with signed, possibly fractional
// counts. No entry ever holds a count of exactly zero. The zero value is an
// empty stoichiometry ready to use.
type Stoichiometry struct {
	counts map[ElementID]float64
}

// NewStoichiometry builds a stoichiometry from id/count pairs.
func NewStoichiometry(counts map[ElementID]float64) Stoichiometry {
	var s Stoichiometry
	for id, c := range counts {
		s.Add(id, c)
	}
	return s
}

// Get returns the count of id, 0 if absent.
func (s Stoichiometry) Get(id ElementID) float64 {
	return s.counts[id]
}

// Set stores count for id; a zero count erases the entry.
func (s *Stoichiometry) Set(id ElementID, count float64) {
	if count == 0 {
		delete(s.counts, id)
		return
	}
	if s.counts == nil {
		s.counts = make(map[ElementID]float64)
	}
	s.counts[id] = count
}

// Add adds delta to the count of id; a resulting zero erases the entry.
func (s *Stoichiometry) Add(id ElementID, delta float64) {
	s.Set(id, s.counts[id]+delta)
}

// AddAll adds every count of o (s += o).
func (s *Stoichiometry) AddAll(o Stoichiometry) {
	for id, c := range o.counts {
		s.Add(id, c)
	}
}

// SubtractAll subtracts every count of o (s -= o).
func (s *Stoichiometry) SubtractAll(o Stoichiometry) {
	for id, c := range o.counts {
		s.Add(id, -c)
	}
}

// Plus returns s + o.
func (s Stoichiometry) Plus(o Stoichiometry) Stoichiometry {
	r := s.Clone()
	r.AddAll(o)
	return r
}

// Minus returns s - o.
func (s Stoichiometry) Minus(o Stoichiometry) Stoichiometry {
	r := s.Clone()
	r.SubtractAll(o)
	return r
}

// Negate returns -s.
func (s Stoichiometry) Negate() Stoichiometry {
	return s.Scale(-1)
}

// Scale returns s with every count multiplied by factor.
func (s Stoichiometry) Scale(factor float64) Stoichiometry {
	var r Stoichiometry
	for id, c := range s.counts {
		r.Set(id, c*factor)
	}
	return r
}

// Clone returns a deep copy.
func (s Stoichiometry) Clone() Stoichiometry {
	var r Stoichiometry
	for id, c := range s.counts {
		r.Set(id, c)
	}
	return r
}

// IsEmpty reports whether no element is present.
func (s Stoichiometry) IsEmpty() bool {
	return len(s.counts) == 0
}

// Len returns the number of distinct elements.
func (s Stoichiometry) Len() int {
	return len(s.counts)
}

// NonNegative reports whether every count is >= 0.
func (s Stoichiometry) NonNegative() bool {
	for _, c := range s.counts {
		if c < 0 {
			return false
		}
	}
	return true
}

// HasFractionalCounts reports whether any count is non-integral.
func (s Stoichiometry) HasFractionalCounts() bool {
	for _, c := range s.counts {
		if c != math.Trunc(c) {
			return true
		}
	}
	return false
}

// Elements returns the element ids in ascending order.
func (s Stoichiometry) Elements() []ElementID {
	ids := make([]ElementID, 0, len(s.counts))
	for id := range s.counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Counts returns a copy of the underlying mapping.
func (s Stoichiometry) Counts() map[ElementID]float64 {
	m := make(map[ElementID]float64, len(s.counts))
	for id, c := range s.counts {
		m[id] = c
	}
	return m
}

// Equal compares the mappings exactly.
func (s Stoichiometry) Equal(o Stoichiometry) bool {
	if len(s.counts) != len(o.counts) {
		return false
	}
	for id, c := range s.counts {
		if oc, ok := o.counts[id]; !ok || oc != c {
			return false
		}
	}
	return true
}

// ApplyConfig rebinds every element to the id cfg assigns to its symbol,
// keeping counts. Symbols missing from cfg fall back to the default config;
// symbols unknown to both fail with NotFound and leave s unchanged.
func (s *Stoichiometry) ApplyConfig(cfg *StoichiometryConfig) error {
	const op = "chem.Stoichiometry.ApplyConfig"

	var def *StoichiometryConfig
	var delta Stoichiometry
	for _, id := range s.Elements() {
		e, err := GetElement(id)
		if err != nil {
			return err
		}
		target, err := cfg.KeyForSymbol(e.Symbol)
		if err != nil {
			if def == nil {
				def = DefaultConfig()
			}
			target, err = def.KeyForSymbol(e.Symbol)
			if err != nil {
				return core.NotFound(op, "element symbol %q unknown in config %q and default config", e.Symbol, cfg.ID())
			}
		}
		if target != id {
			c := s.counts[id]
			delta.Add(target, c)
			delta.Add(id, -c)
		}
	}
	s.AddAll(delta)
	return nil
}

// RecalculatedWith returns a copy of s with cfg applied.
func (s Stoichiometry) RecalculatedWith(cfg *StoichiometryConfig) (Stoichiometry, error) {
	r := s.Clone()
	if err := r.ApplyConfig(cfg); err != nil {
		return Stoichiometry{}, err
	}
	return r, nil
}

// String renders the composition in Hill order (C, H, then alphabetical).
func (s Stoichiometry) String() string {
	type entry struct {
		symbol string
		count  float64
	}
	entries := make([]entry, 0, len(s.counts))
	for id, c := range s.counts {
		sym := fmt.Sprintf("#%d", id)
		if e, err := GetElement(id); err == nil {
			sym = e.Symbol
		}
		entries = append(entries, entry{sym, c})
	}
	rank := func(sym string) int {
		switch sym {
		case "C":
			return 0
		case "H":
			return 1
		}
		return 2
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, rj := rank(entries[i].symbol), rank(entries[j].symbol)
		if ri != rj {
			return ri < rj
		}
		return entries[i].symbol < entries[j].symbol
	})

	var b strings.Builder
	for _, e := range entries {
		if len(e.symbol) > 0 && e.symbol[0] >= '0' && e.symbol[0] <= '9' {
			b.WriteString("[" + e.symbol + "]")
		} else {
			b.WriteString(e.symbol)
		}
		if e.count != 1 {
			b.WriteString(strconv.FormatFloat(e.count, 'g', -1, 64))
		}
	}
	return b.String()
}
