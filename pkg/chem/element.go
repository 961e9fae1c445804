// Package chem provides the interned chemistry catalogs (elements, stoichiometry
// configs, amino acids, modifications) and the stoichiometry algebra.
package chem

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

//go:embed elements.yaml
var elementsYAML []byte

// Isotope is an immutable (mass, natural abundance) pair.
type Isotope struct {
	Mz        float64 `yaml:"mz"`
	Abundance float64 `yaml:"abundance"`
}

// ElementID identifies an interned element.
type ElementID int

// Element is an immutable chemical element or isotopologue. Isotopes are
// ordered by ascending mass and shared between handles; do not modify them.
type Element struct {
	ID           ElementID
	Symbol       string
	AtomicNumber int
	Isotopes     []Isotope
}

// Equal compares all fields, including the isotope list.
func (e Element) Equal(o Element) bool {
	if e.ID != o.ID || e.Symbol != o.Symbol || e.AtomicNumber != o.AtomicNumber {
		return false
	}
	if len(e.Isotopes) != len(o.Isotopes) {
		return false
	}
	for i := range e.Isotopes {
		if e.Isotopes[i] != o.Isotopes[i] {
			return false
		}
	}
	return true
}

// MonoisotopicMass returns the lightest isotope mass.
func (e Element) MonoisotopicMass() float64 {
	if len(e.Isotopes) == 0 {
		return 0
	}
	m := e.Isotopes[0].Mz
	for _, iso := range e.Isotopes[1:] {
		if iso.Mz < m {
			m = iso.Mz
		}
	}
	return m
}

// AverageMass returns the abundance-weighted mean isotope mass.
func (e Element) AverageMass() float64 {
	var sum, norm float64
	for _, iso := range e.Isotopes {
		sum += iso.Mz * iso.Abundance
		norm += iso.Abundance
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func (e Element) String() string {
	return fmt.Sprintf("%s(%d)", e.Symbol, e.ID)
}

type elementFile struct {
	Elements []struct {
		Symbol       string    `yaml:"symbol"`
		AtomicNumber int       `yaml:"atomic_number"`
		Isotopes     []Isotope `yaml:"isotopes"`
	} `yaml:"elements"`
}

// elementCatalog is the process-wide element table. Registration is
// first-write-wins.
type elementCatalog struct {
	mu             sync.RWMutex
	elements       map[ElementID]Element
	defaultMapping map[string]ElementID
	maxID          ElementID
}

var elements = mustLoadElements(elementsYAML)

func mustLoadElements(data []byte) *elementCatalog {
	c, err := loadElements(data)
	if err != nil {
		panic(fmt.Sprintf("chem: embedded element table: %v", err))
	}
	return c
}

func loadElements(data []byte) (*elementCatalog, error) {
	var f elementFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse element table: %w", err)
	}
	c := &elementCatalog{
		elements:       make(map[ElementID]Element, len(f.Elements)),
		defaultMapping: make(map[string]ElementID, len(f.Elements)),
	}
	for i, e := range f.Elements {
		id := ElementID(i + 1)
		if _, dup := c.defaultMapping[e.Symbol]; dup {
			return nil, fmt.Errorf("duplicate element symbol %q", e.Symbol)
		}
		c.elements[id] = Element{ID: id, Symbol: e.Symbol, AtomicNumber: e.AtomicNumber, Isotopes: e.Isotopes}
		c.defaultMapping[e.Symbol] = id
		c.maxID = id
	}
	return c, nil
}

// AddElement registers a custom element. An existing id is never overwritten;
// the result reports whether the stored element equals the submitted one.
func AddElement(id ElementID, symbol string, atomicNumber int, isotopes []Isotope) bool {
	e := Element{
		ID:           id,
		Symbol:       symbol,
		AtomicNumber: atomicNumber,
		Isotopes:     append([]Isotope(nil), isotopes...),
	}

	elements.mu.Lock()
	defer elements.mu.Unlock()

	if stored, ok := elements.elements[id]; ok {
		return stored.Equal(e)
	}
	elements.elements[id] = e
	if id > elements.maxID {
		elements.maxID = id
	}
	return true
}

// GetElement returns the element registered under id.
func GetElement(id ElementID) (Element, error) {
	elements.mu.RLock()
	defer elements.mu.RUnlock()

	e, ok := elements.elements[id]
	if !ok {
		return Element{}, core.NotFound("chem.GetElement", "no element with id %d", id)
	}
	return e, nil
}

// ElementBySymbol resolves a symbol through the default mapping.
func ElementBySymbol(symbol string) (Element, error) {
	elements.mu.RLock()
	id, ok := elements.defaultMapping[symbol]
	elements.mu.RUnlock()
	if !ok {
		return Element{}, core.NotFound("chem.ElementBySymbol", "unknown element symbol %q", symbol)
	}
	return GetElement(id)
}

// DefaultSymbolToID returns a copy of the standard symbol to id mapping.
func DefaultSymbolToID() map[string]ElementID {
	elements.mu.RLock()
	defer elements.mu.RUnlock()

	m := make(map[string]ElementID, len(elements.defaultMapping))
	for k, v := range elements.defaultMapping {
		m[k] = v
	}
	return m
}

// NextFreeID returns an id not used by any registered element.
func NextFreeID() ElementID {
	elements.mu.RLock()
	defer elements.mu.RUnlock()
	return elements.maxID + 1
}

// ElementIDs lists all registered ids in ascending order.
func ElementIDs() []ElementID {
	elements.mu.RLock()
	defer elements.mu.RUnlock()

	ids := make([]ElementID, 0, len(elements.elements))
	for id := range elements.elements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
