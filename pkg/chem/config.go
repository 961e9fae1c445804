package chem

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// DefaultConfigID names the config that maps every standard symbol to its
// standard element.
const DefaultConfigID = "DEFAULT_STOICHIOMETRY_CONFIG"

// StoichiometryConfig maps element symbols to element ids. Custom configs
// rebind symbols to isotopologues, e.g. "C" to an all-13C element.
type StoichiometryConfig struct {
	id      string
	mapping map[string]ElementID
}

// NewStoichiometryConfig creates a config. The reserved DefaultConfigID is
// pre-populated with the standard mapping; any other id starts empty.
func NewStoichiometryConfig(id string) *StoichiometryConfig {
	c := &StoichiometryConfig{id: id, mapping: make(map[string]ElementID)}
	if id == DefaultConfigID {
		c.mapping = DefaultSymbolToID()
	}
	return c
}

// ID returns the config identifier.
func (c *StoichiometryConfig) ID() string {
	return c.id
}

// InsertElement maps the element's symbol to its id. Existing entries are
// kept; the result reports whether the mapping was added.
func (c *StoichiometryConfig) InsertElement(e Element) bool {
	return c.Insert(e.Symbol, e.ID)
}

// Insert maps symbol to id unless symbol is already mapped.
func (c *StoichiometryConfig) Insert(symbol string, id ElementID) bool {
	if _, ok := c.mapping[symbol]; ok {
		return false
	}
	c.mapping[symbol] = id
	return true
}

// KeyForSymbol returns the element id mapped to symbol.
func (c *StoichiometryConfig) KeyForSymbol(symbol string) (ElementID, error) {
	id, ok := c.mapping[symbol]
	if !ok {
		return 0, core.NotFound("chem.StoichiometryConfig.KeyForSymbol",
			"symbol %q not in config %q", symbol, c.id)
	}
	return id, nil
}

// Mapping returns a copy of the symbol to id mapping.
func (c *StoichiometryConfig) Mapping() map[string]ElementID {
	m := make(map[string]ElementID, len(c.mapping))
	for k, v := range c.mapping {
		m[k] = v
	}
	return m
}

// Clone copies the mapping under a new id.
func (c *StoichiometryConfig) Clone(id string) *StoichiometryConfig {
	n := &StoichiometryConfig{id: id, mapping: c.Mapping()}
	return n
}

// Equal compares id and mapping.
func (c *StoichiometryConfig) Equal(o *StoichiometryConfig) bool {
	if c.id != o.id || len(c.mapping) != len(o.mapping) {
		return false
	}
	for k, v := range c.mapping {
		if ov, ok := o.mapping[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

func (c *StoichiometryConfig) String() string {
	keys := make([]string, 0, len(c.mapping))
	for k := range c.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(c.id)
	b.WriteString(":")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%d", k, c.mapping[k])
	}
	return b.String()
}

var configs = struct {
	mu sync.RWMutex
	m  map[string]*StoichiometryConfig
}{m: make(map[string]*StoichiometryConfig)}

// RegisterConfig interns a copy of c under its id. An existing id is never
// overwritten; the result reports whether the stored config equals c.
func RegisterConfig(c *StoichiometryConfig) bool {
	configs.mu.Lock()
	defer configs.mu.Unlock()

	if stored, ok := configs.m[c.id]; ok {
		return stored.Equal(c)
	}
	configs.m[c.id] = c.Clone(c.id)
	return true
}

// LookupConfig returns the interned config for id. The default config is
// always available.
func LookupConfig(id string) (*StoichiometryConfig, error) {
	if id == DefaultConfigID {
		return DefaultConfig(), nil
	}
	configs.mu.RLock()
	defer configs.mu.RUnlock()

	c, ok := configs.m[id]
	if !ok {
		return nil, core.NotFound("chem.LookupConfig", "no stoichiometry config %q", id)
	}
	return c.Clone(id), nil
}

// DefaultConfig returns the standard config.
func DefaultConfig() *StoichiometryConfig {
	return NewStoichiometryConfig(DefaultConfigID)
}
