package chem

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// Modification is a named composition change (Unimod naming).
type Modification struct {
	Name  string
	Delta Stoichiometry // counts may be negative
	Mass  float64       // monoisotopic mass shift
}

// Equal compares name and composition.
func (m Modification) Equal(o Modification) bool {
	return m.Name == o.Name && m.Delta.Equal(o.Delta)
}

// ModificationSite places a modification on a residue (0-based, -1 for the
// N-terminus).
type ModificationSite struct {
	Modification
	Position int
}

// NewModification computes the mass shift of delta.
func NewModification(name string, delta Stoichiometry) (Modification, error) {
	mass, err := delta.MonoisotopicMass()
	if err != nil {
		return Modification{}, err
	}
	return Modification{Name: name, Delta: delta.Clone(), Mass: mass}, nil
}

// ModDatabase stores modification definitions. Entries are first-write-wins.
type ModDatabase struct {
	mu   sync.RWMutex
	mods map[string]Modification
}

// NewModDatabase creates an empty modification database
func NewModDatabase() *ModDatabase {
	return &ModDatabase{
		mods: make(map[string]Modification),
	}
}

// LoadFromCSV loads modifications from a CSV file (format: name,formula) with
// a header line.
func (db *ModDatabase) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		name := strings.TrimSpace(parts[0])
		formula := strings.TrimSpace(parts[1])

		delta, err := ParseFormula(formula)
		if err != nil {
			return fmt.Errorf("line %d: invalid formula '%s': %w", lineNum, formula, err)
		}
		m, err := NewModification(name, delta)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		db.Add(m)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// Get returns the modification registered under name.
func (db *ModDatabase) Get(name string) (Modification, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	m, ok := db.mods[name]
	if !ok {
		return Modification{}, core.NotFound("chem.ModDatabase.Get", "unknown modification '%s'", name)
	}
	return m, nil
}

// Add registers m unless its name is taken. The result reports whether the
// stored entry equals m.
func (db *ModDatabase) Add(m Modification) bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if stored, ok := db.mods[m.Name]; ok {
		return stored.Equal(m)
	}
	db.mods[m.Name] = m
	return true
}

// Names lists the registered modification names in sorted order.
func (db *ModDatabase) Names() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.mods))
	for n := range db.mods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseModString parses a modification string like "Carbamidomethyl@C2;Oxidation@M8".
func (db *ModDatabase) ParseModString(modStr string, sequence string) ([]ModificationSite, error) {
	if modStr == "" {
		return nil, nil
	}

	var sites []ModificationSite
	for _, part := range strings.Split(modStr, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		atParts := strings.Split(part, "@")
		if len(atParts) != 2 {
			return nil, fmt.Errorf("invalid modification format '%s', expected 'name@position'", part)
		}

		m, err := db.Get(strings.TrimSpace(atParts[0]))
		if err != nil {
			return nil, err
		}

		posStr := strings.TrimSpace(atParts[1])
		position, err := parsePosition(posStr, sequence)
		if err != nil {
			return nil, fmt.Errorf("invalid position '%s': %w", posStr, err)
		}

		sites = append(sites, ModificationSite{Modification: m, Position: position})
	}

	return sites, nil
}

// parsePosition parses a position string that may be just a number or include an amino acid
// Examples: "2", "C2", "-1" (N-terminal)
func parsePosition(posStr string, sequence string) (int, error) {
	posStr = strings.TrimSpace(posStr)

	if posStr == "-1" || strings.HasSuffix(posStr, "-1") {
		return -1, nil
	}

	residue := strings.TrimRight(posStr, "0123456789")
	pos, err := strconv.Atoi(strings.TrimPrefix(posStr, residue))
	if err != nil {
		return 0, fmt.Errorf("invalid position number: %w", err)
	}
	if pos < 1 || pos > len(sequence) {
		return 0, fmt.Errorf("position %d outside sequence of length %d", pos, len(sequence))
	}
	if residue != "" && residue != sequence[pos-1:pos] {
		return 0, fmt.Errorf("residue %s does not match %s at position %d", residue, sequence[pos-1:pos], pos)
	}

	return pos - 1, nil
}

// ModifiedPeptideStoichiometry returns the peptide composition with all
// modification deltas applied.
func ModifiedPeptideStoichiometry(sequence string, sites []ModificationSite) (Stoichiometry, error) {
	s, err := PeptideStoichiometry(sequence)
	if err != nil {
		return Stoichiometry{}, err
	}
	for _, site := range sites {
		s.AddAll(site.Delta)
	}
	return s, nil
}

var standardModifications = []struct {
	name, formula string
}{
	{"Acetyl", "H2C2O"},
	{"Amidated", "HNO-1"},
	{"Carbamidomethyl", "H3C2NO"},
	{"Carbamyl", "HCNO"},
	{"Carboxymethyl", "H2C2O2"},
	{"Deamidated", "H-1N-1O"},
	{"Oxidation", "O"},
	{"Phospho", "HO3P"},
	{"Methyl", "CH2"},
	{"Dimethyl", "H4C2"},
	{"Trimethyl", "H6C3"},
	{"Dehydrated", "H-2O-1"},
	{"Glu->pyro-Glu", "H-2O-1"},
	{"Gln->pyro-Glu", "H-3N-1"},
	{"Cation:Na", "H-1Na"},
	{"Sulfo", "O3S"},
	{"Hex", "H10C6O5"},
	{"HexNAc", "H13C8NO5"},
	{"Propionamide", "H5C3NO"},
	{"Propionyl", "H4C3O"},
	{"Label:13C(6)", "C-6[13C]6"},
	{"Label:13C(6)15N(2)", "C-6[13C]6N-2[15N]2"},
}

// DefaultModDatabase returns a ModDatabase pre-loaded with common modifications
func DefaultModDatabase() *ModDatabase {
	db := NewModDatabase()
	for _, sm := range standardModifications {
		m, err := NewModification(sm.name, MustParseFormula(sm.formula))
		if err != nil {
			panic(err)
		}
		db.Add(m)
	}
	return db
}
