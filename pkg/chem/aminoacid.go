package chem

import (
	"strings"
	"sync"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// ProtonMass is used for charge calculations.
const ProtonMass = 1.00727646688

// Pseudo residues carrying the terminal groups.
const (
	PeptideNTerm = '0'
	PeptideCTerm = '1'
	ProteinNTerm = '2'
	ProteinCTerm = '3'
)

// AminoAcid is an interned residue with its canonical composition.
type AminoAcid struct {
	Key             rune
	ThreeLetterCode string
	FullName        string
	Stoichiometry   Stoichiometry
}

// IsNTerm reports whether a is a peptide or protein N-terminus.
func (a AminoAcid) IsNTerm() bool {
	return a.Key == PeptideNTerm || a.Key == ProteinNTerm
}

// IsCTerm reports whether a is a peptide or protein C-terminus.
func (a AminoAcid) IsCTerm() bool {
	return a.Key == PeptideCTerm || a.Key == ProteinCTerm
}

// Equal compares all fields.
func (a AminoAcid) Equal(o AminoAcid) bool {
	return a.Key == o.Key && a.ThreeLetterCode == o.ThreeLetterCode &&
		a.FullName == o.FullName && a.Stoichiometry.Equal(o.Stoichiometry)
}

// aminoAcidComposition stores elemental composition
type aminoAcidComposition struct {
	H, C, N, O, S float64
}

var standardAminoAcids = []struct {
	key      rune
	tlc      string
	fullName string
	comp     aminoAcidComposition
}{
	{'A', "Ala", "Alanine", aminoAcidComposition{H: 5, C: 3, N: 1, O: 1}},
	{'C', "Cys", "Cysteine", aminoAcidComposition{H: 5, C: 3, N: 1, O: 1, S: 1}},
	{'D', "Asp", "Aspartic acid", aminoAcidComposition{H: 5, C: 4, N: 1, O: 3}},
	{'E', "Glu", "Glutamic acid", aminoAcidComposition{H: 7, C: 5, N: 1, O: 3}},
	{'F', "Phe", "Phenylalanine", aminoAcidComposition{H: 9, C: 9, N: 1, O: 1}},
	{'G', "Gly", "Glycine", aminoAcidComposition{H: 3, C: 2, N: 1, O: 1}},
	{'H', "His", "Histidine", aminoAcidComposition{H: 7, C: 6, N: 3, O: 1}},
	{'I', "Ile", "Isoleucine", aminoAcidComposition{H: 11, C: 6, N: 1, O: 1}},
	{'K', "Lys", "Lysine", aminoAcidComposition{H: 12, C: 6, N: 2, O: 1}},
	{'L', "Leu", "Leucine", aminoAcidComposition{H: 11, C: 6, N: 1, O: 1}},
	{'M', "Met", "Methionine", aminoAcidComposition{H: 9, C: 5, N: 1, O: 1, S: 1}},
	{'N', "Asn", "Asparagine", aminoAcidComposition{H: 6, C: 4, N: 2, O: 2}},
	{'P', "Pro", "Proline", aminoAcidComposition{H: 7, C: 5, N: 1, O: 1}},
	{'Q', "Gln", "Glutamine", aminoAcidComposition{H: 8, C: 5, N: 2, O: 2}},
	{'R', "Arg", "Arginine", aminoAcidComposition{H: 12, C: 6, N: 4, O: 1}},
	{'S', "Ser", "Serine", aminoAcidComposition{H: 5, C: 3, N: 1, O: 2}},
	{'T', "Thr", "Threonine", aminoAcidComposition{H: 7, C: 4, N: 1, O: 2}},
	{'V', "Val", "Valine", aminoAcidComposition{H: 9, C: 5, N: 1, O: 1}},
	{'W', "Trp", "Tryptophan", aminoAcidComposition{H: 10, C: 11, N: 2, O: 1}},
	{'Y', "Tyr", "Tyrosine", aminoAcidComposition{H: 9, C: 9, N: 1, O: 2}},
	{PeptideNTerm, "PeN", "Peptide N-term", aminoAcidComposition{H: 1}},
	{PeptideCTerm, "PeC", "Peptide C-term", aminoAcidComposition{H: 1, O: 1}},
	{ProteinNTerm, "PrN", "Protein N-term", aminoAcidComposition{H: 1}},
	{ProteinCTerm, "PrC", "Protein C-term", aminoAcidComposition{H: 1, O: 1}},
}

func (c aminoAcidComposition) stoichiometry() Stoichiometry {
	ids := DefaultSymbolToID()
	var s Stoichiometry
	s.Set(ids["H"], c.H)
	s.Set(ids["C"], c.C)
	s.Set(ids["N"], c.N)
	s.Set(ids["O"], c.O)
	s.Set(ids["S"], c.S)
	return s
}

var aminoAcids = struct {
	once sync.Once
	mu   sync.RWMutex
	m    map[rune]AminoAcid
}{}

func aminoAcidTable() map[rune]AminoAcid {
	aminoAcids.once.Do(func() {
		aminoAcids.m = make(map[rune]AminoAcid, len(standardAminoAcids))
		for _, aa := range standardAminoAcids {
			aminoAcids.m[aa.key] = AminoAcid{
				Key:             aa.key,
				ThreeLetterCode: aa.tlc,
				FullName:        aa.fullName,
				Stoichiometry:   aa.comp.stoichiometry(),
			}
		}
	})
	return aminoAcids.m
}

// AddAminoAcid interns a custom residue. An existing key is never
// overwritten; the result reports whether the stored entry equals aa.
func AddAminoAcid(aa AminoAcid) bool {
	t := aminoAcidTable()
	aminoAcids.mu.Lock()
	defer aminoAcids.mu.Unlock()

	if stored, ok := t[aa.Key]; ok {
		return stored.Equal(aa)
	}
	aa.Stoichiometry = aa.Stoichiometry.Clone()
	t[aa.Key] = aa
	return true
}

// GetAminoAcid returns the residue registered under key.
func GetAminoAcid(key rune) (AminoAcid, error) {
	t := aminoAcidTable()
	aminoAcids.mu.RLock()
	defer aminoAcids.mu.RUnlock()

	aa, ok := t[key]
	if !ok {
		return AminoAcid{}, core.NotFound("chem.GetAminoAcid", "no amino acid with key %q", key)
	}
	return aa, nil
}

// AminoAcidKeyFor resolves a one-letter code, a three-letter code, a full
// name or a terminus name ("n-term", "protein c-term", ...) to a residue key.
// Names are matched exactly first, then case-insensitively.
func AminoAcidKeyFor(name string) (rune, error) {
	const op = "chem.AminoAcidKeyFor"

	lower := strings.ToLower(name)
	if rs := []rune(name); len(rs) == 1 {
		key := []rune(strings.ToUpper(name))[0]
		if _, err := GetAminoAcid(key); err != nil {
			return 0, core.NotFound(op, "cannot find amino acid %q", name)
		}
		return key, nil
	}
	switch lower {
	case "n-term", "peptide n-term":
		return PeptideNTerm, nil
	case "c-term", "peptide c-term":
		return PeptideCTerm, nil
	case "protein n-term":
		return ProteinNTerm, nil
	case "protein c-term":
		return ProteinCTerm, nil
	}

	field := func(aa AminoAcid) string { return aa.FullName }
	if len(name) == 3 {
		field = func(aa AminoAcid) string { return aa.ThreeLetterCode }
	}
	t := aminoAcidTable()
	aminoAcids.mu.RLock()
	defer aminoAcids.mu.RUnlock()
	for _, aa := range t {
		if field(aa) == name {
			return aa.Key, nil
		}
	}
	for _, aa := range t {
		if strings.ToLower(field(aa)) == lower {
			return aa.Key, nil
		}
	}
	return 0, core.NotFound(op, "cannot find amino acid %q", name)
}

// PeptideStoichiometry returns the composition of an unmodified peptide,
// including both peptide termini.
func PeptideStoichiometry(sequence string) (Stoichiometry, error) {
	var s Stoichiometry
	for _, key := range []rune{PeptideNTerm, PeptideCTerm} {
		aa, err := GetAminoAcid(key)
		if err != nil {
			return Stoichiometry{}, err
		}
		s.AddAll(aa.Stoichiometry)
	}
	for _, r := range sequence {
		aa, err := GetAminoAcid(r)
		if err != nil {
			return Stoichiometry{}, err
		}
		s.AddAll(aa.Stoichiometry)
	}
	return s, nil
}
