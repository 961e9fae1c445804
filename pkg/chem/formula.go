package chem

import (
	"strconv"
	"unicode"

	"github.com/ChrisMcGann/mstk/pkg/core"
)

// ParseFormula parses a chemical formula such as "C6H12O6", "H-1N-1O" or
// "[13C]2C4". Bracketed symbols name isotopologue entries of the element
// table. Counts may be signed and fractional; repeated symbols accumulate.
func ParseFormula(formula string) (Stoichiometry, error) {
	const op = "chem.ParseFormula"

	var s Stoichiometry
	rs := []rune(formula)
	i := 0
	for i < len(rs) {
		if unicode.IsSpace(rs[i]) {
			i++
			continue
		}

		var symbol string
		switch {
		case rs[i] == '[':
			j := i + 1
			for j < len(rs) && rs[j] != ']' {
				j++
			}
			if j == len(rs) {
				return Stoichiometry{}, core.Precondition(op, "unterminated bracket in %q", formula)
			}
			symbol = string(rs[i+1 : j])
			i = j + 1
		case unicode.IsUpper(rs[i]):
			j := i + 1
			for j < len(rs) && unicode.IsLower(rs[j]) {
				j++
			}
			symbol = string(rs[i:j])
			i = j
		default:
			return Stoichiometry{}, core.Precondition(op, "unexpected %q at position %d in %q", rs[i], i, formula)
		}
		if symbol == "" {
			return Stoichiometry{}, core.Precondition(op, "empty element symbol in %q", formula)
		}

		j := i
		if j < len(rs) && (rs[j] == '-' || rs[j] == '+') {
			j++
		}
		for j < len(rs) && (unicode.IsDigit(rs[j]) || rs[j] == '.') {
			j++
		}
		count := 1.0
		if j > i {
			c, err := strconv.ParseFloat(string(rs[i:j]), 64)
			if err != nil {
				return Stoichiometry{}, core.Precondition(op, "invalid count %q for %s in %q", string(rs[i:j]), symbol, formula)
			}
			count = c
		}
		i = j

		e, err := ElementBySymbol(symbol)
		if err != nil {
			return Stoichiometry{}, err
		}
		s.Add(e.ID, count)
	}
	return s, nil
}

// MustParseFormula is like ParseFormula but panics on error. It is meant for
// package-level tables.
func MustParseFormula(formula string) Stoichiometry {
	s, err := ParseFormula(formula)
	if err != nil {
		panic(err)
	}
	return s
}
