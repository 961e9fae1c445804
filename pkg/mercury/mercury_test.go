package mercury

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/mstk/pkg/chem"
	"github.com/ChrisMcGann/mstk/pkg/core"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

// registerTestElement adds a fresh element with the given isotopes.
func registerTestElement(t *testing.T, symbol string, isotopes []chem.Isotope) chem.ElementID {
	t.Helper()
	id := chem.NextFreeID()
	require.True(t, chem.AddElement(id, symbol, 0, isotopes))
	return id
}

func TestMercuryProtonatedWater(t *testing.T) {
	water := chem.MustParseFormula("H2O")
	spec, err := Mercury(water, 1, Proton, DefaultLimit)
	require.NoError(t, err)

	require.GreaterOrEqual(t, spec.Len(), 5)
	assert.InDelta(t, 19.01784, spec.Elements[0].Mz, 1e-3)
	// 0.99985^3 * 0.99759 from the element table
	assert.InDelta(t, 0.99714, spec.Elements[0].Abundance, 1e-3)
	assert.InDelta(t, 1.0, spec.TotalAbundance(), 1e-9)
	assert.Equal(t, 1, spec.PrecursorCharge)
	assert.True(t, spec.IsSorted())
}

func TestMercuryBinaryExponentiation(t *testing.T) {
	isotopes := []chem.Isotope{{Mz: 1.0, Abundance: 0.5}, {Mz: 2.0, Abundance: 0.5}}
	x := registerTestElement(t, "Xa", isotopes)

	want := []core.SpectrumElement{
		{Mz: 4, Abundance: 0.0625},
		{Mz: 5, Abundance: 0.25},
		{Mz: 6, Abundance: 0.375},
		{Mz: 7, Abundance: 0.25},
		{Mz: 8, Abundance: 0.0625},
	}

	var s chem.Stoichiometry
	s.Set(x, 4)
	got, err := Mercury(s, 0, Electron, DefaultLimit)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got.Elements, approx); diff != "" {
		t.Errorf("count=4 mismatch (-want +got):\n%s", diff)
	}

	// four single atoms of identical elements give the same envelope
	var replicated chem.Stoichiometry
	replicated.Set(x, 1)
	for i := 0; i < 3; i++ {
		replicated.Set(registerTestElement(t, "Xa", isotopes), 1)
	}
	got, err = Mercury(replicated, 0, Electron, DefaultLimit)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got.Elements, approx); diff != "" {
		t.Errorf("replicated mismatch (-want +got):\n%s", diff)
	}
}

func TestMercuryEquivalentDecompositions(t *testing.T) {
	h, err := chem.ElementBySymbol("H")
	require.NoError(t, err)
	o, err := chem.ElementBySymbol("O")
	require.NoError(t, err)
	hCopy := registerTestElement(t, "H", h.Isotopes)

	whole := chem.NewStoichiometry(map[chem.ElementID]float64{h.ID: 2, o.ID: 1})
	split := chem.NewStoichiometry(map[chem.ElementID]float64{h.ID: 1, hCopy: 1, o.ID: 1})

	a, err := Mercury(whole, 0, Electron, DefaultLimit)
	require.NoError(t, err)
	b, err := Mercury(split, 0, Electron, DefaultLimit)
	require.NoError(t, err)
	if diff := cmp.Diff(a.Elements, b.Elements, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("decompositions differ (-whole +split):\n%s", diff)
	}
}

func TestMercuryCharges(t *testing.T) {
	x := registerTestElement(t, "Xb", []chem.Isotope{{Mz: 10.0, Abundance: 1.0}})
	var s chem.Stoichiometry
	s.Set(x, 2)

	tests := []struct {
		name     string
		charge   int
		particle Particle
		wantMz   float64
	}{
		{"neutral", 0, Electron, 20},
		{"electron +2", 2, Electron, (20 - 2*ElectronMass) / 2},
		{"electron -1", -1, Electron, 20 + ElectronMass},
		{"neutral proton", 0, Proton, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Mercury(s, tt.charge, tt.particle, DefaultLimit)
			require.NoError(t, err)
			require.Equal(t, 1, spec.Len())
			assert.InDelta(t, tt.wantMz, spec.Elements[0].Mz, 1e-12)
		})
	}
}

func TestMercuryDeprotonation(t *testing.T) {
	water := chem.MustParseFormula("H2O")
	spec, err := Mercury(water, -1, Proton, DefaultLimit)
	require.NoError(t, err)
	want := 1.0078246 + 15.9949141 + ElectronMass
	assert.InDelta(t, want, spec.Elements[0].Mz, 1e-6)

	_, err = Mercury(water, -3, Proton, DefaultLimit)
	assert.ErrorIs(t, err, core.ErrInvariantViolation)

	_, err = Mercury(chem.MustParseFormula("CO2"), -1, Proton, DefaultLimit)
	assert.ErrorIs(t, err, core.ErrInvariantViolation)

	// protonating a hydrogen-free composition adds the hydrogen
	spec, err = Mercury(chem.MustParseFormula("CO2"), 1, Proton, DefaultLimit)
	require.NoError(t, err)
	assert.InDelta(t, 12+2*15.9949141+1.0078246-ElectronMass, spec.Elements[0].Mz, 1e-6)
}

func TestMercuryFailures(t *testing.T) {
	water := chem.MustParseFormula("H2O")

	_, err := Mercury(water, 0, Electron, -1)
	assert.ErrorIs(t, err, core.ErrPreconditionViolation)

	_, err = Mercury(chem.MustParseFormula("H2O-1"), 0, Electron, DefaultLimit)
	assert.ErrorIs(t, err, core.ErrPreconditionViolation)

	spec, err := Mercury(chem.Stoichiometry{}, 1, Proton, DefaultLimit)
	require.NoError(t, err)
	assert.Equal(t, 0, spec.Len())
}

func TestMercuryFractional(t *testing.T) {
	spec, err := Mercury(chem.MustParseFormula("C0.5"), 0, Electron, DefaultLimit)
	require.NoError(t, err)
	want := []core.SpectrumElement{
		{Mz: 6, Abundance: 0.5 + 0.98893*0.5},
		{Mz: 7.0033554, Abundance: 0.01107 * 0.5},
	}
	if diff := cmp.Diff(want, spec.Elements, approx); diff != "" {
		t.Errorf("fractional mismatch (-want +got):\n%s", diff)
	}

	mixed, err := Mercury(chem.MustParseFormula("H2C0.5"), 0, Electron, DefaultLimit)
	require.NoError(t, err)
	assert.InDelta(t, 2*1.0078246+6, mixed.Elements[0].Mz, 1e-9)
	assert.InDelta(t, 1.0, mixed.TotalAbundance(), 1e-9)
}

func TestMercuryEnvelopeProperties(t *testing.T) {
	s, err := chem.PeptideStoichiometry("PEPTIDEKR")
	require.NoError(t, err)

	for _, limit := range []float64{DefaultLimit, 1e-6} {
		spec, err := Mercury(s, 2, Proton, limit)
		require.NoError(t, err)
		require.NotZero(t, spec.Len())

		for i, el := range spec.Elements {
			assert.GreaterOrEqual(t, el.Abundance, 0.0)
			assert.LessOrEqual(t, el.Abundance, 1.0+1e-9)
			if i > 0 {
				assert.Greater(t, el.Mz, spec.Elements[i-1].Mz)
			}
		}
		assert.LessOrEqual(t, spec.TotalAbundance(), 1.0+1e-9)
	}

	// without pruning the full envelope is kept
	water := chem.MustParseFormula("H2O")
	full, err := Mercury(water, 0, Electron, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, full.Len())
	assert.InDelta(t, 1.0, full.TotalAbundance(), 1e-12)

	// a coarse limit prunes the tail
	fine, err := Mercury(s, 2, Proton, DefaultLimit)
	require.NoError(t, err)
	coarse, err := Mercury(s, 2, Proton, 1e-6)
	require.NoError(t, err)
	assert.Less(t, coarse.Len(), fine.Len())
}

func TestConvolveAndPrune(t *testing.T) {
	a := distribution{{Mz: 1, Abundance: 0.5}, {Mz: 2, Abundance: 0.5}}
	assert.Nil(t, convolve(a, nil))
	assert.Nil(t, convolve(nil, a))

	zero := distribution{{Mz: 1, Abundance: 0}, {Mz: 2, Abundance: 1}}
	got := convolve(zero, zero)
	require.Len(t, got, 3)
	assert.Equal(t, 0.0, got[0].Mz, "zero-abundance slots carry no mass")
	assert.Equal(t, 0.0, got[0].Abundance)
	assert.Equal(t, 4.0, got[2].Mz)

	d := distribution{
		{Mz: 1, Abundance: 1e-30},
		{Mz: 2, Abundance: 0.4},
		{Mz: 3, Abundance: 1e-30},
		{Mz: 4, Abundance: 0.6},
		{Mz: 5, Abundance: 1e-20},
		{Mz: 6, Abundance: 1e-30},
	}
	assert.Len(t, prune(d, 0), 6)
	pruned := prune(d, 1e-26)
	require.Len(t, pruned, 4)
	assert.Equal(t, 2.0, pruned[0].Mz)
	assert.Equal(t, 5.0, pruned[3].Mz)
	assert.Len(t, prune(d, 1), 0)
}

func TestMassQueries(t *testing.T) {
	water := chem.MustParseFormula("H2O")
	mono, err := MonoisotopicMass(water)
	require.NoError(t, err)
	assert.InDelta(t, 18.0105633, mono, 1e-6)

	avg, err := AverageMass(water)
	require.NoError(t, err)
	assert.Greater(t, avg, mono)

	assert.Equal(t, 1000.0, Mz(1000, 0, Proton))
	assert.InDelta(t, (1000+2*chem.ProtonMass)/2, Mz(1000, 2, Proton), 1e-12)
	assert.InDelta(t, 1000+ElectronMass, Mz(1000, -1, Electron), 1e-12)
}

func TestParseParticle(t *testing.T) {
	p, err := ParseParticle("proton")
	require.NoError(t, err)
	assert.Equal(t, Proton, p)
	p, err = ParseParticle("electron")
	require.NoError(t, err)
	assert.Equal(t, Electron, p)
	_, err = ParseParticle("neutron")
	assert.ErrorIs(t, err, core.ErrPreconditionViolation)
	assert.Equal(t, "proton", Proton.String())
	assert.False(t, math.IsNaN(Mz(1, 1, Particle(7))))
}
