package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/psf"
	"github.com/ChrisMcGann/mstk/pkg/reader/spectrum"
)

var (
	// Flags for fwhm command
	fwhmSpectra string
	fwhmModel   string
	fwhmAt      []float64
)

var fwhmCmd = &cobra.Command{
	Use:   "fwhm",
	Short: "Learn a peak width model from profile spectra",
	Long: `Measure the full width at half maximum of the pure peaks in profile spectra
and fit an instrument model by non-negative least squares.

Models: constant, orbitrap, orbitrap-origin, tof, ft-icr

Example:
  mstk fwhm --in run.spectra --model orbitrap --at 400 --at 800`,
	RunE: runFwhm,
}

func init() {
	fwhmCmd.Flags().StringVarP(&fwhmSpectra, "in", "i", "", "Profile spectra file (required)")
	fwhmCmd.Flags().StringVar(&fwhmModel, "model", "", "Model name (default from config)")
	fwhmCmd.Flags().Float64SliceVar(&fwhmAt, "at", nil, "m/z values to evaluate the learned width at")
	fwhmCmd.MarkFlagRequired("in")
}

func runFwhm(cmd *cobra.Command, args []string) error {
	model := fwhmModel
	if model == "" {
		model = cfg.Fwhm.Model
	}
	f, err := learnFwhm(fwhmSpectra, model)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, psf.Describe(f.Model()))
	for _, mz := range fwhmAt {
		w, err := f.At(mz)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%g\t%g\n", mz, w)
	}
	return nil
}

// learnFwhm fits the named model to the widths of all pure peaks of every
// spectrum in path.
func learnFwhm(path, model string) (*psf.Fwhm, error) {
	m, err := psf.NewModel(model)
	if err != nil {
		return nil, err
	}

	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spectra: %w", err)
	}
	defer in.Close()

	mz := func(e core.SpectrumElement) float64 { return e.Mz }
	ab := func(e core.SpectrumElement) float64 { return e.Abundance }

	var widths []psf.Width
	reader := spectrum.NewReader(in, path)
	for reader.Next() {
		spec := reader.Spectrum()
		if !spec.IsSorted() {
			spec.Sort()
		}
		ws, err := psf.MeasureFullWidths(spec.Elements, mz, ab, 0.5, cfg.Fwhm.MinHeight)
		if err != nil {
			return nil, fmt.Errorf("scan %d: %w", spec.ScanNumber, err)
		}
		widths = append(widths, ws...)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading spectra: %w", err)
	}

	f := psf.NewFwhm(m, psf.WithLogger(logger.Named("fwhm")), psf.WithMinHeight(cfg.Fwhm.MinHeight))
	if err := f.LearnFromWidths(widths); err != nil {
		return nil, err
	}
	logger.Info("learned peak width", zap.String("model", psf.Describe(f.Model())), zap.Int("peaks", len(widths)))
	return f, nil
}
