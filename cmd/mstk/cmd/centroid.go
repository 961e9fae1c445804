package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/core"
	"github.com/ChrisMcGann/mstk/pkg/fe"
	"github.com/ChrisMcGann/mstk/pkg/reader/spectrum"
	"github.com/ChrisMcGann/mstk/pkg/writer/tsv"
)

var (
	// Flags for centroid command
	spectraFile   string
	centroidsFile string
)

var centroidCmd = &cobra.Command{
	Use:   "centroid",
	Short: "Centroid profile spectra into a centroid table",
	Long: `Reduce profile spectra to one centroid per peak. The configured filter is
applied to the centroids before they are written.

Example:
  mstk centroid --in run.spectra --out run.tsv`,
	RunE: runCentroid,
}

func init() {
	centroidCmd.Flags().StringVarP(&spectraFile, "in", "i", "", "Profile spectra file (required)")
	centroidCmd.Flags().StringVarP(&centroidsFile, "out", "o", "", "Output centroid table (default stdout)")
	centroidCmd.MarkFlagRequired("in")
}

func runCentroid(cmd *cobra.Command, args []string) error {
	in, err := os.Open(spectraFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	centroider := fe.NewCentroider(logger.Named("centroider"))
	reader := spectrum.NewReader(in, spectraFile)

	var cs []core.Centroid
	count := 0
	for reader.Next() {
		spec := reader.Spectrum()
		if !spec.IsSorted() {
			spec.Sort()
		}
		got, err := centroider.Centroid(*spec)
		if err != nil {
			return fmt.Errorf("scan %d: %w", spec.ScanNumber, err)
		}
		cs = append(cs, got...)
		count++
	}
	if err := reader.Err(); err != nil {
		return fmt.Errorf("error reading input file: %w", err)
	}

	kept, err := cfg.Filter.Apply(cs)
	if err != nil {
		return err
	}
	logger.Info("centroided",
		zap.Int("spectra", count),
		zap.Int("centroids", len(cs)),
		zap.Int("kept", len(kept)))

	var out io.Writer = cmd.OutOrStdout()
	if centroidsFile != "" {
		f, err := os.Create(centroidsFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	w := tsv.NewWriter(out)
	if err := w.WriteCentroids(kept); err != nil {
		return err
	}
	return w.Flush()
}
