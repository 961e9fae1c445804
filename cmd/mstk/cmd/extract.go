package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/mstk/pkg/pipeline"
)

var (
	// Flags for extract command
	outputPath   string
	outputFormat string
	threads      int
	fwhmFrom     string
)

var extractCmd = &cobra.Command{
	Use:   "extract [centroid files...]",
	Short: "Extract XICs and isotope patterns from centroid tables",
	Long: `Extract XICs and isotope patterns from centroid tables (mz, rt, scan,
abundance) and store them in a SQLite database or TSV tables.

Examples:
  # Extract with the default configuration into features.db
  mstk extract run1.tsv run2.tsv

  # Use fwhm boxes learned from profile spectra, write TSV tables
  mstk extract --fwhm-from run1.spectra --format tsv --out results run1.tsv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output database or directory (default from config)")
	extractCmd.Flags().StringVar(&outputFormat, "format", "", "Output format: sqlite or tsv (default from config)")
	extractCmd.Flags().IntVar(&threads, "threads", 0, "Number of files processed in parallel (default from config)")
	extractCmd.Flags().StringVar(&fwhmFrom, "fwhm-from", "", "Profile spectra to learn the peak width from (implies fwhm boxes)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	if threads > 0 {
		cfg.Threads = threads
	}

	var opts []pipeline.Option
	opts = append(opts, pipeline.WithLogger(logger))
	if fwhmFrom != "" {
		f, err := learnFwhm(fwhmFrom, cfg.Fwhm.Model)
		if err != nil {
			return fmt.Errorf("failed to learn peak width: %w", err)
		}
		cfg.Xic.Boxes = "fwhm"
		opts = append(opts, pipeline.WithFwhm(f))
	}

	p, err := pipeline.New(cfg, opts...)
	if err != nil {
		return err
	}
	sink, err := pipeline.NewSink(cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := p.RunFiles(cmd.Context(), args, sink); err != nil {
		sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	logger.Info("extraction complete",
		zap.Int("files", len(args)),
		zap.String("output", cfg.Output.Path),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
